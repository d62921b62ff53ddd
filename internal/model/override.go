package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OverrideType string

const (
	OverrideTypeClosed OverrideType = "closed"
	OverrideTypeCustom OverrideType = "custom"
)

// OverrideInterval is one explicit bookable window on an overridden date.
// Custom intervals are not subdivided; each becomes exactly one slot.
type OverrideInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OverrideIntervalList is stored as a jsonb column.
type OverrideIntervalList []OverrideInterval

func (l OverrideIntervalList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *OverrideIntervalList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for OverrideIntervalList: %T", src)
	}
}

// ScheduleOverride is a date-specific exception that always wins over the
// weekly template: either a full closure or an explicit custom slot list.
// Unique per (doctor, clinic, date). Overrides only affect future slot
// materialization; appointments already booked on the date stay valid.
type ScheduleOverride struct {
	Base
	DoctorID uuid.UUID            `db:"doctor_id" json:"doctor_id"`
	ClinicID uuid.UUID            `db:"clinic_id" json:"clinic_id"`
	Date     time.Time            `db:"date" json:"date"`
	Type     OverrideType         `db:"type" json:"type"`
	Slots    OverrideIntervalList `db:"slots" json:"slots,omitempty"`
	Reason   *string              `db:"reason" json:"reason,omitempty"`
}

type SetOverrideRequest struct {
	DoctorID uuid.UUID          `json:"doctor_id" binding:"required"`
	ClinicID uuid.UUID          `json:"clinic_id" binding:"required"`
	Date     string             `json:"date" binding:"required,datevalue"`
	Type     OverrideType       `json:"type" binding:"required,oneof=closed custom"`
	Slots    []OverrideInterval `json:"slots" binding:"omitempty,dive"`
	Reason   *string            `json:"reason" binding:"omitempty,max=500"`
}
