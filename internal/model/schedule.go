package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BreakInterval is a pause inside a working window, e.g. 12:00-12:30.
// Times use ClockFormat.
type BreakInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BreakList is stored as a jsonb column.
type BreakList []BreakInterval

func (b BreakList) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	return json.Marshal(b)
}

func (b *BreakList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported type for BreakList: %T", src)
	}
}

// WeeklyScheduleTemplate defines the recurring working hours of a doctor at a
// clinic for one day of the week. Templates are versioned: editing a schedule
// closes the current version (sets effective_to) and inserts a new one, so
// slots generated in the past keep their provenance.
type WeeklyScheduleTemplate struct {
	Base
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ClinicID        uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	DayOfWeek       int        `db:"day_of_week" json:"day_of_week"` // ISO 8601: 1=Monday .. 7=Sunday
	StartTime       string     `db:"start_time" json:"start_time"`
	EndTime         string     `db:"end_time" json:"end_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Breaks          BreakList  `db:"breaks" json:"breaks"`
	EffectiveFrom   time.Time  `db:"effective_from" json:"effective_from"`
	EffectiveTo     *time.Time `db:"effective_to" json:"effective_to,omitempty"`
	Version         int        `db:"version" json:"version"`
	IsActive        bool       `db:"is_active" json:"is_active"`
}

// EffectiveOn reports whether the template governs the given calendar date.
func (t *WeeklyScheduleTemplate) EffectiveOn(date time.Time) bool {
	if !t.IsActive || date.Before(t.EffectiveFrom) {
		return false
	}
	return t.EffectiveTo == nil || !date.After(*t.EffectiveTo)
}

type ScheduleEntryRequest struct {
	DayOfWeek       int             `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime       string          `json:"start_time" binding:"required,clocktime"`
	EndTime         string          `json:"end_time" binding:"required,clocktime"`
	DurationMinutes int             `json:"duration_minutes" binding:"omitempty,min=15,max=120"`
	Breaks          []BreakInterval `json:"breaks" binding:"omitempty,dive"`
}

type SetWeeklyScheduleRequest struct {
	DoctorID      uuid.UUID              `json:"doctor_id" binding:"required"`
	ClinicID      uuid.UUID              `json:"clinic_id" binding:"required"`
	Entries       []ScheduleEntryRequest `json:"entries" binding:"required,min=1,dive"`
	EffectiveFrom string                 `json:"effective_from" binding:"required,datevalue"`
	EffectiveTo   *string                `json:"effective_to" binding:"omitempty,datevalue"`
	// ConfirmOrphaned lets the caller accept that future booked slots left
	// without a covering template will be blocked rather than regenerated.
	ConfirmOrphaned bool `json:"confirm_orphaned"`
}

type ScheduleFilters struct {
	DoctorID  uuid.UUID
	ClinicID  uuid.UUID
	DayOfWeek int
	Date      *time.Time
}
