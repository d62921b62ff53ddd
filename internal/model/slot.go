package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
)

type SlotOrigin string

const (
	SlotOriginTemplate SlotOrigin = "template"
	SlotOriginOverride SlotOrigin = "override"
	SlotOriginManual   SlotOrigin = "manual"
)

// Slot is a materialized bookable interval for a doctor at a clinic on a
// concrete date. TemplateID or OverrideID records which configuration
// produced it; manual slots reference neither. No two slots for the same
// (doctor, clinic, date) may overlap, and (doctor, clinic, date, start_time)
// is unique at the database level.
type Slot struct {
	Base
	DoctorID   uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ClinicID   uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Date       time.Time  `db:"date" json:"date"`
	StartTime  string     `db:"start_time" json:"start_time"`
	EndTime    string     `db:"end_time" json:"end_time"`
	Status     SlotStatus `db:"status" json:"status"`
	Origin     SlotOrigin `db:"origin" json:"origin"`
	TemplateID *uuid.UUID `db:"template_id" json:"template_id,omitempty"`
	OverrideID *uuid.UUID `db:"override_id" json:"override_id,omitempty"`
}

// Interval returns the slot's [start, end) pair.
func (s *Slot) Interval() (string, string) {
	return s.StartTime, s.EndTime
}

type GenerateSlotsRequest struct {
	DoctorID uuid.UUID `form:"doctor_id" binding:"required"`
	ClinicID uuid.UUID `form:"clinic_id" binding:"required"`
	Date     string    `form:"date" binding:"required,datevalue"`
}
