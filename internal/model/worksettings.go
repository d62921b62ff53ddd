package model

import (
	"github.com/google/uuid"
)

type BookingMethod string

const (
	BookingMethodFixedSlot BookingMethod = "fixed_slot"
	BookingMethodQueue     BookingMethod = "queue"
)

// WorkSettings configures how a (clinic, doctor) pair takes bookings:
// discrete slots of AppointmentPeriod minutes, or an uncapped-granularity
// daily queue limited to QueueNumber patients.
type WorkSettings struct {
	Base
	ClinicID          uuid.UUID     `db:"clinic_id" json:"clinic_id"`
	DoctorID          uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Method            BookingMethod `db:"method" json:"method"`
	AppointmentPeriod int           `db:"appointment_period" json:"appointment_period"`
	Queue             bool          `db:"queue" json:"queue"`
	QueueNumber       *int          `db:"queue_number" json:"queue_number,omitempty"`
}

type SetWorkSettingsRequest struct {
	ClinicID          uuid.UUID     `json:"clinic_id" binding:"required"`
	DoctorID          uuid.UUID     `json:"doctor_id" binding:"required"`
	Method            BookingMethod `json:"method" binding:"required,oneof=fixed_slot queue"`
	AppointmentPeriod int           `json:"appointment_period" binding:"required,min=15,max=120"`
	Queue             bool          `json:"queue"`
	QueueNumber       *int          `json:"queue_number" binding:"omitempty,min=1"`
}
