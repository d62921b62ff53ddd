package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type AppointmentSource string

const (
	AppointmentSourceApp       AppointmentSource = "app"
	AppointmentSourceWeb       AppointmentSource = "web"
	AppointmentSourceSecretary AppointmentSource = "secretary"
)

// Appointment links a patient to a claimed slot (fixed-slot method) or to a
// per-day queue position (queue method). A scheduled appointment holds the
// exclusive claim on its slot: the slot is booked iff a non-cancelled
// appointment references it.
type Appointment struct {
	Base
	DoctorID      uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ClinicID      uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	PatientID     uuid.UUID         `db:"patient_id" json:"patient_id"`
	SlotID        *uuid.UUID        `db:"slot_id" json:"slot_id,omitempty"`
	Date          time.Time         `db:"date" json:"date"`
	QueuePosition *int              `db:"queue_position" json:"queue_position,omitempty"`
	Status        AppointmentStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus     `db:"payment_status" json:"payment_status"`
	Source        AppointmentSource `db:"source" json:"source"`
	CancelReason  *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type BookSlotRequest struct {
	SlotID    uuid.UUID         `json:"slot_id" binding:"required"`
	PatientID uuid.UUID         `json:"patient_id" binding:"required"`
	Source    AppointmentSource `json:"source" binding:"omitempty,oneof=app web secretary"`
}

type BookQueueRequest struct {
	DoctorID  uuid.UUID         `json:"doctor_id" binding:"required"`
	ClinicID  uuid.UUID         `json:"clinic_id" binding:"required"`
	Date      string            `json:"date" binding:"required,datevalue"`
	PatientID uuid.UUID         `json:"patient_id" binding:"required"`
	Source    AppointmentSource `json:"source" binding:"omitempty,oneof=app web secretary"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}
