package model

import (
	"github.com/google/uuid"
)

type ActorType string

const (
	ActorTypeDoctor    ActorType = "doctor"
	ActorTypeClinic    ActorType = "clinic"
	ActorTypeSecretary ActorType = "secretary"
)

// Actor is the authenticated identity behind a request, issued by the
// external identity provider and carried in its JWT. For clinic and
// secretary actors ClinicID is the clinic they act for; for doctors it is
// zero and authorization is checked against the doctor id itself.
type Actor struct {
	Type     ActorType `json:"type"`
	ID       uuid.UUID `json:"id"`
	ClinicID uuid.UUID `json:"clinic_id,omitempty"`
}

// MayManage reports whether the actor may change scheduling configuration
// for the given (doctor, clinic) pair.
func (a Actor) MayManage(doctorID, clinicID uuid.UUID) bool {
	switch a.Type {
	case ActorTypeDoctor:
		return a.ID == doctorID
	case ActorTypeClinic:
		return a.ID == clinicID
	case ActorTypeSecretary:
		return a.ClinicID == clinicID
	default:
		return false
	}
}
