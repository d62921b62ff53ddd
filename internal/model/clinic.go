package model

import (
	"time"

	"github.com/google/uuid"
)

type Clinic struct {
	Base
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
	Phone   string `db:"phone" json:"phone"`
	Email   string `db:"email" json:"email"`
	Status  string `db:"status" json:"status"`
}

type Doctor struct {
	Base
	Name      string `db:"name" json:"name"`
	Specialty string `db:"specialty" json:"specialty"`
	Email     string `db:"email" json:"email"`
	Status    string `db:"status" json:"status"`
}

// DoctorClinic is the association record required before any scheduling
// configuration may exist for the pair.
type DoctorClinic struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
