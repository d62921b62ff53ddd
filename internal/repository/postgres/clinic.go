package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/model"
)

func (r *clinicRepository) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `
		SELECT id, name, address, phone, email, status, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, name, specialty, email, status, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *clinicRepository) AssociationExists(ctx context.Context, doctorID, clinicID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM doctor_clinics
			WHERE doctor_id = $1 AND clinic_id = $2
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, doctorID, clinicID)
	if err != nil {
		return false, fmt.Errorf("failed to check doctor clinic association: %w", err)
	}
	return exists, nil
}
