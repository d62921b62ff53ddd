package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/model"
)

func (r *workSettingsRepository) Upsert(ctx context.Context, settings *model.WorkSettings) error {
	query := `
		INSERT INTO work_settings (
			id, clinic_id, doctor_id, method, appointment_period,
			queue, queue_number, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (clinic_id, doctor_id)
		DO UPDATE SET method = EXCLUDED.method,
			appointment_period = EXCLUDED.appointment_period,
			queue = EXCLUDED.queue,
			queue_number = EXCLUDED.queue_number,
			updated_at = EXCLUDED.updated_at
	`
	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
		settings.CreatedAt = time.Now()
	}
	settings.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		settings.ID,
		settings.ClinicID,
		settings.DoctorID,
		settings.Method,
		settings.AppointmentPeriod,
		settings.Queue,
		settings.QueueNumber,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert work settings: %w", err)
	}
	return nil
}

func (r *workSettingsRepository) Get(ctx context.Context, clinicID, doctorID uuid.UUID) (*model.WorkSettings, error) {
	query := `
		SELECT id, clinic_id, doctor_id, method, appointment_period,
			   queue, queue_number, created_at, updated_at
		FROM work_settings
		WHERE clinic_id = $1 AND doctor_id = $2
	`
	var settings model.WorkSettings
	err := r.db.GetContext(ctx, &settings, query, clinicID, doctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work settings: %w", err)
	}
	return &settings, nil
}
