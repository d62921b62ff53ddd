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

func (r *overrideRepository) Upsert(ctx context.Context, override *model.ScheduleOverride) error {
	query := `
		INSERT INTO schedule_overrides (
			id, doctor_id, clinic_id, date, type, slots, reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (doctor_id, clinic_id, date)
		DO UPDATE SET type = EXCLUDED.type, slots = EXCLUDED.slots,
			reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at
	`
	if override.ID == uuid.Nil {
		override.ID = uuid.New()
		override.CreatedAt = time.Now()
	}
	override.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		override.ID,
		override.DoctorID,
		override.ClinicID,
		override.Date,
		override.Type,
		override.Slots,
		override.Reason,
		override.CreatedAt,
		override.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule override: %w", err)
	}
	return nil
}

func (r *overrideRepository) Get(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (*model.ScheduleOverride, error) {
	query := `
		SELECT id, doctor_id, clinic_id, date, type, slots, reason,
			   created_at, updated_at
		FROM schedule_overrides
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
	`
	var override model.ScheduleOverride
	err := r.db.GetContext(ctx, &override, query, doctorID, clinicID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule override: %w", err)
	}
	return &override, nil
}

func (r *overrideRepository) Delete(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) error {
	query := `
		DELETE FROM schedule_overrides
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
	`
	result, err := r.db.ExecContext(ctx, query, doctorID, clinicID, date)
	if err != nil {
		return fmt.Errorf("failed to delete schedule override: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule override not found")
	}

	return nil
}

func (r *overrideRepository) ListRange(ctx context.Context, doctorID, clinicID uuid.UUID, from, to time.Time) ([]*model.ScheduleOverride, error) {
	query := `
		SELECT id, doctor_id, clinic_id, date, type, slots, reason,
			   created_at, updated_at
		FROM schedule_overrides
		WHERE doctor_id = $1 AND clinic_id = $2
		AND date >= $3 AND date <= $4
		ORDER BY date ASC
	`
	var overrides []*model.ScheduleOverride
	err := r.db.SelectContext(ctx, &overrides, query, doctorID, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule overrides: %w", err)
	}
	return overrides, nil
}
