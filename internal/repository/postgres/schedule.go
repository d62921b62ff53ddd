package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/model"
)

func (r *scheduleRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, tmpl *model.WeeklyScheduleTemplate) error {
	query := `
		INSERT INTO weekly_schedule_templates (
			id, doctor_id, clinic_id, day_of_week,
			start_time, end_time, duration_minutes, breaks,
			effective_from, effective_to, version, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	tmpl.ID = uuid.New()
	tmpl.CreatedAt = time.Now()
	tmpl.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		tmpl.ID,
		tmpl.DoctorID,
		tmpl.ClinicID,
		tmpl.DayOfWeek,
		tmpl.StartTime,
		tmpl.EndTime,
		tmpl.DurationMinutes,
		tmpl.Breaks,
		tmpl.EffectiveFrom,
		tmpl.EffectiveTo,
		tmpl.Version,
		tmpl.IsActive,
		tmpl.CreatedAt,
		tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule template: %w", err)
	}
	return nil
}

func (r *scheduleRepository) CloseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, effectiveTo time.Time) error {
	query := `
		UPDATE weekly_schedule_templates
		SET effective_to = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := tx.ExecContext(ctx, query, effectiveTo, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to close schedule template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule template not found")
	}

	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.WeeklyScheduleTemplate, error) {
	query := `
		SELECT id, doctor_id, clinic_id, day_of_week,
			   start_time, end_time, duration_minutes, breaks,
			   effective_from, effective_to, version, is_active,
			   created_at, updated_at
		FROM weekly_schedule_templates
		WHERE id = $1
	`
	var tmpl model.WeeklyScheduleTemplate
	err := r.db.GetContext(ctx, &tmpl, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule template: %w", err)
	}
	return &tmpl, nil
}

func (r *scheduleRepository) List(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklyScheduleTemplate, error) {
	query := `
		SELECT id, doctor_id, clinic_id, day_of_week,
			   start_time, end_time, duration_minutes, breaks,
			   effective_from, effective_to, version, is_active,
			   created_at, updated_at
		FROM weekly_schedule_templates
		WHERE doctor_id = $1 AND clinic_id = $2
		ORDER BY day_of_week ASC, version DESC
	`
	var templates []*model.WeeklyScheduleTemplate
	err := r.db.SelectContext(ctx, &templates, query, doctorID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule templates: %w", err)
	}
	return templates, nil
}

func (r *scheduleRepository) GetEffective(ctx context.Context, doctorID, clinicID uuid.UUID, dayOfWeek int, date time.Time) (*model.WeeklyScheduleTemplate, error) {
	query := `
		SELECT id, doctor_id, clinic_id, day_of_week,
			   start_time, end_time, duration_minutes, breaks,
			   effective_from, effective_to, version, is_active,
			   created_at, updated_at
		FROM weekly_schedule_templates
		WHERE doctor_id = $1 AND clinic_id = $2 AND day_of_week = $3
		AND is_active = true
		AND effective_from <= $4
		AND (effective_to IS NULL OR effective_to >= $4)
		ORDER BY version DESC
		LIMIT 1
	`
	var tmpl model.WeeklyScheduleTemplate
	err := r.db.GetContext(ctx, &tmpl, query, doctorID, clinicID, dayOfWeek, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get effective schedule template: %w", err)
	}
	return &tmpl, nil
}

func (r *scheduleRepository) ListActiveForDay(ctx context.Context, doctorID, clinicID uuid.UUID, dayOfWeek int) ([]*model.WeeklyScheduleTemplate, error) {
	query := `
		SELECT id, doctor_id, clinic_id, day_of_week,
			   start_time, end_time, duration_minutes, breaks,
			   effective_from, effective_to, version, is_active,
			   created_at, updated_at
		FROM weekly_schedule_templates
		WHERE doctor_id = $1 AND clinic_id = $2 AND day_of_week = $3
		AND is_active = true
		ORDER BY version ASC
	`
	var templates []*model.WeeklyScheduleTemplate
	err := r.db.SelectContext(ctx, &templates, query, doctorID, clinicID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to list active schedule templates: %w", err)
	}
	return templates, nil
}

func (r *scheduleRepository) ListActivePairs(ctx context.Context) ([]*model.DoctorClinic, error) {
	query := `
		SELECT DISTINCT doctor_id, clinic_id
		FROM weekly_schedule_templates
		WHERE is_active = true
		AND (effective_to IS NULL OR effective_to >= CURRENT_DATE)
	`
	var pairs []*model.DoctorClinic
	err := r.db.SelectContext(ctx, &pairs, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active doctor/clinic pairs: %w", err)
	}
	return pairs, nil
}

func (r *scheduleRepository) NextVersionTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, dayOfWeek int) (int, error) {
	query := `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM weekly_schedule_templates
		WHERE doctor_id = $1 AND clinic_id = $2 AND day_of_week = $3
	`
	var version int
	err := tx.GetContext(ctx, &version, query, doctorID, clinicID, dayOfWeek)
	if err != nil {
		return 0, fmt.Errorf("failed to get next template version: %w", err)
	}
	return version, nil
}
