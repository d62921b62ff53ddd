package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/model"
)

const appointmentColumns = `id, doctor_id, clinic_id, patient_id, slot_id, date,
		   queue_position, status, payment_status, source, cancel_reason,
		   created_at, updated_at`

func (r *appointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, clinic_id, patient_id, slot_id, date,
			queue_position, status, payment_status, source, cancel_reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		apt.ID,
		apt.DoctorID,
		apt.ClinicID,
		apt.PatientID,
		apt.SlotID,
		apt.Date,
		apt.QueuePosition,
		apt.Status,
		apt.PaymentStatus,
		apt.Source,
		apt.CancelReason,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error {
	query := `
		UPDATE appointments
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := tx.ExecContext(ctx, query, status, cancelReason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}

	if filters.ClinicID != uuid.Nil {
		query += fmt.Sprintf(" AND clinic_id = $%d", argCount)
		args = append(args, filters.ClinicID)
		argCount++
	}

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND date <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY date ASC, created_at ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// LockQueueTx takes a transaction-scoped advisory lock keyed on the queue
// day, so concurrent queue bookings assign positions serially.
func (r *appointmentRepository) LockQueueTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) error {
	query := `SELECT pg_advisory_xact_lock(hashtext($1))`
	key := fmt.Sprintf("queue:%s:%s:%s", doctorID, clinicID, date.Format("2006-01-02"))
	if _, err := tx.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to lock queue day: %w", err)
	}
	return nil
}

func (r *appointmentRepository) MaxQueuePositionTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(queue_position), 0)
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		AND queue_position IS NOT NULL
	`
	var max int
	err := tx.GetContext(ctx, &max, query, doctorID, clinicID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to get max queue position: %w", err)
	}
	return max, nil
}

func (r *appointmentRepository) CountQueuedTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		AND queue_position IS NOT NULL AND status != $4
	`
	var count int
	err := tx.GetContext(ctx, &count, query, doctorID, clinicID, date, model.AppointmentStatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued appointments: %w", err)
	}
	return count, nil
}
