package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/model"
)

const slotColumns = `id, doctor_id, clinic_id, date, start_time, end_time,
		   status, origin, template_id, override_id, created_at, updated_at`

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE id = $1
	`
	var slot model.Slot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) ListForDate(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		ORDER BY start_time ASC
	`
	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListForDateTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		ORDER BY start_time ASC
		FOR UPDATE
	`
	var slots []*model.Slot
	err := tx.SelectContext(ctx, &slots, query, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for update: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error {
	query := `
		INSERT INTO slots (
			id, doctor_id, clinic_id, date, start_time, end_time,
			status, origin, template_id, override_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.ClinicID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.Origin,
		slot.TemplateID,
		slot.OverrideID,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}
	return nil
}

func (r *slotRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.SlotStatus) error {
	query := `
		UPDATE slots
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := tx.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update slot status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// ResizeTx rewrites a generated slot onto the current grid. Booked slots
// are immutable and are never matched.
func (r *slotRepository) ResizeTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET start_time = $1, end_time = $2, status = $3, origin = $4,
		    template_id = $5, override_id = $6, updated_at = $7
		WHERE id = $8 AND status <> $9
	`
	slot.UpdatedAt = time.Now()
	result, err := tx.ExecContext(ctx, query,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.Origin,
		slot.TemplateID,
		slot.OverrideID,
		slot.UpdatedAt,
		slot.ID,
		model.SlotStatusBooked,
	)
	if err != nil {
		return fmt.Errorf("failed to resize slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("slot not found or booked")
	}

	return nil
}

func (r *slotRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query := `
		DELETE FROM slots
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return nil
}

// ClaimTx books the slot with a conditional update so concurrent bookers
// resolve to exactly one winner at the database.
func (r *slotRepository) ClaimTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE slots
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, query, model.SlotStatusBooked, time.Now(), id, model.SlotStatusAvailable)
	if err != nil {
		return false, fmt.Errorf("failed to claim slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *slotRepository) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, query, model.SlotStatusAvailable, time.Now(), id, model.SlotStatusBooked)
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("slot is not booked")
	}

	return nil
}

func (r *slotRepository) ListFutureBooked(ctx context.Context, doctorID, clinicID uuid.UUID, from time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE doctor_id = $1 AND clinic_id = $2
		AND date >= $3 AND status = $4
		ORDER BY date ASC, start_time ASC
	`
	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, doctorID, clinicID, from, model.SlotStatusBooked)
	if err != nil {
		return nil, fmt.Errorf("failed to list future booked slots: %w", err)
	}
	return slots, nil
}
