package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/model"
)

// All repository interfaces in one file
type (
	// ScheduleRepository manages weekly schedule template versions.
	// Closing a prior version and creating its replacement must share a
	// transaction so a day never has zero active templates mid-edit.
	ScheduleRepository interface {
		WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
		CreateTx(ctx context.Context, tx *sqlx.Tx, tmpl *model.WeeklyScheduleTemplate) error
		CloseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, effectiveTo time.Time) error
		Get(ctx context.Context, id uuid.UUID) (*model.WeeklyScheduleTemplate, error)
		List(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklyScheduleTemplate, error)
		// GetEffective returns the single active template governing the
		// given date, or nil when the doctor is not configured for that day.
		GetEffective(ctx context.Context, doctorID, clinicID uuid.UUID, dayOfWeek int, date time.Time) (*model.WeeklyScheduleTemplate, error)
		ListActiveForDay(ctx context.Context, doctorID, clinicID uuid.UUID, dayOfWeek int) ([]*model.WeeklyScheduleTemplate, error)
		// ListActivePairs enumerates distinct doctor/clinic pairs that
		// currently have at least one active template.
		ListActivePairs(ctx context.Context) ([]*model.DoctorClinic, error)
		NextVersionTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, dayOfWeek int) (int, error)
	}

	OverrideRepository interface {
		Upsert(ctx context.Context, override *model.ScheduleOverride) error
		Get(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (*model.ScheduleOverride, error)
		Delete(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) error
		ListRange(ctx context.Context, doctorID, clinicID uuid.UUID, from, to time.Time) ([]*model.ScheduleOverride, error)
	}

	SlotRepository interface {
		WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		ListForDate(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error)
		ListForDateTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error)
		InsertTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.SlotStatus) error
		// ResizeTx rewrites a non-booked generated slot's interval and
		// origin references in place.
		ResizeTx(ctx context.Context, tx *sqlx.Tx, slot *model.Slot) error
		DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
		// ClaimTx performs the conditional update that decides booking
		// races: it books the slot only if it is still available and
		// reports whether this caller won.
		ClaimTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error)
		ReleaseTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
		ListFutureBooked(ctx context.Context, doctorID, clinicID uuid.UUID, from time.Time) ([]*model.Slot, error)
	}

	AppointmentRepository interface {
		WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
		CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// LockQueueTx serializes queue bookings for one (doctor, clinic,
		// date) so positions are assigned without gaps or duplicates.
		LockQueueTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) error
		MaxQueuePositionTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) (int, error)
		CountQueuedTx(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time) (int, error)
	}

	WorkSettingsRepository interface {
		Upsert(ctx context.Context, settings *model.WorkSettings) error
		Get(ctx context.Context, clinicID, doctorID uuid.UUID) (*model.WorkSettings, error)
	}

	ClinicRepository interface {
		GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		AssociationExists(ctx context.Context, doctorID, clinicID uuid.UUID) (bool, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus) error
	}
)
