package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	"github.com/clinichub/scheduling-api/internal/service/notification"
	slotsvc "github.com/clinichub/scheduling-api/internal/service/slot"
	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
	"github.com/clinichub/scheduling-api/pkg/metrics"
)

// Service claims slots for patients. The claim is a conditional update and
// appointment insert in one transaction, so two concurrent bookers on the
// same slot resolve to exactly one winner; the loser gets
// SlotUnavailableError and is expected to pick another slot.
type Service struct {
	slotRepo     repository.SlotRepository
	aptRepo      repository.AppointmentRepository
	settingsRepo repository.WorkSettingsRepository
	notifier     notification.Notifier
	slots        slotsvc.Invalidator
	metrics      *metrics.Metrics
}

func NewService(slotRepo repository.SlotRepository, aptRepo repository.AppointmentRepository, settingsRepo repository.WorkSettingsRepository, notifier notification.Notifier, slots slotsvc.Invalidator, m *metrics.Metrics) *Service {
	return &Service{
		slotRepo:     slotRepo,
		aptRepo:      aptRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		slots:        slots,
		metrics:      m,
	}
}

func (s *Service) Book(ctx context.Context, req *model.BookSlotRequest) (*model.Appointment, error) {
	slot, err := s.slotRepo.Get(ctx, req.SlotID)
	if err != nil {
		return nil, apperrors.NotFound("slot", err)
	}

	if slot.Status != model.SlotStatusAvailable {
		s.countBooking(metrics.OutcomeLost)
		return nil, apperrors.SlotUnavailable("slot is not available")
	}

	if dateBefore(slot.Date, today()) {
		return nil, apperrors.Validation("cannot book a slot in the past")
	}

	settings, err := s.settingsRepo.Get(ctx, slot.ClinicID, slot.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work settings: %w", err)
	}
	if settings != nil && settings.Method == model.BookingMethodQueue {
		return nil, apperrors.Validation("doctor takes queue bookings at this clinic, use the queue endpoint")
	}

	apt := &model.Appointment{
		DoctorID:      slot.DoctorID,
		ClinicID:      slot.ClinicID,
		PatientID:     req.PatientID,
		SlotID:        &slot.ID,
		Date:          slot.Date,
		Status:        model.AppointmentStatusScheduled,
		PaymentStatus: model.PaymentStatusUnpaid,
		Source:        sourceOrDefault(req.Source),
	}

	start := time.Now()
	err = s.slotRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		won, err := s.slotRepo.ClaimTx(ctx, tx, slot.ID)
		if err != nil {
			return err
		}
		if !won {
			return apperrors.SlotUnavailable("slot was booked concurrently")
		}
		return s.aptRepo.CreateTx(ctx, tx, apt)
	})
	if s.metrics != nil {
		s.metrics.BookingLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSlotUnavailable) {
			s.countBooking(metrics.OutcomeLost)
			return nil, err
		}
		return nil, fmt.Errorf("failed to book slot: %w", err)
	}

	s.countBooking(metrics.OutcomeWon)
	if s.slots != nil {
		s.slots.InvalidateDay(slot.DoctorID, slot.ClinicID, slot.Date)
	}
	s.notify(ctx, notification.EntityDoctor, slot.DoctorID, "New appointment",
		fmt.Sprintf("Slot %s-%s on %s was booked", slot.StartTime, slot.EndTime, slot.Date.Format(model.DateOnly)))

	return apt, nil
}

func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.aptRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}

	switch apt.Status {
	case model.AppointmentStatusCancelled:
		return nil, apperrors.Validation("appointment is already cancelled")
	case model.AppointmentStatusCompleted:
		return nil, apperrors.Validation("cannot cancel a completed appointment")
	}

	if dateBefore(apt.Date, today()) {
		return nil, apperrors.ImmutablePastSlot("cannot cancel an appointment whose date has passed")
	}

	var cancelReason *string
	if reason != "" {
		cancelReason = &reason
	}

	err = s.aptRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.aptRepo.UpdateStatusTx(ctx, tx, apt.ID, model.AppointmentStatusCancelled, cancelReason); err != nil {
			return err
		}
		if apt.SlotID != nil {
			return s.slotRepo.ReleaseTx(ctx, tx, *apt.SlotID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = cancelReason

	if s.metrics != nil {
		s.metrics.CancellationsTotal.Inc()
	}
	if s.slots != nil {
		s.slots.InvalidateDay(apt.DoctorID, apt.ClinicID, apt.Date)
	}
	s.notify(ctx, notification.EntityDoctor, apt.DoctorID, "Appointment cancelled",
		fmt.Sprintf("Appointment on %s was cancelled", apt.Date.Format(model.DateOnly)))

	return apt, nil
}

// BookQueue bypasses slots entirely: it assigns the next position in the
// day's queue, bounded by the pair's queue_number.
func (s *Service) BookQueue(ctx context.Context, req *model.BookQueueRequest) (*model.Appointment, error) {
	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		return nil, apperrors.Validationf("invalid date %q", req.Date)
	}
	if dateBefore(date, today()) {
		return nil, apperrors.Validation("cannot book a queue position in the past")
	}

	settings, err := s.settingsRepo.Get(ctx, req.ClinicID, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work settings: %w", err)
	}
	if settings == nil {
		return nil, apperrors.AssociationNotFound("no work settings for this doctor and clinic")
	}
	if !settings.Queue || settings.QueueNumber == nil {
		return nil, apperrors.Validation("queue booking is not enabled for this doctor and clinic")
	}

	apt := &model.Appointment{
		DoctorID:      req.DoctorID,
		ClinicID:      req.ClinicID,
		PatientID:     req.PatientID,
		Date:          date,
		Status:        model.AppointmentStatusScheduled,
		PaymentStatus: model.PaymentStatusUnpaid,
		Source:        sourceOrDefault(req.Source),
	}

	err = s.aptRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.aptRepo.LockQueueTx(ctx, tx, req.DoctorID, req.ClinicID, date); err != nil {
			return err
		}

		queued, err := s.aptRepo.CountQueuedTx(ctx, tx, req.DoctorID, req.ClinicID, date)
		if err != nil {
			return err
		}
		if queued >= *settings.QueueNumber {
			return apperrors.QueueFull(fmt.Sprintf("queue for %s is full (%d)", req.Date, *settings.QueueNumber))
		}

		max, err := s.aptRepo.MaxQueuePositionTx(ctx, tx, req.DoctorID, req.ClinicID, date)
		if err != nil {
			return err
		}
		position := max + 1
		apt.QueuePosition = &position

		return s.aptRepo.CreateTx(ctx, tx, apt)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrQueueFull) {
			s.countBooking(metrics.OutcomeQueueFull)
			return nil, err
		}
		return nil, fmt.Errorf("failed to book queue position: %w", err)
	}

	s.countBooking(metrics.OutcomeQueue)
	s.notify(ctx, notification.EntityDoctor, req.DoctorID, "New queue booking",
		fmt.Sprintf("Queue position %d on %s was taken", *apt.QueuePosition, req.Date))

	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.aptRepo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.aptRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) notify(ctx context.Context, entityType string, entityID uuid.UUID, title, body string) {
	if s.notifier == nil {
		return
	}
	// Best effort only.
	_ = s.notifier.Notify(ctx, entityType, entityID, title, body)
}

func (s *Service) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

func sourceOrDefault(source model.AppointmentSource) model.AppointmentSource {
	if source == "" {
		return model.AppointmentSourceApp
	}
	return source
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func dateBefore(a, b time.Time) bool {
	return a.Truncate(24 * time.Hour).Before(b.Truncate(24 * time.Hour))
}
