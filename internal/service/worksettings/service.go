package worksettings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	slotsvc "github.com/clinichub/scheduling-api/internal/service/slot"
	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
)

const (
	MinAppointmentPeriod = 15
	MaxAppointmentPeriod = 120
)

// Service manages per (clinic, doctor) booking configuration: the booking
// method and appointment period consumed by the slot generator, and the
// queue cap consumed by the booking engine.
type Service struct {
	repo       repository.WorkSettingsRepository
	clinicRepo repository.ClinicRepository
	slots      slotsvc.Invalidator
}

func NewService(repo repository.WorkSettingsRepository, clinicRepo repository.ClinicRepository, slots slotsvc.Invalidator) *Service {
	return &Service{repo: repo, clinicRepo: clinicRepo, slots: slots}
}

func (s *Service) SetWorkSettings(ctx context.Context, actor model.Actor, req *model.SetWorkSettingsRequest) (*model.WorkSettings, error) {
	if !actor.MayManage(req.DoctorID, req.ClinicID) {
		return nil, apperrors.Forbidden("actor may not manage this doctor's settings")
	}

	if req.AppointmentPeriod < MinAppointmentPeriod || req.AppointmentPeriod > MaxAppointmentPeriod {
		return nil, apperrors.Validationf("appointment_period must be between %d and %d minutes", MinAppointmentPeriod, MaxAppointmentPeriod)
	}

	if req.Queue {
		if req.QueueNumber == nil || *req.QueueNumber < 1 {
			return nil, apperrors.Validation("queue_number is required and must be at least 1 when queue is enabled")
		}
	} else {
		// Forced null so a stale cap can never leak into queue checks.
		req.QueueNumber = nil
	}

	exists, err := s.clinicRepo.AssociationExists(ctx, req.DoctorID, req.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to check association: %w", err)
	}
	if !exists {
		return nil, apperrors.AssociationNotFound("doctor is not associated with this clinic")
	}

	settings := &model.WorkSettings{
		ClinicID:          req.ClinicID,
		DoctorID:          req.DoctorID,
		Method:            req.Method,
		AppointmentPeriod: req.AppointmentPeriod,
		Queue:             req.Queue,
		QueueNumber:       req.QueueNumber,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save work settings: %w", err)
	}

	if s.slots != nil {
		s.slots.Flush()
	}
	return settings, nil
}

func (s *Service) GetWorkSettings(ctx context.Context, clinicID, doctorID uuid.UUID) (*model.WorkSettings, error) {
	settings, err := s.repo.Get(ctx, clinicID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work settings: %w", err)
	}
	if settings == nil {
		return nil, apperrors.NotFound("work settings", nil)
	}
	return settings, nil
}
