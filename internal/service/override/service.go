package override

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	slotsvc "github.com/clinichub/scheduling-api/internal/service/slot"
	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
)

// Service manages date-specific schedule exceptions. An override always wins
// over the weekly template for its date, but only for future slot
// materialization: appointments already booked on the date are not cancelled.
type Service struct {
	repo  repository.OverrideRepository
	slots slotsvc.Invalidator
}

func NewService(repo repository.OverrideRepository, slots slotsvc.Invalidator) *Service {
	return &Service{repo: repo, slots: slots}
}

func (s *Service) SetOverride(ctx context.Context, actor model.Actor, req *model.SetOverrideRequest) (*model.ScheduleOverride, error) {
	if !actor.MayManage(req.DoctorID, req.ClinicID) {
		return nil, apperrors.Forbidden("actor may not manage this doctor's schedule")
	}

	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		return nil, apperrors.Validationf("invalid date %q", req.Date)
	}

	if req.Type == model.OverrideTypeCustom {
		if len(req.Slots) == 0 {
			return nil, apperrors.Validation("custom override requires at least one slot interval")
		}
		if err := validateIntervals(req.Slots); err != nil {
			return nil, err
		}
	} else if len(req.Slots) > 0 {
		return nil, apperrors.Validation("closed override must not carry slot intervals")
	}

	override := &model.ScheduleOverride{
		DoctorID: req.DoctorID,
		ClinicID: req.ClinicID,
		Date:     date,
		Type:     req.Type,
		Slots:    req.Slots,
		Reason:   req.Reason,
	}
	if err := s.repo.Upsert(ctx, override); err != nil {
		return nil, fmt.Errorf("failed to save override: %w", err)
	}

	if s.slots != nil {
		s.slots.InvalidateDay(req.DoctorID, req.ClinicID, date)
	}
	return override, nil
}

func (s *Service) GetOverride(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (*model.ScheduleOverride, error) {
	override, err := s.repo.Get(ctx, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get override: %w", err)
	}
	if override == nil {
		return nil, apperrors.NotFound("schedule override", nil)
	}
	return override, nil
}

func (s *Service) DeleteOverride(ctx context.Context, actor model.Actor, doctorID, clinicID uuid.UUID, date time.Time) error {
	if !actor.MayManage(doctorID, clinicID) {
		return apperrors.Forbidden("actor may not manage this doctor's schedule")
	}

	if err := s.repo.Delete(ctx, doctorID, clinicID, date); err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}

	if s.slots != nil {
		s.slots.InvalidateDay(doctorID, clinicID, date)
	}
	return nil
}

func (s *Service) ListOverrides(ctx context.Context, doctorID, clinicID uuid.UUID, from, to time.Time) ([]*model.ScheduleOverride, error) {
	overrides, err := s.repo.ListRange(ctx, doctorID, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

func validateIntervals(slots []model.OverrideInterval) error {
	type span struct{ start, end int }
	spans := make([]span, 0, len(slots))
	for _, iv := range slots {
		start, err := parseClock(iv.Start)
		if err != nil {
			return err
		}
		end, err := parseClock(iv.End)
		if err != nil {
			return err
		}
		if start >= end {
			return apperrors.Validationf("interval %s-%s: start must be before end", iv.Start, iv.End)
		}
		spans = append(spans, span{start, end})
	}

	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				return apperrors.Validation("custom override intervals must not overlap")
			}
		}
	}
	return nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse(model.ClockFormat, s)
	if err != nil {
		return 0, apperrors.Validationf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
