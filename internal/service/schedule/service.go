package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	slotsvc "github.com/clinichub/scheduling-api/internal/service/slot"
	apperrors "github.com/clinichub/scheduling-api/pkg/errors"
)

// Service manages versioned weekly schedule templates. Edits never delete a
// version: the current one is closed (effective_to set to the day before the
// new effective_from) and a higher version is inserted in the same
// transaction, so there is no window with zero active templates for a day.
type Service struct {
	repo         repository.ScheduleRepository
	slotRepo     repository.SlotRepository
	settingsRepo repository.WorkSettingsRepository
	slots        slotsvc.Invalidator
}

func NewService(repo repository.ScheduleRepository, slotRepo repository.SlotRepository, settingsRepo repository.WorkSettingsRepository, slots slotsvc.Invalidator) *Service {
	return &Service{
		repo:         repo,
		slotRepo:     slotRepo,
		settingsRepo: settingsRepo,
		slots:        slots,
	}
}

func (s *Service) SetWeeklySchedule(ctx context.Context, actor model.Actor, req *model.SetWeeklyScheduleRequest) ([]*model.WeeklyScheduleTemplate, error) {
	if !actor.MayManage(req.DoctorID, req.ClinicID) {
		return nil, apperrors.Forbidden("actor may not manage this doctor's schedule")
	}

	effectiveFrom, effectiveTo, err := parseEffectiveWindow(req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	if err := validateEntries(req.Entries); err != nil {
		return nil, err
	}

	entries, err := s.resolveDurations(ctx, req)
	if err != nil {
		return nil, err
	}

	if !req.ConfirmOrphaned {
		if err := s.checkOrphanedBookings(ctx, req.DoctorID, req.ClinicID, entries, effectiveFrom); err != nil {
			return nil, err
		}
	}

	var created []*model.WeeklyScheduleTemplate
	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, entry := range entries {
			if err := s.closeOverlapping(ctx, tx, req.DoctorID, req.ClinicID, entry.DayOfWeek, effectiveFrom, effectiveTo); err != nil {
				return err
			}

			version, err := s.repo.NextVersionTx(ctx, tx, req.DoctorID, req.ClinicID, entry.DayOfWeek)
			if err != nil {
				return err
			}

			tmpl := &model.WeeklyScheduleTemplate{
				DoctorID:        req.DoctorID,
				ClinicID:        req.ClinicID,
				DayOfWeek:       entry.DayOfWeek,
				StartTime:       entry.StartTime,
				EndTime:         entry.EndTime,
				DurationMinutes: entry.DurationMinutes,
				Breaks:          entry.Breaks,
				EffectiveFrom:   effectiveFrom,
				EffectiveTo:     effectiveTo,
				Version:         version,
				IsActive:        true,
			}
			if err := s.repo.CreateTx(ctx, tx, tmpl); err != nil {
				return err
			}
			created = append(created, tmpl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.slots != nil {
		s.slots.Flush()
	}
	return created, nil
}

func (s *Service) ListSchedules(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklyScheduleTemplate, error) {
	templates, err := s.repo.List(ctx, doctorID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return templates, nil
}

func (s *Service) GetEffectiveTemplate(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (*model.WeeklyScheduleTemplate, error) {
	tmpl, err := s.repo.GetEffective(ctx, doctorID, clinicID, isoDayOfWeek(date), date)
	if err != nil {
		return nil, fmt.Errorf("failed to get effective template: %w", err)
	}
	if tmpl == nil {
		return nil, apperrors.NotFound("schedule template", nil)
	}
	return tmpl, nil
}

// closeOverlapping closes every active template for the day whose effective
// window would overlap the new one.
func (s *Service) closeOverlapping(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, dayOfWeek int, effectiveFrom time.Time, effectiveTo *time.Time) error {
	active, err := s.repo.ListActiveForDay(ctx, doctorID, clinicID, dayOfWeek)
	if err != nil {
		return err
	}

	closeAt := effectiveFrom.AddDate(0, 0, -1)
	for _, tmpl := range active {
		if !windowsOverlap(tmpl.EffectiveFrom, tmpl.EffectiveTo, effectiveFrom, effectiveTo) {
			continue
		}
		if tmpl.EffectiveTo != nil && tmpl.EffectiveTo.Before(closeAt) {
			continue
		}
		if err := s.repo.CloseTx(ctx, tx, tmpl.ID, closeAt); err != nil {
			return err
		}
	}
	return nil
}

// checkOrphanedBookings rejects an edit that would leave already-booked
// future slots without a covering window in the replacement templates.
// The caller can pass confirm_orphaned to accept them; booked slots are
// never cancelled either way.
func (s *Service) checkOrphanedBookings(ctx context.Context, doctorID, clinicID uuid.UUID, entries []model.ScheduleEntryRequest, effectiveFrom time.Time) error {
	byDay := make(map[int]model.ScheduleEntryRequest, len(entries))
	for _, e := range entries {
		byDay[e.DayOfWeek] = e
	}

	booked, err := s.slotRepo.ListFutureBooked(ctx, doctorID, clinicID, effectiveFrom)
	if err != nil {
		return fmt.Errorf("failed to check future bookings: %w", err)
	}

	var orphaned int
	for _, sl := range booked {
		entry, ok := byDay[isoDayOfWeek(sl.Date)]
		if !ok {
			continue
		}
		if !slotFitsEntry(sl, entry) {
			orphaned++
		}
	}
	if orphaned > 0 {
		return apperrors.Conflict(fmt.Sprintf("%d booked future slots fall outside the new schedule; pass confirm_orphaned to proceed", orphaned))
	}
	return nil
}

func (s *Service) resolveDurations(ctx context.Context, req *model.SetWeeklyScheduleRequest) ([]model.ScheduleEntryRequest, error) {
	entries := make([]model.ScheduleEntryRequest, len(req.Entries))
	copy(entries, req.Entries)

	var settings *model.WorkSettings
	for i := range entries {
		if entries[i].DurationMinutes > 0 {
			continue
		}
		if settings == nil {
			var err error
			settings, err = s.settingsRepo.Get(ctx, req.ClinicID, req.DoctorID)
			if err != nil {
				return nil, fmt.Errorf("failed to get work settings: %w", err)
			}
			if settings == nil {
				return nil, apperrors.Validation("duration_minutes is required when work settings are not configured")
			}
		}
		entries[i].DurationMinutes = settings.AppointmentPeriod
	}
	return entries, nil
}

func parseEffectiveWindow(from string, to *string) (time.Time, *time.Time, error) {
	effectiveFrom, err := time.Parse(model.DateOnly, from)
	if err != nil {
		return time.Time{}, nil, apperrors.Validationf("invalid effective_from %q", from)
	}

	var effectiveTo *time.Time
	if to != nil {
		parsed, err := time.Parse(model.DateOnly, *to)
		if err != nil {
			return time.Time{}, nil, apperrors.Validationf("invalid effective_to %q", *to)
		}
		if parsed.Before(effectiveFrom) {
			return time.Time{}, nil, apperrors.Validation("effective_to must not be before effective_from")
		}
		effectiveTo = &parsed
	}
	return effectiveFrom, effectiveTo, nil
}

func validateEntries(entries []model.ScheduleEntryRequest) error {
	seen := make(map[int]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.DayOfWeek] {
			return apperrors.Validationf("duplicate day_of_week %d", entry.DayOfWeek)
		}
		seen[entry.DayOfWeek] = true

		if err := validateEntryTimes(entry); err != nil {
			return err
		}
	}
	return nil
}

func validateEntryTimes(entry model.ScheduleEntryRequest) error {
	start, err := parseClock(entry.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(entry.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return apperrors.Validationf("day %d: start_time must be before end_time", entry.DayOfWeek)
	}

	prevEnd := -1
	breaks := append([]model.BreakInterval(nil), entry.Breaks...)
	sortBreaks(breaks)
	for _, b := range breaks {
		bs, err := parseClock(b.Start)
		if err != nil {
			return err
		}
		be, err := parseClock(b.End)
		if err != nil {
			return err
		}
		if bs >= be {
			return apperrors.Validationf("day %d: break start must be before break end", entry.DayOfWeek)
		}
		if bs <= start || be >= end {
			return apperrors.Validationf("day %d: breaks must lie strictly within working hours", entry.DayOfWeek)
		}
		if bs < prevEnd {
			return apperrors.Validationf("day %d: breaks must not overlap", entry.DayOfWeek)
		}
		prevEnd = be
	}
	return nil
}

func sortBreaks(breaks []model.BreakInterval) {
	for i := 1; i < len(breaks); i++ {
		for j := i; j > 0 && breaks[j].Start < breaks[j-1].Start; j-- {
			breaks[j], breaks[j-1] = breaks[j-1], breaks[j]
		}
	}
}

func parseClock(s string) (int, error) {
	t, err := time.Parse(model.ClockFormat, s)
	if err != nil {
		return 0, apperrors.Validationf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func windowsOverlap(aFrom time.Time, aTo *time.Time, bFrom time.Time, bTo *time.Time) bool {
	if aTo != nil && aTo.Before(bFrom) {
		return false
	}
	if bTo != nil && bTo.Before(aFrom) {
		return false
	}
	return true
}

func slotFitsEntry(sl *model.Slot, entry model.ScheduleEntryRequest) bool {
	slStart, err := parseClock(sl.StartTime)
	if err != nil {
		return false
	}
	slEnd, err := parseClock(sl.EndTime)
	if err != nil {
		return false
	}
	start, _ := parseClock(entry.StartTime)
	end, _ := parseClock(entry.EndTime)
	if slStart < start || slEnd > end {
		return false
	}
	for _, b := range entry.Breaks {
		bs, _ := parseClock(b.Start)
		be, _ := parseClock(b.End)
		if slStart < be && bs < slEnd {
			return false
		}
	}
	return true
}

func isoDayOfWeek(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
