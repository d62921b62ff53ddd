package slot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"

	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	"github.com/clinichub/scheduling-api/pkg/metrics"
)

const (
	dayCacheTTL     = 2 * time.Minute
	dayCacheCleanup = 10 * time.Minute
)

// Invalidator lets collaborating services drop cached slot days after they
// change anything the generator reads.
type Invalidator interface {
	InvalidateDay(doctorID, clinicID uuid.UUID, date time.Time)
	Flush()
}

// Service materializes bookable slots for a (doctor, clinic, date) from the
// effective weekly template or the date's override, merging with slots
// already persisted so booked history is never rewritten.
type Service struct {
	slotRepo     repository.SlotRepository
	scheduleRepo repository.ScheduleRepository
	overrideRepo repository.OverrideRepository
	days         *cache.Cache
	metrics      *metrics.Metrics
}

func NewService(slotRepo repository.SlotRepository, scheduleRepo repository.ScheduleRepository, overrideRepo repository.OverrideRepository, m *metrics.Metrics) *Service {
	return &Service{
		slotRepo:     slotRepo,
		scheduleRepo: scheduleRepo,
		overrideRepo: overrideRepo,
		days:         cache.New(dayCacheTTL, dayCacheCleanup),
		metrics:      m,
	}
}

func dayKey(doctorID, clinicID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", doctorID, clinicID, date.Format(model.DateOnly))
}

func (s *Service) InvalidateDay(doctorID, clinicID uuid.UUID, date time.Time) {
	s.days.Delete(dayKey(doctorID, clinicID, date))
}

func (s *Service) Flush() {
	s.days.Flush()
}

// GenerateSlots returns the full slot set for the date, sorted by start
// time. Calling it twice without intervening configuration changes yields
// the same available slot identities.
func (s *Service) GenerateSlots(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	key := dayKey(doctorID, clinicID, date)
	if cached, ok := s.days.Get(key); ok {
		return cached.([]*model.Slot), nil
	}

	desired, origin, templateID, overrideID, err := s.desiredIntervals(ctx, doctorID, clinicID, date)
	if err != nil {
		return nil, err
	}

	var slots []*model.Slot
	err = s.slotRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		slots, err = s.merge(ctx, tx, doctorID, clinicID, date, desired, origin, templateID, overrideID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to materialize slots: %w", err)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime < slots[j].StartTime })
	s.days.Set(key, slots, cache.DefaultExpiration)
	return slots, nil
}

// desiredIntervals resolves what the current configuration says the date
// should look like. Override wins over template; a closed override or a
// missing template of the day both produce an empty set.
func (s *Service) desiredIntervals(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]Interval, model.SlotOrigin, *uuid.UUID, *uuid.UUID, error) {
	override, err := s.overrideRepo.Get(ctx, doctorID, clinicID, date)
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("failed to look up override: %w", err)
	}
	if override != nil {
		if override.Type == model.OverrideTypeClosed {
			return nil, model.SlotOriginOverride, nil, &override.ID, nil
		}
		return overrideIntervals(override), model.SlotOriginOverride, nil, &override.ID, nil
	}

	dow := isoDayOfWeek(date)
	tmpl, err := s.scheduleRepo.GetEffective(ctx, doctorID, clinicID, dow, date)
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("failed to look up template: %w", err)
	}
	if tmpl == nil {
		return nil, model.SlotOriginTemplate, nil, nil, nil
	}

	intervals, err := templateIntervals(tmpl)
	if err != nil {
		return nil, "", nil, nil, err
	}
	return intervals, model.SlotOriginTemplate, &tmpl.ID, nil, nil
}

// merge reconciles desired intervals against persisted slots, keyed by the
// full (start, end) interval so a duration change never leaves two
// overlapping rows on the day. Booked and manual rows are preserved
// untouched. A never-booked generated row whose start still lies on the new
// grid is rewritten in place to the new interval; one that now straddles
// the grid is deleted. Rows falling entirely outside the desired set are
// blocked when referenced (keeping the audit trail) or deleted when not.
// Missing intervals are inserted available unless they would overlap a
// surviving row.
func (s *Service) merge(ctx context.Context, tx *sqlx.Tx, doctorID, clinicID uuid.UUID, date time.Time, desired []Interval, origin model.SlotOrigin, templateID, overrideID *uuid.UUID) ([]*model.Slot, error) {
	existing, err := s.slotRepo.ListForDateTx(ctx, tx, doctorID, clinicID, date)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]Interval, len(desired))
	wantedByStart := make(map[string]Interval, len(desired))
	for _, iv := range desired {
		wanted[intervalKey(iv.Start, iv.End)] = iv
		wantedByStart[iv.Start] = iv
	}

	result := make([]*model.Slot, 0, len(existing)+len(desired))
	satisfied := make(map[string]bool, len(desired))
	var generated, blocked int

	for _, sl := range existing {
		key := intervalKey(sl.Interval())
		_, exact := wanted[key]
		nextIv, onGrid := wantedByStart[sl.StartTime]

		switch {
		case sl.Origin == model.SlotOriginManual:
			// Manual slots are not governed by templates or overrides.
			result = append(result, sl)
		case sl.Status == model.SlotStatusBooked:
			if exact {
				satisfied[key] = true
			}
			result = append(result, sl)
		case exact:
			// A blocked generated slot whose interval is produced
			// again reopens.
			if sl.Status == model.SlotStatusBlocked {
				if err := s.slotRepo.UpdateStatusTx(ctx, tx, sl.ID, model.SlotStatusAvailable); err != nil {
					return nil, err
				}
				sl.Status = model.SlotStatusAvailable
			}
			satisfied[key] = true
			result = append(result, sl)
		case onGrid:
			sl.EndTime = nextIv.End
			sl.Status = model.SlotStatusAvailable
			sl.Origin = origin
			sl.TemplateID = templateID
			sl.OverrideID = overrideID
			if err := s.slotRepo.ResizeTx(ctx, tx, sl); err != nil {
				return nil, err
			}
			satisfied[intervalKey(nextIv.Start, nextIv.End)] = true
			result = append(result, sl)
		case overlapsDesired(sl, desired):
			// The grid moved under this never-booked row; keeping it
			// in any status would overlap the new slots.
			if err := s.slotRepo.DeleteTx(ctx, tx, sl.ID); err != nil {
				return nil, err
			}
		case sl.Status == model.SlotStatusAvailable && sl.TemplateID == nil && sl.OverrideID == nil:
			if err := s.slotRepo.DeleteTx(ctx, tx, sl.ID); err != nil {
				return nil, err
			}
		case sl.Status == model.SlotStatusAvailable:
			if err := s.slotRepo.UpdateStatusTx(ctx, tx, sl.ID, model.SlotStatusBlocked); err != nil {
				return nil, err
			}
			sl.Status = model.SlotStatusBlocked
			blocked++
			result = append(result, sl)
		default:
			result = append(result, sl)
		}
	}

	for _, iv := range desired {
		if satisfied[intervalKey(iv.Start, iv.End)] {
			continue
		}
		if overlapsKept(result, iv) {
			continue
		}
		slot := &model.Slot{
			DoctorID:   doctorID,
			ClinicID:   clinicID,
			Date:       date,
			StartTime:  iv.Start,
			EndTime:    iv.End,
			Status:     model.SlotStatusAvailable,
			Origin:     origin,
			TemplateID: templateID,
			OverrideID: overrideID,
		}
		if err := s.slotRepo.InsertTx(ctx, tx, slot); err != nil {
			return nil, err
		}
		generated++
		result = append(result, slot)
	}

	s.countGeneration(generated, blocked)
	return result, nil
}

func intervalKey(start, end string) string {
	return start + "-" + end
}

func slotOverlaps(sl *model.Slot, iv Interval) bool {
	slStart, slEnd := sl.Interval()
	s1, err1 := clockToMinutes(slStart)
	e1, err2 := clockToMinutes(slEnd)
	s2, err3 := clockToMinutes(iv.Start)
	e2, err4 := clockToMinutes(iv.End)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return intersects(s1, e1, s2, e2)
}

func overlapsDesired(sl *model.Slot, desired []Interval) bool {
	for _, iv := range desired {
		if slotOverlaps(sl, iv) {
			return true
		}
	}
	return false
}

func overlapsKept(kept []*model.Slot, iv Interval) bool {
	for _, sl := range kept {
		if slotOverlaps(sl, iv) {
			return true
		}
	}
	return false
}

func (s *Service) countGeneration(generated, blocked int) {
	if s.metrics == nil {
		return
	}
	s.metrics.GenerationRuns.Inc()
	s.metrics.SlotsGenerated.Add(float64(generated))
	s.metrics.SlotsBlocked.Add(float64(blocked))
}

// isoDayOfWeek maps time.Weekday to ISO 8601 numbering (1=Monday..7=Sunday).
func isoDayOfWeek(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
