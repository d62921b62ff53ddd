package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	"github.com/clinichub/scheduling-api/internal/service/slot"
)

// SlotMaterializer walks every doctor/clinic pair with an active template
// and generates slots ahead of time, so the first booking request for a
// day does not pay the generation cost. Generation is idempotent, so
// overlapping runs are harmless.
type SlotMaterializer struct {
	scheduleRepo repository.ScheduleRepository
	slots        *slot.Service
	interval     time.Duration
	horizonDays  int
	logger       zerolog.Logger
}

func NewSlotMaterializer(scheduleRepo repository.ScheduleRepository, slots *slot.Service, interval time.Duration, horizonDays int, logger zerolog.Logger) *SlotMaterializer {
	if interval <= 0 {
		interval = time.Hour
	}
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &SlotMaterializer{
		scheduleRepo: scheduleRepo,
		slots:        slots,
		interval:     interval,
		horizonDays:  horizonDays,
		logger:       logger,
	}
}

func (w *SlotMaterializer) Start(ctx context.Context) {
	// Run once at startup, then on every tick.
	if err := w.materialize(ctx); err != nil {
		w.logger.Error().Err(err).Msg("slot materialization failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.materialize(ctx); err != nil {
				w.logger.Error().Err(err).Msg("slot materialization failed")
			}
		}
	}
}

func (w *SlotMaterializer) materialize(ctx context.Context) error {
	pairs, err := w.scheduleRepo.ListActivePairs(ctx)
	if err != nil {
		return err
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	days := 0
	for _, pair := range pairs {
		for i := 0; i < w.horizonDays; i++ {
			date := start.AddDate(0, 0, i)
			if _, err := w.slots.GenerateSlots(ctx, pair.DoctorID, pair.ClinicID, date); err != nil {
				w.logger.Warn().
					Err(err).
					Str("doctor_id", pair.DoctorID.String()).
					Str("clinic_id", pair.ClinicID.String()).
					Str("date", date.Format(model.DateOnly)).
					Msg("failed to materialize day")
				continue
			}
			days++
		}
	}

	w.logger.Info().
		Int("pairs", len(pairs)).
		Int("days", days).
		Msg("slot materialization pass complete")
	return nil
}
