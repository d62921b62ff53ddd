package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/clinichub/scheduling-api/internal/config"
	"github.com/clinichub/scheduling-api/internal/repository/postgres"
	slotService "github.com/clinichub/scheduling-api/internal/service/slot"
	"github.com/clinichub/scheduling-api/internal/worker"
	"github.com/clinichub/scheduling-api/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{
		Level:   cfg.Logging.Level,
		Pretty:  cfg.Logging.Pretty,
		Service: "scheduling-worker",
	})

	if !cfg.Worker.Enabled {
		log.Info().Msg("worker disabled, exiting")
		return
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	scheduleRepo := postgres.NewScheduleRepository(db)
	overrideRepo := postgres.NewOverrideRepository(db)
	slotRepo := postgres.NewSlotRepository(db)

	slotSvc := slotService.NewService(slotRepo, scheduleRepo, overrideRepo, nil)

	materializer := worker.NewSlotMaterializer(
		scheduleRepo,
		slotSvc,
		cfg.Worker.Interval,
		cfg.Worker.HorizonDays,
		log.With().Str("component", "materializer").Logger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go materializer.Start(ctx)
	log.Info().
		Dur("interval", cfg.Worker.Interval).
		Int("horizon_days", cfg.Worker.HorizonDays).
		Msg("slot materializer started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()
}
