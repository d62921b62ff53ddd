package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinichub/scheduling-api/internal/config"
	"github.com/clinichub/scheduling-api/internal/email"
	"github.com/clinichub/scheduling-api/internal/handler"
	bookingHandler "github.com/clinichub/scheduling-api/internal/handler/booking"
	overrideHandler "github.com/clinichub/scheduling-api/internal/handler/override"
	scheduleHandler "github.com/clinichub/scheduling-api/internal/handler/schedule"
	slotHandler "github.com/clinichub/scheduling-api/internal/handler/slot"
	worksettingsHandler "github.com/clinichub/scheduling-api/internal/handler/worksettings"
	"github.com/clinichub/scheduling-api/internal/middleware"
	"github.com/clinichub/scheduling-api/internal/repository/postgres"
	"github.com/clinichub/scheduling-api/internal/router"
	bookingService "github.com/clinichub/scheduling-api/internal/service/booking"
	notificationService "github.com/clinichub/scheduling-api/internal/service/notification"
	overrideService "github.com/clinichub/scheduling-api/internal/service/override"
	scheduleService "github.com/clinichub/scheduling-api/internal/service/schedule"
	slotService "github.com/clinichub/scheduling-api/internal/service/slot"
	worksettingsService "github.com/clinichub/scheduling-api/internal/service/worksettings"
	"github.com/clinichub/scheduling-api/pkg/auth"
	"github.com/clinichub/scheduling-api/pkg/logger"
	"github.com/clinichub/scheduling-api/pkg/messaging/redis"
	"github.com/clinichub/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{
		Level:   cfg.Logging.Level,
		Pretty:  cfg.Logging.Pretty,
		Service: "scheduling-api",
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	scheduleRepo := postgres.NewScheduleRepository(db)
	overrideRepo := postgres.NewOverrideRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	workSettingsRepo := postgres.NewWorkSettingsRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	brokerLogger := log.With().Str("component", "broker").Logger()
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Enabled {
		emailSvc = email.NewService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	m := metrics.NewMetrics("clinichub", "scheduling")

	notifier := notificationService.NewService(
		notificationRepo,
		clinicRepo,
		broker,
		emailSvc,
		log.With().Str("component", "notifications").Logger(),
	)

	slotSvc := slotService.NewService(slotRepo, scheduleRepo, overrideRepo, m)
	scheduleSvc := scheduleService.NewService(scheduleRepo, slotRepo, workSettingsRepo, slotSvc)
	overrideSvc := overrideService.NewService(overrideRepo, slotSvc)
	workSettingsSvc := worksettingsService.NewService(workSettingsRepo, clinicRepo, slotSvc)
	bookingSvc := bookingService.NewService(slotRepo, appointmentRepo, workSettingsRepo, notifier, slotSvc, m)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		handler.NewHealthHandler(db),
		scheduleHandler.NewHandler(scheduleSvc),
		overrideHandler.NewHandler(overrideSvc),
		slotHandler.NewHandler(slotSvc),
		bookingHandler.NewHandler(bookingSvc),
		worksettingsHandler.NewHandler(workSettingsSvc),
		router.Config{
			RateLimitRPS:  cfg.RateLimit.RequestsPerSecond,
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "scheduling_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
