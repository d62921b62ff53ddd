package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/scheduling-api/internal/email"
	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/repository"
	"github.com/clinichub/scheduling-api/pkg/messaging"
)

const brokerChannel = "notifications"

const (
	EntityDoctor  = "doctor"
	EntityClinic  = "clinic"
	EntityPatient = "patient"
)

// Notifier is the narrow contract the scheduling core depends on. Delivery
// is fire-and-forget: a failed notification never rolls back a booking.
type Notifier interface {
	Notify(ctx context.Context, entityType string, entityID uuid.UUID, title, body string) error
}

type service struct {
	repo       repository.NotificationRepository
	clinicRepo repository.ClinicRepository
	broker     messaging.Broker
	emailSvc   email.Service
	logger     zerolog.Logger
}

func NewService(repo repository.NotificationRepository, clinicRepo repository.ClinicRepository, broker messaging.Broker, emailSvc email.Service, logger zerolog.Logger) Notifier {
	return &service{
		repo:       repo,
		clinicRepo: clinicRepo,
		broker:     broker,
		emailSvc:   emailSvc,
		logger:     logger,
	}
}

func (s *service) Notify(ctx context.Context, entityType string, entityID uuid.UUID, title, body string) error {
	notification := &model.Notification{
		EntityType: entityType,
		EntityID:   entityID,
		Title:      title,
		Body:       body,
		Status:     model.NotificationStatusPending,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	go s.deliver(notification)
	return nil
}

func (s *service) deliver(notification *model.Notification) {
	ctx := context.Background()

	status := model.NotificationStatusSent
	if err := s.broker.Publish(ctx, brokerChannel, notification); err != nil {
		s.logger.Error().Err(err).
			Str("entity_type", notification.EntityType).
			Str("entity_id", notification.EntityID.String()).
			Msg("failed to publish notification")
		status = model.NotificationStatusFailed
	}

	if addr := s.emailAddress(ctx, notification); addr != "" {
		if err := s.emailSvc.Send(ctx, addr, notification.Title, notification.Body); err != nil {
			s.logger.Warn().Err(err).Str("to", addr).Msg("failed to email notification")
		}
	}

	if err := s.repo.UpdateStatus(ctx, notification.ID, status); err != nil {
		s.logger.Error().Err(err).Msg("failed to update notification status")
	}
}

// emailAddress resolves the target's address. Patients are reached through
// the broker only; their contact data lives outside this service.
func (s *service) emailAddress(ctx context.Context, notification *model.Notification) string {
	switch notification.EntityType {
	case EntityDoctor:
		doctor, err := s.clinicRepo.GetDoctor(ctx, notification.EntityID)
		if err != nil {
			return ""
		}
		return doctor.Email
	case EntityClinic:
		clinic, err := s.clinicRepo.GetClinic(ctx, notification.EntityID)
		if err != nil {
			return ""
		}
		return clinic.Email
	default:
		return ""
	}
}
