package admin

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/booking-api/internal/email"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	apperr "github.com/carebridge/booking-api/pkg/errors"
)

type Service struct {
	userRepo        repository.UserRepository
	providerRepo    repository.ProviderRepository
	appointmentRepo repository.AppointmentRepository
	outboxRepo      repository.OutboxRepository
	emailSvc        email.Service
	logger          zerolog.Logger
}

func NewService(
	userRepo repository.UserRepository,
	providerRepo repository.ProviderRepository,
	appointmentRepo repository.AppointmentRepository,
	outboxRepo repository.OutboxRepository,
	emailSvc email.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		userRepo:        userRepo,
		providerRepo:    providerRepo,
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		emailSvc:        emailSvc,
		logger:          logger,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx)
}

// ListUnverifiedProviders returns provider applications awaiting review.
func (s *Service) ListUnverifiedProviders(ctx context.Context) ([]*model.Provider, error) {
	return s.providerRepo.List(ctx, &model.ProviderFilters{
		Status: model.ApprovalStatusPending,
	})
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters, page model.Pagination) ([]*model.Appointment, int64, error) {
	return s.appointmentRepo.ListPaged(ctx, filters, page)
}

// ActionOnProvider approves or rejects a provider application and mails
// the applicant the outcome.
func (s *Service) ActionOnProvider(ctx context.Context, providerID uuid.UUID, status model.ApprovalStatus) (*model.Provider, error) {
	if status != model.ApprovalStatusApproved && status != model.ApprovalStatusRejected {
		return nil, apperr.BadRequest("action must be APPROVED or REJECTED", nil)
	}

	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.Status != model.ApprovalStatusPending {
		return nil, apperr.BadRequest("provider application already reviewed", nil)
	}

	if err := s.providerRepo.UpdateStatus(ctx, providerID, status); err != nil {
		return nil, err
	}
	provider.Status = status

	s.emitModerated(ctx, provider)
	s.notifyModerated(ctx, provider)
	return provider, nil
}

func (s *Service) emitModerated(ctx context.Context, provider *model.Provider) {
	payload, _ := json.Marshal(map[string]interface{}{
		"provider_id": provider.ID,
		"status":      provider.Status,
	})
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventProviderModerated,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to write outbox event")
	}
}

func (s *Service) notifyModerated(ctx context.Context, provider *model.Provider) {
	if s.emailSvc == nil {
		return
	}
	user, err := s.userRepo.Get(ctx, provider.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping provider moderation email")
		return
	}
	if err := s.emailSvc.SendProviderModerated(user.Email, provider.Name, provider.Status); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send provider moderation email")
	}
}
