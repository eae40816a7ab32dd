package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/carebridge/booking-api/internal/email"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/storage"
)

const (
	providerCacheTTL     = 5 * time.Minute
	providerCacheCleanup = 10 * time.Minute
)

type Service struct {
	providerRepo    repository.ProviderRepository
	userRepo        repository.UserRepository
	scheduleRepo    repository.ScheduleRepository
	appointmentRepo repository.AppointmentRepository
	outboxRepo      repository.OutboxRepository
	storage         storage.Storage
	emailSvc        email.Service
	cache           *gocache.Cache
	logger          zerolog.Logger
}

func NewService(
	providerRepo repository.ProviderRepository,
	userRepo repository.UserRepository,
	scheduleRepo repository.ScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
	outboxRepo repository.OutboxRepository,
	store storage.Storage,
	emailSvc email.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		providerRepo:    providerRepo,
		userRepo:        userRepo,
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		storage:         store,
		emailSvc:        emailSvc,
		cache:           gocache.New(providerCacheTTL, providerCacheCleanup),
		logger:          logger,
	}
}

// GetProvider returns the provider, serving repeated reads from a short
// TTL cache. Writes invalidate the entry.
func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.Provider), nil
	}
	provider, err := s.providerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id.String(), provider, gocache.DefaultExpiration)
	return provider, nil
}

func (s *Service) GetProviderByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error) {
	return s.providerRepo.GetByUserID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProviderRequest) (*model.Provider, error) {
	provider, err := s.providerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		provider.Name = *req.Name
	}
	if req.ProviderType != "" {
		provider.ProviderType = req.ProviderType
	}
	if req.Specialization != nil {
		provider.Specialization = req.Specialization
	}
	if req.Services != nil {
		provider.Services = req.Services
	}
	if req.Fee != nil {
		provider.Fee = req.Fee
	}
	if req.Experience != nil {
		provider.Experience = req.Experience
	}
	if req.Age != nil {
		provider.Age = req.Age
	}
	if req.Description != nil {
		provider.Description = req.Description
	}

	if err := s.providerRepo.Update(ctx, provider); err != nil {
		return nil, err
	}
	s.cache.Delete(provider.ID.String())

	// Contact fields live on the user row.
	if req.Phone != nil || req.Gender != nil || req.DOB != nil || req.BloodGroup != nil {
		user, err := s.userRepo.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if req.Phone != nil {
			user.Phone = req.Phone
		}
		if req.Gender != nil {
			user.Gender = req.Gender
		}
		if req.BloodGroup != nil {
			user.BloodGroup = req.BloodGroup
		}
		if req.DOB != nil {
			dob, err := time.Parse("2006-01-02", *req.DOB)
			if err != nil {
				return nil, apperr.BadRequest("invalid dob, expected YYYY-MM-DD", err)
			}
			user.DOB = &dob
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return provider, nil
}

// UpsertSchedule creates the availability window, or replaces it when
// the id already exists.
func (s *Service) UpsertSchedule(ctx context.Context, req *model.UpsertScheduleRequest) (*model.Schedule, error) {
	provider, err := s.providerRepo.Get(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.OffersService(req.Service) {
		return nil, apperr.BadRequest("provider does not offer this service", nil)
	}

	schedule := &model.Schedule{
		Base:           model.Base{ID: req.ID},
		ProviderID:     req.ProviderID,
		Service:        req.Service,
		DayOfWeek:      req.DayOfWeek,
		IsRecurring:    req.IsRecurring,
		RecurrenceType: req.RecurrenceType,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		SlotDuration:   req.SlotDuration,
		Location:       req.Location,
		IsAvailable:    req.IsAvailable,
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, apperr.BadRequest("invalid date, expected YYYY-MM-DD", err)
		}
		schedule.Date = &date
	}
	if schedule.Date == nil && (!schedule.IsRecurring || schedule.DayOfWeek == nil) {
		return nil, apperr.BadRequest("schedule needs a date or a recurring day of week", nil)
	}

	if err := s.scheduleRepo.Upsert(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ListSchedules returns the provider's schedules grouped by service
// type, with materialized slots attached where they exist.
func (s *Service) ListSchedules(ctx context.Context, providerID uuid.UUID) (model.ScheduleBook, error) {
	if _, err := s.providerRepo.Get(ctx, providerID); err != nil {
		return nil, err
	}
	schedules, err := s.scheduleRepo.ListForProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	for _, sched := range schedules {
		slots, err := s.scheduleRepo.ListSlots(ctx, sched.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list slots: %w", err)
		}
		sched.Slots = slots
	}
	return model.NewScheduleBook(schedules), nil
}

// AddDocument attaches a verification document. A provider carries at
// most one: uploading over an existing document is a conflict, remove it
// first.
func (s *Service) AddDocument(ctx context.Context, providerID uuid.UUID, contentType string, data []byte) (string, error) {
	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		return "", err
	}
	if provider.Document != nil && *provider.Document != "" {
		return "", apperr.Conflict("document already uploaded, remove it first", nil)
	}

	key := fmt.Sprintf("documents/%s", uuid.New())
	if err := s.storage.Save(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("failed to store document: %w", err)
	}
	if err := s.providerRepo.UpdateDocument(ctx, providerID, &key); err != nil {
		return "", err
	}
	s.cache.Delete(providerID.String())
	return key, nil
}

func (s *Service) RemoveDocument(ctx context.Context, providerID uuid.UUID) error {
	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		return err
	}
	if provider.Document == nil || *provider.Document == "" {
		return apperr.NotFound("document", nil)
	}
	if err := s.storage.Delete(ctx, *provider.Document); err != nil && err != storage.ErrObjectNotFound {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := s.providerRepo.UpdateDocument(ctx, providerID, nil); err != nil {
		return err
	}
	s.cache.Delete(providerID.String())
	return nil
}

// Dashboard aggregates the provider's appointment counts plus today's
// and upcoming appointments. Hospitals roll up over their linked staff.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, localNow time.Time) (*model.Dashboard, error) {
	provider, err := s.providerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	providerIDs := []uuid.UUID{provider.ID}
	dash := &model.Dashboard{ProviderName: provider.Name}

	if provider.ProviderType == model.ProviderTypeHospital {
		staff, err := s.providerRepo.ListByHospital(ctx, provider.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range staff {
			providerIDs = append(providerIDs, p.ID)
		}
		dash.LinkedStaff = staff
	}

	stats, err := s.appointmentRepo.Stats(ctx, providerIDs)
	if err != nil {
		return nil, err
	}
	dash.Stats = *stats

	dayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, localNow.Location())
	today, err := s.appointmentRepo.List(ctx, &model.AppointmentFilters{
		ProviderIDs: providerIDs,
		Statuses:    model.ActiveStatuses,
		StartDate:   dayStart,
		EndDate:     dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}
	dash.Today = today
	dash.TotalToday = len(today)

	upcoming, err := s.appointmentRepo.List(ctx, &model.AppointmentFilters{
		ProviderIDs: providerIDs,
		Statuses:    model.ActiveStatuses,
		StartDate:   dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}
	dash.Upcoming = upcoming

	return dash, nil
}

func (s *Service) ListPatients(ctx context.Context, userID uuid.UUID) ([]*model.User, error) {
	provider, err := s.providerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.appointmentRepo.ListPatients(ctx, provider.ID)
}

// ActionOnAppointment lets the provider approve, reject or cancel one of
// its own pending appointments. Decisions are terminal.
func (s *Service) ActionOnAppointment(ctx context.Context, userID, appointmentID uuid.UUID, action model.AppointmentStatus) (*model.Appointment, error) {
	provider, err := s.providerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	appt, err := s.appointmentRepo.GetForProvider(ctx, appointmentID, provider.ID)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(action) {
		return nil, apperr.BadRequest(
			fmt.Sprintf("cannot move appointment from %s to %s", appt.Status, action),
			nil,
		)
	}

	if err := s.appointmentRepo.UpdateStatus(ctx, appointmentID, action); err != nil {
		return nil, err
	}
	appt.Status = action

	s.emitActioned(ctx, appt)
	s.notifyActioned(ctx, appt)
	return appt, nil
}

func (s *Service) emitActioned(ctx context.Context, appt *model.Appointment) {
	payload, _ := json.Marshal(map[string]interface{}{
		"appointment_id": appt.ID,
		"provider_id":    appt.ProviderID,
		"user_id":        appt.UserID,
		"status":         appt.Status,
	})
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventAppointmentActioned,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Msg("failed to write outbox event")
	}
}

func (s *Service) notifyActioned(ctx context.Context, appt *model.Appointment) {
	if s.emailSvc == nil {
		return
	}
	user, err := s.userRepo.Get(ctx, appt.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping appointment action email")
		return
	}
	if err := s.emailSvc.SendAppointmentActioned(user.Email, appt); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send appointment action email")
	}
}
