package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/booking-api/internal/email"
	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	"github.com/carebridge/booking-api/internal/service/availability"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/metrics"
)

// MinIntegratedGap is the minimum lead time between the home-care visit
// and the video consultation of an integrated booking. The boundary is
// inclusive: a gap of exactly MinIntegratedGap is accepted.
const MinIntegratedGap = 30 * time.Minute

type Service struct {
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	outboxRepo      repository.OutboxRepository
	availability    *availability.Service
	emailSvc        email.Service
	logger          zerolog.Logger
}

func NewService(
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	availabilitySvc *availability.Service,
	emailSvc email.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		outboxRepo:      outboxRepo,
		availability:    availabilitySvc,
		emailSvc:        emailSvc,
		logger:          logger,
	}
}

// BookAppointment books a single appointment after re-checking the slot
// is still open. The insert itself is guarded by a unique constraint on
// active (provider, service, time) rows, so a concurrent booking of the
// same slot surfaces as a slot-not-available error rather than a double
// booking.
func (s *Service) BookAppointment(ctx context.Context, req *model.BookAppointmentRequest, localNow time.Time) (*model.Appointment, error) {
	date := req.AppointmentTime.In(localNow.Location()).Format("2006-01-02")
	slot := req.AppointmentTime.In(localNow.Location()).Format("15:04")

	open, err := s.availability.IsSlotAvailable(ctx, req.ProviderID, req.Service, date, slot, localNow)
	if err != nil {
		return nil, err
	}
	if !open {
		metrics.BookingConflicts.WithLabelValues(string(req.Service)).Inc()
		return nil, apperr.BadRequest("slot not available", nil)
	}

	appt := appointmentFromRequest(req, localNow)
	if err := s.appointmentRepo.Create(ctx, appt); err != nil {
		if apperr.Is(err, apperr.ErrBadRequest) {
			metrics.BookingConflicts.WithLabelValues(string(req.Service)).Inc()
		}
		return nil, err
	}
	metrics.BookingsCreated.WithLabelValues(string(req.Service), "single").Inc()

	s.emitEvent(ctx, model.EventAppointmentCreated, appt)
	s.notify(ctx, appt.UserID, func(to string) error {
		return s.emailSvc.SendBookingConfirmation(to, appt)
	})
	return appt, nil
}

// BookIntegratedCare books the home-care leg and the video-consultation
// leg of an integrated visit. Both legs are checked independently, the
// video leg must start at least MinIntegratedGap after the home leg, and
// both rows are written in a single transaction.
func (s *Service) BookIntegratedCare(ctx context.Context, req *model.IntegratedBookingRequest, localNow time.Time) ([]*model.Appointment, error) {
	loc := localNow.Location()

	homeTime, err := availability.SlotTime(req.HomeDate, req.HomeSlot, loc)
	if err != nil {
		return nil, err
	}
	videoTime, err := availability.SlotTime(req.VideoDate, req.VideoSlot, loc)
	if err != nil {
		return nil, err
	}

	homeOpen, err := s.availability.IsSlotAvailable(ctx, req.HomeProviderID, model.ServiceHomeCare, req.HomeDate, req.HomeSlot, localNow)
	if err != nil {
		return nil, err
	}
	if !homeOpen {
		metrics.BookingConflicts.WithLabelValues(string(model.ServiceHomeCare)).Inc()
		return nil, apperr.BadRequest("home care slot not available", nil)
	}

	videoOpen, err := s.availability.IsSlotAvailable(ctx, req.VideoProviderID, model.ServiceVideoConsultation, req.VideoDate, req.VideoSlot, localNow)
	if err != nil {
		return nil, err
	}
	if !videoOpen {
		metrics.BookingConflicts.WithLabelValues(string(model.ServiceVideoConsultation)).Inc()
		return nil, apperr.BadRequest("video consultation slot not available", nil)
	}

	if videoTime.Sub(homeTime) < MinIntegratedGap {
		return nil, apperr.BadRequest(
			fmt.Sprintf("video consultation must be at least %d minutes after the home care visit", int(MinIntegratedGap.Minutes())),
			nil,
		)
	}

	now := time.Now()
	home := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ProviderID:      req.HomeProviderID,
		UserID:          req.UserID,
		PatientID:       req.PatientID,
		Service:         model.ServiceHomeCare,
		AppointmentTime: homeTime,
		Status:          model.AppointmentStatusPending,
		Reason:          req.Reason,
		IsForOthers:     req.PatientID != nil,
		BookedAt:        now,
	}
	video := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ProviderID:      req.VideoProviderID,
		UserID:          req.UserID,
		PatientID:       req.PatientID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: videoTime,
		Status:          model.AppointmentStatusPending,
		Reason:          req.Reason,
		IsForOthers:     req.PatientID != nil,
		BookedAt:        now,
	}

	event := buildEvent(model.EventIntegratedBooked, map[string]interface{}{
		"home_appointment_id":  home.ID,
		"video_appointment_id": video.ID,
		"user_id":              req.UserID,
	})

	if err := s.appointmentRepo.CreateAtomic(ctx, []*model.Appointment{home, video}, event); err != nil {
		if apperr.Is(err, apperr.ErrBadRequest) {
			metrics.BookingConflicts.WithLabelValues(string(model.ServiceIntegratedCare)).Inc()
		}
		return nil, err
	}
	metrics.BookingsCreated.WithLabelValues(string(model.ServiceIntegratedCare), "integrated").Inc()

	s.notify(ctx, req.UserID, func(to string) error {
		return s.emailSvc.SendIntegratedBookingConfirmation(to, home, video)
	})
	return []*model.Appointment{home, video}, nil
}

func appointmentFromRequest(req *model.BookAppointmentRequest, localNow time.Time) *model.Appointment {
	bookedAt := time.Now()
	if req.BookedAt != nil {
		bookedAt = *req.BookedAt
	}
	return &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ProviderID:      req.ProviderID,
		UserID:          req.UserID,
		PatientID:       req.PatientID,
		SlotID:          req.SlotID,
		Service:         req.Service,
		AppointmentTime: req.AppointmentTime,
		Status:          model.AppointmentStatusPending,
		Reason:          req.Reason,
		IsForOthers:     req.IsForOthers,
		BookedAt:        bookedAt,
	}
}

func buildEvent(eventType string, payload map[string]interface{}) *model.OutboxEvent {
	data, _ := json.Marshal(payload)
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    model.OutboxStatusPending,
	}
}

// emitEvent writes an outbox row outside the booking transaction.
// Failures are logged, never returned: the booking already succeeded.
func (s *Service) emitEvent(ctx context.Context, eventType string, appt *model.Appointment) {
	event := buildEvent(eventType, map[string]interface{}{
		"appointment_id": appt.ID,
		"provider_id":    appt.ProviderID,
		"user_id":        appt.UserID,
		"service":        appt.Service,
		"time":           appt.AppointmentTime,
	})
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to write outbox event")
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, send func(to string) error) {
	if s.emailSvc == nil {
		return
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("skipping booking email")
		return
	}
	if err := send(user.Email); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to send booking email")
	}
}
