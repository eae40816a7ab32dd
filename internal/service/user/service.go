package user

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	"github.com/carebridge/booking-api/internal/service/availability"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/security"
	"github.com/carebridge/booking-api/pkg/storage"
)

type Service struct {
	userRepo        repository.UserRepository
	providerRepo    repository.ProviderRepository
	appointmentRepo repository.AppointmentRepository
	reviewRepo      repository.ReviewRepository
	availability    *availability.Service
	storage         storage.Storage
	hasher          security.PasswordHasher
	logger          zerolog.Logger
}

func NewService(
	userRepo repository.UserRepository,
	providerRepo repository.ProviderRepository,
	appointmentRepo repository.AppointmentRepository,
	reviewRepo repository.ReviewRepository,
	availabilitySvc *availability.Service,
	store storage.Storage,
	hasher security.PasswordHasher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		userRepo:        userRepo,
		providerRepo:    providerRepo,
		appointmentRepo: appointmentRepo,
		reviewRepo:      reviewRepo,
		availability:    availabilitySvc,
		storage:         store,
		hasher:          hasher,
		logger:          logger,
	}
}

// Signup registers a patient account keyed by email. The username is
// derived from the local part of the address, suffixed until unique.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("email already registered", nil)
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	username, err := s.uniqueUsername(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.BadRequest("invalid password", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		PublicID:     fmt.Sprintf("CB%08d", rand.Intn(100000000)),
		Email:        req.Email,
		Username:     username,
		Role:         model.RolePatient,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	candidate := base
	for i := 0; i < 10; i++ {
		exists, err := s.userRepo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, rand.Intn(10000))
	}
	return "", apperr.Internal(fmt.Errorf("could not derive a unique username for %s", base))
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.userRepo.Get(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = req.Name
	}
	if req.BloodGroup != nil {
		user.BloodGroup = req.BloodGroup
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if req.Address != nil {
		user.Address = req.Address
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
	return user, nil
}

// UploadProfilePic stores the image and points the profile at it. Any
// previous picture is deleted first.
func (s *Service) UploadProfilePic(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (string, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.ProfilePic != nil && *user.ProfilePic != "" {
		if err := s.storage.Delete(ctx, *user.ProfilePic); err != nil && err != storage.ErrObjectNotFound {
			s.logger.Warn().Err(err).Str("key", *user.ProfilePic).Msg("failed to delete old profile pic")
		}
	}

	key := fmt.Sprintf("profile-pics/%s", uuid.New())
	if err := s.storage.Save(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("failed to store profile pic: %w", err)
	}
	user.ProfilePic = &key
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}
	return key, nil
}

// ApplyForProvider converts a patient account into a pending provider
// application. Approval is an admin action.
func (s *Service) ApplyForProvider(ctx context.Context, req *model.ApplyForProviderRequest) (*model.Provider, error) {
	user, err := s.userRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.providerRepo.GetByUserID(ctx, req.UserID); err == nil {
		return nil, apperr.Conflict("provider application already exists", nil)
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	provider := &model.Provider{
		Base:           model.Base{ID: uuid.New()},
		UserID:         user.ID,
		Name:           req.Name,
		ProviderType:   req.ProviderType,
		Specialization: req.Specialization,
		Services:       req.Services,
		Fee:            req.Fee,
		Experience:     req.Experience,
		Description:    req.Description,
		Status:         model.ApprovalStatusPending,
	}
	if err := s.providerRepo.Create(ctx, provider); err != nil {
		return nil, err
	}

	user.Role = model.UserRole(req.ProviderType)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders lists approved providers, optionally filtered by
// speciality, address or service.
func (s *Service) ListProviders(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	if filters == nil {
		filters = &model.ProviderFilters{}
	}
	filters.Status = model.ApprovalStatusApproved
	return s.providerRepo.List(ctx, filters)
}

// ListHomeCareProviders lists approved nursing and lab providers that
// offer home visits.
func (s *Service) ListHomeCareProviders(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	if filters == nil {
		filters = &model.ProviderFilters{}
	}
	filters.Status = model.ApprovalStatusApproved
	filters.Service = model.ServiceHomeCare

	providers, err := s.providerRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	eligible := make([]*model.Provider, 0, len(providers))
	for _, p := range providers {
		if p.ProviderType == model.ProviderTypeNursing || p.ProviderType == model.ProviderTypeLab {
			eligible = append(eligible, p)
		}
	}
	return eligible, nil
}

func (s *Service) ListPopularDoctors(ctx context.Context, limit int) ([]*model.Provider, error) {
	return s.providerRepo.ListPopular(ctx, limit)
}

// ProviderDetail is a provider profile enriched for the viewing patient.
type ProviderDetail struct {
	Provider                *model.Provider   `json:"provider"`
	Reviews                 []*model.Review   `json:"reviews"`
	SlotDetails             []*model.DaySlots `json:"slot_details,omitempty"`
	IsBookedByCurrentUser   bool              `json:"is_booked_by_current_user"`
	IsProviderAppointedEver bool              `json:"is_provider_appointed_ever"`
}

// GetProviderDetail returns the provider profile with reviews, the next
// ten days of availability for the requested service, and flags telling
// the viewer whether they already have an upcoming booking and whether
// this provider has ever taken an approved appointment.
func (s *Service) GetProviderDetail(ctx context.Context, providerID, viewerID uuid.UUID, service model.ServiceType, localNow time.Time) (*ProviderDetail, error) {
	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	detail := &ProviderDetail{Provider: provider}

	reviews, err := s.reviewRepo.ListForProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	detail.Reviews = reviews

	if service != "" && provider.Status == model.ApprovalStatusApproved && provider.OffersService(service) {
		slots, err := s.availability.ComputeAvailableSlots(ctx, providerID, service, localNow, availability.DefaultWindowDays)
		if err != nil {
			return nil, err
		}
		detail.SlotDetails = slots

		appointed, err := s.appointmentRepo.HasApproved(ctx, providerID, service)
		if err != nil {
			return nil, err
		}
		detail.IsProviderAppointedEver = appointed
	}

	if viewerID != uuid.Nil {
		upcoming, err := s.appointmentRepo.FirstUpcomingForUser(ctx, providerID, viewerID, localNow)
		if err != nil {
			return nil, err
		}
		detail.IsBookedByCurrentUser = upcoming != nil
	}
	return detail, nil
}

func (s *Service) AddReview(ctx context.Context, req *model.AddReviewRequest) (*model.Review, error) {
	if _, err := s.providerRepo.Get(ctx, req.ProviderID); err != nil {
		return nil, err
	}
	review := &model.Review{
		Base:       model.Base{ID: uuid.New()},
		ProviderID: req.ProviderID,
		UserID:     req.UserID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) ListAppointments(ctx context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return s.appointmentRepo.List(ctx, &model.AppointmentFilters{
		UserID: userID,
		Status: status,
	})
}

// PatientDashboard is the home-screen payload for a patient.
type PatientDashboard struct {
	Upcoming []*model.Appointment `json:"upcoming"`
	Recent   []*model.Appointment `json:"recent"`
}

func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, localNow time.Time) (*PatientDashboard, error) {
	upcoming, err := s.appointmentRepo.List(ctx, &model.AppointmentFilters{
		UserID:    userID,
		Statuses:  model.ActiveStatuses,
		StartDate: localNow,
	})
	if err != nil {
		return nil, err
	}
	recent, err := s.appointmentRepo.List(ctx, &model.AppointmentFilters{
		UserID:  userID,
		EndDate: localNow,
	})
	if err != nil {
		return nil, err
	}
	return &PatientDashboard{Upcoming: upcoming, Recent: recent}, nil
}
