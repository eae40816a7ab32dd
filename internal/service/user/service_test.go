package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository/fake"
	"github.com/carebridge/booking-api/internal/service/availability"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/security"
	"github.com/carebridge/booking-api/pkg/storage"
)

type fixture struct {
	svc          *Service
	users        *fake.UserRepo
	providers    *fake.ProviderRepo
	appointments *fake.AppointmentRepo
	reviews      *fake.ReviewRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := fake.NewUserRepo()
	providers := fake.NewProviderRepo()
	appointments := fake.NewAppointmentRepo()
	reviews := fake.NewReviewRepo()
	availabilitySvc := availability.NewService(providers, fake.NewScheduleRepo(), appointments)

	svc := NewService(users, providers, appointments, reviews, availabilitySvc,
		storage.NewMemoryStorage(), security.NewBcryptHasher(4), zerolog.Nop())
	return &fixture{
		svc:          svc,
		users:        users,
		providers:    providers,
		appointments: appointments,
		reviews:      reviews,
	}
}

func TestSignup(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "Ravi.Kumar@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "ravi.kumar", user.Username)
	assert.Equal(t, model.RolePatient, user.Role)
	assert.NotEmpty(t, user.PublicID)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)

	req := &model.SignupRequest{Email: "ravi@example.com", Password: "s3cret-pass"}
	_, err := f.svc.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Signup(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
}

func TestSignup_UsernameCollision(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "ravi@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	second, err := f.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "ravi@other.org",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "ravi", first.Username)
	assert.NotEqual(t, first.Username, second.Username)
	assert.Contains(t, second.Username, "ravi")
}

func TestSignup_ShortPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "ravi@example.com",
		Password: "short",
	})
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}

func TestApplyForProvider(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "asha@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	req := &model.ApplyForProviderRequest{
		UserID:       user.ID,
		Name:         "Dr. Asha Rao",
		ProviderType: model.ProviderTypeDoctor,
		Services:     []string{"VideoConsultation"},
	}
	provider, err := f.svc.ApplyForProvider(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusPending, provider.Status)

	updated, err := f.users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, updated.Role)

	_, err = f.svc.ApplyForProvider(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
}

func TestListProviders_OnlyApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	approved := &model.Provider{
		Base:         model.Base{ID: uuid.New()},
		UserID:       uuid.New(),
		ProviderType: model.ProviderTypeDoctor,
		Services:     []string{"VideoConsultation"},
		Status:       model.ApprovalStatusApproved,
	}
	require.NoError(t, f.providers.Create(ctx, approved))
	require.NoError(t, f.providers.Create(ctx, &model.Provider{
		Base:         model.Base{ID: uuid.New()},
		UserID:       uuid.New(),
		ProviderType: model.ProviderTypeDoctor,
		Status:       model.ApprovalStatusPending,
	}))

	providers, err := f.svc.ListProviders(ctx, nil)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, approved.ID, providers[0].ID)
}

func TestListHomeCareProviders_FiltersByType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nurse := &model.Provider{
		Base:         model.Base{ID: uuid.New()},
		UserID:       uuid.New(),
		ProviderType: model.ProviderTypeNursing,
		Services:     []string{"HomeCare"},
		Status:       model.ApprovalStatusApproved,
	}
	require.NoError(t, f.providers.Create(ctx, nurse))
	// A doctor offering home care is still not a home-care provider.
	require.NoError(t, f.providers.Create(ctx, &model.Provider{
		Base:         model.Base{ID: uuid.New()},
		UserID:       uuid.New(),
		ProviderType: model.ProviderTypeDoctor,
		Services:     []string{"HomeCare"},
		Status:       model.ApprovalStatusApproved,
	}))

	providers, err := f.svc.ListHomeCareProviders(ctx, nil)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, nurse.ID, providers[0].ID)
}

func TestGetProviderDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	localNow := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	provider := &model.Provider{
		Base:         model.Base{ID: uuid.New()},
		UserID:       uuid.New(),
		ProviderType: model.ProviderTypeDoctor,
		Services:     []string{"VideoConsultation"},
		Status:       model.ApprovalStatusApproved,
	}
	require.NoError(t, f.providers.Create(ctx, provider))

	viewerID := uuid.New()
	require.NoError(t, f.appointments.Create(ctx, &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ProviderID:      provider.ID,
		UserID:          viewerID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: localNow.Add(48 * time.Hour),
		Status:          model.AppointmentStatusApproved,
	}))

	detail, err := f.svc.GetProviderDetail(ctx, provider.ID, viewerID, model.ServiceVideoConsultation, localNow)
	require.NoError(t, err)

	assert.Equal(t, provider.ID, detail.Provider.ID)
	assert.Len(t, detail.SlotDetails, availability.DefaultWindowDays)
	assert.True(t, detail.IsProviderAppointedEver)
	assert.True(t, detail.IsBookedByCurrentUser)

	// Another viewer has no upcoming booking here.
	detail, err = f.svc.GetProviderDetail(ctx, provider.ID, uuid.New(), model.ServiceVideoConsultation, localNow)
	require.NoError(t, err)
	assert.False(t, detail.IsBookedByCurrentUser)
}

func TestAddReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	provider := &model.Provider{
		Base:   model.Base{ID: uuid.New()},
		UserID: uuid.New(),
		Status: model.ApprovalStatusApproved,
	}
	require.NoError(t, f.providers.Create(ctx, provider))

	review, err := f.svc.AddReview(ctx, &model.AddReviewRequest{
		ProviderID: provider.ID,
		UserID:     uuid.New(),
		Rating:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	_, err = f.svc.AddReview(ctx, &model.AddReviewRequest{
		ProviderID: uuid.New(),
		UserID:     uuid.New(),
		Rating:     4,
	})
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}
