package admin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository/fake"
	apperr "github.com/carebridge/booking-api/pkg/errors"
)

type fixture struct {
	svc       *Service
	users     *fake.UserRepo
	providers *fake.ProviderRepo
	outbox    *fake.OutboxRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := fake.NewUserRepo()
	providers := fake.NewProviderRepo()
	outbox := fake.NewOutboxRepo()
	svc := NewService(users, providers, fake.NewAppointmentRepo(), outbox, nil, zerolog.Nop())
	return &fixture{svc: svc, users: users, providers: providers, outbox: outbox}
}

func (f *fixture) addApplicant(t *testing.T, status model.ApprovalStatus) *model.Provider {
	t.Helper()
	p := &model.Provider{
		Base:         model.Base{ID: uuid.New()},
		UserID:       uuid.New(),
		Name:         "Dr. Meera Shah",
		ProviderType: model.ProviderTypeDoctor,
		Services:     []string{"VideoConsultation"},
		Status:       status,
	}
	require.NoError(t, f.providers.Create(context.Background(), p))
	return p
}

func TestActionOnProvider_Approve(t *testing.T) {
	f := newFixture(t)
	applicant := f.addApplicant(t, model.ApprovalStatusPending)

	provider, err := f.svc.ActionOnProvider(context.Background(), applicant.ID, model.ApprovalStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, provider.Status)

	stored, err := f.providers.Get(context.Background(), applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, stored.Status)

	require.Len(t, f.outbox.Events, 1)
	assert.Equal(t, model.EventProviderModerated, f.outbox.Events[0].EventType)
}

func TestActionOnProvider_Reject(t *testing.T) {
	f := newFixture(t)
	applicant := f.addApplicant(t, model.ApprovalStatusPending)

	provider, err := f.svc.ActionOnProvider(context.Background(), applicant.ID, model.ApprovalStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusRejected, provider.Status)
}

func TestActionOnProvider_AlreadyReviewed(t *testing.T) {
	f := newFixture(t)
	approved := f.addApplicant(t, model.ApprovalStatusApproved)

	_, err := f.svc.ActionOnProvider(context.Background(), approved.ID, model.ApprovalStatusRejected)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))

	stored, err := f.providers.Get(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, stored.Status)
	assert.Empty(t, f.outbox.Events)
}

func TestActionOnProvider_InvalidAction(t *testing.T) {
	f := newFixture(t)
	applicant := f.addApplicant(t, model.ApprovalStatusPending)

	_, err := f.svc.ActionOnProvider(context.Background(), applicant.ID, model.ApprovalStatusPending)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}

func TestActionOnProvider_UnknownProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ActionOnProvider(context.Background(), uuid.New(), model.ApprovalStatusApproved)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestListUnverifiedProviders(t *testing.T) {
	f := newFixture(t)
	pending := f.addApplicant(t, model.ApprovalStatusPending)
	f.addApplicant(t, model.ApprovalStatusApproved)
	f.addApplicant(t, model.ApprovalStatusRejected)

	providers, err := f.svc.ListUnverifiedProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, pending.ID, providers[0].ID)
}
