package provider

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
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/storage"
)

type fixture struct {
	svc          *Service
	providers    *fake.ProviderRepo
	users        *fake.UserRepo
	schedules    *fake.ScheduleRepo
	appointments *fake.AppointmentRepo
	outbox       *fake.OutboxRepo
	store        storage.Storage
	userID       uuid.UUID
	providerID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	providers := fake.NewProviderRepo()
	users := fake.NewUserRepo()
	schedules := fake.NewScheduleRepo()
	appointments := fake.NewAppointmentRepo()
	outbox := fake.NewOutboxRepo()
	store := storage.NewMemoryStorage()

	userID := uuid.New()
	providerID := uuid.New()
	require.NoError(t, users.Create(context.Background(), &model.User{
		Base:  model.Base{ID: userID},
		Email: "asha@example.com",
	}))
	require.NoError(t, providers.Create(context.Background(), &model.Provider{
		Base:         model.Base{ID: providerID},
		UserID:       userID,
		Name:         "Dr. Asha Rao",
		ProviderType: model.ProviderTypeDoctor,
		Services:     []string{"VideoConsultation"},
		Status:       model.ApprovalStatusApproved,
	}))

	svc := NewService(providers, users, schedules, appointments, outbox, store, nil, zerolog.Nop())
	return &fixture{
		svc:          svc,
		providers:    providers,
		users:        users,
		schedules:    schedules,
		appointments: appointments,
		outbox:       outbox,
		store:        store,
		userID:       userID,
		providerID:   providerID,
	}
}

func scheduleRequest(providerID uuid.UUID) *model.UpsertScheduleRequest {
	date := "2026-03-10"
	return &model.UpsertScheduleRequest{
		ID:           uuid.New(),
		ProviderID:   providerID,
		Service:      model.ServiceVideoConsultation,
		Date:         &date,
		StartTime:    time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		SlotDuration: 30,
		IsAvailable:  true,
	}
}

func TestUpsertSchedule(t *testing.T) {
	f := newFixture(t)

	req := scheduleRequest(f.providerID)
	schedule, err := f.svc.UpsertSchedule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.ID, schedule.ID)
	require.NotNil(t, schedule.Date)
	assert.Equal(t, "2026-03-10", schedule.Date.Format("2006-01-02"))

	// Same id replaces the window.
	req.SlotDuration = 15
	schedule, err = f.svc.UpsertSchedule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 15, schedule.SlotDuration)
	assert.Len(t, f.schedules.Schedules, 1)
}

func TestUpsertSchedule_ServiceNotOffered(t *testing.T) {
	f := newFixture(t)

	req := scheduleRequest(f.providerID)
	req.Service = model.ServiceHomeCare
	_, err := f.svc.UpsertSchedule(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}

func TestUpsertSchedule_NeedsDateOrRecurrence(t *testing.T) {
	f := newFixture(t)

	req := scheduleRequest(f.providerID)
	req.Date = nil
	_, err := f.svc.UpsertSchedule(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))

	day := "Monday"
	req.IsRecurring = true
	req.DayOfWeek = &day
	_, err = f.svc.UpsertSchedule(context.Background(), req)
	assert.NoError(t, err)
}

func TestUpsertSchedule_BadDate(t *testing.T) {
	f := newFixture(t)

	bad := "10/03/2026"
	req := scheduleRequest(f.providerID)
	req.Date = &bad
	_, err := f.svc.UpsertSchedule(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}

func TestDocumentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.AddDocument(ctx, f.providerID, "application/pdf", []byte("license"))
	require.NoError(t, err)

	obj, err := f.store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("license"), obj.Data)

	// A second upload without removing the first is refused.
	_, err = f.svc.AddDocument(ctx, f.providerID, "application/pdf", []byte("other"))
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	require.NoError(t, f.svc.RemoveDocument(ctx, f.providerID))
	_, err = f.store.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	assert.True(t, apperr.Is(f.svc.RemoveDocument(ctx, f.providerID), apperr.ErrNotFound))

	_, err = f.svc.AddDocument(ctx, f.providerID, "application/pdf", []byte("other"))
	assert.NoError(t, err)
}

func TestActionOnAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ProviderID:      f.providerID,
		UserID:          uuid.New(),
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:          model.AppointmentStatusPending,
	}
	require.NoError(t, f.appointments.Create(ctx, appt))

	updated, err := f.svc.ActionOnAppointment(ctx, f.userID, appt.ID, model.AppointmentStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusApproved, updated.Status)

	require.Len(t, f.outbox.Events, 1)
	assert.Equal(t, model.EventAppointmentActioned, f.outbox.Events[0].EventType)

	// Approved is terminal.
	_, err = f.svc.ActionOnAppointment(ctx, f.userID, appt.ID, model.AppointmentStatusCancelled)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}

func TestActionOnAppointment_NotOwnAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ProviderID:      uuid.New(),
		UserID:          uuid.New(),
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Status:          model.AppointmentStatusPending,
	}
	require.NoError(t, f.appointments.Create(ctx, appt))

	_, err := f.svc.ActionOnAppointment(ctx, f.userID, appt.ID, model.AppointmentStatusApproved)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestGetProvider_CacheInvalidatedOnUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetProvider(ctx, f.providerID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Asha Rao", first.Name)

	name := "Dr. A. Rao"
	_, err = f.svc.UpdateProfile(ctx, f.userID, &model.UpdateProviderRequest{Name: &name})
	require.NoError(t, err)

	refreshed, err := f.svc.GetProvider(ctx, f.providerID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. A. Rao", refreshed.Name)
}
