package booking

import (
	"context"
	"net/http"
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
)

var testLoc = time.FixedZone("IST", 5*3600+30*60)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, testLoc)

type fixture struct {
	svc          *Service
	users        *fake.UserRepo
	providers    *fake.ProviderRepo
	schedules    *fake.ScheduleRepo
	appointments *fake.AppointmentRepo
	outbox       *fake.OutboxRepo
	userID       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := fake.NewUserRepo()
	providers := fake.NewProviderRepo()
	schedules := fake.NewScheduleRepo()
	appointments := fake.NewAppointmentRepo()
	outbox := fake.NewOutboxRepo()

	userID := uuid.New()
	require.NoError(t, users.Create(context.Background(), &model.User{
		Base:  model.Base{ID: userID},
		Email: "ravi@example.com",
	}))

	availabilitySvc := availability.NewService(providers, schedules, appointments)
	return &fixture{
		svc:          NewService(appointments, users, outbox, availabilitySvc, nil, zerolog.Nop()),
		users:        users,
		providers:    providers,
		schedules:    schedules,
		appointments: appointments,
		outbox:       outbox,
		userID:       userID,
	}
}

// addProvider registers an approved provider with a date-specific
// 30-minute-slot schedule for the given service on the given day.
func (f *fixture) addProvider(t *testing.T, providerType model.ProviderType, svc model.ServiceType, day time.Time, startHour, endHour int) uuid.UUID {
	t.Helper()
	return f.addProviderSlots(t, providerType, svc, day, startHour, endHour, 30)
}

func (f *fixture) addProviderSlots(t *testing.T, providerType model.ProviderType, svc model.ServiceType, day time.Time, startHour, endHour, slotMinutes int) uuid.UUID {
	t.Helper()
	providerID := uuid.New()
	require.NoError(t, f.providers.Create(context.Background(), &model.Provider{
		Base:         model.Base{ID: providerID},
		UserID:       uuid.New(),
		ProviderType: providerType,
		Services:     []string{string(svc)},
		Status:       model.ApprovalStatusApproved,
	}))
	date := day
	require.NoError(t, f.schedules.Upsert(context.Background(), &model.Schedule{
		Base:         model.Base{ID: uuid.New()},
		ProviderID:   providerID,
		Service:      svc,
		Date:         &date,
		StartTime:    time.Date(2000, 1, 1, startHour, 0, 0, 0, testLoc),
		EndTime:      time.Date(2000, 1, 1, endHour, 0, 0, 0, testLoc),
		SlotDuration: slotMinutes,
		IsAvailable:  true,
	}))
	return providerID
}

func day(offset int) time.Time {
	return time.Date(2026, 3, 2+offset, 0, 0, 0, 0, testLoc)
}

func TestBookAppointment(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	providerID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 9, 12)

	req := &model.BookAppointmentRequest{
		ProviderID:      providerID,
		UserID:          f.userID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: tomorrow.Add(9*time.Hour + 30*time.Minute),
	}
	appt, err := f.svc.BookAppointment(context.Background(), req, testNow)
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, providerID, appt.ProviderID)
	assert.True(t, appt.AppointmentTime.Equal(tomorrow.Add(9*time.Hour+30*time.Minute)))

	stored, err := f.appointments.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt, stored)

	require.Len(t, f.outbox.Events, 1)
	assert.Equal(t, model.EventAppointmentCreated, f.outbox.Events[0].EventType)
	assert.Equal(t, model.OutboxStatusPending, f.outbox.Events[0].Status)
}

func TestBookAppointment_SlotTaken(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	providerID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 9, 12)

	req := &model.BookAppointmentRequest{
		ProviderID:      providerID,
		UserID:          f.userID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: tomorrow.Add(10 * time.Hour),
	}
	_, err := f.svc.BookAppointment(context.Background(), req, testNow)
	require.NoError(t, err)

	_, err = f.svc.BookAppointment(context.Background(), req, testNow)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
	assert.Len(t, f.appointments.Appointments, 1)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	assert.Equal(t, "slot not available", appErr.Message)
}

func TestBookAppointment_OutsideSchedule(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	providerID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 9, 12)

	req := &model.BookAppointmentRequest{
		ProviderID:      providerID,
		UserID:          f.userID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: tomorrow.Add(14 * time.Hour),
	}
	_, err := f.svc.BookAppointment(context.Background(), req, testNow)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
	assert.Empty(t, f.appointments.Appointments)
}

func TestBookAppointment_PastSlotSameDay(t *testing.T) {
	f := newFixture(t)
	today := day(0)
	providerID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, today, 7, 12)

	req := &model.BookAppointmentRequest{
		ProviderID:      providerID,
		UserID:          f.userID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: today.Add(7 * time.Hour),
	}
	_, err := f.svc.BookAppointment(context.Background(), req, testNow)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}

func TestBookIntegratedCare(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	homeID := f.addProvider(t, model.ProviderTypeNursing, model.ServiceHomeCare, tomorrow, 8, 12)
	videoID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 8, 12)

	req := &model.IntegratedBookingRequest{
		HomeProviderID:  homeID,
		VideoProviderID: videoID,
		UserID:          f.userID,
		HomeDate:        tomorrow.Format("2006-01-02"),
		HomeSlot:        "08:00",
		VideoDate:       tomorrow.Format("2006-01-02"),
		VideoSlot:       "10:00",
	}
	appts, err := f.svc.BookIntegratedCare(context.Background(), req, testNow)
	require.NoError(t, err)
	require.Len(t, appts, 2)

	assert.Equal(t, model.ServiceHomeCare, appts[0].Service)
	assert.Equal(t, model.ServiceVideoConsultation, appts[1].Service)
	assert.Equal(t, model.AppointmentStatusPending, appts[0].Status)
	assert.Equal(t, model.AppointmentStatusPending, appts[1].Status)
	assert.Len(t, f.appointments.Appointments, 2)

	// The event rides the same transaction as the two legs.
	require.Len(t, f.appointments.Events, 1)
	assert.Equal(t, model.EventIntegratedBooked, f.appointments.Events[0].EventType)
	assert.Empty(t, f.outbox.Events)
}

func TestBookIntegratedCare_GapBoundary(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	homeID := f.addProvider(t, model.ProviderTypeNursing, model.ServiceHomeCare, tomorrow, 8, 12)
	videoID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 8, 12)

	req := &model.IntegratedBookingRequest{
		HomeProviderID:  homeID,
		VideoProviderID: videoID,
		UserID:          f.userID,
		HomeDate:        tomorrow.Format("2006-01-02"),
		HomeSlot:        "09:30",
		VideoDate:       tomorrow.Format("2006-01-02"),
		VideoSlot:       "10:00",
	}

	// Exactly MinIntegratedGap apart is accepted.
	appts, err := f.svc.BookIntegratedCare(context.Background(), req, testNow)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, MinIntegratedGap, appts[1].AppointmentTime.Sub(appts[0].AppointmentTime))
}

func TestBookIntegratedCare_GapTooSmall(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	// 15-minute slots so every case below lands on an open slot and the
	// gap rule is the check that rejects the booking.
	homeID := f.addProviderSlots(t, model.ProviderTypeNursing, model.ServiceHomeCare, tomorrow, 8, 12, 15)
	videoID := f.addProviderSlots(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 8, 12, 15)

	for _, tc := range []struct {
		name                string
		homeSlot, videoSlot string
	}{
		{"fifteen minutes short", "09:45", "10:00"},
		{"same time", "10:00", "10:00"},
		{"video before home", "10:30", "10:00"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := &model.IntegratedBookingRequest{
				HomeProviderID:  homeID,
				VideoProviderID: videoID,
				UserID:          f.userID,
				HomeDate:        tomorrow.Format("2006-01-02"),
				HomeSlot:        tc.homeSlot,
				VideoDate:       tomorrow.Format("2006-01-02"),
				VideoSlot:       tc.videoSlot,
			}
			_, err := f.svc.BookIntegratedCare(context.Background(), req, testNow)
			assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
			assert.Contains(t, err.Error(), "at least 30 minutes")
			assert.Empty(t, f.appointments.Appointments)
		})
	}
}

func TestBookIntegratedCare_LegUnavailable(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	homeID := f.addProvider(t, model.ProviderTypeNursing, model.ServiceHomeCare, tomorrow, 8, 12)
	videoID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 8, 12)

	// Take the video leg's slot first.
	_, err := f.svc.BookAppointment(context.Background(), &model.BookAppointmentRequest{
		ProviderID:      videoID,
		UserID:          f.userID,
		Service:         model.ServiceVideoConsultation,
		AppointmentTime: tomorrow.Add(10 * time.Hour),
	}, testNow)
	require.NoError(t, err)

	req := &model.IntegratedBookingRequest{
		HomeProviderID:  homeID,
		VideoProviderID: videoID,
		UserID:          f.userID,
		HomeDate:        tomorrow.Format("2006-01-02"),
		HomeSlot:        "08:00",
		VideoDate:       tomorrow.Format("2006-01-02"),
		VideoSlot:       "10:00",
	}
	_, err = f.svc.BookIntegratedCare(context.Background(), req, testNow)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
	assert.Contains(t, err.Error(), "video consultation slot not available")

	// Neither leg was written: only the earlier single booking remains.
	assert.Len(t, f.appointments.Appointments, 1)
}

func TestBookIntegratedCare_AtomicFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	tomorrow := day(1)
	homeID := f.addProvider(t, model.ProviderTypeNursing, model.ServiceHomeCare, tomorrow, 8, 12)
	videoID := f.addProvider(t, model.ProviderTypeDoctor, model.ServiceVideoConsultation, tomorrow, 8, 12)

	f.appointments.FailAtomic = assert.AnError

	req := &model.IntegratedBookingRequest{
		HomeProviderID:  homeID,
		VideoProviderID: videoID,
		UserID:          f.userID,
		HomeDate:        tomorrow.Format("2006-01-02"),
		HomeSlot:        "08:00",
		VideoDate:       tomorrow.Format("2006-01-02"),
		VideoSlot:       "10:00",
	}
	_, err := f.svc.BookIntegratedCare(context.Background(), req, testNow)
	require.Error(t, err)

	assert.Empty(t, f.appointments.Appointments)
	assert.Empty(t, f.appointments.Events)
}

func TestBookIntegratedCare_MalformedSlot(t *testing.T) {
	f := newFixture(t)

	req := &model.IntegratedBookingRequest{
		HomeProviderID:  uuid.New(),
		VideoProviderID: uuid.New(),
		UserID:          f.userID,
		HomeDate:        "03/03/2026",
		HomeSlot:        "08:00",
		VideoDate:       "2026-03-03",
		VideoSlot:       "10:00",
	}
	_, err := f.svc.BookIntegratedCare(context.Background(), req, testNow)
	assert.True(t, apperr.Is(err, apperr.ErrBadRequest))
}
