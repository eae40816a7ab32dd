package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carebridge/booking-api/internal/model"
	"github.com/carebridge/booking-api/internal/repository"
	apperr "github.com/carebridge/booking-api/pkg/errors"
	"github.com/carebridge/booking-api/pkg/metrics"
)

// DefaultWindowDays is how far ahead availability is computed.
const DefaultWindowDays = 10

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

type Service struct {
	providerRepo    repository.ProviderRepository
	scheduleRepo    repository.ScheduleRepository
	appointmentRepo repository.AppointmentRepository
}

func NewService(
	providerRepo repository.ProviderRepository,
	scheduleRepo repository.ScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
) *Service {
	return &Service{
		providerRepo:    providerRepo,
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
	}
}

// ComputeAvailableSlots returns one entry per day in [localNow, localNow+days),
// each listing open and booked "HH:MM" slots for the provider/service pair.
// localNow is the caller's wall clock: same-day slots already in the past are
// dropped, and all day-boundary math happens in its location. The result is
// read-only; repeated calls with the same inputs return the same slots.
func (s *Service) ComputeAvailableSlots(ctx context.Context, providerID uuid.UUID, service model.ServiceType, localNow time.Time, days int) ([]*model.DaySlots, error) {
	timer := prometheus.NewTimer(metrics.AvailabilityLatency)
	defer timer.ObserveDuration()

	if days <= 0 {
		days = DefaultWindowDays
	}
	if !service.Valid() {
		return nil, apperr.BadRequest("invalid service type", nil)
	}

	provider, err := s.providerRepo.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.Status != model.ApprovalStatusApproved {
		return nil, apperr.Unauthorized("provider is not approved", nil)
	}
	if !provider.OffersService(service) {
		return nil, apperr.BadRequest("provider does not offer this service", nil)
	}

	schedules, err := s.scheduleRepo.ListForService(ctx, providerID, service)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}

	loc := localNow.Location()
	windowStart := startOfDay(localNow)
	windowEnd := windowStart.AddDate(0, 0, days)

	bookedTimes, err := s.appointmentRepo.ListTimes(ctx, providerID, service, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked appointments: %w", err)
	}
	booked := make(map[int64]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t.Unix()] = true
	}

	result := make([]*model.DaySlots, 0, days)
	for i := 0; i < days; i++ {
		day := windowStart.AddDate(0, 0, i)
		result = append(result, s.slotsForDay(schedules, booked, day, localNow, loc))
	}
	return result, nil
}

// IsSlotAvailable reports whether the "HH:MM" slot on the given
// "YYYY-MM-DD" date is open for booking.
func (s *Service) IsSlotAvailable(ctx context.Context, providerID uuid.UUID, service model.ServiceType, date, slot string, localNow time.Time) (bool, error) {
	loc := localNow.Location()
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return false, apperr.BadRequest("invalid date, expected YYYY-MM-DD", err)
	}
	if _, err := time.Parse(slotLayout, slot); err != nil {
		return false, apperr.BadRequest("invalid slot, expected HH:MM", err)
	}

	offset := daysBetween(localNow, day)
	if offset < 0 {
		return false, nil
	}

	daySlots, err := s.ComputeAvailableSlots(ctx, providerID, service, localNow, offset+1)
	if err != nil {
		return false, err
	}
	for _, ds := range daySlots {
		if ds.Date != date {
			continue
		}
		for _, open := range ds.AvailableSlots {
			if open == slot {
				return true, nil
			}
		}
	}
	return false, nil
}

// SlotTime resolves a "YYYY-MM-DD" + "HH:MM" pair into a timestamp in
// the caller's location.
func SlotTime(date, slot string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+slotLayout, date+" "+slot, loc)
	if err != nil {
		return time.Time{}, apperr.BadRequest("invalid date/slot", err)
	}
	return t, nil
}

func (s *Service) slotsForDay(schedules []*model.Schedule, booked map[int64]bool, day, localNow time.Time, loc *time.Location) *model.DaySlots {
	ds := &model.DaySlots{
		Date:           day.Format(dateLayout),
		AvailableSlots: []string{},
		BookedSlots:    []string{},
	}

	sameDay := day.Equal(startOfDay(localNow))
	seen := map[string]bool{}

	for _, sched := range schedules {
		if !scheduleCoversDay(sched, day) {
			continue
		}
		duration := time.Duration(sched.SlotDuration) * time.Minute
		if duration <= 0 {
			continue
		}

		start := atTimeOfDay(day, sched.StartTime, loc)
		end := atTimeOfDay(day, sched.EndTime, loc)

		// Half-open window: a slot starting at end is excluded.
		for t := start; t.Before(end); t = t.Add(duration) {
			label := t.Format(slotLayout)
			if seen[label] {
				continue
			}
			seen[label] = true

			if booked[t.Unix()] {
				ds.BookedSlots = append(ds.BookedSlots, label)
				continue
			}
			if sameDay && t.Before(localNow) {
				continue
			}
			ds.AvailableSlots = append(ds.AvailableSlots, label)
		}
	}

	sort.Strings(ds.AvailableSlots)
	sort.Strings(ds.BookedSlots)
	return ds
}

func scheduleCoversDay(sched *model.Schedule, day time.Time) bool {
	if sched.Date != nil {
		y1, m1, d1 := sched.Date.Date()
		y2, m2, d2 := day.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	if sched.IsRecurring && sched.DayOfWeek != nil {
		return *sched.DayOfWeek == day.Weekday().String()
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. The calculation uses
// UTC midnights so a DST transition between the two dates cannot skew
// the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return int(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).
		Sub(time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)) / (24 * time.Hour))
}

// atTimeOfDay projects the time-of-day of src onto the given day.
func atTimeOfDay(day, src time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, src.Hour(), src.Minute(), 0, 0, loc)
}
