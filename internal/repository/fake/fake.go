// Package fake provides in-memory repository implementations for tests.
package fake

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/model"
	apperr "github.com/carebridge/booking-api/pkg/errors"
)

type UserRepo struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*model.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{Users: make(map[uuid.UUID]*model.User)}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.Email == user.Email {
			return apperr.Conflict("user already exists", nil)
		}
	}
	r.Users[user.ID] = user
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, apperr.NotFound("user", nil)
	}
	return u, nil
}

func (r *UserRepo) GetByPublicID(ctx context.Context, publicID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.PublicID == publicID {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", nil)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", nil)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", nil)
}

func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[user.ID]; !ok {
		return apperr.NotFound("user", nil)
	}
	r.Users[user.ID] = user
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[id]; !ok {
		return apperr.NotFound("user", nil)
	}
	delete(r.Users, id)
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.Users))
	for _, u := range r.Users {
		out = append(out, u)
	}
	return out, nil
}

type ProviderRepo struct {
	mu        sync.Mutex
	Providers map[uuid.UUID]*model.Provider
}

func NewProviderRepo() *ProviderRepo {
	return &ProviderRepo{Providers: make(map[uuid.UUID]*model.Provider)}
}

func (r *ProviderRepo) Create(ctx context.Context, p *model.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Providers[p.ID] = p
	return nil
}

func (r *ProviderRepo) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Providers[id]
	if !ok {
		return nil, apperr.NotFound("provider", nil)
	}
	return p, nil
}

func (r *ProviderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.NotFound("provider", nil)
}

func (r *ProviderRepo) GetByUsername(ctx context.Context, username string) (*model.Provider, error) {
	return nil, apperr.NotFound("provider", nil)
}

func (r *ProviderRepo) Update(ctx context.Context, p *model.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Providers[p.ID]; !ok {
		return apperr.NotFound("provider", nil)
	}
	r.Providers[p.ID] = p
	return nil
}

func (r *ProviderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Providers[id]
	if !ok {
		return apperr.NotFound("provider", nil)
	}
	p.Status = status
	return nil
}

func (r *ProviderRepo) UpdateDocument(ctx context.Context, id uuid.UUID, document *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Providers[id]
	if !ok {
		return apperr.NotFound("provider", nil)
	}
	p.Document = document
	return nil
}

func (r *ProviderRepo) List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Provider{}
	for _, p := range r.Providers {
		if filters != nil {
			if filters.Status != "" && p.Status != filters.Status {
				continue
			}
			if filters.Type != "" && p.ProviderType != filters.Type {
				continue
			}
			if filters.Service != "" && !p.OffersService(filters.Service) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProviderRepo) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Provider{}
	for _, p := range r.Providers {
		if p.HospitalID != nil && *p.HospitalID == hospitalID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProviderRepo) ListPopular(ctx context.Context, limit int) ([]*model.Provider, error) {
	return r.List(ctx, &model.ProviderFilters{Status: model.ApprovalStatusApproved, Type: model.ProviderTypeDoctor})
}

type ScheduleRepo struct {
	mu        sync.Mutex
	Schedules []*model.Schedule
}

func NewScheduleRepo() *ScheduleRepo {
	return &ScheduleRepo{}
}

func (r *ScheduleRepo) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Schedules {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperr.NotFound("schedule", nil)
}

func (r *ScheduleRepo) Upsert(ctx context.Context, schedule *model.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.Schedules {
		if s.ID == schedule.ID {
			r.Schedules[i] = schedule
			return nil
		}
	}
	r.Schedules = append(r.Schedules, schedule)
	return nil
}

func (r *ScheduleRepo) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Schedule{}
	for _, s := range r.Schedules {
		if s.ProviderID == providerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *ScheduleRepo) ListForService(ctx context.Context, providerID uuid.UUID, service model.ServiceType) ([]*model.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Schedule{}
	for _, s := range r.Schedules {
		if s.ProviderID == providerID && s.Service == service && s.IsAvailable {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *ScheduleRepo) ListSlots(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error) {
	return []*model.Slot{}, nil
}

type AppointmentRepo struct {
	mu           sync.Mutex
	Appointments map[uuid.UUID]*model.Appointment
	Events       []*model.OutboxEvent

	// FailAtomic makes CreateAtomic fail without writing anything.
	FailAtomic error
}

func NewAppointmentRepo() *AppointmentRepo {
	return &AppointmentRepo{Appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *AppointmentRepo) active(a *model.Appointment) bool {
	return a.Status == model.AppointmentStatusPending || a.Status == model.AppointmentStatusApproved
}

func (r *AppointmentRepo) conflicts(appt *model.Appointment) bool {
	for _, a := range r.Appointments {
		if r.active(a) && a.ProviderID == appt.ProviderID && a.Service == appt.Service && a.AppointmentTime.Equal(appt.AppointmentTime) {
			return true
		}
	}
	return false
}

func (r *AppointmentRepo) Create(ctx context.Context, appt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(appt) {
		return apperr.BadRequest("slot not available", nil)
	}
	r.Appointments[appt.ID] = appt
	return nil
}

func (r *AppointmentRepo) CreateAtomic(ctx context.Context, appointments []*model.Appointment, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAtomic != nil {
		return r.FailAtomic
	}
	for _, a := range appointments {
		if r.conflicts(a) {
			return apperr.BadRequest("slot not available", nil)
		}
	}
	for _, a := range appointments {
		r.Appointments[a.ID] = a
	}
	if event != nil {
		r.Events = append(r.Events, event)
	}
	return nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Appointments[id]
	if !ok {
		return nil, apperr.NotFound("appointment", nil)
	}
	return a, nil
}

func (r *AppointmentRepo) GetForProvider(ctx context.Context, id, providerID uuid.UUID) (*model.Appointment, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ProviderID != providerID {
		return nil, apperr.NotFound("appointment", nil)
	}
	return a, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Appointments[id]
	if !ok {
		return apperr.NotFound("appointment", nil)
	}
	a.Status = status
	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range r.Appointments {
		if filters != nil {
			if filters.UserID != uuid.Nil && a.UserID != filters.UserID {
				continue
			}
			if filters.ProviderID != uuid.Nil && a.ProviderID != filters.ProviderID {
				continue
			}
			if filters.Status != "" && a.Status != filters.Status {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out, nil
}

func (r *AppointmentRepo) ListPaged(ctx context.Context, filters *model.AppointmentFilters, page model.Pagination) ([]*model.Appointment, int64, error) {
	all, err := r.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	return all, int64(len(all)), nil
}

func (r *AppointmentRepo) ListTimes(ctx context.Context, providerID uuid.UUID, service model.ServiceType, from, to time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []time.Time{}
	for _, a := range r.Appointments {
		if a.ProviderID != providerID || a.Service != service || !r.active(a) {
			continue
		}
		if a.AppointmentTime.Before(from) || !a.AppointmentTime.Before(to) {
			continue
		}
		out = append(out, a.AppointmentTime)
	}
	return out, nil
}

func (r *AppointmentRepo) Stats(ctx context.Context, providerIDs []uuid.UUID) (*model.AppointmentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.AppointmentStats{}
	ids := make(map[uuid.UUID]bool, len(providerIDs))
	for _, id := range providerIDs {
		ids[id] = true
	}
	for _, a := range r.Appointments {
		if !ids[a.ProviderID] {
			continue
		}
		stats.Total++
		switch a.Status {
		case model.AppointmentStatusPending:
			stats.Pending++
		case model.AppointmentStatusApproved:
			stats.Approved++
		case model.AppointmentStatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

func (r *AppointmentRepo) HasApproved(ctx context.Context, providerID uuid.UUID, service model.ServiceType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.Appointments {
		if a.ProviderID == providerID && a.Service == service && a.Status == model.AppointmentStatusApproved {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepo) FirstUpcomingForUser(ctx context.Context, providerID, userID uuid.UUID, after time.Time) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first *model.Appointment
	for _, a := range r.Appointments {
		if a.ProviderID != providerID || a.UserID != userID || !r.active(a) || a.AppointmentTime.Before(after) {
			continue
		}
		if first == nil || a.AppointmentTime.Before(first.AppointmentTime) {
			first = a
		}
	}
	return first, nil
}

func (r *AppointmentRepo) ListPatients(ctx context.Context, providerID uuid.UUID) ([]*model.User, error) {
	return []*model.User{}, nil
}

type OutboxRepo struct {
	mu     sync.Mutex
	Events []*model.OutboxEvent

	FailCreate error
}

func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{}
}

func (r *OutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
	r.Events = append(r.Events, event)
	return nil
}

func (r *OutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.OutboxEvent{}
	for _, e := range r.Events {
		if e.Status == model.OutboxStatusPending {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Events {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errMsg
			return nil
		}
	}
	return errors.New("event not found")
}

type MedicalRecordRepo struct {
	mu      sync.Mutex
	Records []*model.MedicalRecord

	// ApprovedPairs marks provider/patient pairs with an approved
	// appointment history.
	ApprovedPairs map[[2]uuid.UUID]bool
}

func NewMedicalRecordRepo() *MedicalRecordRepo {
	return &MedicalRecordRepo{ApprovedPairs: make(map[[2]uuid.UUID]bool)}
}

func (r *MedicalRecordRepo) Create(ctx context.Context, record *model.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, record)
	return nil
}

func (r *MedicalRecordRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.MedicalRecord{}
	for _, rec := range r.Records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MedicalRecordRepo) HasApprovedAppointment(ctx context.Context, providerID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ApprovedPairs[[2]uuid.UUID{providerID, userID}], nil
}

type ReviewRepo struct {
	mu      sync.Mutex
	Reviews []*model.Review
}

func NewReviewRepo() *ReviewRepo {
	return &ReviewRepo{}
}

func (r *ReviewRepo) Create(ctx context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reviews = append(r.Reviews, review)
	return nil
}

func (r *ReviewRepo) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Review{}
	for _, rev := range r.Reviews {
		if rev.ProviderID == providerID {
			out = append(out, rev)
		}
	}
	return out, nil
}
