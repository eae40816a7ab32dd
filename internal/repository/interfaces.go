package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByPublicID(ctx context.Context, publicID string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.User, error)
	}

	ProviderRepository interface {
		Create(ctx context.Context, provider *model.Provider) error
		Get(ctx context.Context, id uuid.UUID) (*model.Provider, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error)
		GetByUsername(ctx context.Context, username string) (*model.Provider, error)
		Update(ctx context.Context, provider *model.Provider) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error
		UpdateDocument(ctx context.Context, id uuid.UUID, document *string) error
		List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error)
		ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Provider, error)
		ListPopular(ctx context.Context, limit int) ([]*model.Provider, error)
	}

	ScheduleRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
		Upsert(ctx context.Context, schedule *model.Schedule) error
		ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Schedule, error)
		ListForService(ctx context.Context, providerID uuid.UUID, service model.ServiceType) ([]*model.Schedule, error)
		ListSlots(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		CreateAtomic(ctx context.Context, appointments []*model.Appointment, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetForProvider(ctx context.Context, id, providerID uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListPaged(ctx context.Context, filters *model.AppointmentFilters, page model.Pagination) ([]*model.Appointment, int64, error)
		ListTimes(ctx context.Context, providerID uuid.UUID, service model.ServiceType, from, to time.Time) ([]time.Time, error)
		Stats(ctx context.Context, providerIDs []uuid.UUID) (*model.AppointmentStats, error)
		HasApproved(ctx context.Context, providerID uuid.UUID, service model.ServiceType) (bool, error)
		FirstUpcomingForUser(ctx context.Context, providerID, userID uuid.UUID, after time.Time) (*model.Appointment, error)
		ListPatients(ctx context.Context, providerID uuid.UUID) ([]*model.User, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.MedicalRecord, error)
		HasApprovedAppointment(ctx context.Context, providerID, userID uuid.UUID) (bool, error)
	}

	ReviewRepository interface {
		Create(ctx context.Context, review *model.Review) error
		ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Review, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}
)
