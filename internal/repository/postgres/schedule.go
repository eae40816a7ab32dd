package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/model"
	apperr "github.com/carebridge/booking-api/pkg/errors"
)

const scheduleColumns = `
	id, provider_id, service, date, day_of_week, is_recurring,
	recurrence_type, start_time, end_time, slot_duration, location,
	is_available, created_at, updated_at
`

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	var schedule model.Schedule
	err := r.db.GetContext(ctx, &schedule, query, id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("schedule", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

// Upsert inserts the schedule, or replaces the window fields when a row with
// the same id already exists. Clients generate stable schedule ids so editing
// a window is the same call as creating one.
func (r *scheduleRepository) Upsert(ctx context.Context, schedule *model.Schedule) error {
	query := `
		INSERT INTO schedules (
			id, provider_id, service, date, day_of_week, is_recurring,
			recurrence_type, start_time, end_time, slot_duration, location,
			is_available, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			service = EXCLUDED.service,
			date = EXCLUDED.date,
			day_of_week = EXCLUDED.day_of_week,
			is_recurring = EXCLUDED.is_recurring,
			recurrence_type = EXCLUDED.recurrence_type,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			slot_duration = EXCLUDED.slot_duration,
			location = EXCLUDED.location,
			is_available = EXCLUDED.is_available,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.ProviderID,
		schedule.Service,
		schedule.Date,
		schedule.DayOfWeek,
		schedule.IsRecurring,
		schedule.RecurrenceType,
		schedule.StartTime,
		schedule.EndTime,
		schedule.SlotDuration,
		schedule.Location,
		schedule.IsAvailable,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE provider_id = $1
		ORDER BY start_time ASC
	`
	schedules := []*model.Schedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) ListForService(ctx context.Context, providerID uuid.UUID, service model.ServiceType) ([]*model.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE provider_id = $1 AND service = $2 AND is_available = TRUE
		ORDER BY start_time ASC
	`
	schedules := []*model.Schedule{}
	if err := r.db.SelectContext(ctx, &schedules, query, providerID, service); err != nil {
		return nil, fmt.Errorf("failed to list schedules for service: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) ListSlots(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT id, schedule_id, start_time, end_time, is_booked, created_at, updated_at
		FROM slots
		WHERE schedule_id = $1
		ORDER BY start_time ASC
	`
	slots := []*model.Slot{}
	if err := r.db.SelectContext(ctx, &slots, query, scheduleID); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
