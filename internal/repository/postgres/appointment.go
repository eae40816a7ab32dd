package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carebridge/booking-api/internal/model"
	apperr "github.com/carebridge/booking-api/pkg/errors"
)

const appointmentColumns = `
	id, provider_id, user_id, patient_id, slot_id, service,
	appointment_time, status, reason, is_for_others, booked_at,
	created_at, updated_at
`

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, raised by the partial unique index on
// (provider_id, service, appointment_time) for active appointments.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, provider_id, user_id, patient_id, slot_id, service,
			appointment_time, status, reason, is_for_others, booked_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ProviderID,
		appointment.UserID,
		appointment.PatientID,
		appointment.SlotID,
		appointment.Service,
		appointment.AppointmentTime,
		appointment.Status,
		appointment.Reason,
		appointment.IsForOthers,
		appointment.BookedAt,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.BadRequest("slot not available", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// CreateAtomic inserts every appointment, and the optional outbox event,
// in one transaction. Either all rows persist or none do.
func (r *appointmentRepository) CreateAtomic(ctx context.Context, appointments []*model.Appointment, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO appointments (
			id, provider_id, user_id, patient_id, slot_id, service,
			appointment_time, status, reason, is_for_others, booked_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	now := time.Now()
	for _, apt := range appointments {
		apt.CreatedAt = now
		apt.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.ProviderID,
			apt.UserID,
			apt.PatientID,
			apt.SlotID,
			apt.Service,
			apt.AppointmentTime,
			apt.Status,
			apt.Reason,
			apt.IsForOthers,
			apt.BookedAt,
			apt.CreatedAt,
			apt.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return apperr.BadRequest("slot not available", err)
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}
	}

	if event != nil {
		eventQuery := `
			INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, eventQuery,
			event.ID, event.EventType, event.Payload, event.Status, now, now,
		); err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetForProvider(ctx context.Context, id, providerID uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND provider_id = $2`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id, providerID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("appointment", nil)
	}
	return nil
}

func buildAppointmentFilter(filters *model.AppointmentFilters) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	add := func(clause string, value interface{}) {
		where += fmt.Sprintf(" AND "+clause, argCount)
		args = append(args, value)
		argCount++
	}

	if filters == nil {
		return where, args
	}
	if filters.ProviderID != uuid.Nil {
		add("provider_id = $%d", filters.ProviderID)
	}
	if len(filters.ProviderIDs) > 0 {
		add("provider_id = ANY($%d)", pq.Array(filters.ProviderIDs))
	}
	if filters.UserID != uuid.Nil {
		add("user_id = $%d", filters.UserID)
	}
	if filters.Service != "" {
		add("service = $%d", filters.Service)
	}
	if filters.Status != "" {
		add("status = $%d", filters.Status)
	}
	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}
	if !filters.StartDate.IsZero() {
		add("appointment_time >= $%d", filters.StartDate)
	}
	if !filters.EndDate.IsZero() {
		add("appointment_time < $%d", filters.EndDate)
	}
	return where, args
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	where, args := buildAppointmentFilter(filters)
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + where + ` ORDER BY appointment_time ASC`

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListPaged(ctx context.Context, filters *model.AppointmentFilters, page model.Pagination) ([]*model.Appointment, int64, error) {
	page.Normalize()
	where, args := buildAppointmentFilter(filters)

	var total int64
	countQuery := `SELECT COUNT(*) FROM appointments` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+appointmentColumns+` FROM appointments`+where+
			` ORDER BY appointment_time DESC LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, page.PageSize, page.Offset())

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

// ListTimes returns the appointment timestamps occupying slots for the
// provider/service inside [from, to).
func (r *appointmentRepository) ListTimes(ctx context.Context, providerID uuid.UUID, service model.ServiceType, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT appointment_time
		FROM appointments
		WHERE provider_id = $1
		AND service = $2
		AND appointment_time >= $3
		AND appointment_time < $4
		AND status IN ('PENDING', 'APPROVED')
		ORDER BY appointment_time ASC
	`
	times := []time.Time{}
	if err := r.db.SelectContext(ctx, &times, query, providerID, service, from, to); err != nil {
		return nil, fmt.Errorf("failed to list appointment times: %w", err)
	}
	return times, nil
}

// Stats computes the status aggregate backing every dashboard, for one
// provider or a hospital's linked set.
func (r *appointmentRepository) Stats(ctx context.Context, providerIDs []uuid.UUID) (*model.AppointmentStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
			COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
			COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
		FROM appointments
		WHERE provider_id = ANY($1)
	`
	var stats model.AppointmentStats
	if err := r.db.GetContext(ctx, &stats, query, pq.Array(providerIDs)); err != nil {
		return nil, fmt.Errorf("failed to aggregate appointments: %w", err)
	}
	return &stats, nil
}

func (r *appointmentRepository) HasApproved(ctx context.Context, providerID uuid.UUID, service model.ServiceType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE provider_id = $1 AND status = 'APPROVED'
	`
	args := []interface{}{providerID}
	if service != "" {
		query += ` AND service = $2`
		args = append(args, service)
	}
	query += `)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check approved appointments: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) FirstUpcomingForUser(ctx context.Context, providerID, userID uuid.UUID, after time.Time) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE provider_id = $1 AND user_id = $2 AND appointment_time >= $3
		ORDER BY appointment_time ASC
		LIMIT 1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, providerID, userID, after)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming appointment: %w", err)
	}
	return &appointment, nil
}

// ListPatients returns the distinct users with an approved appointment
// at the provider.
func (r *appointmentRepository) ListPatients(ctx context.Context, providerID uuid.UUID) ([]*model.User, error) {
	query := `
		SELECT DISTINCT ON (u.id)
			u.id, u.public_id, u.email, u.username, u.name, u.dob,
			u.blood_group, u.phone, u.gender, u.address, u.profile_pic,
			u.role, u.created_at, u.updated_at
		FROM appointments a
		JOIN users u ON u.id = a.user_id
		WHERE a.provider_id = $1 AND a.status = 'APPROVED'
		ORDER BY u.id
	`
	patients := []*model.User{}
	if err := r.db.SelectContext(ctx, &patients, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
