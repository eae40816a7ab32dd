package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/model"
)

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, record_id, provider_id, user_id, attachment, description,
			diagnosis, prescription, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.RecordID,
		record.ProviderID,
		record.UserID,
		record.Attachment,
		record.Description,
		record.Diagnosis,
		record.Prescription,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `
		SELECT m.id, m.record_id, m.provider_id, m.user_id, m.attachment,
			   m.description, m.diagnosis, m.prescription, m.created_at,
			   m.updated_at, p.name AS provider_name
		FROM medical_records m
		JOIN providers p ON p.id = m.provider_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
	`
	records := []*model.MedicalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

// HasApprovedAppointment reports whether the provider has ever had an
// approved appointment with the user. Providers may only attach records
// for their own patients.
func (r *medicalRecordRepository) HasApprovedAppointment(ctx context.Context, providerID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE provider_id = $1 AND user_id = $2 AND status = 'APPROVED'
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, providerID, userID); err != nil {
		return false, fmt.Errorf("failed to check provider-patient relation: %w", err)
	}
	return exists, nil
}
