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

const providerColumns = `
	id, user_id, name, provider_type, specialization, services, fee,
	experience, age, description, document, hospital_id, status,
	created_at, updated_at
`

func (r *providerRepository) Create(ctx context.Context, provider *model.Provider) error {
	query := `
		INSERT INTO providers (
			id, user_id, name, provider_type, specialization, services,
			fee, experience, age, description, document, hospital_id,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	now := time.Now()
	provider.CreatedAt = now
	provider.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		provider.ID,
		provider.UserID,
		provider.Name,
		provider.ProviderType,
		provider.Specialization,
		provider.Services,
		provider.Fee,
		provider.Experience,
		provider.Age,
		provider.Description,
		provider.Document,
		provider.HospitalID,
		provider.Status,
		provider.CreatedAt,
		provider.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *providerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("provider", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE user_id = $1`

	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, userID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("provider", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) GetByUsername(ctx context.Context, username string) (*model.Provider, error) {
	query := `
		SELECT p.id, p.user_id, p.name, p.provider_type, p.specialization,
			   p.services, p.fee, p.experience, p.age, p.description,
			   p.document, p.hospital_id, p.status, p.created_at, p.updated_at
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE u.username = $1
	`
	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, username)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("provider", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) Update(ctx context.Context, provider *model.Provider) error {
	query := `
		UPDATE providers
		SET name = $1, provider_type = $2, specialization = $3,
			services = $4, fee = $5, experience = $6, age = $7,
			description = $8, status = $9, updated_at = $10
		WHERE id = $11
	`
	provider.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		provider.Name,
		provider.ProviderType,
		provider.Specialization,
		provider.Services,
		provider.Fee,
		provider.Experience,
		provider.Age,
		provider.Description,
		provider.Status,
		provider.UpdatedAt,
		provider.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("provider", nil)
	}
	return nil
}

func (r *providerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error {
	query := `UPDATE providers SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update provider status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("provider", nil)
	}
	return nil
}

func (r *providerRepository) UpdateDocument(ctx context.Context, id uuid.UUID, document *string) error {
	query := `UPDATE providers SET document = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, document, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update provider document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("provider", nil)
	}
	return nil
}

func (r *providerRepository) List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	query := `
		SELECT p.id, p.user_id, p.name, p.provider_type, p.specialization,
			   p.services, p.fee, p.experience, p.age, p.description,
			   p.document, p.hospital_id, p.status, p.created_at, p.updated_at
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND p.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Type != "" {
			query += fmt.Sprintf(" AND p.provider_type = $%d", argCount)
			args = append(args, filters.Type)
			argCount++
		}
		if filters.Service != "" {
			query += fmt.Sprintf(" AND $%d = ANY(p.services)", argCount)
			args = append(args, string(filters.Service))
			argCount++
		}
		if filters.Speciality != "" {
			query += fmt.Sprintf(" AND $%d = ANY(p.specialization)", argCount)
			args = append(args, filters.Speciality)
			argCount++
		}
		if filters.Address != "" {
			query += fmt.Sprintf(" AND u.address ILIKE $%d", argCount)
			args = append(args, "%"+filters.Address+"%")
			argCount++
		}
	}

	query += " ORDER BY p.created_at DESC"

	providers := []*model.Provider{}
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

func (r *providerRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Provider, error) {
	query := `
		SELECT ` + providerColumns + `
		FROM providers
		WHERE hospital_id = $1
		AND provider_type IN ('Doctor', 'Nursing', 'Lab', 'DoctorsAssistant')
		ORDER BY name ASC
	`
	providers := []*model.Provider{}
	if err := r.db.SelectContext(ctx, &providers, query, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list hospital providers: %w", err)
	}
	return providers, nil
}

// ListPopular ranks approved doctors by their approved-appointment count.
func (r *providerRepository) ListPopular(ctx context.Context, limit int) ([]*model.Provider, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT p.id, p.user_id, p.name, p.provider_type, p.specialization,
			   p.services, p.fee, p.experience, p.age, p.description,
			   p.document, p.hospital_id, p.status, p.created_at, p.updated_at
		FROM providers p
		LEFT JOIN appointments a ON a.provider_id = p.id AND a.status = 'APPROVED'
		WHERE p.provider_type = 'Doctor' AND p.status = 'APPROVED'
		GROUP BY p.id
		ORDER BY COUNT(a.id) DESC, p.created_at ASC
		LIMIT $1
	`
	providers := []*model.Provider{}
	if err := r.db.SelectContext(ctx, &providers, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list popular providers: %w", err)
	}
	return providers, nil
}
