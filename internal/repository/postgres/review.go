package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/model"
	apperr "github.com/carebridge/booking-api/pkg/errors"
)

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, provider_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.ProviderID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("review already submitted", err)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT r.id, r.provider_id, r.user_id, r.rating, r.comment,
			   r.created_at, r.updated_at, u.name AS reviewer_name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.provider_id = $1
		ORDER BY r.created_at DESC
	`
	reviews := []*model.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
