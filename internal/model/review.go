package model

import "github.com/google/uuid"

type Review struct {
	Base
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`

	ReviewerName *string `db:"reviewer_name" json:"reviewer_name,omitempty"`
}

type AddReviewRequest struct {
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	Rating     int       `json:"rating" binding:"required,min=1,max=5"`
	Comment    *string   `json:"comment" binding:"omitempty,max=1000"`
}
