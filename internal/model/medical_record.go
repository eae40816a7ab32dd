package model

import "github.com/google/uuid"

type MedicalRecord struct {
	Base
	RecordID     string    `db:"record_id" json:"record_id"`
	ProviderID   uuid.UUID `db:"provider_id" json:"provider_id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Attachment   string    `db:"attachment" json:"attachment"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Diagnosis    string    `db:"diagnosis" json:"diagnosis"`
	Prescription string    `db:"prescription" json:"prescription"`

	ProviderName *string `db:"provider_name" json:"provider_name,omitempty"`
}

type AddMedicalRecordRequest struct {
	PatientID    uuid.UUID `form:"patient_id" binding:"required"`
	ProviderID   uuid.UUID `form:"provider_id" binding:"required"`
	Description  *string   `form:"description" binding:"omitempty,max=2000"`
	Diagnosis    string    `form:"diagnosis" binding:"required,max=2000"`
	Prescription string    `form:"prescription" binding:"required,max=4000"`
}
