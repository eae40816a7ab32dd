package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProviderType is the category of a service provider.
type ProviderType string

const (
	ProviderTypeDoctor           ProviderType = "Doctor"
	ProviderTypeNursing          ProviderType = "Nursing"
	ProviderTypeLab              ProviderType = "Lab"
	ProviderTypeHospital         ProviderType = "Hospital"
	ProviderTypeDoctorsAssistant ProviderType = "DoctorsAssistant"
)

func (t ProviderType) Valid() bool {
	switch t {
	case ProviderTypeDoctor, ProviderTypeNursing, ProviderTypeLab,
		ProviderTypeHospital, ProviderTypeDoctorsAssistant:
		return true
	}
	return false
}

// ServiceType is a bookable service offered by a provider.
type ServiceType string

const (
	ServiceHomeCare          ServiceType = "HomeCare"
	ServiceVideoConsultation ServiceType = "VideoConsultation"
	ServiceOndeskAppointment ServiceType = "OndeskAppointment"
	ServiceIntegratedCare    ServiceType = "IntegratedCare"
	ServiceCollaborativeCare ServiceType = "CollaborativeCare"
	ServiceLabTest           ServiceType = "LabTest"
)

// ServiceTypes lists every service type, in display order.
var ServiceTypes = []ServiceType{
	ServiceHomeCare,
	ServiceVideoConsultation,
	ServiceOndeskAppointment,
	ServiceIntegratedCare,
	ServiceCollaborativeCare,
	ServiceLabTest,
}

func (s ServiceType) Valid() bool {
	for _, t := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ApprovalStatus is the admin moderation state of a provider.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

type Provider struct {
	Base
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	Name           string         `db:"name" json:"name"`
	ProviderType   ProviderType   `db:"provider_type" json:"provider_type"`
	Specialization pq.StringArray `db:"specialization" json:"specialization"`
	Services       pq.StringArray `db:"services" json:"services"`
	Fee            *float64       `db:"fee" json:"fee,omitempty"`
	Experience     *int           `db:"experience" json:"experience,omitempty"`
	Age            *int           `db:"age" json:"age,omitempty"`
	Description    *string        `db:"description" json:"description,omitempty"`
	Document       *string        `db:"document" json:"document,omitempty"`
	HospitalID     *uuid.UUID     `db:"hospital_id" json:"hospital_id,omitempty"`
	Status         ApprovalStatus `db:"status" json:"status"`
}

// OffersService reports whether the provider advertises the given service.
func (p *Provider) OffersService(svc ServiceType) bool {
	for _, s := range p.Services {
		if ServiceType(s) == svc {
			return true
		}
	}
	return false
}

type UpdateProviderRequest struct {
	Name           *string      `json:"name"`
	DOB            *string      `json:"dob"`
	BloodGroup     *string      `json:"blood_group"`
	Phone          *string      `json:"phone"`
	Gender         *string      `json:"gender"`
	Specialization []string     `json:"specialization"`
	Services       []string     `json:"services" binding:"omitempty,dive,oneof=HomeCare VideoConsultation OndeskAppointment IntegratedCare CollaborativeCare LabTest"`
	Fee            *float64     `json:"fee" binding:"omitempty,gte=0"`
	Experience     *int         `json:"experience" binding:"omitempty,gte=0"`
	Age            *int         `json:"age" binding:"omitempty,gte=0"`
	Description    *string      `json:"description" binding:"omitempty,max=2000"`
	ProviderType   ProviderType `json:"provider_type" binding:"omitempty,oneof=Doctor Nursing Lab Hospital DoctorsAssistant"`
}

type ApplyForProviderRequest struct {
	UserID         uuid.UUID    `json:"user_id" binding:"required"`
	Name           string       `json:"name" binding:"required"`
	ProviderType   ProviderType `json:"provider_type" binding:"required,oneof=Doctor Nursing Lab Hospital DoctorsAssistant"`
	Specialization []string     `json:"specialization"`
	Services       []string     `json:"services" binding:"required,min=1,dive,oneof=HomeCare VideoConsultation OndeskAppointment IntegratedCare CollaborativeCare LabTest"`
	Fee            *float64     `json:"fee" binding:"omitempty,gte=0"`
	Experience     *int         `json:"experience" binding:"omitempty,gte=0"`
	Description    *string      `json:"description" binding:"omitempty,max=2000"`
}

type ProviderFilters struct {
	Speciality string
	Address    string
	Service    ServiceType
	Status     ApprovalStatus
	Type       ProviderType
}
