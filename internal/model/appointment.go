package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusApproved  AppointmentStatus = "APPROVED"
	AppointmentStatusRejected  AppointmentStatus = "REJECTED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// ActiveStatuses are the states that occupy a slot.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusApproved,
}

// CanTransitionTo reports whether a status change is allowed. Transitions
// are one-directional: PENDING is the only non-terminal state.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s != AppointmentStatusPending {
		return false
	}
	switch next {
	case AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	Base
	ProviderID      uuid.UUID         `db:"provider_id" json:"provider_id"`
	UserID          uuid.UUID         `db:"user_id" json:"user_id"`
	PatientID       *uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	SlotID          *uuid.UUID        `db:"slot_id" json:"slot_id,omitempty"`
	Service         ServiceType       `db:"service" json:"service"`
	AppointmentTime time.Time         `db:"appointment_time" json:"appointment_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Reason          *string           `db:"reason" json:"reason,omitempty"`
	IsForOthers     bool              `db:"is_for_others" json:"is_for_others"`
	BookedAt        time.Time         `db:"booked_at" json:"booked_at"`
}

type BookAppointmentRequest struct {
	ProviderID      uuid.UUID   `json:"provider_id" binding:"required"`
	UserID          uuid.UUID   `json:"user_id" binding:"required"`
	PatientID       *uuid.UUID  `json:"patient_id"`
	SlotID          *uuid.UUID  `json:"slot_id"`
	Service         ServiceType `json:"service" binding:"required,oneof=HomeCare VideoConsultation OndeskAppointment IntegratedCare CollaborativeCare LabTest"`
	AppointmentTime time.Time   `json:"appointment_time" binding:"required"`
	Reason          *string     `json:"reason" binding:"omitempty,max=1000"`
	IsForOthers     bool        `json:"is_for_others"`
	BookedAt        *time.Time  `json:"booked_at"`
}

// IntegratedBookingRequest books the two legs of an integrated-care
// visit: a home-care leg with a nursing/lab provider followed by a video
// consultation with a doctor.
type IntegratedBookingRequest struct {
	HomeProviderID  uuid.UUID  `json:"home_provider_id" binding:"required"`
	VideoProviderID uuid.UUID  `json:"video_provider_id" binding:"required"`
	UserID          uuid.UUID  `json:"user_id" binding:"required"`
	PatientID       *uuid.UUID `json:"patient_id"`
	HomeDate        string     `json:"home_date" binding:"required,dateonly"`
	HomeSlot        string     `json:"home_slot" binding:"required,timeslot"`
	VideoDate       string     `json:"video_date" binding:"required,dateonly"`
	VideoSlot       string     `json:"video_slot" binding:"required,timeslot"`
	Reason          *string    `json:"reason" binding:"omitempty,max=1000"`
}

// DaySlots is one calendar day of availability for client display.
type DaySlots struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
	BookedSlots    []string `json:"bookedSlots"`
}

type AppointmentFilters struct {
	ProviderID  uuid.UUID
	ProviderIDs []uuid.UUID
	UserID      uuid.UUID
	Service     ServiceType
	Status      AppointmentStatus
	Statuses    []AppointmentStatus
	StartDate   time.Time
	EndDate     time.Time
}

// AppointmentStats is the parameterized aggregate backing every
// role-specific dashboard.
type AppointmentStats struct {
	Total    int64 `db:"total" json:"total"`
	Pending  int64 `db:"pending" json:"pending"`
	Approved int64 `db:"approved" json:"approved"`
	Rejected int64 `db:"rejected" json:"rejected"`
}

type Dashboard struct {
	Stats        AppointmentStats `json:"stats"`
	TotalToday   int              `json:"total_today"`
	Today        []*Appointment   `json:"today"`
	Upcoming     []*Appointment   `json:"upcoming"`
	LinkedStaff  []*Provider      `json:"linked_staff,omitempty"`
	ProviderName string           `json:"provider_name,omitempty"`
}
