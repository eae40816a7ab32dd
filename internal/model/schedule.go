package model

import (
	"time"

	"github.com/google/uuid"
)

// Schedule is a recurring or date-specific availability window for one
// provider/service combination. Slots may be materialized per window or
// derived on the fly by stepping [StartTime, EndTime) in SlotDuration
// minute increments.
type Schedule struct {
	Base
	ProviderID     uuid.UUID   `db:"provider_id" json:"provider_id"`
	Service        ServiceType `db:"service" json:"service"`
	Date           *time.Time  `db:"date" json:"date,omitempty"`
	DayOfWeek      *string     `db:"day_of_week" json:"day_of_week,omitempty"`
	IsRecurring    bool        `db:"is_recurring" json:"is_recurring"`
	RecurrenceType *string     `db:"recurrence_type" json:"recurrence_type,omitempty"`
	StartTime      time.Time   `db:"start_time" json:"start_time"`
	EndTime        time.Time   `db:"end_time" json:"end_time"`
	SlotDuration   int         `db:"slot_duration" json:"slot_duration"`
	Location       *string     `db:"location" json:"location,omitempty"`
	IsAvailable    bool        `db:"is_available" json:"is_available"`
	Slots          []*Slot     `db:"-" json:"slots,omitempty"`
}

// Slot is a materialized occurrence of a schedule window.
type Slot struct {
	Base
	ScheduleID uuid.UUID `db:"schedule_id" json:"schedule_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	IsBooked   bool      `db:"is_booked" json:"is_booked"`
}

type UpsertScheduleRequest struct {
	ID             uuid.UUID   `json:"id" binding:"required"`
	ProviderID     uuid.UUID   `json:"provider_id" binding:"required"`
	Service        ServiceType `json:"service" binding:"required,oneof=HomeCare VideoConsultation OndeskAppointment IntegratedCare CollaborativeCare LabTest"`
	Date           *string     `json:"date"`
	DayOfWeek      *string     `json:"day_of_week"`
	IsRecurring    bool        `json:"is_recurring"`
	RecurrenceType *string     `json:"recurrence_type"`
	StartTime      time.Time   `json:"start_time" binding:"required"`
	EndTime        time.Time   `json:"end_time" binding:"required,gtfield=StartTime"`
	SlotDuration   int         `json:"slot_duration" binding:"required,min=5,max=240"`
	Location       *string     `json:"location"`
	IsAvailable    bool        `json:"is_available"`
}

// ScheduleBook groups a provider's schedules by service type, every
// service key always present for client display.
type ScheduleBook map[ServiceType][]*Schedule

func NewScheduleBook(schedules []*Schedule) ScheduleBook {
	book := make(ScheduleBook, len(ServiceTypes))
	for _, svc := range ServiceTypes {
		book[svc] = []*Schedule{}
	}
	for _, s := range schedules {
		if _, ok := book[s.Service]; ok {
			book[s.Service] = append(book[s.Service], s)
		}
	}
	return book
}
