package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

// A template starts pending and moves exactly once to assigned or rejected.
// Only assigned templates are bookable. The legacy UI used "AVAILABLE" for
// the pending state; the API exposes the derived is_pending flag instead of
// reusing that label.
const (
	SlotStatusPending  SlotStatus = "pending"
	SlotStatusAssigned SlotStatus = "assigned"
	SlotStatusRejected SlotStatus = "rejected"
)

// TimeSlot is one of the fixed labeled time windows a doctor can offer.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "8-12"
	TimeSlotAfternoon TimeSlot = "12-4"
	TimeSlotEvening   TimeSlot = "4-8"
	TimeSlotNight     TimeSlot = "20-00"
)

// Valid reports whether the label belongs to the fixed set.
func (t TimeSlot) Valid() bool {
	switch t {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening, TimeSlotNight:
		return true
	}
	return false
}

// SlotTemplate is a recurring weekly availability pattern for one doctor.
// At most one non-rejected template may exist per
// (doctor_id, day_of_week, time_slot); rejection frees the combination.
type SlotTemplate struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DayOfWeek    int        `db:"day_of_week" json:"day_of_week"` // 0-6, Sunday=0
	TimeSlot     TimeSlot   `db:"time_slot" json:"time_slot"`
	Status       SlotStatus `db:"status" json:"status"`
	Notes        string     `db:"notes" json:"notes,omitempty"`
	RejectReason *string    `db:"reject_reason" json:"reject_reason,omitempty"`
	RequestedAt  time.Time  `db:"requested_at" json:"requested_at"`
	DecidedAt    *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy    *uuid.UUID `db:"decided_by" json:"decided_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Weekday converts the stored day number to time.Weekday (both use Sunday=0).
func (s *SlotTemplate) Weekday() time.Weekday {
	return time.Weekday(s.DayOfWeek)
}

// IsPending is the legacy-UI compatibility flag, see SlotStatus docs.
func (s *SlotTemplate) IsPending() bool {
	return s.Status == SlotStatusPending
}

type RequestSlotRequest struct {
	DayOfWeek int      `json:"day_of_week" binding:"min=0,max=6"`
	TimeSlot  TimeSlot `json:"time_slot" binding:"required,timeslot"`
	Notes     string   `json:"notes" binding:"max=1000"`
}

type RejectSlotRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type SlotFilters struct {
	DoctorID  uuid.UUID
	DayOfWeek *int
	Status    SlotStatus
}
