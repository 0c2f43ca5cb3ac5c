package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type BookingUrgency string

const (
	UrgencyRoutine BookingUrgency = "routine"
	UrgencyUrgent  BookingUrgency = "urgent"
)

// Booking is a patient's claim on one concrete calendar-date occurrence of a
// slot template. At most one confirmed booking may exist per
// (slot_template_id, date), enforced by a unique index in storage.
type Booking struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	SlotTemplateID uuid.UUID      `db:"slot_template_id" json:"slot_template_id"`
	PatientID      uuid.UUID      `db:"patient_id" json:"patient_id"`
	Date           time.Time      `db:"booking_date" json:"date"`
	Reason         string         `db:"reason" json:"reason"`
	Urgency        BookingUrgency `db:"urgency" json:"urgency"`
	Status         BookingStatus  `db:"status" json:"status"`
	CancelReason   *string        `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Date is a calendar day carried as YYYY-MM-DD in JSON, the same form the
// availability query parameters use. It rejects timestamps so a booking can
// never smuggle in a time-of-day component.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

type CreateBookingRequest struct {
	SlotTemplateID uuid.UUID      `json:"slot_template_id" binding:"required"`
	Date           Date           `json:"date" binding:"required"`
	Reason         string         `json:"reason"`
	Urgency        BookingUrgency `json:"urgency" binding:"omitempty,oneof=routine urgent"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// DoctorAvailability pairs an assigned template with the concrete dates a
// patient can still book within the requested window.
type DoctorAvailability struct {
	Template *SlotTemplate `json:"template"`
	Dates    []time.Time   `json:"dates"`
}
