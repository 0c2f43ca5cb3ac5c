package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaveApproval is an admin-approved interval during which a doctor is
// unavailable. Owned by the leave-management service; this subsystem only
// reads currently-approved ranges.
type LeaveApproval struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"` // inclusive
	Status    string    `db:"status" json:"status"`
}

// Covers reports whether date falls inside the approved range.
func (l *LeaveApproval) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
