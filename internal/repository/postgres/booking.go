package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

// Create is the single atomic check-then-insert of the booking ledger. The
// partial unique index on (slot_template_id, booking_date) where status is
// confirmed guarantees that of two concurrent inserts exactly one commits;
// the loser surfaces as SlotAlreadyBooked.
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, slot_template_id, patient_id, booking_date,
			reason, urgency, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	booking.ID = uuid.New()
	booking.Status = model.BookingStatusConfirmed
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.SlotTemplateID,
		booking.PatientID,
		booking.Date,
		booking.Reason,
		booking.Urgency,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintConfirmedBooking) {
			return apperrors.SlotAlreadyBooked(err)
		}
		return storageError(fmt.Errorf("failed to create booking: %w", err))
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, slot_template_id, patient_id, booking_date,
			   reason, urgency, status, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", err)
		}
		return nil, storageError(fmt.Errorf("failed to get booking: %w", err))
	}
	return &booking, nil
}

// IsBooked is a point read for fail-fast checks; Create remains the
// authoritative gate.
func (r *bookingRepository) IsBooked(ctx context.Context, slotTemplateID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE slot_template_id = $1
			AND booking_date = $2
			AND status = 'confirmed'
		)
	`
	var booked bool
	err := r.db.GetContext(ctx, &booked, query, slotTemplateID, date)
	if err != nil {
		return false, storageError(fmt.Errorf("failed to check booking: %w", err))
	}
	return booked, nil
}

func (r *bookingRepository) BookedDates(ctx context.Context, slotTemplateID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	query := `
		SELECT booking_date FROM bookings
		WHERE slot_template_id = $1
		AND booking_date >= $2
		AND booking_date < $3
		AND status = 'confirmed'
		ORDER BY booking_date ASC
	`
	var dates []time.Time
	err := r.db.SelectContext(ctx, &dates, query, slotTemplateID, start, end)
	if err != nil {
		return nil, storageError(fmt.Errorf("failed to list booked dates: %w", err))
	}
	return dates, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE bookings
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4 AND status = 'confirmed'
	`
	result, err := r.db.ExecContext(ctx, query,
		model.BookingStatusCancelled,
		reason,
		time.Now(),
		id,
	)
	if err != nil {
		return storageError(fmt.Errorf("failed to cancel booking: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.InvalidTransition("booking is not confirmed")
	}
	return nil
}

func (r *bookingRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT b.id, b.slot_template_id, b.patient_id, b.booking_date,
			   b.reason, b.urgency, b.status, b.cancel_reason, b.created_at, b.updated_at
		FROM bookings b
		JOIN slot_templates s ON s.id = b.slot_template_id
		WHERE s.doctor_id = $1
		ORDER BY b.booking_date ASC
	`
	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, doctorID)
	if err != nil {
		return nil, storageError(fmt.Errorf("failed to list bookings by doctor: %w", err))
	}
	return bookings, nil
}

func (r *bookingRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT id, slot_template_id, patient_id, booking_date,
			   reason, urgency, status, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE patient_id = $1
		ORDER BY booking_date ASC
	`
	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, patientID)
	if err != nil {
		return nil, storageError(fmt.Errorf("failed to list bookings by patient: %w", err))
	}
	return bookings, nil
}
