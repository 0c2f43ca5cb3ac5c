// Package booking is the transaction handler in front of the booking ledger.
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	"github.com/jwalitptl/scheduler-api/pkg/calendar"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

type Service struct {
	bookingRepo repository.BookingRepository
	slotRepo    repository.SlotTemplateRepository
	leaveRepo   repository.LeaveRepository
	events      event.Emitter
	logger      *logger.Logger
}

func NewService(
	bookingRepo repository.BookingRepository,
	slotRepo repository.SlotTemplateRepository,
	leaveRepo repository.LeaveRepository,
	events event.Emitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		leaveRepo:   leaveRepo,
		events:      events,
		logger:      logger,
	}
}

// Book validates the request and commits it against the ledger. Validation
// order is fixed so callers always get the same, explainable first failure:
// slot bookable, weekday match, leave, reason, a fail-fast booked check,
// then the atomic insert. The
// insert can still fail with SlotAlreadyBooked even after every check passed,
// because another booking may commit between the patient's availability read
// and this call; that is the expected two-phase pattern, not an error in the
// checks.
func (s *Service) Book(ctx context.Context, slotTemplateID uuid.UUID, date time.Time, patientID uuid.UUID, reason string, urgency model.BookingUrgency) (*model.Booking, error) {
	date = calendar.Truncate(date)

	tpl, err := s.slotRepo.Get(ctx, slotTemplateID)
	if err != nil {
		// A template the patient cannot see and a template that is not
		// assigned are the same failure from the booking side.
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil, apperrors.SlotNotBookable()
		}
		return nil, err
	}
	if tpl.Status != model.SlotStatusAssigned {
		return nil, apperrors.SlotNotBookable()
	}

	if date.Weekday() != tpl.Weekday() {
		return nil, apperrors.DateMismatch()
	}

	leaves, err := s.leaveRepo.ListApprovedLeave(ctx, tpl.DoctorID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		if l.Covers(date) {
			return nil, apperrors.DoctorOnLeave()
		}
	}

	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.MissingReason()
	}

	if urgency == "" {
		urgency = model.UrgencyRoutine
	}

	// Fail-fast point read. The unique index inside Create stays the
	// authoritative check, this only spares the insert when the caller's
	// view is obviously stale.
	booked, err := s.bookingRepo.IsBooked(ctx, slotTemplateID, date)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, apperrors.SlotAlreadyBooked(nil)
	}

	booking := &model.Booking{
		SlotTemplateID: slotTemplateID,
		PatientID:      patientID,
		Date:           date,
		Reason:         reason,
		Urgency:        urgency,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.events.Emit(ctx, model.EventBookingCommitted, booking); err != nil {
		s.logger.Error(err, "failed to emit booking committed event", "booking_id", booking.ID.String())
	}

	s.logger.Info("booking committed",
		"booking_id", booking.ID.String(),
		"slot_id", slotTemplateID.String(),
		"patient_id", patientID.String(),
		"date", date.Format("2006-01-02"))
	return booking, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.bookingRepo.Get(ctx, id)
}

// Cancel releases a confirmed booking. The partial unique index only covers
// confirmed rows, so the date becomes bookable again immediately.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requesterID uuid.UUID, reason string) error {
	booking, err := s.bookingRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if booking.PatientID != requesterID {
		return apperrors.Forbidden("only the booking patient can cancel it")
	}
	return s.bookingRepo.Cancel(ctx, id, reason)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error) {
	return s.bookingRepo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Booking, error) {
	return s.bookingRepo.ListByPatient(ctx, patientID)
}
