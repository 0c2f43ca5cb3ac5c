package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
)

// All repository interfaces in one file
type (
	// SlotTemplateRepository owns recurring slot definitions and their
	// approval state machine.
	SlotTemplateRepository interface {
		Create(ctx context.Context, slot *model.SlotTemplate) error
		Get(ctx context.Context, id uuid.UUID) (*model.SlotTemplate, error)
		// TransitionStatus performs a compare-and-set from `from` to the
		// target status carried on slot; it reports zero updated rows as an
		// invalid transition.
		TransitionStatus(ctx context.Context, id uuid.UUID, from model.SlotStatus, slot *model.SlotTemplate) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.SlotTemplate, error)
		List(ctx context.Context, filters *model.SlotFilters) ([]*model.SlotTemplate, error)
	}

	// BookingRepository is the booking ledger. Create is the sole mutating
	// entry point and must be atomic with the uniqueness check.
	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		IsBooked(ctx context.Context, slotTemplateID uuid.UUID, date time.Time) (bool, error)
		BookedDates(ctx context.Context, slotTemplateID uuid.UUID, start, end time.Time) ([]time.Time, error)
		Cancel(ctx context.Context, id uuid.UUID, reason string) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Booking, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Booking, error)
	}

	// LeaveRepository reads approved leave ranges owned by the
	// leave-management service.
	LeaveRepository interface {
		ListApprovedLeave(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.LeaveApproval, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
