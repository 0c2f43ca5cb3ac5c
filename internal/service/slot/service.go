// Package slot owns the slot template store and its approval workflow.
package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

type Service struct {
	repo   repository.SlotTemplateRepository
	events event.Emitter
	logger *logger.Logger
}

func NewService(repo repository.SlotTemplateRepository, events event.Emitter, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// Request creates a pending template for the doctor. The storage layer
// rejects a second non-rejected template for the same
// (doctor, weekday, window) with DuplicateActiveSlot.
func (s *Service) Request(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, timeSlot model.TimeSlot, notes string) (*model.SlotTemplate, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, apperrors.NewBadRequest("day_of_week must be between 0 and 6", nil)
	}
	if !timeSlot.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown time slot %q", timeSlot), nil)
	}

	slot := &model.SlotTemplate{
		DoctorID:  doctorID,
		DayOfWeek: dayOfWeek,
		TimeSlot:  timeSlot,
		Notes:     notes,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("slot requested",
		"slot_id", slot.ID.String(),
		"doctor_id", doctorID.String(),
		"day_of_week", dayOfWeek,
		"time_slot", string(timeSlot))
	return slot, nil
}

// Approve moves a pending template to assigned. The transition is a
// compare-and-set on the pending status, so of two admins racing on the same
// template only one decision lands.
func (s *Service) Approve(ctx context.Context, templateID, adminID uuid.UUID) (*model.SlotTemplate, error) {
	slot, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	slot.Status = model.SlotStatusAssigned
	slot.DecidedAt = &now
	slot.DecidedBy = &adminID

	if err := s.repo.TransitionStatus(ctx, templateID, model.SlotStatusPending, slot); err != nil {
		return nil, err
	}

	if err := s.events.Emit(ctx, model.EventSlotApproved, slot); err != nil {
		s.logger.Error(err, "failed to emit slot approved event", "slot_id", templateID.String())
	}

	s.logger.Info("slot approved", "slot_id", templateID.String(), "admin_id", adminID.String())
	return slot, nil
}

// Reject moves a pending template to the terminal rejected state and frees
// the (doctor, weekday, window) combination for a new request.
func (s *Service) Reject(ctx context.Context, templateID, adminID uuid.UUID, reason string) (*model.SlotTemplate, error) {
	slot, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	slot.Status = model.SlotStatusRejected
	slot.RejectReason = &reason
	slot.DecidedAt = &now
	slot.DecidedBy = &adminID

	if err := s.repo.TransitionStatus(ctx, templateID, model.SlotStatusPending, slot); err != nil {
		return nil, err
	}

	if err := s.events.Emit(ctx, model.EventSlotRejected, slot); err != nil {
		s.logger.Error(err, "failed to emit slot rejected event", "slot_id", templateID.String())
	}

	s.logger.Info("slot rejected", "slot_id", templateID.String(), "admin_id", adminID.String())
	return slot, nil
}

func (s *Service) Get(ctx context.Context, templateID uuid.UUID) (*model.SlotTemplate, error) {
	return s.repo.Get(ctx, templateID)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.SlotTemplate, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) List(ctx context.Context, filters *model.SlotFilters) ([]*model.SlotTemplate, error) {
	return s.repo.List(ctx, filters)
}
