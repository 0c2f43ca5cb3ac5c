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

func (r *slotTemplateRepository) Create(ctx context.Context, slot *model.SlotTemplate) error {
	query := `
		INSERT INTO slot_templates (
			id, doctor_id, day_of_week, time_slot, status, notes,
			requested_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	slot.ID = uuid.New()
	slot.Status = model.SlotStatusPending
	slot.RequestedAt = time.Now()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.DayOfWeek,
		slot.TimeSlot,
		slot.Status,
		slot.Notes,
		slot.RequestedAt,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintActiveSlot) {
			return apperrors.DuplicateActiveSlot(err)
		}
		return storageError(fmt.Errorf("failed to create slot template: %w", err))
	}
	return nil
}

func (r *slotTemplateRepository) Get(ctx context.Context, id uuid.UUID) (*model.SlotTemplate, error) {
	query := `
		SELECT id, doctor_id, day_of_week, time_slot, status, notes,
			   reject_reason, requested_at, decided_at, decided_by,
			   created_at, updated_at
		FROM slot_templates
		WHERE id = $1
	`
	var slot model.SlotTemplate
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("slot template", err)
		}
		return nil, storageError(fmt.Errorf("failed to get slot template: %w", err))
	}
	return &slot, nil
}

// TransitionStatus is the single atomic state transition for the approval
// workflow. The WHERE clause on the current status is the compare-and-set
// that prevents a double-approve race between two admins.
func (r *slotTemplateRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from model.SlotStatus, slot *model.SlotTemplate) error {
	query := `
		UPDATE slot_templates
		SET status = $1, reject_reason = $2, decided_at = $3, decided_by = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`
	slot.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		slot.Status,
		slot.RejectReason,
		slot.DecidedAt,
		slot.DecidedBy,
		slot.UpdatedAt,
		id,
		from,
	)
	if err != nil {
		return storageError(fmt.Errorf("failed to transition slot template: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.InvalidTransition(fmt.Sprintf("slot template is not %s", from))
	}
	return nil
}

func (r *slotTemplateRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.SlotTemplate, error) {
	query := `
		SELECT id, doctor_id, day_of_week, time_slot, status, notes,
			   reject_reason, requested_at, decided_at, decided_by,
			   created_at, updated_at
		FROM slot_templates
		WHERE doctor_id = $1
		ORDER BY day_of_week ASC, time_slot ASC
	`
	var slots []*model.SlotTemplate
	err := r.db.SelectContext(ctx, &slots, query, doctorID)
	if err != nil {
		return nil, storageError(fmt.Errorf("failed to list slot templates: %w", err))
	}
	return slots, nil
}

func (r *slotTemplateRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.SlotTemplate, error) {
	query := `
		SELECT id, doctor_id, day_of_week, time_slot, status, notes,
			   reject_reason, requested_at, decided_at, decided_by,
			   created_at, updated_at
		FROM slot_templates
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, filters.DoctorID)
			argCount++
		}
		if filters.DayOfWeek != nil {
			query += fmt.Sprintf(" AND day_of_week = $%d", argCount)
			args = append(args, *filters.DayOfWeek)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY requested_at ASC"

	var slots []*model.SlotTemplate
	err := r.db.SelectContext(ctx, &slots, query, args...)
	if err != nil {
		return nil, storageError(fmt.Errorf("failed to list slot templates: %w", err))
	}
	return slots, nil
}
