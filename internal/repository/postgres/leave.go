package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
)

// The leave_approvals table is owned by the leave-management service; the
// scheduler has read-only access and only ever sees approved rows.
func (r *leaveRepository) ListApprovedLeave(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.LeaveApproval, error) {
	query := `
		SELECT id, doctor_id, start_date, end_date, status
		FROM leave_approvals
		WHERE doctor_id = $1
		AND status = 'approved'
		AND start_date < $3
		AND end_date >= $2
		ORDER BY start_date ASC
	`
	var leaves []*model.LeaveApproval
	err := r.db.SelectContext(ctx, &leaves, query, doctorID, start, end)
	if err != nil {
		return nil, storageError(fmt.Errorf("failed to list approved leave: %w", err))
	}
	return leaves, nil
}
