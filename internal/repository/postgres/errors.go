package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"

	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

// Constraint names the repositories key their conflict handling on. They
// must match the migrations.
const (
	constraintActiveSlot       = "slot_templates_active_combo_idx"
	constraintConfirmedBooking = "bookings_confirmed_slot_date_idx"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

// storageError folds connection-level failures into the retryable
// StorageUnavailable kind; everything else passes through untouched.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return apperrors.StorageUnavailable(err)
	}
	return err
}
