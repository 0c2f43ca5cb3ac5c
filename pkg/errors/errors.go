package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Scheduling error codes. Each maps to a distinct HTTP status and
// user-facing message; callers surface them verbatim.
const (
	ErrDuplicateActiveSlot ErrorCode = iota + 2000
	ErrInvalidTransition
	ErrSlotNotBookable
	ErrDateMismatch
	ErrDoctorOnLeave
	ErrMissingReason
	ErrSlotAlreadyBooked
	ErrStorageUnavailable
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrDateMismatch, ErrMissingReason:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrDuplicateActiveSlot, ErrSlotAlreadyBooked, ErrInvalidTransition:
		return http.StatusConflict
	case ErrSlotNotBookable, ErrDoctorOnLeave:
		return http.StatusUnprocessableEntity
	case ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may safely retry the operation.
// Only storage outages qualify; every other kind needs user input.
func (e *AppError) Retryable() bool {
	return e.Code == ErrStorageUnavailable
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func DuplicateActiveSlot(err error) *AppError {
	return &AppError{
		Code:    ErrDuplicateActiveSlot,
		Message: "an active slot request already exists for this day and time window",
		Err:     err,
	}
}

func InvalidTransition(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: message,
	}
}

func SlotNotBookable() *AppError {
	return &AppError{
		Code:    ErrSlotNotBookable,
		Message: "slot is not open for booking",
	}
}

func DateMismatch() *AppError {
	return &AppError{
		Code:    ErrDateMismatch,
		Message: "booking date does not fall on the slot's weekday",
	}
}

func DoctorOnLeave() *AppError {
	return &AppError{
		Code:    ErrDoctorOnLeave,
		Message: "doctor is on approved leave for this date",
	}
}

func MissingReason() *AppError {
	return &AppError{
		Code:    ErrMissingReason,
		Message: "a reason for the visit is required",
	}
}

func SlotAlreadyBooked(err error) *AppError {
	return &AppError{
		Code:    ErrSlotAlreadyBooked,
		Message: "this date has already been booked for the slot, refresh availability and pick another",
		Err:     err,
	}
}

func StorageUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrStorageUnavailable,
		Message: "storage is temporarily unavailable, try again",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
