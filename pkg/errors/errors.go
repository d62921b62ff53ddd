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
	ErrValidation
	ErrConflict
	ErrSlotUnavailable
	ErrImmutablePastSlot
	ErrQueueFull
	ErrAssociationNotFound
	ErrUnauthorized
	ErrForbidden
	ErrInternal
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

// StatusCode maps the error code to an HTTP status. The booking race
// (SlotUnavailable) and capacity errors are expected outcomes and map to
// 409 so callers retry with a different slot rather than report a fault.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound, ErrAssociationNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrConflict, ErrSlotUnavailable, ErrQueueFull, ErrImmutablePastSlot:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors

func NotFound(resource string, err error) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource), Err: err}
}

func Validation(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{Code: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(message string) *AppError {
	return &AppError{Code: ErrConflict, Message: message}
}

func SlotUnavailable(message string) *AppError {
	return &AppError{Code: ErrSlotUnavailable, Message: message}
}

func ImmutablePastSlot(message string) *AppError {
	return &AppError{Code: ErrImmutablePastSlot, Message: message}
}

func QueueFull(message string) *AppError {
	return &AppError{Code: ErrQueueFull, Message: message}
}

func AssociationNotFound(message string) *AppError {
	return &AppError{Code: ErrAssociationNotFound, Message: message}
}

func Unauthorized(err error) *AppError {
	return &AppError{Code: ErrUnauthorized, Message: "unauthorized", Err: err}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: ErrForbidden, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}

// Code extracts the ErrorCode from err, unwrapping as needed. Returns
// ErrInternal for non-application errors.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}
