package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing listing, trade or user.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals invalid input, rejected locally or by the backend.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized signals a missing or rejected session token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals an action on a resource owned by someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict signals a duplicate resource (e.g. email already registered).
	ErrConflict = errors.New("conflict")
	// ErrBackend signals a 5xx response from the backend.
	ErrBackend = errors.New("backend error")
	// ErrUnavailable signals that the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrInvalidTransition signals a state machine transition that is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrMapDisabled signals that no map provider key is configured.
	ErrMapDisabled = errors.New("map disabled")
	// ErrLocationUnavailable signals that geolocation failed or timed out.
	ErrLocationUnavailable = errors.New("location unavailable")
)

// FieldError wraps ErrValidation with the offending field name.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// NewFieldError creates a validation error for a single field.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
