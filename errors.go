package swapcycle

import (
	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/transport/api"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrValidation          = domain.ErrValidation
	ErrUnauthorized        = domain.ErrUnauthorized
	ErrForbidden           = domain.ErrForbidden
	ErrConflict            = domain.ErrConflict
	ErrBackend             = domain.ErrBackend
	ErrUnavailable         = domain.ErrUnavailable
	ErrInvalidTransition   = domain.ErrInvalidTransition
	ErrMapDisabled         = domain.ErrMapDisabled
	ErrLocationUnavailable = domain.ErrLocationUnavailable
)

// FieldError names the input field that failed validation. It matches
// ErrValidation with errors.Is.
type FieldError = domain.FieldError

// APIError is a non-2xx backend response carrying the backend's message.
type APIError = api.APIError
