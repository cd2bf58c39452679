package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource does not exist in the caller's tenant
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthenticated is returned when credentials or tokens cannot be verified
	ErrUnauthenticated = errors.New("authentication failed")
	// ErrForbidden is returned when the principal lacks a required role
	ErrForbidden = errors.New("insufficient permissions")
	// ErrValidation is returned for rejected input
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = errors.New("resource already exists")
	// ErrTenantRequired is returned when a tenant-scoped operation runs without a tenant
	ErrTenantRequired = errors.New("tenant context is required")
	// ErrTooManyAttempts is returned when login attempts are throttled
	ErrTooManyAttempts = errors.New("too many attempts")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a missing resource. The message never says whether the
// resource exists in another tenant.
type NotFoundError struct {
	Resource string
	ID       int64
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a duplicate value for a unique field.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Field, e.Value)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
