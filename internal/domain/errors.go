// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or request fails validation.
	// It is usually wrapped by a ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyEmail is returned when a user email is missing.
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrEmptyTaskID is returned when a task carries no id.
	ErrEmptyTaskID = errors.New("task id cannot be empty")

	// ErrMissingTask is returned when a request omits the task payload.
	ErrMissingTask = errors.New("task is required")

	// ErrInvalidAuthMethod is returned for unsupported sign-in mechanisms.
	ErrInvalidAuthMethod = errors.New("invalid auth method")
)

// ValidationError describes a single invalid field. It matches both
// ErrValidation and the wrapped cause under errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap exposes both the validation sentinel and the specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil || errors.Is(e.Err, ErrValidation) {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
