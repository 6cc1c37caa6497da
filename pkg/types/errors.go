package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies where a failure was detected
type ErrorKind string

const (
	// ErrorKindValidation marks input rejected before any network call
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindRequestFailed marks a collaborator call that was rejected
	// or returned non-success; local state is left unchanged
	ErrorKindRequestFailed ErrorKind = "request_failed"
)

// AlertError is the structured error returned by the alerts service.
// StatusCode carries the collaborator's HTTP status on request
// failures, zero otherwise.
type AlertError struct {
	Kind       ErrorKind `json:"kind"`
	Field      string    `json:"field,omitempty"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AlertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AlertError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error for a required field
func NewValidationError(field, message string) *AlertError {
	return &AlertError{
		Kind:    ErrorKindValidation,
		Field:   field,
		Message: message,
	}
}

// NewRequestError wraps a collaborator failure. The collaborator's
// message is surfaced verbatim when it supplies one; callers pass a
// generic fallback otherwise.
func NewRequestError(message string, cause error) *AlertError {
	return &AlertError{
		Kind:    ErrorKindRequestFailed,
		Message: message,
		Cause:   cause,
	}
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ae *AlertError
	return errors.As(err, &ae) && ae.Kind == ErrorKindValidation
}

// IsRequestFailure reports whether err is a collaborator request failure
func IsRequestFailure(err error) bool {
	var ae *AlertError
	return errors.As(err, &ae) && ae.Kind == ErrorKindRequestFailed
}
