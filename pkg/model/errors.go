package model

import "fmt"

// ErrorCode classifies a structured xbench error.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrConstraint   ErrorCode = "CONSTRAINT_ERROR"
	ErrConnectivity ErrorCode = "CONNECTIVITY_ERROR"
	ErrIntegrity    ErrorCode = "INTEGRITY_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error carrying a code and optional per-field detail.
// It is the error type surfaced by config validation and the status server.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific configuration field.
// Path is the dotted location of the offending value; Hint, when present, is
// the human-readable expected-format description for that field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewConstraintError creates an APIError for a numeric/semantic invariant violation.
func NewConstraintError(format string, args ...any) *APIError {
	return &APIError{Code: ErrConstraint, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}
