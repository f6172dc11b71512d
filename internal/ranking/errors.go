package ranking

import "fmt"

// ValidationError describes a malformed input field. It is always surfaced
// to the caller; the documented neutral-default substitutions in feature
// extraction are policy, not errors.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}
