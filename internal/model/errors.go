package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when a non-owner, non-admin attempts a restricted action.
	ErrForbidden = errors.New("not allowed")
)

// ValidationError reports malformed or out-of-range input on one field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
