package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	ErrEmptyCapture  = errors.New("capture has no content")
	ErrMisaligned    = errors.New("document and vector sequences are misaligned")
	ErrNoEmbedding   = errors.New("no embedding available")
	ErrInvalidURL    = errors.New("invalid url")
	ErrEmptyQuery    = errors.New("query is empty")
)

// ValidationError wraps a sentinel with the field and value that failed.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
