package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown entry ids, unknown projects and
	// entries whose JSON document is missing.
	ErrNotFound = errors.New("memory: not found")

	// ErrNoChanges is returned by Update when no field was supplied.
	ErrNoChanges = errors.New("memory: no fields to update")

	// ErrConflict is returned by Update when ExpectedUpdatedAt no longer
	// matches the stored entry.
	ErrConflict = errors.New("memory: entry was modified concurrently")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("memory: invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
