package attendance

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the kind of every error returned by Evaluate.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes which part of the input was rejected.
// Index is the offending record position, or -1 when the problem is not
// tied to a single record (empty list, threshold).
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: subjects[%d].%s: %s", ErrInvalidInput, e.Index, e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(index int, field, reason string) error {
	return &ValidationError{Index: index, Field: field, Reason: reason}
}
