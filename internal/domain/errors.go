package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidField is matched by every FieldError.
var ErrInvalidField = errors.New("invalid field")

// FieldError names the first missing or malformed field of a record.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is lets callers match any FieldError with errors.Is(err, ErrInvalidField).
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidField
}
