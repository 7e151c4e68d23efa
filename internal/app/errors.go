package app

import (
	"errors"
	"fmt"

	"github.com/rajagurusk/mindron-backend/internal/domain"
	"github.com/rajagurusk/mindron-backend/internal/store"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a record collides with an existing unique key.
	ErrConflict = errors.New("conflict")
	// ErrSignatureMismatch is returned when a payment callback fails verification.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	// ErrUpstream wraps failures of the store, the gateway, the mail relay or
	// the receipt generator.
	ErrUpstream = errors.New("upstream failure")
)

// ValidationError names the input field that was missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// translate maps record and store errors onto the service taxonomy.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *domain.FieldError
	switch {
	case errors.As(err, &fe):
		return &ValidationError{Field: fe.Field, Reason: fe.Reason}
	case errors.Is(err, store.ErrDuplicateKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
	}
}
