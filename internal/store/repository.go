/**
 * @description
 * This file defines the `Repository` interface, the contract for persisting the
 * four record kinds. Records are insert-only: there are no update, delete or
 * lookup operations. Implementations exist for MongoDB (the default document
 * store), PostgreSQL and an in-memory map.
 *
 * @dependencies
 * - internal/domain: For the record types.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rajagurusk/mindron-backend/internal/domain"
)

var (
	// ErrDuplicateKey is returned when a uniqueness constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrValidation is returned when a record is missing required fields.
	ErrValidation = errors.New("record validation failed")
)

// Repository defines the set of methods for writing records.
type Repository interface {
	CreateSubscriber(ctx context.Context, s *domain.Subscriber) error
	CreateContact(ctx context.Context, c *domain.Contact) error
	CreateHelpdesk(ctx context.Context, h *domain.Helpdesk) error
	CreateDonation(ctx context.Context, d *domain.Donation) error
	Close(ctx context.Context) error
}

type validator interface {
	Validate() error
}

// validate runs the record's own checks and wraps failures so callers can
// match both ErrValidation and the underlying *domain.FieldError.
func validate(kind domain.Kind, rec validator) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrValidation, kind, err)
	}
	return nil
}
