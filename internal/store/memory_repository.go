package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rajagurusk/mindron-backend/internal/domain"
)

// MemoryRepository keeps records in process memory. It backs tests and the
// `memory` store driver for local runs; nothing survives a restart.
type MemoryRepository struct {
	mu          sync.RWMutex
	subscribers map[string]domain.Subscriber // keyed by lower-cased email
	contacts    []domain.Contact
	helpdesks   []domain.Helpdesk
	donations   []domain.Donation
	now         func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subscribers: make(map[string]domain.Subscriber),
		now:         time.Now,
	}
}

func (r *MemoryRepository) CreateSubscriber(ctx context.Context, s *domain.Subscriber) error {
	if err := validate(domain.KindSubscriber, s); err != nil {
		return err
	}
	key := strings.ToLower(s.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subscribers[key]; exists {
		return fmt.Errorf("subscriber %s: %w", s.Email, ErrDuplicateKey)
	}
	s.ID = uuid.NewString()
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = r.now()
	}
	r.subscribers[key] = *s
	return nil
}

func (r *MemoryRepository) CreateContact(ctx context.Context, c *domain.Contact) error {
	if err := validate(domain.KindContact, c); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.NewString()
	if c.SentAt.IsZero() {
		c.SentAt = r.now()
	}
	r.contacts = append(r.contacts, *c)
	return nil
}

func (r *MemoryRepository) CreateHelpdesk(ctx context.Context, h *domain.Helpdesk) error {
	if err := validate(domain.KindHelpdesk, h); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = uuid.NewString()
	if h.SentAt.IsZero() {
		h.SentAt = r.now()
	}
	r.helpdesks = append(r.helpdesks, *h)
	return nil
}

func (r *MemoryRepository) CreateDonation(ctx context.Context, d *domain.Donation) error {
	if err := validate(domain.KindDonation, d); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.NewString()
	if d.PaidAt.IsZero() {
		d.PaidAt = r.now()
	}
	r.donations = append(r.donations, *d)
	return nil
}

// Count returns the number of stored records of the given kind.
func (r *MemoryRepository) Count(kind domain.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case domain.KindSubscriber:
		return len(r.subscribers)
	case domain.KindContact:
		return len(r.contacts)
	case domain.KindHelpdesk:
		return len(r.helpdesks)
	case domain.KindDonation:
		return len(r.donations)
	}
	return 0
}

// Donations returns a copy of the stored donations.
func (r *MemoryRepository) Donations() []domain.Donation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Donation, len(r.donations))
	copy(out, r.donations)
	return out
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}
