package domain

import "time"

// Routing keys for events published on the foundation exchange.
const (
	EventSubscriberCreated = "subscriber.created"
	EventContactSubmitted  = "contact.submitted"
	EventHelpdeskSubmitted = "helpdesk.submitted"
	EventDonationRecorded  = "donation.recorded"
)

// RecordEvent announces that a record was persisted. Downstream consumers
// (CRM sync, reporting) receive only identifiers and non-sensitive fields.
type RecordEvent struct {
	EventID    string    `json:"event_id"`
	Kind       Kind      `json:"kind"`
	RecordID   string    `json:"record_id"`
	Email      string    `json:"email,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	ReceiptNo  string    `json:"receipt_no,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
