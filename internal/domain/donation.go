/**
 * @description
 * This file defines the payment-order model and the donation lifecycle.
 *
 * A donation starts as PendingPayment when the gateway callback arrives. A valid
 * signature moves it to Recorded (persisted), then ReceiptIssued once the 80G PDF
 * has been written and NotifiedByEmail once the thank-you mail is sent. An invalid
 * signature moves it to Rejected and nothing is persisted.
 */
package domain

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultCurrency is the only currency the donation checkout offers.
const DefaultCurrency = "INR"

// Order is a gateway payment order. Amount is in minor units (paise).
type Order struct {
	ID       string `json:"id"`
	Entity   string `json:"entity,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

// DonationState is a step of the donation lifecycle.
type DonationState string

const (
	DonationPendingPayment  DonationState = "pending_payment"
	DonationRecorded        DonationState = "recorded"
	DonationReceiptIssued   DonationState = "receipt_issued"
	DonationNotifiedByEmail DonationState = "notified_by_email"
	DonationRejected        DonationState = "rejected"
)

var donationTransitions = map[DonationState][]DonationState{
	DonationPendingPayment: {DonationRecorded, DonationRejected},
	DonationRecorded:       {DonationReceiptIssued},
	DonationReceiptIssued:  {DonationNotifiedByEmail},
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to DonationState) bool {
	for _, next := range donationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s DonationState) Terminal() bool {
	return len(donationTransitions[s]) == 0
}

// DonationLifecycle tracks a single donation through its states.
type DonationLifecycle struct {
	state DonationState
}

// NewDonationLifecycle starts a lifecycle in PendingPayment.
func NewDonationLifecycle() *DonationLifecycle {
	return &DonationLifecycle{state: DonationPendingPayment}
}

// State returns the current state.
func (l *DonationLifecycle) State() DonationState {
	return l.state
}

// Advance moves the lifecycle to the next state or returns an error if the
// transition is not allowed.
func (l *DonationLifecycle) Advance(to DonationState) error {
	if !CanTransition(l.state, to) {
		return fmt.Errorf("donation lifecycle: cannot move from %s to %s", l.state, to)
	}
	l.state = to
	return nil
}

// FormatAmount renders a rupee amount rounded to paise without trailing
// zeros: 500, 500.5, 499.99.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(math.Round(amount*100)/100, 'f', -1, 64)
}
