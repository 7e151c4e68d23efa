/**
 * @description
 * This file defines the records persisted by the foundation backend. Each record
 * kind is independent; there are no references between them. Records are created
 * once and never mutated by this service.
 */
package domain

import (
	"regexp"
	"strings"
	"time"
)

// Kind names a record collection in the store.
type Kind string

const (
	KindSubscriber Kind = "subscriber"
	KindContact    Kind = "contact"
	KindHelpdesk   Kind = "helpdesk"
	KindDonation   Kind = "donation"
)

// emailPattern accepts local@domain.tld shaped addresses.
var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// IsValidEmail reports whether s looks like a deliverable email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Subscriber is a newsletter subscription. Email is unique across subscribers.
type Subscriber struct {
	ID           string    `json:"id" bson:"-"`
	Email        string    `json:"email" bson:"email"`
	SubscribedAt time.Time `json:"subscribedAt" bson:"subscribedAt"`
}

// Validate checks the subscriber's required fields.
func (s *Subscriber) Validate() error {
	return validateEmail("email", s.Email)
}

// Contact is a contact-form submission.
type Contact struct {
	ID       string    `json:"id" bson:"-"`
	FullName string    `json:"fullname" bson:"fullname"`
	Email    string    `json:"email" bson:"email"`
	Subject  string    `json:"subject" bson:"subject"`
	Phone    string    `json:"phone" bson:"phone"`
	Message  string    `json:"message" bson:"message"`
	SentAt   time.Time `json:"sentAt" bson:"sentAt"`
}

// Validate checks the contact submission's required fields. Phone is optional.
func (c *Contact) Validate() error {
	if err := requireAll(
		field{"fullname", c.FullName},
		field{"email", c.Email},
		field{"subject", c.Subject},
		field{"message", c.Message},
	); err != nil {
		return err
	}
	return validateEmail("email", c.Email)
}

// Helpdesk is a helpdesk enquiry submitted on behalf of an organisation.
type Helpdesk struct {
	ID      string    `json:"id" bson:"-"`
	Name    string    `json:"name" bson:"name"`
	Phone   string    `json:"phone" bson:"phone"`
	Email   string    `json:"email" bson:"email"`
	Type    string    `json:"type" bson:"type"`
	OrgName string    `json:"orgName" bson:"orgName"`
	Enquiry string    `json:"enquiry" bson:"enquiry"`
	SentAt  time.Time `json:"sentAt" bson:"sentAt"`
}

// Validate checks the enquiry's required fields. Phone is optional.
func (h *Helpdesk) Validate() error {
	if err := requireAll(
		field{"name", h.Name},
		field{"email", h.Email},
		field{"type", h.Type},
		field{"orgName", h.OrgName},
		field{"enquiry", h.Enquiry},
	); err != nil {
		return err
	}
	return validateEmail("email", h.Email)
}

// Donation is a verified donation. It is only ever created after the gateway
// signature has been checked.
type Donation struct {
	ID                   string    `json:"id" bson:"-"`
	FullName             string    `json:"fullName" bson:"fullName"`
	MobileNumber         string    `json:"mobileNumber" bson:"mobileNumber"`
	Email                string    `json:"email" bson:"email"`
	Address              string    `json:"address" bson:"address"`
	Country              string    `json:"country" bson:"country"`
	Pincode              string    `json:"pincode" bson:"pincode"`
	State                string    `json:"state" bson:"state"`
	City                 string    `json:"city" bson:"city"`
	PANNumber            string    `json:"panNumber" bson:"panNumber"`
	Amount               float64   `json:"amount" bson:"amount"`
	TermsAccepted        bool      `json:"termsAccepted" bson:"termsAccepted"`
	CommunicationConsent bool      `json:"communicationConsent" bson:"communicationConsent"`
	RazorpayPaymentID    string    `json:"razorpay_payment_id" bson:"razorpay_payment_id"`
	RazorpayOrderID      string    `json:"razorpay_order_id" bson:"razorpay_order_id"`
	RazorpaySignature    string    `json:"razorpay_signature" bson:"razorpay_signature"`
	ReceiptNo            string    `json:"receiptNo" bson:"receiptNo"`
	PaymentMode          string    `json:"paymentMode" bson:"paymentMode"`
	PaidAt               time.Time `json:"paidAt" bson:"paidAt"`
}

// ValidatePayment checks that the gateway callback fields are present.
func (d *Donation) ValidatePayment() error {
	return requireAll(
		field{"razorpay_payment_id", d.RazorpayPaymentID},
		field{"razorpay_order_id", d.RazorpayOrderID},
		field{"razorpay_signature", d.RazorpaySignature},
	)
}

// Validate checks the donor profile and payment fields.
func (d *Donation) Validate() error {
	if err := d.ValidatePayment(); err != nil {
		return err
	}
	if err := requireAll(
		field{"fullName", d.FullName},
		field{"email", d.Email},
	); err != nil {
		return err
	}
	if err := validateEmail("email", d.Email); err != nil {
		return err
	}
	if d.Amount <= 0 {
		return &FieldError{Field: "amount", Reason: "must be greater than zero"}
	}
	return nil
}

type field struct {
	name  string
	value string
}

func requireAll(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name, Reason: "is required"}
		}
	}
	return nil
}

func validateEmail(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: name, Reason: "is required"}
	}
	if !IsValidEmail(value) {
		return &FieldError{Field: name, Reason: "is not a valid email address"}
	}
	return nil
}
