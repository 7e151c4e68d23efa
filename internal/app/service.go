/**
 * @description
 * This file contains the core business logic for the foundation backend. The
 * Service validates input, writes records, verifies donations with the payment
 * gateway, issues 80G receipts, sends notification emails and announces new
 * records on the event exchange.
 *
 * Each flow writes its record before notifying. A failed email after a
 * successful write leaves the record in place.
 */
package app

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rajagurusk/mindron-backend/internal/domain"
	"github.com/rajagurusk/mindron-backend/pkg/mailer"
	"github.com/rajagurusk/mindron-backend/pkg/receipt"
)

// MinDonationAmount is the smallest order, in rupees, the checkout accepts.
const MinDonationAmount = 1

// Repository defines the record writes the service needs.
type Repository interface {
	CreateSubscriber(ctx context.Context, s *domain.Subscriber) error
	CreateContact(ctx context.Context, c *domain.Contact) error
	CreateHelpdesk(ctx context.Context, h *domain.Helpdesk) error
	CreateDonation(ctx context.Context, d *domain.Donation) error
}

// Gateway creates payment orders and verifies payment callbacks.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*domain.Order, error)
	Verify(orderID, paymentID, signature string) bool
	PaymentMethod(ctx context.Context, paymentID string) string
}

// Notifier delivers email.
type Notifier interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ReceiptRenderer writes a receipt PDF and returns its path.
type ReceiptRenderer interface {
	Generate(ctx context.Context, d receipt.Data) (string, error)
}

// Publisher announces persisted records.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// DeliveryPolicy decides whether a notification failure fails the request.
type DeliveryPolicy int

const (
	// DeliverSync sends before responding; a failure fails the request.
	DeliverSync DeliveryPolicy = iota
	// DeliverBackground sends after responding; a failure is only logged.
	DeliverBackground
)

// Option configures a Service.
type Option func(*Service)

// WithDeliveryPolicy overrides the delivery policy for one notification kind.
func WithDeliveryPolicy(kind mailer.Kind, policy DeliveryPolicy) Option {
	return func(s *Service) { s.policies[kind] = policy }
}

// WithMailTimeout bounds every email send.
func WithMailTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mailTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service provides the business logic for the foundation website.
type Service struct {
	repo        Repository
	gateway     Gateway
	notifier    Notifier
	receipts    ReceiptRenderer
	publisher   Publisher
	templates   mailer.Templates
	logger      *slog.Logger
	policies    map[mailer.Kind]DeliveryPolicy
	mailTimeout time.Duration
	now         func() time.Time
	background  sync.WaitGroup
}

// NewService creates a new Service. publisher may be nil.
func NewService(
	repo Repository,
	gateway Gateway,
	notifier Notifier,
	receipts ReceiptRenderer,
	publisher Publisher,
	templates mailer.Templates,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		gateway:   gateway,
		notifier:  notifier,
		receipts:  receipts,
		publisher: publisher,
		templates: templates,
		logger:    logger,
		policies: map[mailer.Kind]DeliveryPolicy{
			mailer.KindWelcome:        DeliverBackground,
			mailer.KindContactAck:     DeliverSync,
			mailer.KindHelpdeskAck:    DeliverSync,
			mailer.KindDonationThanks: DeliverSync,
		},
		mailTimeout: 30 * time.Second,
		now:         time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// Subscribe records a newsletter subscription and sends a welcome email.
func (s *Service) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	sub := &domain.Subscriber{Email: normalizeEmail(email), SubscribedAt: s.now()}
	if err := sub.Validate(); err != nil {
		return nil, translate("subscribe", err)
	}
	if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
		return nil, translate("create subscriber", err)
	}
	s.logger.Info("subscriber created", "subscriber_id", sub.ID)

	if err := s.notify(ctx, mailer.KindWelcome, s.templates.Welcome(sub.Email)); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventSubscriberCreated, domain.RecordEvent{
		Kind:     domain.KindSubscriber,
		RecordID: sub.ID,
		Email:    sub.Email,
	})
	return sub, nil
}

// SubmitContact records a contact-form submission and forwards it to the
// organisation inbox.
func (s *Service) SubmitContact(ctx context.Context, c *domain.Contact) error {
	c.Email = normalizeEmail(c.Email)
	c.SentAt = s.now()
	if err := c.Validate(); err != nil {
		return translate("submit contact", err)
	}
	if err := s.repo.CreateContact(ctx, c); err != nil {
		return translate("create contact", err)
	}
	s.logger.Info("contact submission stored", "contact_id", c.ID)

	msg := s.templates.ContactAck(mailer.ContactFields{
		FullName: c.FullName,
		Email:    c.Email,
		Phone:    c.Phone,
		Subject:  c.Subject,
		Message:  c.Message,
	})
	if err := s.notify(ctx, mailer.KindContactAck, msg); err != nil {
		return err
	}
	s.publish(ctx, domain.EventContactSubmitted, domain.RecordEvent{
		Kind:     domain.KindContact,
		RecordID: c.ID,
		Email:    c.Email,
	})
	return nil
}

// SubmitHelpdesk records a helpdesk enquiry and forwards it to the
// organisation inbox.
func (s *Service) SubmitHelpdesk(ctx context.Context, h *domain.Helpdesk) error {
	h.Email = normalizeEmail(h.Email)
	h.SentAt = s.now()
	if err := h.Validate(); err != nil {
		return translate("submit helpdesk", err)
	}
	if err := s.repo.CreateHelpdesk(ctx, h); err != nil {
		return translate("create helpdesk", err)
	}
	s.logger.Info("helpdesk enquiry stored", "helpdesk_id", h.ID, "type", h.Type)

	msg := s.templates.HelpdeskAck(mailer.HelpdeskFields{
		Name:    h.Name,
		Email:   h.Email,
		Phone:   h.Phone,
		Type:    h.Type,
		OrgName: h.OrgName,
		Enquiry: h.Enquiry,
	})
	if err := s.notify(ctx, mailer.KindHelpdeskAck, msg); err != nil {
		return err
	}
	s.publish(ctx, domain.EventHelpdeskSubmitted, domain.RecordEvent{
		Kind:     domain.KindHelpdesk,
		RecordID: h.ID,
		Email:    h.Email,
	})
	return nil
}

// CreateDonationOrder opens a payment order for amount rupees.
func (s *Service) CreateDonationOrder(ctx context.Context, amount float64) (*domain.Order, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < MinDonationAmount {
		return nil, &ValidationError{Field: "amount", Reason: "must be at least 1"}
	}
	order, err := s.gateway.CreateOrder(ctx, amount, domain.DefaultCurrency)
	if err != nil {
		return nil, translate("create order", err)
	}
	s.logger.Info("payment order created", "order_id", order.ID, "amount_minor", order.Amount)
	return order, nil
}

// VerifyDonation checks the gateway signature on a payment callback. A valid
// payment is recorded, receipted and acknowledged by email. An invalid one is
// rejected and nothing is written.
func (s *Service) VerifyDonation(ctx context.Context, d *domain.Donation) (*domain.Donation, error) {
	if err := d.ValidatePayment(); err != nil {
		return nil, translate("verify donation", err)
	}
	d.Email = normalizeEmail(d.Email)
	if err := d.Validate(); err != nil {
		return nil, translate("verify donation", err)
	}

	lifecycle := domain.NewDonationLifecycle()
	log := s.logger.With("order_id", d.RazorpayOrderID, "payment_id", d.RazorpayPaymentID)

	if !s.gateway.Verify(d.RazorpayOrderID, d.RazorpayPaymentID, d.RazorpaySignature) {
		s.advance(log, lifecycle, domain.DonationRejected)
		return nil, ErrSignatureMismatch
	}

	d.PaidAt = s.now()
	d.ReceiptNo = ReceiptNumber(d.PaidAt, d.RazorpayPaymentID)
	d.PaymentMode = s.gateway.PaymentMethod(ctx, d.RazorpayPaymentID)

	if err := s.repo.CreateDonation(ctx, d); err != nil {
		return nil, translate("create donation", err)
	}
	s.advance(log, lifecycle, domain.DonationRecorded)

	path, err := s.receipts.Generate(ctx, receipt.Data{
		ReceiptNo:     d.ReceiptNo,
		PANNumber:     d.PANNumber,
		FullName:      d.FullName,
		Amount:        d.Amount,
		DonationDate:  d.PaidAt,
		TransactionID: d.RazorpayPaymentID,
		PaymentMode:   d.PaymentMode,
	})
	if err != nil {
		return nil, translate("generate receipt", err)
	}
	s.advance(log, lifecycle, domain.DonationReceiptIssued)

	msg := s.templates.DonationThanks(mailer.DonationFields{
		FullName:  d.FullName,
		Email:     d.Email,
		Amount:    d.Amount,
		OrderID:   d.RazorpayOrderID,
		ReceiptNo: d.ReceiptNo,
	})
	if err := msg.AttachFile(path, "application/pdf"); err != nil {
		return nil, translate("attach receipt", err)
	}
	if err := s.notify(ctx, mailer.KindDonationThanks, msg); err != nil {
		return nil, err
	}
	s.advance(log, lifecycle, domain.DonationNotifiedByEmail)

	s.publish(ctx, domain.EventDonationRecorded, domain.RecordEvent{
		Kind:      domain.KindDonation,
		RecordID:  d.ID,
		Email:     d.Email,
		Amount:    d.Amount,
		ReceiptNo: d.ReceiptNo,
	})
	return d, nil
}

var receiptNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://mindronfoundation.org/receipts/80g"))

// ReceiptNumber derives the 80G receipt number for a payment. The same payment
// on the same day always yields the same number.
func ReceiptNumber(paidAt time.Time, paymentID string) string {
	sum := uuid.NewSHA1(receiptNamespace, []byte(paymentID))
	return "MF-" + paidAt.Format("20060102") + "-" + strings.ToUpper(sum.String()[:8])
}

func (s *Service) advance(log *slog.Logger, lifecycle *domain.DonationLifecycle, to domain.DonationState) {
	from := lifecycle.State()
	if err := lifecycle.Advance(to); err != nil {
		log.Error("donation lifecycle violation", "error", err)
		return
	}
	if to == domain.DonationRejected {
		log.Warn("donation rejected: invalid payment signature", "from", from)
		return
	}
	log.Info("donation state changed", "from", from, "to", to)
}

// notify sends msg according to the delivery policy for kind.
func (s *Service) notify(ctx context.Context, kind mailer.Kind, msg mailer.Message) error {
	if s.policies[kind] == DeliverBackground {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
			defer cancel()
			if err := s.notifier.Send(bctx, msg); err != nil {
				s.logger.Warn("background email failed", "kind", kind, "error", err)
			}
		}()
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	if err := s.notifier.Send(sctx, msg); err != nil {
		s.logger.Error("email delivery failed", "kind", kind, "error", err)
		return translate("send "+string(kind)+" email", err)
	}
	return nil
}

// publish announces an event. Failures are logged and never fail the request.
func (s *Service) publish(ctx context.Context, routingKey string, event domain.RecordEvent) {
	if s.publisher == nil {
		return
	}
	event.EventID = uuid.NewString()
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("failed to publish event", "routing_key", routingKey, "record_id", event.RecordID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
