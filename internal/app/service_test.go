package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rajagurusk/mindron-backend/internal/domain"
	"github.com/rajagurusk/mindron-backend/internal/store"
	"github.com/rajagurusk/mindron-backend/pkg/mailer"
	"github.com/rajagurusk/mindron-backend/pkg/razorpay"
	"github.com/rajagurusk/mindron-backend/pkg/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "rzp_test_secret"

type fakeGateway struct {
	order    *domain.Order
	err      error
	method   string
	amountIn float64
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency string) (*domain.Order, error) {
	g.amountIn = amount
	if g.err != nil {
		return nil, g.err
	}
	if g.order != nil {
		return g.order, nil
	}
	return &domain.Order{ID: "order_1", Amount: razorpay.ToMinorUnits(amount), Currency: currency, Receipt: "donation_1"}, nil
}

func (g *fakeGateway) Verify(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(orderID, paymentID, signature, testSecret)
}

func (g *fakeGateway) PaymentMethod(ctx context.Context, paymentID string) string {
	if g.method == "" {
		return razorpay.DefaultPaymentMode
	}
	return g.method
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, msg mailer.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return fmt.Errorf("%w: %w", mailer.ErrDelivery, n.err)
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) messages() []mailer.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mailer.Message(nil), n.sent...)
}

type fakeRenderer struct {
	dir   string
	calls []receipt.Data
	err   error
}

func (r *fakeRenderer) Generate(ctx context.Context, d receipt.Data) (string, error) {
	r.calls = append(r.calls, d)
	if r.err != nil {
		return "", r.err
	}
	path := filepath.Join(r.dir, receipt.FileName(d.ReceiptNo))
	return path, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644)
}

type fakePublisher struct {
	mu     sync.Mutex
	events map[string][]domain.RecordEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string][]domain.RecordEvent{}
	}
	p.events[routingKey] = append(p.events[routingKey], body.(domain.RecordEvent))
	return p.err
}

type fixture struct {
	svc       *Service
	repo      *store.MemoryRepository
	gateway   *fakeGateway
	notifier  *fakeNotifier
	renderer  *fakeRenderer
	publisher *fakePublisher
}

var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:      store.NewMemoryRepository(),
		gateway:   &fakeGateway{},
		notifier:  &fakeNotifier{},
		renderer:  &fakeRenderer{dir: t.TempDir()},
		publisher: &fakePublisher{},
	}
	templates := mailer.Templates{
		From:  mailer.Address{Email: "hello@mindron.org", Name: "Mindron Foundation"},
		Inbox: mailer.Address{Email: "inbox@mindron.org"},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	f.svc = NewService(f.repo, f.gateway, f.notifier, f.renderer, f.publisher, templates, logger, opts...)
	return f
}

func signedDonation() *domain.Donation {
	return &domain.Donation{
		FullName:          "Meera Nair",
		Email:             " Meera@Example.org ",
		MobileNumber:      "9876543210",
		PANNumber:         "ABCDE1234F",
		Amount:            1500,
		TermsAccepted:     true,
		RazorpayOrderID:   "order_9",
		RazorpayPaymentID: "pay_9",
		RazorpaySignature: razorpay.Signature("order_9", "pay_9", testSecret),
	}
}

func TestSubscribe_CreatesThenConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Subscribe(ctx, " Friend@Example.org")
	require.NoError(t, err)
	assert.Equal(t, "friend@example.org", sub.Email)
	assert.NotEmpty(t, sub.ID)

	_, err = f.svc.Subscribe(ctx, "friend@example.org")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, f.repo.Count(domain.KindSubscriber))

	f.svc.Wait()
	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "friend@example.org", msgs[0].To.Email)
	assert.Len(t, f.publisher.events[domain.EventSubscriberCreated], 1)
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Subscribe(context.Background(), "not-an-email")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	assert.Equal(t, 0, f.repo.Count(domain.KindSubscriber))
}

func TestSubscribe_WelcomeFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("relay down")

	_, err := f.svc.Subscribe(context.Background(), "friend@example.org")
	require.NoError(t, err)
	f.svc.Wait()
	assert.Equal(t, 1, f.repo.Count(domain.KindSubscriber))
}

func TestSubscribe_SyncPolicyPropagatesFailure(t *testing.T) {
	f := newFixture(t, WithDeliveryPolicy(mailer.KindWelcome, DeliverSync))
	f.notifier.err = errors.New("relay down")

	_, err := f.svc.Subscribe(context.Background(), "friend@example.org")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, mailer.ErrDelivery)
	// The record is kept even though the email failed.
	assert.Equal(t, 1, f.repo.Count(domain.KindSubscriber))
}

func TestSubmitContact_MissingMessageWritesNothing(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SubmitContact(context.Background(), &domain.Contact{
		FullName: "Asha",
		Email:    "asha@example.org",
		Subject:  "Hello",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Field)
	assert.Equal(t, 0, f.repo.Count(domain.KindContact))
	assert.Empty(t, f.notifier.messages())
}

func TestSubmitContact_ForwardsToInbox(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SubmitContact(context.Background(), &domain.Contact{
		FullName: "Asha",
		Email:    "asha@example.org",
		Subject:  "Volunteering",
		Message:  "Can I help?",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.Count(domain.KindContact))

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "inbox@mindron.org", msgs[0].To.Email)
	assert.Equal(t, "asha@example.org", msgs[0].ReplyTo.Email)
}

func TestSubmitContact_EmailFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("relay down")

	err := f.svc.SubmitContact(context.Background(), &domain.Contact{
		FullName: "Asha",
		Email:    "asha@example.org",
		Subject:  "Volunteering",
		Message:  "Can I help?",
	})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, f.repo.Count(domain.KindContact))
}

func TestSubmitHelpdesk(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SubmitHelpdesk(context.Background(), &domain.Helpdesk{
		Name:    "Ravi",
		Email:   "ravi@example.org",
		Type:    "Corporate",
		OrgName: "Acme",
		Enquiry: "CSR partnership",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.Count(domain.KindHelpdesk))
	assert.Len(t, f.publisher.events[domain.EventHelpdeskSubmitted], 1)

	err = f.svc.SubmitHelpdesk(context.Background(), &domain.Helpdesk{Name: "Ravi", Email: "ravi@example.org"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, f.repo.Count(domain.KindHelpdesk))
}

func TestCreateDonationOrder(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateDonationOrder(context.Background(), 499.99)
	require.NoError(t, err)
	assert.Equal(t, int64(49999), order.Amount)
	assert.Equal(t, domain.DefaultCurrency, order.Currency)

	for _, amount := range []float64{0, 0.5, -10} {
		_, err := f.svc.CreateDonationOrder(context.Background(), amount)
		assert.ErrorIs(t, err, ErrValidation, amount)
	}

	f.gateway.err = errors.New("gateway down")
	_, err = f.svc.CreateDonationOrder(context.Background(), 100)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestVerifyDonation_RecordsReceiptsAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.gateway.method = "UPI"

	d, err := f.svc.VerifyDonation(context.Background(), signedDonation())
	require.NoError(t, err)

	assert.Equal(t, ReceiptNumber(fixedNow, "pay_9"), d.ReceiptNo)
	assert.Equal(t, "UPI", d.PaymentMode)
	assert.Equal(t, "meera@example.org", d.Email)
	assert.Equal(t, 1, f.repo.Count(domain.KindDonation))

	require.Len(t, f.renderer.calls, 1)
	assert.Equal(t, "pay_9", f.renderer.calls[0].TransactionID)
	assert.Equal(t, "ABCDE1234F", f.renderer.calls[0].PANNumber)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Attachments, 1)
	assert.Equal(t, receipt.FileName(d.ReceiptNo), msgs[0].Attachments[0].Filename)

	events := f.publisher.events[domain.EventDonationRecorded]
	require.Len(t, events, 1)
	assert.Equal(t, d.ReceiptNo, events[0].ReceiptNo)
	assert.NotEmpty(t, events[0].EventID)
}

func TestVerifyDonation_BadSignatureWritesNothing(t *testing.T) {
	f := newFixture(t)
	d := signedDonation()
	d.RazorpaySignature = razorpay.Signature("order_9", "pay_other", testSecret)

	_, err := f.svc.VerifyDonation(context.Background(), d)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Equal(t, 0, f.repo.Count(domain.KindDonation))
	assert.Empty(t, f.renderer.calls)
	assert.Empty(t, f.notifier.messages())
}

func TestVerifyDonation_MissingFields(t *testing.T) {
	f := newFixture(t)

	d := signedDonation()
	d.RazorpaySignature = ""
	_, err := f.svc.VerifyDonation(context.Background(), d)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "razorpay_signature", verr.Field)

	d = signedDonation()
	d.Email = "broken"
	_, err = f.svc.VerifyDonation(context.Background(), d)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	assert.Equal(t, 0, f.repo.Count(domain.KindDonation))
}

func TestVerifyDonation_ReceiptFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = receipt.ErrTemplateUnavailable

	_, err := f.svc.VerifyDonation(context.Background(), signedDonation())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, receipt.ErrTemplateUnavailable)
	assert.Empty(t, f.notifier.messages())
}

func TestVerifyDonation_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.VerifyDonation(context.Background(), signedDonation())
	assert.NoError(t, err)
}

func TestReceiptNumber(t *testing.T) {
	a := ReceiptNumber(fixedNow, "pay_1")
	assert.Regexp(t, `^MF-20261016-[0-9A-F]{8}$`, a)
	assert.Equal(t, a, ReceiptNumber(fixedNow, "pay_1"))
	assert.NotEqual(t, a, ReceiptNumber(fixedNow, "pay_2"))
}
