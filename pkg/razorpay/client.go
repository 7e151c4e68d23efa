/**
 * @description
 * This package adapts the Razorpay payment gateway for donation checkout. It
 * creates payment orders, verifies the signature Razorpay attaches to a payment
 * callback and looks up the payment method for the receipt.
 *
 * @dependencies
 * - github.com/razorpay/razorpay-go: The official Razorpay SDK.
 * - crypto/hmac, crypto/sha256, encoding/hex: For callback signature checks.
 */
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	sdk "github.com/razorpay/razorpay-go"

	"github.com/rajagurusk/mindron-backend/internal/domain"
)

// ErrInvalidAmount is returned when an order amount is not positive.
var ErrInvalidAmount = errors.New("amount must be greater than zero")

// DefaultPaymentMode labels receipts when the payment method cannot be resolved.
const DefaultPaymentMode = "Online"

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client is the Razorpay gateway adapter.
type Client struct {
	orders    orderAPI
	payments  paymentAPI
	keySecret string
	now       func() time.Time
}

// NewClient creates a gateway client with the account's key pair.
func NewClient(keyID, keySecret string) *Client {
	c := sdk.NewClient(keyID, keySecret)
	return &Client{
		orders:    c.Order,
		payments:  c.Payment,
		keySecret: keySecret,
		now:       time.Now,
	}
}

// ToMinorUnits converts an amount in rupees to paise, rounding to the nearest paisa.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder creates a payment order for amount (in major units). An empty
// currency defaults to INR.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency string) (*domain.Order, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	minor := ToMinorUnits(amount)
	receipt := fmt.Sprintf("donation_%d", c.now().UnixMilli())
	body, err := c.orders.Create(map[string]interface{}{
		"amount":   minor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	order := &domain.Order{
		ID:       stringField(body, "id"),
		Entity:   stringField(body, "entity"),
		Amount:   minor,
		Currency: currency,
		Receipt:  receipt,
		Status:   stringField(body, "status"),
	}
	if order.ID == "" {
		return nil, errors.New("razorpay create order: response has no order id")
	}
	if v, ok := body["amount"].(float64); ok {
		order.Amount = int64(v)
	}
	return order, nil
}

// Signature computes the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the gateway's signature for the order
// and payment. Malformed input is a verification failure, never an error.
func (c *Client) Verify(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, c.keySecret)
}

// VerifySignature checks signature against the expected HMAC in constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := Signature(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PaymentMethod returns a human readable label for how a payment was made.
// Lookup failures fall back to DefaultPaymentMode.
func (c *Client) PaymentMethod(ctx context.Context, paymentID string) string {
	if paymentID == "" || ctx.Err() != nil {
		return DefaultPaymentMode
	}
	body, err := c.payments.Fetch(paymentID, nil, nil)
	if err != nil {
		return DefaultPaymentMode
	}
	return PaymentModeLabel(stringField(body, "method"))
}

var paymentModeLabels = map[string]string{
	"upi":           "UPI",
	"card":          "Card",
	"netbanking":    "Net Banking",
	"wallet":        "Wallet",
	"emi":           "EMI",
	"bank_transfer": "Bank Transfer",
}

// PaymentModeLabel maps a Razorpay payment method to its receipt label.
func PaymentModeLabel(method string) string {
	if label, ok := paymentModeLabels[strings.ToLower(strings.TrimSpace(method))]; ok {
		return label
	}
	return DefaultPaymentMode
}

func stringField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}
