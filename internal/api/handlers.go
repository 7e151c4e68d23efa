/**
 * @description
 * This file contains the HTTP handler functions for the foundation backend.
 * Handlers decode the request body, call the service layer and translate its
 * errors into status codes. Form routes answer with {"message"} or {"error"};
 * donation routes answer with {"success", "message"} as the checkout page expects.
 */
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rajagurusk/mindron-backend/internal/app"
	"github.com/rajagurusk/mindron-backend/internal/domain"
)

// Service is the business logic the handlers call.
type Service interface {
	Subscribe(ctx context.Context, email string) (*domain.Subscriber, error)
	SubmitContact(ctx context.Context, c *domain.Contact) error
	SubmitHelpdesk(ctx context.Context, h *domain.Helpdesk) error
	CreateDonationOrder(ctx context.Context, amount float64) (*domain.Order, error)
	VerifyDonation(ctx context.Context, d *domain.Donation) (*domain.Donation, error)
}

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type contactRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

type helpdeskRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	OrgName string `json:"orgName"`
	Enquiry string `json:"enquiry"`
}

type orderRequest struct {
	Amount amount `json:"amount"`
}

type verifyRequest struct {
	FullName             string `json:"fullName"`
	MobileNumber         string `json:"mobileNumber"`
	Email                string `json:"email"`
	Address              string `json:"address"`
	Country              string `json:"country"`
	Pincode              string `json:"pincode"`
	State                string `json:"state"`
	City                 string `json:"city"`
	PANNumber            string `json:"panNumber"`
	Amount               amount `json:"amount"`
	TermsAccepted        bool   `json:"termsAccepted"`
	CommunicationConsent bool   `json:"communicationConsent"`
	RazorpayPaymentID    string `json:"razorpay_payment_id"`
	RazorpayOrderID      string `json:"razorpay_order_id"`
	RazorpaySignature    string `json:"razorpay_signature"`
}

// amount accepts a JSON number or a numeric string; form fields often arrive as strings.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*a = amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = amount(v)
	return nil
}

// handleRoot reports that the backend is up.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Mindron Foundation Backend Running!",
		"status":  "OK",
	})
}

// handleSubscribe handles a newsletter subscription.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		var verr *app.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, app.ErrConflict):
			writeError(w, http.StatusConflict, "Email already subscribed")
		default:
			h.logger.Error("subscribe failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Subscribed successfully"})
}

// handleContact handles a contact-form submission.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.service.SubmitContact(r.Context(), &domain.Contact{
		FullName: strings.TrimSpace(req.FullName),
		Email:    req.Email,
		Subject:  strings.TrimSpace(req.Subject),
		Phone:    strings.TrimSpace(req.Phone),
		Message:  req.Message,
	})
	if err != nil {
		h.writeFormError(w, "contact", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Form submitted successfully. We will get back to you soon!",
	})
}

// handleHelpdesk handles a helpdesk enquiry.
func (h *Handler) handleHelpdesk(w http.ResponseWriter, r *http.Request) {
	var req helpdeskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.service.SubmitHelpdesk(r.Context(), &domain.Helpdesk{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   req.Email,
		Type:    strings.TrimSpace(req.Type),
		OrgName: strings.TrimSpace(req.OrgName),
		Enquiry: req.Enquiry,
	})
	if err != nil {
		h.writeFormError(w, "helpdesk", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Helpdesk enquiry sent successfully. We will contact you soon!",
	})
}

// handleCreateOrder opens a payment order for the checkout page.
func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Valid amount is required")
		return
	}

	order, err := h.service.CreateDonationOrder(r.Context(), float64(req.Amount))
	if err != nil {
		if errors.Is(err, app.ErrValidation) {
			writeResult(w, http.StatusBadRequest, false, "Valid amount is required")
			return
		}
		h.logger.Error("create order failed", "error", err)
		writeResult(w, http.StatusInternalServerError, false, "Error creating Razorpay order")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "order": order})
}

// handleVerifyDonation verifies a payment callback and records the donation.
func (h *Handler) handleVerifyDonation(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	donation, err := h.service.VerifyDonation(r.Context(), &domain.Donation{
		FullName:             strings.TrimSpace(req.FullName),
		MobileNumber:         strings.TrimSpace(req.MobileNumber),
		Email:                req.Email,
		Address:              strings.TrimSpace(req.Address),
		Country:              strings.TrimSpace(req.Country),
		Pincode:              strings.TrimSpace(req.Pincode),
		State:                strings.TrimSpace(req.State),
		City:                 strings.TrimSpace(req.City),
		PANNumber:            strings.ToUpper(strings.TrimSpace(req.PANNumber)),
		Amount:               float64(req.Amount),
		TermsAccepted:        req.TermsAccepted,
		CommunicationConsent: req.CommunicationConsent,
		RazorpayPaymentID:    strings.TrimSpace(req.RazorpayPaymentID),
		RazorpayOrderID:      strings.TrimSpace(req.RazorpayOrderID),
		RazorpaySignature:    strings.TrimSpace(req.RazorpaySignature),
	})
	if err != nil {
		var verr *app.ValidationError
		switch {
		case errors.As(err, &verr) && strings.HasPrefix(verr.Field, "razorpay_"):
			writeResult(w, http.StatusBadRequest, false, "Payment details missing")
		case errors.As(err, &verr):
			writeResult(w, http.StatusBadRequest, false, verr.Error())
		case errors.Is(err, app.ErrSignatureMismatch):
			writeResult(w, http.StatusBadRequest, false, "Invalid payment signature")
		default:
			h.logger.Error("donation verification failed", "order_id", req.RazorpayOrderID, "error", err)
			writeResult(w, http.StatusInternalServerError, false, "Server error saving donation")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Donation recorded and thank you email sent!",
		"receiptNo": donation.ReceiptNo,
	})
}

func (h *Handler) writeFormError(w http.ResponseWriter, form string, err error) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	h.logger.Error("form submission failed", "form", form, "error", err)
	writeError(w, http.StatusInternalServerError, "Server error, please try again later.")
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func writeResult(w http.ResponseWriter, code int, success bool, message string) {
	respondWithJSON(w, code, map[string]interface{}{"success": success, "message": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
