package httphandler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// Stripe recommends this cap for webhook payloads.
const maxWebhookBytes = 65536

type PaymentsHandler struct {
	payments port.PaymentProcessor
}

func RegisterPayments(r chi.Router, payments port.PaymentProcessor) {
	h := PaymentsHandler{payments}
	r.Post("/process-payment", h.ProcessPayment)
	r.Post("/confirm-payment", h.ConfirmPayment)
	r.Post(webhookPath, h.Webhook)
}

func (h PaymentsHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentsHandler.ProcessPayment"
	log := slog.With("op", op)

	var req ProcessPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	res, err := h.payments.ProcessPayment(r.Context(), domain.PaymentRequest{
		Amount:          req.Amount,
		PaymentMethodID: req.PaymentMethodID,
		Email:           req.Email,
		Name:            req.Name,
	})
	if err != nil {
		writeDomainError(w, log, err, "failed to process payment")
		return
	}

	switch res.Status {
	case domain.PaymentSucceeded:
		writeJSON(w, http.StatusOK, PaymentResponse{Success: true})
	case domain.PaymentRequiresAction:
		writeJSON(w, http.StatusOK, PaymentResponse{
			RequiresAction:            true,
			PaymentIntentClientSecret: res.ClientSecret,
		})
	default:
		writeJSON(w, http.StatusOK, PaymentResponse{
			Error: fmt.Sprintf("unexpected status %s", res.Status),
		})
	}
}

func (h PaymentsHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentsHandler.ConfirmPayment"
	log := slog.With("op", op)

	var req ConfirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	if _, err := h.payments.ConfirmPayment(r.Context(), req.PaymentIntentID); err != nil {
		writeDomainError(w, log, err, "failed to confirm payment")
		return
	}
	writeJSON(w, http.StatusOK, PaymentResponse{Success: true})
}

func (h PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentsHandler.Webhook"
	log := slog.With("op", op)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		log.Warn("failed to read body", "err", err)
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	err = h.payments.HandleWebhook(
		r.Context(), payload, r.Header.Get("Stripe-Signature"),
	)
	if err != nil {
		var paymentErr *domain.PaymentError
		msg := err.Error()
		if errors.As(err, &paymentErr) {
			msg = paymentErr.Message
		}
		http.Error(w, "Webhook Error: "+msg, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
