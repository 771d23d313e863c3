package domain

import "time"

type PaymentStatus string

const (
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentRequiresAction PaymentStatus = "requires_action"
)

// Payment event types.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type (
	// PaymentRequest carries the amount in minor currency units.
	PaymentRequest struct {
		Amount          int64
		PaymentMethodID string
		Email           string
		Name            string
	}

	PaymentResult struct {
		IntentID     string
		Status       PaymentStatus
		ClientSecret string
		Amount       int64
		Currency     string
	}

	PaymentEvent struct {
		ID           string
		IntentID     string
		Type         string
		Status       PaymentStatus
		Amount       int64
		Currency     string
		Email        string
		CustomerName string
		OccurredAt   time.Time
	}
)
