package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 5
	defaultRateBurst = 10

	publishTimeout = 5 * time.Second
)

const (
	CodeRateLimited      = "rate_limited"
	CodeProcessorError   = "processor_error"
	CodeNotConfirmed     = "not_confirmed"
	CodeInvalidSignature = "invalid_signature"
)

var _ port.PaymentProcessor = (*PaymentService)(nil)

type PaymentOpt func(*PaymentService)

// WithRateLimit caps payment attempts to r per second with the given burst.
func WithRateLimit(r float64, burst int) PaymentOpt {
	return func(s *PaymentService) {
		s.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

func WithClock(now func() time.Time) PaymentOpt {
	return func(s *PaymentService) {
		s.now = now
	}
}

// PaymentService forwards payments to the gateway and publishes the
// resulting events. A processor failure is returned to the caller as is,
// without retries.
type PaymentService struct {
	gateway  port.PaymentGateway
	producer port.PaymentEventsProducer
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewPaymentService returns a payment service. A nil producer disables
// event publishing.
func NewPaymentService(
	gateway port.PaymentGateway,
	producer port.PaymentEventsProducer,
	opts ...PaymentOpt,
) *PaymentService {
	s := &PaymentService{
		gateway:  gateway,
		producer: producer,
		limiter:  rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PaymentService) ProcessPayment(
	ctx context.Context, req domain.PaymentRequest,
) (domain.PaymentResult, error) {
	const op = "PaymentService.ProcessPayment"
	log := slog.With("op", op)

	if err := validatePayment(req); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !s.limiter.Allow() {
		log.Warn("payment rate limit exceeded")
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, &domain.PaymentError{
			Code:    CodeRateLimited,
			Message: "too many payment attempts, try again later",
		})
	}

	res, err := s.gateway.CreatePaymentIntent(ctx, req)
	if err != nil {
		log.Error("payment intent failed", "err", err)
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, asPaymentError(err))
	}

	log.Info("payment intent created", "intentID", res.IntentID, "status", res.Status)

	if res.Status == domain.PaymentSucceeded {
		s.publish(ctx, domain.PaymentEvent{
			ID:           uuid.NewString(),
			IntentID:     res.IntentID,
			Type:         domain.EventPaymentSucceeded,
			Status:       res.Status,
			Amount:       req.Amount,
			Currency:     res.Currency,
			Email:        req.Email,
			CustomerName: req.Name,
			OccurredAt:   s.now(),
		})
	}
	return res, nil
}

func (s *PaymentService) ConfirmPayment(
	ctx context.Context, intentID string,
) (domain.PaymentResult, error) {
	const op = "PaymentService.ConfirmPayment"
	log := slog.With("op", op, "intentID", intentID)

	if strings.TrimSpace(intentID) == "" {
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, required("payment_intent_id"))
	}

	res, err := s.gateway.ConfirmPaymentIntent(ctx, intentID)
	if err != nil {
		log.Error("payment confirmation failed", "err", err)
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, asPaymentError(err))
	}

	if res.Status != domain.PaymentSucceeded {
		log.Warn("payment not confirmed", "status", res.Status)
		return res, fmt.Errorf("%s: %w", op, &domain.PaymentError{
			Code:    CodeNotConfirmed,
			Message: fmt.Sprintf("payment could not be confirmed, status: %s", res.Status),
		})
	}

	s.publish(ctx, domain.PaymentEvent{
		ID:         uuid.NewString(),
		IntentID:   res.IntentID,
		Type:       domain.EventPaymentSucceeded,
		Status:     res.Status,
		Amount:     res.Amount,
		Currency:   res.Currency,
		OccurredAt: s.now(),
	})
	return res, nil
}

// HandleWebhook trusts the payload only after its signature verifies.
func (s *PaymentService) HandleWebhook(
	ctx context.Context, payload []byte, signature string,
) error {
	const op = "PaymentService.HandleWebhook"
	log := slog.With("op", op)

	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.Warn("webhook rejected", "err", err)
		return fmt.Errorf("%s: %w", op, &domain.PaymentError{
			Code:    CodeInvalidSignature,
			Message: err.Error(),
		})
	}

	log.Info("webhook received", "eventID", ev.ID, "type", ev.Type)
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now()
	}
	s.publish(ctx, ev)
	return nil
}

func (s *PaymentService) publish(ctx context.Context, ev domain.PaymentEvent) {
	const op = "PaymentService.publish"
	log := slog.With("op", op, "eventID", ev.ID, "type", ev.Type)

	if s.producer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.producer.ProducePaymentEvent(ctx, ev); err != nil {
		log.Error("failed to publish payment event", "err", err)
		return
	}
	log.Debug("payment event published")
}

func validatePayment(req domain.PaymentRequest) error {
	switch {
	case req.Amount <= 0:
		return &domain.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	case strings.TrimSpace(req.PaymentMethodID) == "":
		return required("payment_method_id")
	}
	return nil
}

func asPaymentError(err error) error {
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		return pe
	}
	return &domain.PaymentError{Code: CodeProcessorError, Message: err.Error()}
}
