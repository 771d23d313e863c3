package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/niksmo/storefront/internal/adapter/stripe"

	metadataCustomerName = "customer_name"
	intentEventPrefix    = "payment_intent."
)

var ErrMissingWebhookSecret = errors.New("webhook secret is not configured")

var _ port.PaymentGateway = (*Gateway)(nil)

type intentsClient interface {
	New(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(string, *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
}

type Opt func(*Gateway)

func CurrencyOpt(currency string) Opt {
	return func(g *Gateway) {
		if currency != "" {
			g.currency = strings.ToLower(currency)
		}
	}
}

func WebhookSecretOpt(secret string) Opt {
	return func(g *Gateway) {
		g.webhookSecret = secret
	}
}

// WebhookToleranceOpt sets how old a signed webhook may be.
func WebhookToleranceOpt(d time.Duration) Opt {
	return func(g *Gateway) {
		g.tolerance = d
	}
}

// Gateway creates and confirms card payment intents on Stripe.
type Gateway struct {
	intents       intentsClient
	currency      string
	webhookSecret string
	tolerance     time.Duration
}

func NewGateway(secretKey string, opts ...Opt) *Gateway {
	sc := client.New(secretKey, nil)
	return newGateway(sc.PaymentIntents, opts...)
}

func newGateway(intents intentsClient, opts ...Opt) *Gateway {
	g := &Gateway{
		intents:   intents,
		currency:  string(stripe.CurrencyUSD),
		tolerance: webhook.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreatePaymentIntent creates and confirms a manual-confirmation intent
// for a card payment method in one call.
func (g *Gateway) CreatePaymentIntent(
	ctx context.Context, req domain.PaymentRequest,
) (res domain.PaymentResult, err error) {
	const op = "Gateway.CreatePaymentIntent"
	log := slog.With("op", op)

	ctx, span := startSpan(ctx, op, attribute.Int64("payment.amount", req.Amount))
	defer func() { endSpan(span, err) }()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(g.currency),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodManual)),
		Confirm:            stripe.Bool(true),
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	if req.Name != "" {
		params.AddMetadata(metadataCustomerName, req.Name)
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, toPaymentError(err))
	}

	log.Debug("payment intent created", "intentID", pi.ID, "status", pi.Status)
	return toResult(pi), nil
}

func (g *Gateway) ConfirmPaymentIntent(
	ctx context.Context, intentID string,
) (res domain.PaymentResult, err error) {
	const op = "Gateway.ConfirmPaymentIntent"

	ctx, span := startSpan(ctx, op, attribute.String("payment.intent_id", intentID))
	defer func() { endSpan(span, err) }()

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := g.intents.Confirm(intentID, params)
	if err != nil {
		return domain.PaymentResult{}, fmt.Errorf("%s: %w", op, toPaymentError(err))
	}
	return toResult(pi), nil
}

// ParseWebhook verifies the signature header against the webhook secret
// and maps the event. Payment intent events carry the intent fields.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (domain.PaymentEvent, error) {
	const op = "Gateway.ParseWebhook"

	if g.webhookSecret == "" {
		return domain.PaymentEvent{}, fmt.Errorf("%s: %w", op, ErrMissingWebhookSecret)
	}

	ev, err := webhook.ConstructEventWithOptions(
		payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                g.tolerance,
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("%s: %w", op, err)
	}

	out := domain.PaymentEvent{
		ID:         ev.ID,
		Type:       string(ev.Type),
		OccurredAt: time.Unix(ev.Created, 0).UTC(),
	}

	if strings.HasPrefix(out.Type, intentEventPrefix) && ev.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return domain.PaymentEvent{}, fmt.Errorf("%s: %w", op, err)
		}
		out.IntentID = pi.ID
		out.Status = domain.PaymentStatus(pi.Status)
		out.Amount = pi.Amount
		out.Currency = string(pi.Currency)
		out.Email = pi.ReceiptEmail
		out.CustomerName = pi.Metadata[metadataCustomerName]
	}
	return out, nil
}

func toResult(pi *stripe.PaymentIntent) domain.PaymentResult {
	return domain.PaymentResult{
		IntentID:     pi.ID,
		Status:       domain.PaymentStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

func toPaymentError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &domain.PaymentError{Code: string(se.Code), Message: se.Msg}
	}
	return err
}

func startSpan(
	ctx context.Context, name string, attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
