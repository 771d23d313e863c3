package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.PaymentEventsProducer = (*PaymentEventsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A PaymentEventsProducer publishes [domain.PaymentEvent] keyed by the
// payment intent, so events of one payment stay ordered.
type PaymentEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewPaymentEventsProducer(
	opts ...ProducerOpt,
) (PaymentEventsProducer, error) {
	const op = "NewPaymentEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return PaymentEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "PaymentEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return PaymentEventsProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p PaymentEventsProducer) Close() {
	p.producer.close()
}

func (p PaymentEventsProducer) ProducePaymentEvent(
	ctx context.Context, v domain.PaymentEvent,
) error {
	const op = "ProducePaymentEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(v)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p PaymentEventsProducer) createRecord(
	v domain.PaymentEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}

	key := s.IntentID
	if key == "" {
		key = s.EventID
	}
	return &kgo.Record{Key: []byte(key), Value: b}, nil
}

func (PaymentEventsProducer) toSchema(v domain.PaymentEvent) schema.PaymentEventV1 {
	return paymentEventToSchemaV1(v)
}
