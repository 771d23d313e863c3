package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type stubIdentifier struct{}

func (stubIdentifier) DetermineID(context.Context, string, string) (int, error) {
	return 1, nil
}

func newTestSerde(t *testing.T) schema.Serde {
	t.Helper()
	s, err := schema.NewSerdePaymentEventV1(
		t.Context(),
		schema.SubjectOpt("payments-value"),
		schema.SchemaIdentifierOpt(stubIdentifier{}),
	)
	require.NoError(t, err)
	return s
}

type fakeProducerClient struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
	closed  bool
}

func (c *fakeProducerClient) ProduceSync(
	_ context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res kgo.ProduceResults
	for _, r := range rs {
		if c.err == nil {
			c.records = append(c.records, r)
		}
		res = append(res, kgo.ProduceResult{Record: r, Err: c.err})
	}
	return res
}

func (c *fakeProducerClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

type fakeConsumerClient struct {
	mu        sync.Mutex
	fetches   []kgo.Fetches
	commits   int
	commitErr error
	closed    bool
}

func (c *fakeConsumerClient) PollFetches(ctx context.Context) kgo.Fetches {
	c.mu.Lock()
	if len(c.fetches) != 0 {
		f := c.fetches[0]
		c.fetches = c.fetches[1:]
		c.mu.Unlock()
		return f
	}
	c.mu.Unlock()
	<-ctx.Done()
	return kgo.NewErrFetch(ctx.Err())
}

func (c *fakeConsumerClient) CommitUncommittedOffsets(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commitErr != nil {
		return c.commitErr
	}
	c.commits++
	return nil
}

func (c *fakeConsumerClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConsumerClient) commitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SavePaymentEvents(
	ctx context.Context, evs []domain.PaymentEvent,
) error {
	args := m.Called(ctx, evs)
	return args.Error(0)
}

func fetchesOf(rs ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic: "payments",
			Partitions: []kgo.FetchPartition{{
				Partition: 0,
				Records:   rs,
			}},
		}},
	}}
}

func testEvent() domain.PaymentEvent {
	return domain.PaymentEvent{
		ID:           "evt_1",
		IntentID:     "pi_1",
		Type:         domain.EventPaymentSucceeded,
		Status:       domain.PaymentSucceeded,
		Amount:       2398,
		Currency:     "usd",
		Email:        "ada@example.com",
		CustomerName: "Ada",
		OccurredAt:   time.UnixMilli(1700000000000).UTC(),
	}
}

func TestPaymentEventsProducer(t *testing.T) {
	serde := newTestSerde(t)

	t.Run("ProduceKeyedByIntent", func(t *testing.T) {
		cl := new(fakeProducerClient)
		p, err := NewPaymentEventsProducer(
			ProducerWithClientOpt(cl), ProducerEncoderOpt(serde),
		)
		require.NoError(t, err)

		ev := testEvent()
		require.NoError(t, p.ProducePaymentEvent(t.Context(), ev))
		require.Len(t, cl.records, 1)
		assert.Equal(t, "pi_1", string(cl.records[0].Key))

		var got schema.PaymentEventV1
		require.NoError(t, serde.Decode(cl.records[0].Value, &got))
		assert.Equal(t, ev, schemaV1ToPaymentEvent(got))

		p.Close()
		assert.True(t, cl.closed)
	})

	t.Run("ClientError", func(t *testing.T) {
		errBroker := errors.New("broker down")
		cl := &fakeProducerClient{err: errBroker}
		p, err := NewPaymentEventsProducer(
			ProducerWithClientOpt(cl), ProducerEncoderOpt(serde),
		)
		require.NoError(t, err)

		err = p.ProducePaymentEvent(t.Context(), testEvent())
		assert.ErrorIs(t, err, errBroker)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cl := new(fakeProducerClient)
		p, err := NewPaymentEventsProducer(
			ProducerWithClientOpt(cl), ProducerEncoderOpt(serde),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err = p.ProducePaymentEvent(ctx, testEvent())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, cl.records)
	})

	t.Run("NilEncoder", func(t *testing.T) {
		_, err := NewPaymentEventsProducer(
			ProducerWithClientOpt(new(fakeProducerClient)), ProducerEncoderOpt(nil),
		)
		assert.Error(t, err)
	})

	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewPaymentEventsProducer(ProducerEncoderOpt(serde))
		})
	})
}

func TestPaymentEventsConsumer(t *testing.T) {
	serde := newTestSerde(t)

	encode := func(t *testing.T, ev domain.PaymentEvent) *kgo.Record {
		b, err := serde.Encode(paymentEventToSchemaV1(ev))
		require.NoError(t, err)
		return &kgo.Record{Key: []byte(ev.IntentID), Value: b}
	}

	t.Run("SavesAndCommits", func(t *testing.T) {
		ev := testEvent()
		cl := &fakeConsumerClient{
			fetches: []kgo.Fetches{
				fetchesOf(encode(t, ev), &kgo.Record{Value: []byte("garbage")}),
			},
		}
		saver := new(MockSaver)
		saved := make(chan struct{})
		saver.On("SavePaymentEvents", mock.Anything, []domain.PaymentEvent{ev}).
			Return(nil).
			Run(func(mock.Arguments) { close(saved) })

		c, err := NewPaymentEventsConsumer(
			ConsumerWithClientOpt(cl),
			ConsumerDecoderOpt(serde),
			PaymentEventsSaverOpt(saver),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan struct{})
		go func() {
			c.Run(ctx)
			close(done)
		}()

		select {
		case <-saved:
		case <-time.After(time.Second):
			t.Fatal("events were not saved")
		}
		assert.Eventually(t, func() bool {
			return cl.commitCount() == 1
		}, time.Second, 10*time.Millisecond)

		cancel()
		<-done
		c.Close()
		assert.True(t, cl.closed)
		saver.AssertExpectations(t)
	})

	t.Run("SaverErrorSkipsCommit", func(t *testing.T) {
		cl := &fakeConsumerClient{
			fetches: []kgo.Fetches{fetchesOf(encode(t, testEvent()))},
		}
		saver := new(MockSaver)
		saver.On("SavePaymentEvents", mock.Anything, mock.Anything).
			Return(errors.New("db down"))

		c, err := NewPaymentEventsConsumer(
			ConsumerWithClientOpt(cl),
			ConsumerDecoderOpt(serde),
			PaymentEventsSaverOpt(saver),
		)
		require.NoError(t, err)

		err = c.consumer.consume(t.Context())
		require.Error(t, err)
		assert.Zero(t, cl.commitCount())
	})

	t.Run("FetchError", func(t *testing.T) {
		errFetch := errors.New("fetch failed")
		cl := &fakeConsumerClient{
			fetches: []kgo.Fetches{kgo.NewErrFetch(errFetch)},
		}
		c, err := NewPaymentEventsConsumer(
			ConsumerWithClientOpt(cl),
			ConsumerDecoderOpt(serde),
			PaymentEventsSaverOpt(new(MockSaver)),
		)
		require.NoError(t, err)

		err = c.consumer.consume(t.Context())
		assert.ErrorIs(t, err, errFetch)
	})

	t.Run("TooFewOpts", func(t *testing.T) {
		_, err := NewPaymentEventsConsumer(ConsumerDecoderOpt(serde))
		assert.ErrorIs(t, err, ErrTooFewOpts)
	})
}
