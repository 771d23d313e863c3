package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) CreateCategory(
	ctx context.Context, c domain.Category,
) (domain.Category, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Category), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListProducts(ctx context.Context) ([]domain.AdminProduct, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AdminProduct), args.Error(1)
}

func (m *MockProductRepository) GetProduct(ctx context.Context, id int64) (domain.AdminProduct, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.AdminProduct), args.Error(1)
}

func (m *MockProductRepository) CreateProduct(
	ctx context.Context, p domain.AdminProduct,
) (domain.AdminProduct, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.AdminProduct), args.Error(1)
}

func (m *MockProductRepository) UpdateProduct(
	ctx context.Context, p domain.AdminProduct,
) (domain.AdminProduct, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.AdminProduct), args.Error(1)
}

func (m *MockProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePaymentIntent(
	ctx context.Context, req domain.PaymentRequest,
) (domain.PaymentResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.PaymentResult), args.Error(1)
}

func (m *MockPaymentGateway) ConfirmPaymentIntent(
	ctx context.Context, id string,
) (domain.PaymentResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PaymentResult), args.Error(1)
}

func (m *MockPaymentGateway) ParseWebhook(
	payload []byte, signature string,
) (domain.PaymentEvent, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(domain.PaymentEvent), args.Error(1)
}

type MockPaymentEventsProducer struct {
	mock.Mock
}

func (m *MockPaymentEventsProducer) ProducePaymentEvent(
	ctx context.Context, ev domain.PaymentEvent,
) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockPaymentEventsStorage struct {
	mock.Mock
}

func (m *MockPaymentEventsStorage) StoreEvents(
	ctx context.Context, evs []domain.PaymentEvent,
) error {
	args := m.Called(ctx, evs)
	return args.Error(0)
}

func validationField(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Field
}

func TestAdminServiceCategories(t *testing.T) {
	t.Run("NameRequired", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		s := service.NewAdminService(categories, new(MockProductRepository))

		_, err := s.CreateCategory(t.Context(), domain.Category{Name: "  "})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, "name", validationField(t, err))
		categories.AssertNotCalled(t, "CreateCategory", mock.Anything, mock.Anything)
	})

	t.Run("Create", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		s := service.NewAdminService(categories, new(MockProductRepository))

		in := domain.Category{Name: "electronics", Description: "gadgets"}
		categories.On("CreateCategory", t.Context(), in).
			Return(domain.Category{ID: 7, Name: in.Name, Description: in.Description}, nil)

		got, err := s.CreateCategory(t.Context(), domain.Category{
			Name: " electronics ", Description: "gadgets",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
		categories.AssertExpectations(t)
	})

	t.Run("ListError", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		s := service.NewAdminService(categories, new(MockProductRepository))

		errDB := errors.New("db down")
		categories.On("ListCategories", t.Context()).Return([]domain.Category(nil), errDB)

		_, err := s.ListCategories(t.Context())
		assert.ErrorIs(t, err, errDB)
	})
}

func TestAdminServiceProducts(t *testing.T) {
	valid := domain.AdminProduct{
		CategoryID: 1,
		Name:       "Keyboard",
		Price:      decimal.RequireFromString("49.90"),
	}

	invalid := []struct {
		name  string
		edit  func(*domain.AdminProduct)
		field string
	}{
		{"NoCategory", func(p *domain.AdminProduct) { p.CategoryID = 0 }, "category_id"},
		{"NoName", func(p *domain.AdminProduct) { p.Name = "" }, "name"},
		{"ZeroPrice", func(p *domain.AdminProduct) { p.Price = decimal.Zero }, "price"},
		{"NegativePrice", func(p *domain.AdminProduct) { p.Price = decimal.NewFromInt(-1) }, "price"},
		{"NegativeStock", func(p *domain.AdminProduct) { p.Stock = -3 }, "stock"},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			products := new(MockProductRepository)
			s := service.NewAdminService(new(MockCategoryRepository), products)

			p := valid
			tc.edit(&p)

			_, err := s.CreateProduct(t.Context(), p)
			assert.Equal(t, tc.field, validationField(t, err))

			_, err = s.UpdateProduct(t.Context(), p)
			assert.Equal(t, tc.field, validationField(t, err))

			products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
			products.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything)
		})
	}

	t.Run("CreateDefaultsStock", func(t *testing.T) {
		products := new(MockProductRepository)
		s := service.NewAdminService(new(MockCategoryRepository), products)

		created := valid
		created.ID = 3
		products.On("CreateProduct", t.Context(), valid).Return(created, nil)

		got, err := s.CreateProduct(t.Context(), valid)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, 0, got.Stock)
		products.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		products := new(MockProductRepository)
		s := service.NewAdminService(new(MockCategoryRepository), products)

		products.On("GetProduct", t.Context(), int64(42)).
			Return(domain.AdminProduct{}, domain.ErrNotFound)
		products.On("DeleteProduct", t.Context(), int64(42)).Return(domain.ErrNotFound)

		_, err := s.GetProduct(t.Context(), 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.DeleteProduct(t.Context(), 42), domain.ErrNotFound)
	})
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newPaymentService(
	gw *MockPaymentGateway, pr port.PaymentEventsProducer, opts ...service.PaymentOpt,
) *service.PaymentService {
	opts = append(opts, service.WithClock(func() time.Time { return fixedNow }))
	return service.NewPaymentService(gw, pr, opts...)
}

func TestPaymentServiceProcess(t *testing.T) {
	req := domain.PaymentRequest{
		Amount:          2398,
		PaymentMethodID: "pm_card_visa",
		Email:           "jane@example.com",
		Name:            "Jane",
	}

	t.Run("Succeeded", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		pr := new(MockPaymentEventsProducer)
		s := newPaymentService(gw, pr)

		gw.On("CreatePaymentIntent", t.Context(), req).Return(domain.PaymentResult{
			IntentID: "pi_1", Status: domain.PaymentSucceeded, Amount: 2398, Currency: "usd",
		}, nil)
		pr.On("ProducePaymentEvent", mock.Anything, mock.MatchedBy(
			func(ev domain.PaymentEvent) bool {
				return ev.IntentID == "pi_1" &&
					ev.Type == domain.EventPaymentSucceeded &&
					ev.Amount == 2398 &&
					ev.Email == req.Email &&
					ev.CustomerName == req.Name &&
					ev.OccurredAt.Equal(fixedNow) &&
					ev.ID != ""
			},
		)).Return(nil)

		res, err := s.ProcessPayment(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentSucceeded, res.Status)
		gw.AssertExpectations(t)
		pr.AssertExpectations(t)
	})

	t.Run("RequiresAction", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		pr := new(MockPaymentEventsProducer)
		s := newPaymentService(gw, pr)

		gw.On("CreatePaymentIntent", t.Context(), req).Return(domain.PaymentResult{
			IntentID: "pi_2", Status: domain.PaymentRequiresAction, ClientSecret: "pi_2_secret",
		}, nil)

		res, err := s.ProcessPayment(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, "pi_2_secret", res.ClientSecret)
		pr.AssertNotCalled(t, "ProducePaymentEvent", mock.Anything, mock.Anything)
	})

	t.Run("ProcessorError", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		s := newPaymentService(gw, nil)

		gw.On("CreatePaymentIntent", t.Context(), req).
			Return(domain.PaymentResult{}, errors.New("Your card was declined."))

		_, err := s.ProcessPayment(t.Context(), req)
		var pe *domain.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, service.CodeProcessorError, pe.Code)
		assert.Equal(t, "Your card was declined.", pe.Message)
		gw.AssertNumberOfCalls(t, "CreatePaymentIntent", 1)
	})

	t.Run("Validation", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		s := newPaymentService(gw, nil)

		bad := req
		bad.Amount = 0
		_, err := s.ProcessPayment(t.Context(), bad)
		assert.Equal(t, "amount", validationField(t, err))

		bad = req
		bad.PaymentMethodID = ""
		_, err = s.ProcessPayment(t.Context(), bad)
		assert.Equal(t, "payment_method_id", validationField(t, err))

		gw.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)
	})

	t.Run("RateLimited", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		s := newPaymentService(gw, nil, service.WithRateLimit(0.001, 1))

		gw.On("CreatePaymentIntent", t.Context(), req).Return(domain.PaymentResult{
			IntentID: "pi_3", Status: domain.PaymentRequiresAction,
		}, nil)

		_, err := s.ProcessPayment(t.Context(), req)
		require.NoError(t, err)

		_, err = s.ProcessPayment(t.Context(), req)
		var pe *domain.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, service.CodeRateLimited, pe.Code)
		gw.AssertNumberOfCalls(t, "CreatePaymentIntent", 1)
	})

	t.Run("PublishFailureIgnored", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		pr := new(MockPaymentEventsProducer)
		s := newPaymentService(gw, pr)

		gw.On("CreatePaymentIntent", t.Context(), req).Return(domain.PaymentResult{
			IntentID: "pi_4", Status: domain.PaymentSucceeded,
		}, nil)
		pr.On("ProducePaymentEvent", mock.Anything, mock.Anything).
			Return(errors.New("broker unavailable"))

		_, err := s.ProcessPayment(t.Context(), req)
		assert.NoError(t, err)
		pr.AssertExpectations(t)
	})
}

func TestPaymentServiceConfirm(t *testing.T) {
	t.Run("Succeeded", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		pr := new(MockPaymentEventsProducer)
		s := newPaymentService(gw, pr)

		gw.On("ConfirmPaymentIntent", t.Context(), "pi_1").Return(domain.PaymentResult{
			IntentID: "pi_1", Status: domain.PaymentSucceeded, Amount: 100, Currency: "usd",
		}, nil)
		pr.On("ProducePaymentEvent", mock.Anything, mock.Anything).Return(nil)

		_, err := s.ConfirmPayment(t.Context(), "pi_1")
		require.NoError(t, err)
		pr.AssertNumberOfCalls(t, "ProducePaymentEvent", 1)
	})

	t.Run("NotSucceeded", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		s := newPaymentService(gw, nil)

		gw.On("ConfirmPaymentIntent", t.Context(), "pi_1").Return(domain.PaymentResult{
			IntentID: "pi_1", Status: "requires_payment_method",
		}, nil)

		_, err := s.ConfirmPayment(t.Context(), "pi_1")
		var pe *domain.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "payment could not be confirmed, status: requires_payment_method", pe.Message)
	})

	t.Run("EmptyID", func(t *testing.T) {
		s := newPaymentService(new(MockPaymentGateway), nil)
		_, err := s.ConfirmPayment(t.Context(), "")
		assert.Equal(t, "payment_intent_id", validationField(t, err))
	})
}

func TestPaymentServiceWebhook(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	t.Run("InvalidSignature", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		pr := new(MockPaymentEventsProducer)
		s := newPaymentService(gw, pr)

		gw.On("ParseWebhook", payload, "bad").
			Return(domain.PaymentEvent{}, errors.New("signature mismatch"))

		err := s.HandleWebhook(t.Context(), payload, "bad")
		var pe *domain.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, service.CodeInvalidSignature, pe.Code)
		pr.AssertNotCalled(t, "ProducePaymentEvent", mock.Anything, mock.Anything)
	})

	t.Run("Valid", func(t *testing.T) {
		gw := new(MockPaymentGateway)
		pr := new(MockPaymentEventsProducer)
		s := newPaymentService(gw, pr)

		ev := domain.PaymentEvent{ID: "evt_1", IntentID: "pi_1", Type: domain.EventPaymentSucceeded}
		gw.On("ParseWebhook", payload, "sig").Return(ev, nil)

		want := ev
		want.OccurredAt = fixedNow
		pr.On("ProducePaymentEvent", mock.Anything, want).Return(nil)

		require.NoError(t, s.HandleWebhook(t.Context(), payload, "sig"))
		pr.AssertExpectations(t)
	})
}

func TestEventsService(t *testing.T) {
	storage := new(MockPaymentEventsStorage)
	s := service.NewEventsService(storage)

	assert.NoError(t, s.SavePaymentEvents(t.Context(), nil))
	storage.AssertNotCalled(t, "StoreEvents", mock.Anything, mock.Anything)

	evs := []domain.PaymentEvent{{ID: "evt_1"}}
	storage.On("StoreEvents", t.Context(), evs).Return(nil)
	require.NoError(t, s.SavePaymentEvents(t.Context(), evs))
	storage.AssertExpectations(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, s.SavePaymentEvents(ctx, evs), context.Canceled)
}
