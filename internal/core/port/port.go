package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContext interface {
		Run(context.Context)
	}

	closer interface {
		Close()
	}
)

// Storefront client side.

type SourceFetcher interface {
	Source() domain.Source
	Fetch(context.Context) ([]domain.Product, error)
}

type CatalogLoader interface {
	LoadCatalog(context.Context) ([]domain.Product, error)
}

type ProductLookup interface {
	Lookup(productID string) (domain.Product, bool)
}

// A CartStorage is a durable key-value store for serialized carts.
//
// Load returns [domain.ErrNotFound] when the key is absent.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type View interface {
	ShowLoading(bool)
	RenderCatalog([]domain.Product)
	RenderCatalogError(error)
	RenderCartCount(int)
	RenderCart([]domain.CartLine, domain.Totals)
	RenderProductDetail(domain.Product)
	CloseCart()
	Notify(string)
}

// Server side.

type CategoryRepository interface {
	ListCategories(context.Context) ([]domain.Category, error)
	CreateCategory(context.Context, domain.Category) (domain.Category, error)
}

type ProductRepository interface {
	ListProducts(context.Context) ([]domain.AdminProduct, error)
	GetProduct(ctx context.Context, id int64) (domain.AdminProduct, error)
	CreateProduct(context.Context, domain.AdminProduct) (domain.AdminProduct, error)
	UpdateProduct(context.Context, domain.AdminProduct) (domain.AdminProduct, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type CatalogAdmin interface {
	ListCategories(context.Context) ([]domain.Category, error)
	CreateCategory(context.Context, domain.Category) (domain.Category, error)
	ListProducts(context.Context) ([]domain.AdminProduct, error)
	GetProduct(ctx context.Context, id int64) (domain.AdminProduct, error)
	CreateProduct(context.Context, domain.AdminProduct) (domain.AdminProduct, error)
	UpdateProduct(context.Context, domain.AdminProduct) (domain.AdminProduct, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type PaymentGateway interface {
	CreatePaymentIntent(context.Context, domain.PaymentRequest) (domain.PaymentResult, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string) (domain.PaymentResult, error)
	ParseWebhook(payload []byte, signature string) (domain.PaymentEvent, error)
}

type PaymentProcessor interface {
	ProcessPayment(context.Context, domain.PaymentRequest) (domain.PaymentResult, error)
	ConfirmPayment(ctx context.Context, intentID string) (domain.PaymentResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PaymentEventsProducer interface {
	ProducePaymentEvent(context.Context, domain.PaymentEvent) error
}

type PaymentEventsSaver interface {
	SavePaymentEvents(context.Context, []domain.PaymentEvent) error
}

type PaymentEventsStorage interface {
	StoreEvents(context.Context, []domain.PaymentEvent) error
}

type PaymentEventsConsumer interface {
	runnerContext
	closer
}
