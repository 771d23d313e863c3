package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderFunc func(context.Context) ([]domain.Product, error)

func (f loaderFunc) LoadCatalog(ctx context.Context) ([]domain.Product, error) {
	return f(ctx)
}

type fakeView struct {
	calls        []string
	catalogs     [][]domain.Product
	catalogErrs  []error
	counts       []int
	carts        [][]domain.CartLine
	details      []domain.Product
	notes        []string
	loadingCalls []bool
}

func (v *fakeView) ShowLoading(on bool) {
	v.calls = append(v.calls, "loading")
	v.loadingCalls = append(v.loadingCalls, on)
}

func (v *fakeView) RenderCatalog(ps []domain.Product) {
	v.calls = append(v.calls, "catalog")
	v.catalogs = append(v.catalogs, ps)
}

func (v *fakeView) RenderCatalogError(err error) {
	v.calls = append(v.calls, "catalogError")
	v.catalogErrs = append(v.catalogErrs, err)
}

func (v *fakeView) RenderCartCount(n int) {
	v.calls = append(v.calls, "count")
	v.counts = append(v.counts, n)
}

func (v *fakeView) RenderCart(lines []domain.CartLine, _ domain.Totals) {
	v.calls = append(v.calls, "cart")
	v.carts = append(v.carts, lines)
}

func (v *fakeView) RenderProductDetail(p domain.Product) {
	v.calls = append(v.calls, "detail")
	v.details = append(v.details, p)
}

func (v *fakeView) CloseCart() {
	v.calls = append(v.calls, "closeCart")
}

func (v *fakeView) Notify(msg string) {
	v.calls = append(v.calls, "notify")
	v.notes = append(v.notes, msg)
}

func (v *fakeView) reset() {
	*v = fakeView{}
}

func (v *fakeView) count(call string) int {
	var n int
	for _, c := range v.calls {
		if c == call {
			n++
		}
	}
	return n
}

func product(source domain.Source, id int, title, price string) domain.Product {
	return domain.Product{
		ID:     domain.ProductID(source, id),
		Title:  title,
		Price:  decimal.RequireFromString(price),
		Source: source,
	}
}

func testCatalog() []domain.Product {
	return []domain.Product{
		product(domain.SourceFakeStore, 1, "Backpack", "109.95"),
		product(domain.SourceFakeStore, 2, "T-Shirt", "22.30"),
		product(domain.SourceFakeStore, 3, "Jacket", "55.99"),
		product(domain.SourceDummyJSON, 1, "Mascara", "9.99"),
		product(domain.SourceDummyJSON, 2, "Eyeshadow", "19.99"),
	}
}

type fixture struct {
	view  *fakeView
	state *catalog.State
	cart  *cart.Observable
	c     *Coordinator
}

func newFixture(t *testing.T, loader loaderFunc) fixture {
	t.Helper()
	if loader == nil {
		loader = func(context.Context) ([]domain.Product, error) {
			return testCatalog(), nil
		}
	}
	view := &fakeView{}
	state := catalog.NewState()
	c := cart.NewObservable(cart.NewMemory(state, nil))
	coord := NewCoordinator(loader, state, c, view)
	t.Cleanup(coord.Close)
	return fixture{view: view, state: state, cart: c, c: coord}
}

func ids(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestCoordinatorLoadCatalog(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, nil)
		f.view.reset()

		require.NoError(t, f.c.LoadCatalog(t.Context()))

		assert.Equal(t, []string{"loading", "loading", "catalog"}, f.view.calls)
		assert.Equal(t, []bool{true, false}, f.view.loadingCalls)
		assert.Len(t, f.view.catalogs[0], 5)
		assert.Equal(t, 5, f.state.Len())
	})

	t.Run("FailureKeepsPreviousCatalog", func(t *testing.T) {
		fail := false
		f := newFixture(t, func(context.Context) ([]domain.Product, error) {
			if fail {
				return nil, &domain.CatalogLoadError{
					Source: domain.SourceDummyJSON,
					Err:    errors.New("503"),
				}
			}
			return testCatalog(), nil
		})
		require.NoError(t, f.c.LoadCatalog(t.Context()))
		f.view.reset()

		fail = true
		err := f.c.LoadCatalog(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCatalogLoad)

		assert.Equal(t, 0, f.view.count("catalog"))
		require.Len(t, f.view.catalogErrs, 1)
		assert.ErrorIs(t, f.view.catalogErrs[0], domain.ErrCatalogLoad)
		assert.Equal(t, 5, f.state.Len())

		fail = false
		require.NoError(t, f.c.LoadCatalog(t.Context()))
		assert.Equal(t, 1, f.view.count("catalog"))
	})

	t.Run("WithRetry", func(t *testing.T) {
		var calls int
		f := newFixture(t, func(context.Context) ([]domain.Product, error) {
			calls++
			if calls == 1 {
				return nil, &domain.CatalogLoadError{Err: context.DeadlineExceeded}
			}
			return testCatalog(), nil
		})

		cfg := retry.RetryConfig{MaxAttempts: 3, Backoff: retry.LinearBackoff(0)}
		require.NoError(t, f.c.LoadCatalogWithRetry(t.Context(), cfg))
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, f.view.count("catalogError"))
		assert.Equal(t, 1, f.view.count("catalog"))
	})
}

func TestCoordinatorFilter(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.LoadCatalog(t.Context()))
	assert.Equal(t, domain.SourceAll, f.c.Filter())

	f.c.SetFilter(domain.SourceDummyJSON)
	assert.Equal(t,
		[]string{"dummyjson_1", "dummyjson_2"},
		ids(f.c.VisibleProducts()))

	f.c.SetFilter(domain.SourceFakeStore)
	assert.Equal(t,
		[]string{"fakestoreapi_1", "fakestoreapi_2", "fakestoreapi_3"},
		ids(f.c.VisibleProducts()))

	f.c.SetFilter(domain.SourceAll)
	assert.Equal(t, ids(testCatalog()), ids(f.c.VisibleProducts()))

	assert.Equal(t, ids(testCatalog()), ids(f.state.Products()),
		"filtering must not reorder the catalog")
	assert.Equal(t, 4, f.view.count("catalog"))
}

func TestCoordinatorCartRendering(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.LoadCatalog(t.Context()))

	t.Run("ClosedCartRendersCountOnly", func(t *testing.T) {
		f.view.reset()
		require.NoError(t, f.c.AddToCart("fakestoreapi_1"))

		assert.Equal(t, []string{"count", "notify"}, f.view.calls)
		assert.Equal(t, []int{1}, f.view.counts)
		assert.Equal(t, []string{"Backpack added to cart"}, f.view.notes)
	})

	t.Run("OpenCartRendersListing", func(t *testing.T) {
		f.c.OpenCart()
		assert.True(t, f.c.IsCartOpen())
		f.view.reset()

		require.NoError(t, f.c.IncreaseQuantity("fakestoreapi_1"))
		require.NoError(t, f.c.AddToCart("dummyjson_2"))

		assert.Equal(t, []int{2, 3}, f.view.counts)
		require.Len(t, f.view.carts, 2)
		assert.Len(t, f.view.carts[1], 2)
		assert.Equal(t, 0, f.view.count("catalog"),
			"cart mutations must not re-render the catalog")
	})

	t.Run("DecreaseAndRemove", func(t *testing.T) {
		f.view.reset()
		require.NoError(t, f.c.DecreaseQuantity("fakestoreapi_1"))
		f.c.RemoveFromCart("dummyjson_2")

		assert.Equal(t, []int{2, 1}, f.view.counts)
		require.Len(t, f.view.carts, 2)
		assert.Len(t, f.view.carts[1], 1)
	})

	t.Run("ClosedAgain", func(t *testing.T) {
		f.c.CloseCart()
		assert.False(t, f.c.IsCartOpen())
		f.view.reset()

		require.NoError(t, f.c.IncreaseQuantity("fakestoreapi_1"))
		assert.Equal(t, []string{"count"}, f.view.calls)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f.view.reset()
		err := f.c.AddToCart("fakestoreapi_99")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Empty(t, f.view.calls)

		err = f.c.DecreaseQuantity("dummyjson_1")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Empty(t, f.view.calls)
	})
}

func TestCoordinatorCheckout(t *testing.T) {
	t.Run("EmptyCartIsNoop", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.c.LoadCatalog(t.Context()))
		f.view.reset()

		assert.False(t, f.c.Checkout())
		assert.Empty(t, f.view.calls)
	})

	t.Run("ClearsAndCloses", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.c.LoadCatalog(t.Context()))
		require.NoError(t, f.c.AddToCart("fakestoreapi_2"))
		require.NoError(t, f.c.AddToCart("fakestoreapi_2"))
		f.c.OpenCart()
		f.view.reset()

		assert.True(t, f.c.Checkout())

		assert.Equal(t, "notify", f.view.calls[0])
		assert.Equal(t, []string{checkoutMessage}, f.view.notes)
		assert.Equal(t, []int{0}, f.view.counts)
		assert.Equal(t, "closeCart", f.view.calls[len(f.view.calls)-1])
		assert.False(t, f.c.IsCartOpen())
		assert.Empty(t, f.cart.Lines())
	})
}

func TestCoordinatorProductDetail(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.LoadCatalog(t.Context()))
	f.view.reset()

	require.NoError(t, f.c.ShowProductDetail("dummyjson_1"))
	require.Len(t, f.view.details, 1)
	assert.Equal(t, "Mascara", f.view.details[0].Title)

	err := f.c.ShowProductDetail("nope")
	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.ProductID)
}

func TestCoordinatorClose(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.LoadCatalog(t.Context()))
	f.c.Close()
	f.c.Close()
	f.view.reset()

	require.NoError(t, f.cart.AddItem("fakestoreapi_1"))
	assert.Empty(t, f.view.calls)
}
