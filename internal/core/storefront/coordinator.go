package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

const checkoutMessage = "Thank you for your purchase! " +
	"This is a demo store, no real payment was processed."

// A Cart is a cart store publishing its mutations.
type Cart interface {
	cart.Store
	Subscribe(cart.Listener) (unsubscribe func())
}

// A Coordinator binds the catalog and the cart to a view.
//
// The catalog is rendered on load and on filter change only. Every cart
// mutation re-renders the item count and, while the cart is open, the
// cart listing.
type Coordinator struct {
	loader port.CatalogLoader
	state  *catalog.State
	cart   Cart
	view   port.View

	mu          sync.Mutex
	filter      domain.Source
	cartOpen    bool
	unsubscribe func()
}

func NewCoordinator(
	loader port.CatalogLoader,
	state *catalog.State,
	cart Cart,
	view port.View,
) *Coordinator {
	c := &Coordinator{
		loader: loader,
		state:  state,
		cart:   cart,
		view:   view,
		filter: domain.SourceAll,
	}
	c.unsubscribe = cart.Subscribe(c.onCartEvent)
	view.RenderCartCount(cart.Totals().ItemCount)
	return c
}

// LoadCatalog replaces the catalog with a fresh load. On failure the
// previous catalog is kept and the error is rendered; calling LoadCatalog
// again retries.
func (c *Coordinator) LoadCatalog(ctx context.Context) error {
	const op = "Coordinator.LoadCatalog"
	log := slog.With("op", op)

	c.view.ShowLoading(true)
	products, err := c.loader.LoadCatalog(ctx)
	c.view.ShowLoading(false)

	if err != nil {
		log.Error("failed to load catalog", "err", err)
		c.view.RenderCatalogError(err)
		return fmt.Errorf("%s: %w", op, err)
	}

	c.state.Replace(products)
	log.Info("catalog loaded", "nProducts", len(products))
	c.view.RenderCatalog(c.VisibleProducts())
	return nil
}

// LoadCatalogWithRetry calls LoadCatalog until it succeeds or the retry
// attempts run out.
func (c *Coordinator) LoadCatalogWithRetry(ctx context.Context, cfg retry.RetryConfig) error {
	return retry.Do(ctx, cfg, func() error {
		return c.LoadCatalog(ctx)
	})
}

func (c *Coordinator) SetFilter(source domain.Source) {
	c.mu.Lock()
	c.filter = source
	c.mu.Unlock()

	c.view.RenderCatalog(c.VisibleProducts())
}

func (c *Coordinator) Filter() domain.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// VisibleProducts projects the catalog through the current filter.
func (c *Coordinator) VisibleProducts() []domain.Product {
	return c.state.Filter(c.Filter())
}

func (c *Coordinator) OpenCart() {
	c.mu.Lock()
	c.cartOpen = true
	c.mu.Unlock()

	c.view.RenderCart(c.cart.Lines(), c.cart.Totals())
}

func (c *Coordinator) CloseCart() {
	c.mu.Lock()
	c.cartOpen = false
	c.mu.Unlock()

	c.view.CloseCart()
}

func (c *Coordinator) IsCartOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cartOpen
}

func (c *Coordinator) AddToCart(productID string) error {
	const op = "Coordinator.AddToCart"

	if err := c.cart.AddItem(productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if p, ok := c.state.Lookup(productID); ok {
		c.view.Notify(p.Title + " added to cart")
	}
	return nil
}

func (c *Coordinator) IncreaseQuantity(productID string) error {
	const op = "Coordinator.IncreaseQuantity"

	if err := c.cart.IncreaseQuantity(productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Coordinator) DecreaseQuantity(productID string) error {
	const op = "Coordinator.DecreaseQuantity"

	if err := c.cart.DecreaseQuantity(productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Coordinator) RemoveFromCart(productID string) {
	c.cart.RemoveItem(productID)
}

func (c *Coordinator) ShowProductDetail(productID string) error {
	const op = "Coordinator.ShowProductDetail"

	p, ok := c.state.Lookup(productID)
	if !ok {
		return fmt.Errorf("%s: %w", op, &domain.ProductNotFoundError{ProductID: productID})
	}
	c.view.RenderProductDetail(p)
	return nil
}

// Checkout acknowledges the purchase, clears the cart and closes the cart
// view. It does nothing for an empty cart and reports whether it ran.
func (c *Coordinator) Checkout() bool {
	const op = "Coordinator.Checkout"
	log := slog.With("op", op)

	totals := c.cart.Totals()
	if totals.ItemCount == 0 {
		return false
	}

	c.view.Notify(checkoutMessage)
	c.cart.Clear()
	c.CloseCart()

	log.Info("checkout completed",
		"nItems", totals.ItemCount, "total", totals.Total.StringFixed(2))
	return true
}

// Close detaches the coordinator from the cart.
func (c *Coordinator) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Coordinator) onCartEvent(e cart.Event) {
	c.view.RenderCartCount(e.Totals.ItemCount)
	if c.IsCartOpen() {
		c.view.RenderCart(c.cart.Lines(), e.Totals)
	}
}
