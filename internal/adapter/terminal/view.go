package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

const (
	maxTitleLen = 40
	maxStars    = 5
)

var _ port.View = (*View)(nil)

// A View renders the storefront as plain text.
type View struct {
	mu sync.Mutex
	w  io.Writer
}

func NewView(w io.Writer) *View {
	return &View{w: w}
}

func (v *View) ShowLoading(on bool) {
	if on {
		v.printf("Loading products...\n")
	}
}

func (v *View) RenderCatalog(ps []domain.Product) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(ps) == 0 {
		fmt.Fprintln(v.w, "No products found.")
		return
	}

	tw := tabwriter.NewWriter(v.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tRATING\t")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			p.ID, truncate(p.Title, maxTitleLen), p.Category,
			FormatPrice(p.Price), Stars(p.Rating.Rate))
	}
	tw.Flush()
	fmt.Fprintf(v.w, "%d products\n", len(ps))
}

func (v *View) RenderCatalogError(err error) {
	v.printf("Error loading products: %v\nType \"reload\" to try again.\n", err)
}

func (v *View) RenderCartCount(n int) {
	v.printf("[cart: %d]\n", n)
}

func (v *View) RenderCart(lines []domain.CartLine, t domain.Totals) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(lines) == 0 {
		fmt.Fprintln(v.w, "Your cart is empty.")
		return
	}

	tw := tabwriter.NewWriter(v.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY\tTOTAL\t")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t\n",
			l.ID, truncate(l.Title, maxTitleLen), FormatPrice(l.Price),
			l.Quantity, FormatPrice(l.LineTotal()))
	}
	tw.Flush()
	fmt.Fprintf(v.w, "Items: %d\nSubtotal: %s\nTotal: %s\n",
		t.ItemCount, FormatPrice(t.Subtotal), FormatPrice(t.Total))
}

func (v *View) RenderProductDetail(p domain.Product) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintf(v.w, "%s\n%s\n", p.Title, strings.Repeat("-", len([]rune(p.Title))))
	tw := tabwriter.NewWriter(v.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Category\t%s\n", p.Category)
	fmt.Fprintf(tw, "Price\t%s\n", FormatPrice(p.Price))
	fmt.Fprintf(tw, "Rating\t%s (%d)\n", Stars(p.Rating.Rate), p.Rating.Count)
	if p.Image != "" {
		fmt.Fprintf(tw, "Image\t%s\n", p.Image)
	}
	tw.Flush()
	if p.Description != "" {
		fmt.Fprintf(v.w, "\n%s\n", p.Description)
	}
	fmt.Fprintf(v.w, "\nType \"add %s\" to add it to the cart.\n", p.ID)
}

func (v *View) CloseCart() {
	v.printf("Cart closed.\n")
}

func (v *View) Notify(msg string) {
	v.printf("> %s\n", msg)
}

func (v *View) Printf(format string, a ...any) {
	v.printf(format, a...)
}

func (v *View) printf(format string, a ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, format, a...)
}

// FormatPrice renders an amount in euros with two decimals.
func FormatPrice(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

// Stars renders a rating out of five, rounded to the nearest star.
func Stars(rate float64) string {
	n := int(math.Round(rate))
	n = max(0, min(n, maxStars))
	return strings.Repeat("★", n) + strings.Repeat("☆", maxStars-n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
