package domain

import "github.com/shopspring/decimal"

// A CartLine is a product in the cart with its quantity.
//
// Quantity is always at least 1.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	ItemCount int
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
}

// ComputeTotals derives the cart aggregates from its lines.
func ComputeTotals(lines []CartLine) Totals {
	var t Totals
	t.Subtotal = decimal.Zero
	for _, l := range lines {
		t.ItemCount += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.LineTotal())
	}
	// no tax or shipping
	t.Total = t.Subtotal
	return t
}
