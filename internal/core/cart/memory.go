package cart

import (
	"fmt"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// A Store owns the cart lines.
//
// Mutations keep at most one line per product id and every quantity at
// least 1. Totals are derived from the lines on each call.
type Store interface {
	AddItem(productID string) error
	IncreaseQuantity(productID string) error
	DecreaseQuantity(productID string) error
	RemoveItem(productID string)
	Clear()
	Lines() []domain.CartLine
	Totals() domain.Totals
}

var _ Store = (*Memory)(nil)

// Memory is the in-memory cart without any side effects.
type Memory struct {
	mu     sync.Mutex
	lookup port.ProductLookup
	lines  []domain.CartLine
}

// NewMemory returns a cart seeded with lines.
//
// Seed lines breaking the cart invariants are repaired: lines with a
// non-positive quantity or an empty id are dropped, duplicates are merged
// into the first occurrence.
func NewMemory(lookup port.ProductLookup, lines []domain.CartLine) *Memory {
	return &Memory{lookup: lookup, lines: sanitize(lines)}
}

func sanitize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := seen[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

func (m *Memory) AddItem(productID string) error {
	const op = "Memory.AddItem"

	p, ok := m.lookup.Lookup(productID)
	if !ok {
		return fmt.Errorf("%s: %w", op, &domain.ProductNotFoundError{ProductID: productID})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(productID); i >= 0 {
		m.lines[i].Quantity++
		return nil
	}
	m.lines = append(m.lines, domain.CartLine{Product: p, Quantity: 1})
	return nil
}

func (m *Memory) IncreaseQuantity(productID string) error {
	const op = "Memory.IncreaseQuantity"

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("%s: %w", op, &domain.ProductNotFoundError{ProductID: productID})
	}
	m.lines[i].Quantity++
	return nil
}

// DecreaseQuantity removes the line instead of leaving it at zero.
func (m *Memory) DecreaseQuantity(productID string) error {
	const op = "Memory.DecreaseQuantity"

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("%s: %w", op, &domain.ProductNotFoundError{ProductID: productID})
	}
	if m.lines[i].Quantity > 1 {
		m.lines[i].Quantity--
		return nil
	}
	m.lines = slices.Delete(m.lines, i, i+1)
	return nil
}

func (m *Memory) RemoveItem(productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = slices.DeleteFunc(m.lines, func(l domain.CartLine) bool {
		return l.ID == productID
	})
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
}

func (m *Memory) Lines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lines)
}

func (m *Memory) Totals() domain.Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.ComputeTotals(m.lines)
}

func (m *Memory) indexOf(productID string) int {
	return slices.IndexFunc(m.lines, func(l domain.CartLine) bool {
		return l.ID == productID
	})
}
