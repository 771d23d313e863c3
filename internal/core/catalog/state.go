package catalog

import (
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductLookup = (*State)(nil)

// A State holds the catalog of the current load.
//
// The product set is replaced as a whole, never merged.
type State struct {
	mu       sync.RWMutex
	products []domain.Product
	index    map[string]int
}

func NewState() *State {
	return &State{index: make(map[string]int)}
}

func (s *State) Replace(ps []domain.Product) {
	index := make(map[string]int, len(ps))
	for i, p := range ps {
		index[p.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = slices.Clone(ps)
	s.index = index
}

func (s *State) Lookup(productID string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[productID]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

func (s *State) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Filter returns the products of source in load order, or all products for
// [domain.SourceAll].
func (s *State) Filter(source domain.Source) []domain.Product {
	if source == domain.SourceAll {
		return s.Products()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var ps []domain.Product
	for _, p := range s.products {
		if p.Source == source {
			ps = append(ps, p)
		}
	}
	return ps
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
