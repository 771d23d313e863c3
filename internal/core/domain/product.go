package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// A Source is the upstream catalog a product was fetched from.
type Source string

const (
	SourceFakeStore Source = "fakestoreapi"
	SourceDummyJSON Source = "dummyjson"

	// SourceAll is the filter value matching every source.
	SourceAll Source = "all"
)

// Sources returns the known catalog sources in load order.
func Sources() []Source {
	return []Source{SourceFakeStore, SourceDummyJSON}
}

func ParseSource(s string) (Source, error) {
	switch v := Source(s); v {
	case SourceAll, SourceFakeStore, SourceDummyJSON:
		return v, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

func (s Source) String() string {
	return string(s)
}

type (
	Product struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Price       decimal.Decimal `json:"price"`
		Image       string          `json:"image"`
		Rating      Rating          `json:"rating"`
		Source      Source          `json:"source"`
	}

	Rating struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	}
)

// ProductID namespaces a source-local identifier with the source name,
// so products of different sources never collide.
func ProductID(source Source, localID int) string {
	return fmt.Sprintf("%s_%d", source, localID)
}
