package catalog

import (
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Raw upstream shapes.
type (
	FakeStoreProduct struct {
		ID          int             `json:"id"`
		Title       string          `json:"title"`
		Price       decimal.Decimal `json:"price"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Image       string          `json:"image"`
		Rating      FakeStoreRating `json:"rating"`
	}

	FakeStoreRating struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	}

	DummyJSONResponse struct {
		Products []DummyJSONProduct `json:"products"`
	}

	DummyJSONProduct struct {
		ID          int             `json:"id"`
		Title       string          `json:"title"`
		Price       decimal.Decimal `json:"price"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Thumbnail   string          `json:"thumbnail"`
		Images      []string        `json:"images"`
		Rating      float64         `json:"rating"`
		Stock       int             `json:"stock"`
	}
)

func FromFakeStore(vs []FakeStoreProduct) []domain.Product {
	ps := make([]domain.Product, 0, len(vs))
	for _, v := range vs {
		ps = append(ps, domain.Product{
			ID:          domain.ProductID(domain.SourceFakeStore, v.ID),
			Title:       v.Title,
			Description: v.Description,
			Category:    v.Category,
			Price:       v.Price,
			Image:       v.Image,
			Rating: domain.Rating{
				Rate:  v.Rating.Rate,
				Count: v.Rating.Count,
			},
			Source: domain.SourceFakeStore,
		})
	}
	return ps
}

// FromDummyJSON maps the second source.
//
// The source has no review count, its stock quantity is reported as the
// rating count instead.
func FromDummyJSON(r DummyJSONResponse) []domain.Product {
	ps := make([]domain.Product, 0, len(r.Products))
	for _, v := range r.Products {
		ps = append(ps, domain.Product{
			ID:          domain.ProductID(domain.SourceDummyJSON, v.ID),
			Title:       v.Title,
			Description: v.Description,
			Category:    v.Category,
			Price:       v.Price,
			Image:       dummyJSONImage(v),
			Rating: domain.Rating{
				Rate:  v.Rating,
				Count: v.Stock,
			},
			Source: domain.SourceDummyJSON,
		})
	}
	return ps
}

func dummyJSONImage(v DummyJSONProduct) string {
	if v.Thumbnail != "" {
		return v.Thumbnail
	}
	if len(v.Images) != 0 {
		return v.Images[0]
	}
	return ""
}
