package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	ProcessPaymentRequest struct {
		PaymentMethodID string `json:"payment_method_id"`
		Amount          int64  `json:"amount"`
		Name            string `json:"name"`
		Email           string `json:"email"`
	}

	ConfirmPaymentRequest struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}

	PaymentResponse struct {
		Success                   bool   `json:"success,omitempty"`
		RequiresAction            bool   `json:"requires_action,omitempty"`
		PaymentIntentClientSecret string `json:"payment_intent_client_secret,omitempty"`
		Error                     string `json:"error,omitempty"`
	}
)

type (
	Category struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// ProductRequest is the body of product create and update.
	ProductRequest struct {
		CategoryID  int64           `json:"category_id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Stock       *int            `json:"stock"`
	}

	Product struct {
		ID           int64           `json:"id"`
		CategoryID   int64           `json:"category_id"`
		CategoryName string          `json:"category_name"`
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		Price        decimal.Decimal `json:"price"`
		Stock        int             `json:"stock"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}

	DeleteResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func (c Category) toDomain() domain.Category {
	return domain.Category{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

func fromDomainCategory(c domain.Category) Category {
	return Category{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

func (p ProductRequest) toDomain(id int64) domain.AdminProduct {
	v := domain.AdminProduct{
		ID:          id,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
	if p.Stock != nil {
		v.Stock = *p.Stock
	}
	return v
}

func fromDomainProduct(p domain.AdminProduct) Product {
	return Product{
		ID:           p.ID,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Stock:        p.Stock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
