package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CatalogAdmin = (*AdminService)(nil)

// AdminService validates catalog changes before they reach the
// repositories.
type AdminService struct {
	categories port.CategoryRepository
	products   port.ProductRepository
}

func NewAdminService(
	categories port.CategoryRepository, products port.ProductRepository,
) AdminService {
	return AdminService{categories, products}
}

func (s AdminService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "AdminService.ListCategories"

	cs, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cs, nil
}

func (s AdminService) CreateCategory(
	ctx context.Context, c domain.Category,
) (domain.Category, error) {
	const op = "AdminService.CreateCategory"

	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Category{}, fmt.Errorf("%s: %w", op, required("name"))
	}

	created, err := s.categories.CreateCategory(ctx, c)
	if err != nil {
		return domain.Category{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s AdminService) ListProducts(ctx context.Context) ([]domain.AdminProduct, error) {
	const op = "AdminService.ListProducts"

	ps, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s AdminService) GetProduct(ctx context.Context, id int64) (domain.AdminProduct, error) {
	const op = "AdminService.GetProduct"

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s AdminService) CreateProduct(
	ctx context.Context, p domain.AdminProduct,
) (domain.AdminProduct, error) {
	const op = "AdminService.CreateProduct"

	if err := validateProduct(&p); err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.products.CreateProduct(ctx, p)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s AdminService) UpdateProduct(
	ctx context.Context, p domain.AdminProduct,
) (domain.AdminProduct, error) {
	const op = "AdminService.UpdateProduct"

	if err := validateProduct(&p); err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s AdminService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "AdminService.DeleteProduct"

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func validateProduct(p *domain.AdminProduct) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.CategoryID <= 0:
		return required("category_id")
	case p.Name == "":
		return required("name")
	case !p.Price.IsPositive():
		return &domain.ValidationError{Field: "price", Reason: "must be greater than zero"}
	case p.Stock < 0:
		return &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

func required(field string) error {
	return &domain.ValidationError{Field: field, Reason: "is required"}
}
