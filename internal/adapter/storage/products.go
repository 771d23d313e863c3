package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductRepository = (*ProductsRepository)(nil)

const selectProducts = `
	SELECT
		p.id, p.category_id, c.name, p.name, COALESCE(p.description, ''),
		p.price, p.stock, p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id`

type scanner interface {
	Scan(dest ...any) error
}

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ListProducts(ctx context.Context) ([]domain.AdminProduct, error) {
	const op = "ProductsRepository.ListProducts"

	rows, err := r.sqldb.QueryContext(ctx, selectProducts+` ORDER BY p.name;`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	ps := []domain.AdminProduct{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) GetProduct(ctx context.Context, id int64) (domain.AdminProduct, error) {
	const op = "ProductsRepository.GetProduct"

	row := r.sqldb.QueryRowContext(ctx, selectProducts+` WHERE p.id = $1;`, id)
	p, err := scanProduct(row)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return p, nil
}

func (r ProductsRepository) CreateProduct(
	ctx context.Context, p domain.AdminProduct,
) (domain.AdminProduct, error) {
	const op = "ProductsRepository.CreateProduct"

	query := `
		INSERT INTO products (category_id, name, description, price, stock)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id;`

	var id int64
	err := r.sqldb.QueryRowContext(ctx, query,
		p.CategoryID, p.Name, p.Description, p.Price, p.Stock,
	).Scan(&id)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, unknownCategory(err))
	}

	created, err := r.GetProduct(ctx, id)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (r ProductsRepository) UpdateProduct(
	ctx context.Context, p domain.AdminProduct,
) (domain.AdminProduct, error) {
	const op = "ProductsRepository.UpdateProduct"

	query := `
		UPDATE products SET
			category_id = $1,
			name = $2,
			description = NULLIF($3, ''),
			price = $4,
			stock = $5,
			updated_at = NOW()
		WHERE id = $6;`

	res, err := r.sqldb.ExecContext(ctx, query,
		p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.ID,
	)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, unknownCategory(err))
	}
	if err := affected(res); err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := r.GetProduct(ctx, p.ID)
	if err != nil {
		return domain.AdminProduct{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (r ProductsRepository) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductsRepository.DeleteProduct"

	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanProduct(s scanner) (p domain.AdminProduct, err error) {
	err = s.Scan(
		&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Description,
		&p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

const foreignKeyViolation = "23503"

func unknownCategory(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return &domain.ValidationError{Field: "category_id", Reason: "does not exist"}
	}
	return err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
