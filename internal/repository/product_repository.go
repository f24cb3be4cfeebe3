package repository

import (
	"context"
	"fmt"

	"icash/internal/domain"
	"icash/internal/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type productRepository struct {
	db  querier
	cur currency.Unit
}

func NewProduct(pool *pgxpool.Pool, cur currency.Unit) port.ProductRepository {
	return &productRepository{
		db:  pool,
		cur: cur,
	}
}

func NewProductWithTx(tx pgx.Tx, cur currency.Unit) port.ProductRepository {
	return &productRepository{
		db:  tx,
		cur: cur,
	}
}

// unit_price is selected as text and parsed into decimal in the mapper.
const getProductsQuery = `
	SELECT id, name, unit_price::text
	FROM product
	WHERE id = ANY($1)
	ORDER BY id`

func (r *productRepository) GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, getProductsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	products, err := r.mapProductRows(rows)
	if err != nil {
		return nil, fmt.Errorf("mapProductRows: %w", err)
	}

	return products, nil
}

const listProductsQuery = `
	SELECT id, name, unit_price::text
	FROM product
	ORDER BY name`

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	products, err := r.mapProductRows(rows)
	if err != nil {
		return nil, fmt.Errorf("mapProductRows: %w", err)
	}

	return products, nil
}

const insertProductQuery = `
	INSERT INTO product (name, unit_price)
	VALUES ($1, $2)
	RETURNING id`

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (int64, error) {
	if product.Name == "" {
		return 0, fmt.Errorf("product name is empty")
	}

	if len(product.Name) > domain.MaxProductNameLen {
		return 0, fmt.Errorf("product name is too long")
	}

	if !product.UnitPrice.IsPositive() {
		return 0, fmt.Errorf("unit price is not positive")
	}

	var id int64
	err := r.db.QueryRow(ctx, insertProductQuery, product.Name, product.UnitPrice.Amount.String()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db.QueryRow: %w", err)
	}

	return id, nil
}

func (r *productRepository) mapProductRows(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product

	for rows.Next() {
		var (
			id        int64
			name      string
			priceText string
		)
		if err := rows.Scan(&id, &name, &priceText); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		product, err := mapRowToProduct(id, name, priceText, r.cur)
		if err != nil {
			return nil, fmt.Errorf("mapRowToProduct: %w", err)
		}

		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return products, nil
}

func mapRowToProduct(id int64, name, priceText string, cur currency.Unit) (domain.Product, error) {
	amount, err := decimal.NewFromString(priceText)
	if err != nil {
		return domain.Product{}, fmt.Errorf("unit_price[%s] is not valid: %w", priceText, err)
	}

	return domain.Product{
		ID:   id,
		Name: name,
		UnitPrice: domain.Money{
			Amount:   amount,
			Currency: cur,
		},
	}, nil
}
