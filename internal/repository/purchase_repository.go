package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"icash/internal/domain"
	"icash/internal/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrNotFound = errors.New("purchase not found")

type purchaseRepository struct {
	db  querier
	cur currency.Unit
}

func NewPurchase(pool *pgxpool.Pool, cur currency.Unit) port.PurchaseRepository {
	return &purchaseRepository{
		db:  pool,
		cur: cur,
	}
}

func NewPurchaseWithTx(tx pgx.Tx, cur currency.Unit) port.PurchaseRepository {
	return &purchaseRepository{
		db:  tx,
		cur: cur,
	}
}

const insertPurchaseQuery = `
	INSERT INTO purchase (supermarket_id, buyer_id, created_at, total_amount)
	VALUES ($1, $2, $3, $4)
	RETURNING id`

const insertPurchaseProductQuery = `
	INSERT INTO purchase_product (purchase_id, product_id)
	VALUES ($1, $2)`

func (r *purchaseRepository) InsertPurchase(ctx context.Context, purchase domain.Purchase) (int64, error) {
	if len(purchase.Products) == 0 {
		return 0, errors.New("no products in purchase")
	}

	createdAt := purchase.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	purchaseID, err := withTx(ctx, r.db, func(q querier) (int64, error) {
		var id int64

		// Insert the purchase row and get the generated id
		err := q.QueryRow(ctx, insertPurchaseQuery,
			purchase.SupermarketID,
			purchase.BuyerID,
			createdAt,
			purchase.TotalAmount.Amount.String(),
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert purchase: %w", err)
		}

		// Insert each product association
		for _, product := range purchase.Products {
			if _, err := q.Exec(ctx, insertPurchaseProductQuery, id, product.ID); err != nil {
				return 0, fmt.Errorf("insert purchase_product[%d]: %w", product.ID, err)
			}
		}

		return id, nil
	})
	if err != nil {
		return 0, fmt.Errorf("withTx: %w", err)
	}

	return purchaseID, nil
}

const getPurchaseQuery = `
	SELECT supermarket_id, buyer_id, created_at, total_amount::text
	FROM purchase
	WHERE id = $1`

const getPurchaseProductsQuery = `
	SELECT p.id, p.name, p.unit_price::text
	FROM product p
	JOIN purchase_product pp ON pp.product_id = p.id
	WHERE pp.purchase_id = $1
	ORDER BY p.id`

func (r *purchaseRepository) GetPurchase(ctx context.Context, purchaseID int64) (domain.Purchase, error) {
	var p domain.Purchase

	purchase, err := withTx(ctx, r.db, func(q querier) (domain.Purchase, error) {
		var (
			supermarketID string
			buyerID       uuid.UUID
			createdAt     time.Time
			totalText     string
		)

		err := q.QueryRow(ctx, getPurchaseQuery, purchaseID).
			Scan(&supermarketID, &buyerID, &createdAt, &totalText)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return p, ErrNotFound
			}
			return p, fmt.Errorf("get purchase: %w", err)
		}

		total, err := decimal.NewFromString(totalText)
		if err != nil {
			return p, fmt.Errorf("total_amount[%s] is not valid: %w", totalText, err)
		}

		rows, err := q.Query(ctx, getPurchaseProductsQuery, purchaseID)
		if err != nil {
			return p, fmt.Errorf("get purchase products: %w", err)
		}
		defer rows.Close()

		var products []domain.Product
		for rows.Next() {
			var (
				id        int64
				name      string
				priceText string
			)
			if err := rows.Scan(&id, &name, &priceText); err != nil {
				return p, fmt.Errorf("rows.Scan: %w", err)
			}

			product, err := mapRowToProduct(id, name, priceText, r.cur)
			if err != nil {
				return p, fmt.Errorf("mapRowToProduct: %w", err)
			}

			products = append(products, product)
		}
		if err := rows.Err(); err != nil {
			return p, fmt.Errorf("rows.Err: %w", err)
		}

		return domain.Purchase{
			ID:            purchaseID,
			SupermarketID: supermarketID,
			BuyerID:       buyerID,
			CreatedAt:     createdAt,
			TotalAmount:   domain.Money{Amount: total, Currency: r.cur},
			Products:      products,
		}, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return p, ErrNotFound
		}
		return p, fmt.Errorf("withTx: %w", err)
	}

	return purchase, nil
}

func (r *purchaseRepository) HasPurchases(ctx context.Context) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchase)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db.QueryRow: %w", err)
	}

	return exists, nil
}

func (r *purchaseRepository) UniqueBuyerCount(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.QueryRow(ctx, `SELECT count(DISTINCT buyer_id) FROM purchase`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db.QueryRow: %w", err)
	}

	return count, nil
}

const countByBuyerQuery = `
	SELECT buyer_id, count(id)
	FROM purchase
	GROUP BY buyer_id`

func (r *purchaseRepository) CountByBuyer(ctx context.Context) ([]domain.BuyerStats, error) {
	rows, err := r.db.Query(ctx, countByBuyerQuery)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var stats []domain.BuyerStats
	for rows.Next() {
		var s domain.BuyerStats
		if err := rows.Scan(&s.BuyerID, &s.PurchaseCount); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return stats, nil
}

// A product is counted once per purchase containing it, quantity is not modeled.
const countByProductQuery = `
	SELECT p.name, count(pp.purchase_id)
	FROM product p
	JOIN purchase_product pp ON pp.product_id = p.id
	GROUP BY p.id, p.name`

func (r *purchaseRepository) CountByProduct(ctx context.Context) ([]domain.ProductStats, error) {
	rows, err := r.db.Query(ctx, countByProductQuery)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var stats []domain.ProductStats
	for rows.Next() {
		var s domain.ProductStats
		if err := rows.Scan(&s.ProductName, &s.TimesSold); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return stats, nil
}

func (r *purchaseRepository) DistinctBuyerIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT buyer_id FROM purchase ORDER BY buyer_id`)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return ids, nil
}

func (r *purchaseRepository) DistinctSupermarketIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT supermarket_id FROM purchase ORDER BY supermarket_id`)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return ids, nil
}
