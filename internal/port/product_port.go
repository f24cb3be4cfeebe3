package port

import (
	"context"

	"icash/internal/domain"
)

type ProductRepository interface {
	// GetProducts returns the products matching ids; the result may be a
	// strict subset when some ids are unknown.
	GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)

	InsertProduct(ctx context.Context, product domain.Product) (int64, error)
}
