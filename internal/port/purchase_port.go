package port

import (
	"context"

	"icash/internal/domain"

	"github.com/google/uuid"
)

type PurchaseRepository interface {
	// InsertPurchase persists the purchase row and its product association
	// rows in a single transaction and returns the assigned id.
	InsertPurchase(ctx context.Context, purchase domain.Purchase) (int64, error)

	GetPurchase(ctx context.Context, purchaseID int64) (domain.Purchase, error)

	HasPurchases(ctx context.Context) (bool, error)

	UniqueBuyerCount(ctx context.Context) (int64, error)
	CountByBuyer(ctx context.Context) ([]domain.BuyerStats, error)
	CountByProduct(ctx context.Context) ([]domain.ProductStats, error)

	DistinctBuyerIDs(ctx context.Context) ([]uuid.UUID, error)
	DistinctSupermarketIDs(ctx context.Context) ([]string, error)
}
