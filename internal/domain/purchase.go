package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is immutable once persisted: there is no update or delete path.
type Purchase struct {
	ID            int64
	SupermarketID string
	BuyerID       uuid.UUID
	CreatedAt     time.Time
	TotalAmount   Money
	Products      []Product
}

// ValidatedPurchaseRequest is the output of the validation pipeline:
// buyer token parsed, item ids parsed and de-duplicated, supermarket checked.
type ValidatedPurchaseRequest struct {
	BuyerID       uuid.UUID
	ProductIDs    []int64 // sorted ascending, no duplicates
	SupermarketID string
}
