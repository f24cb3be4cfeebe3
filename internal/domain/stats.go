package domain

import "github.com/google/uuid"

type BuyerStats struct {
	BuyerID       uuid.UUID
	PurchaseCount int64
}

type ProductStats struct {
	ProductName string
	TimesSold   int64
}
