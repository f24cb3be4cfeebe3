package service

import (
	"context"
	"sort"

	"icash/internal/domain"
	"icash/internal/logger"
	"icash/internal/metrics"
	"icash/internal/port"

	"github.com/samber/lo"
)

// DashboardService computes buyer and product statistics over persisted
// purchases. All queries are read-only and always compute fresh results;
// caching, if any, belongs to the transport layer.
type DashboardService struct {
	purchases port.PurchaseRepository
	log       *logger.Logger
}

func NewDashboard(purchases port.PurchaseRepository, log *logger.Logger) *DashboardService {
	return &DashboardService{
		purchases: purchases,
		log:       log.With("service", "DashboardService"),
	}
}

// UniqueBuyerCount counts distinct buyers across all purchases ever recorded.
func (s *DashboardService) UniqueBuyerCount(ctx context.Context) (int64, error) {
	count, err := s.purchases.UniqueBuyerCount(ctx)
	if err != nil {
		metrics.StorageFailures.Inc()
		return 0, domain.StorageError{Op: "count unique buyers", Err: err}
	}

	return count, nil
}

// LoyalBuyers returns buyers with at least minPurchases purchases, ordered by
// purchase count descending, buyer id ascending. minPurchases <= 0 keeps
// every buyer.
func (s *DashboardService) LoyalBuyers(ctx context.Context, minPurchases int64) ([]domain.BuyerStats, error) {
	counts, err := s.purchases.CountByBuyer(ctx)
	if err != nil {
		metrics.StorageFailures.Inc()
		return nil, domain.StorageError{Op: "count purchases by buyer", Err: err}
	}

	loyal := lo.Filter(counts, func(b domain.BuyerStats, _ int) bool {
		return b.PurchaseCount >= minPurchases
	})

	sort.Slice(loyal, func(i, j int) bool {
		if loyal[i].PurchaseCount != loyal[j].PurchaseCount {
			return loyal[i].PurchaseCount > loyal[j].PurchaseCount
		}
		return loyal[i].BuyerID.String() < loyal[j].BuyerID.String()
	})

	return loyal, nil
}

// TopProducts ranks products by the number of purchases containing them.
// The cutoff is the count at rank limit; every product at or above the
// cutoff is returned, so the result grows past limit whenever the boundary
// count is shared.
func (s *DashboardService) TopProducts(ctx context.Context, limit int) ([]domain.ProductStats, error) {
	if limit <= 0 {
		return nil, nil
	}

	counts, err := s.purchases.CountByProduct(ctx)
	if err != nil {
		metrics.StorageFailures.Inc()
		return nil, domain.StorageError{Op: "count purchases by product", Err: err}
	}

	if len(counts) == 0 {
		return nil, nil
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].TimesSold != counts[j].TimesSold {
			return counts[i].TimesSold > counts[j].TimesSold
		}
		return counts[i].ProductName < counts[j].ProductName
	})

	cutoffRank := limit
	if cutoffRank > len(counts) {
		cutoffRank = len(counts)
	}
	cutoff := counts[cutoffRank-1].TimesSold

	return lo.Filter(counts, func(p domain.ProductStats, _ int) bool {
		return p.TimesSold >= cutoff
	}), nil
}
