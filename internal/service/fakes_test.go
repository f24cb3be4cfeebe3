package service_test

import (
	"context"
	"errors"
	"sort"

	"icash/internal/domain"
	"icash/internal/port"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type fakeProductRepo struct {
	products map[int64]domain.Product
	err      error
}

var _ port.ProductRepository = (*fakeProductRepo)(nil)

func (f *fakeProductRepo) GetProducts(_ context.Context, ids []int64) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}

	var result []domain.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

func (f *fakeProductRepo) ListProducts(_ context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}

	result := lo.Values(f.products)
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

func (f *fakeProductRepo) InsertProduct(_ context.Context, product domain.Product) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}

	product.ID = int64(len(f.products) + 1)
	f.products[product.ID] = product

	return product.ID, nil
}

type fakePurchaseRepo struct {
	insertErr error
	queryErr  error

	purchases []domain.Purchase
	nextID    int64

	uniqueBuyers  int64
	buyerCounts   []domain.BuyerStats
	productCounts []domain.ProductStats
}

var _ port.PurchaseRepository = (*fakePurchaseRepo)(nil)

func (f *fakePurchaseRepo) InsertPurchase(_ context.Context, purchase domain.Purchase) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}

	f.nextID++
	purchase.ID = f.nextID
	f.purchases = append(f.purchases, purchase)

	return purchase.ID, nil
}

func (f *fakePurchaseRepo) GetPurchase(_ context.Context, purchaseID int64) (domain.Purchase, error) {
	for _, p := range f.purchases {
		if p.ID == purchaseID {
			return p, nil
		}
	}
	return domain.Purchase{}, errors.New("purchase not found")
}

func (f *fakePurchaseRepo) HasPurchases(_ context.Context) (bool, error) {
	return len(f.purchases) > 0, nil
}

func (f *fakePurchaseRepo) UniqueBuyerCount(_ context.Context) (int64, error) {
	if f.queryErr != nil {
		return 0, f.queryErr
	}
	return f.uniqueBuyers, nil
}

func (f *fakePurchaseRepo) CountByBuyer(_ context.Context) ([]domain.BuyerStats, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return append([]domain.BuyerStats(nil), f.buyerCounts...), nil
}

func (f *fakePurchaseRepo) CountByProduct(_ context.Context) ([]domain.ProductStats, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return append([]domain.ProductStats(nil), f.productCounts...), nil
}

func (f *fakePurchaseRepo) DistinctBuyerIDs(_ context.Context) ([]uuid.UUID, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	ids := lo.Uniq(lo.Map(f.purchases, func(p domain.Purchase, _ int) uuid.UUID {
		return p.BuyerID
	}))
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	return ids, nil
}

func (f *fakePurchaseRepo) DistinctSupermarketIDs(_ context.Context) ([]string, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	ids := lo.Uniq(lo.Map(f.purchases, func(p domain.Purchase, _ int) string {
		return p.SupermarketID
	}))
	sort.Strings(ids)

	return ids, nil
}
