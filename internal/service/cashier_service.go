package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"icash/internal/domain"
	"icash/internal/logger"
	"icash/internal/metrics"
	"icash/internal/port"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// CreatePurchaseRequest is the raw request as it arrives from the transport.
// ClientTotal is never trusted: the stored total is always recomputed from
// unit prices on the server side.
type CreatePurchaseRequest struct {
	SupermarketID string
	BuyerToken    string
	ItemIDs       []string
	ClientTotal   decimal.Decimal
	CreatedAt     time.Time
}

type CashierService struct {
	products  port.ProductRepository
	purchases port.PurchaseRepository
	cur       currency.Unit
	log       *logger.Logger
}

func NewCashier(products port.ProductRepository, purchases port.PurchaseRepository, cur currency.Unit, log *logger.Logger) *CashierService {
	return &CashierService{
		products:  products,
		purchases: purchases,
		cur:       cur,
		log:       log.With("service", "CashierService"),
	}
}

// Validate runs the normalization pipeline over a raw purchase request.
// It has no side effects beyond the product existence lookup.
func (s *CashierService) Validate(ctx context.Context, req CreatePurchaseRequest) (domain.ValidatedPurchaseRequest, error) {
	validated, _, err := s.validate(ctx, req)
	return validated, err
}

func (s *CashierService) validate(ctx context.Context, req CreatePurchaseRequest) (domain.ValidatedPurchaseRequest, []domain.Product, error) {
	var v domain.ValidatedPurchaseRequest

	// Canonical textual form only: 36 characters with hyphens, case-insensitive.
	buyerID, err := parseBuyerToken(req.BuyerToken)
	if err != nil {
		return v, nil, domain.ValidationError{Reason: "invalid buyer identity"}
	}

	if len(req.ItemIDs) == 0 {
		return v, nil, domain.ValidationError{Reason: "empty item list"}
	}

	var productIDs []int64
	for _, raw := range req.ItemIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return v, nil, domain.ValidationError{Reason: "non-numeric product id"}
		}
		productIDs = append(productIDs, id)
	}

	// A purchase of the same product twice is recorded once: quantity is not
	// modeled, so duplicates collapse before pricing.
	productIDs = lo.Uniq(productIDs)
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	products, err := s.products.GetProducts(ctx, productIDs)
	if err != nil {
		return v, nil, domain.StorageError{
			Op:            "fetch products",
			SupermarketID: req.SupermarketID,
			BuyerID:       buyerID,
			ProductIDs:    productIDs,
			Err:           err,
		}
	}

	if len(products) != len(productIDs) {
		known := lo.SliceToMap(products, func(p domain.Product) (int64, struct{}) {
			return p.ID, struct{}{}
		})
		missing := lo.Filter(productIDs, func(id int64, _ int) bool {
			_, ok := known[id]
			return !ok
		})
		return v, nil, domain.ValidationError{Reason: "unknown product id(s)", MissingIDs: missing}
	}

	if req.SupermarketID == "" {
		return v, nil, domain.ValidationError{Reason: "empty supermarket id"}
	}

	return domain.ValidatedPurchaseRequest{
		BuyerID:       buyerID,
		ProductIDs:    productIDs,
		SupermarketID: req.SupermarketID,
	}, products, nil
}

// CreatePurchase validates the request, prices it from unit prices and
// persists it atomically. The client-supplied total is ignored.
func (s *CashierService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (domain.Purchase, error) {
	var p domain.Purchase

	validated, products, err := s.validate(ctx, req)
	if err != nil {
		var vErr domain.ValidationError
		if errors.As(err, &vErr) {
			metrics.ValidationFailures.Inc()
			s.log.Warn("purchase request rejected",
				"supermarket_id", req.SupermarketID,
				"reason", vErr.Reason)
		} else {
			metrics.StorageFailures.Inc()
		}
		return p, err
	}

	total := decimal.Zero
	for _, product := range products {
		total = total.Add(product.UnitPrice.Amount)
	}
	total = total.Round(2)

	// Validation already guarantees a non-empty product set, kept as a
	// defense-in-depth check.
	if !total.IsPositive() {
		metrics.ValidationFailures.Inc()
		return p, domain.ValidationError{Reason: "non-positive total"}
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	purchase := domain.Purchase{
		SupermarketID: validated.SupermarketID,
		BuyerID:       validated.BuyerID,
		CreatedAt:     createdAt,
		TotalAmount:   domain.Money{Amount: total, Currency: s.cur},
		Products:      products,
	}

	purchaseID, err := s.purchases.InsertPurchase(ctx, purchase)
	if err != nil {
		metrics.StorageFailures.Inc()
		return p, domain.StorageError{
			Op:            "insert purchase",
			SupermarketID: validated.SupermarketID,
			BuyerID:       validated.BuyerID,
			ProductIDs:    validated.ProductIDs,
			Err:           err,
		}
	}

	purchase.ID = purchaseID
	metrics.PurchasesCreated.Inc()

	s.log.Info("purchase created",
		"purchase_id", purchaseID,
		"supermarket_id", validated.SupermarketID,
		"buyer_id", validated.BuyerID,
		"products_count", len(products),
		"total_amount", total.String(),
		"client_total", req.ClientTotal.String())

	return purchase, nil
}

// Products returns the full catalog.
func (s *CashierService) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		metrics.StorageFailures.Inc()
		return nil, domain.StorageError{Op: "list products", Err: err}
	}

	return products, nil
}

// Buyers returns the distinct buyer ids seen across all purchases.
func (s *CashierService) Buyers(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.purchases.DistinctBuyerIDs(ctx)
	if err != nil {
		metrics.StorageFailures.Inc()
		return nil, domain.StorageError{Op: "list buyers", Err: err}
	}

	return ids, nil
}

// Supermarkets returns the distinct supermarket ids seen across all purchases.
func (s *CashierService) Supermarkets(ctx context.Context) ([]string, error) {
	ids, err := s.purchases.DistinctSupermarketIDs(ctx)
	if err != nil {
		metrics.StorageFailures.Inc()
		return nil, domain.StorageError{Op: "list supermarkets", Err: err}
	}

	return ids, nil
}

func parseBuyerToken(token string) (uuid.UUID, error) {
	if len(token) != 36 {
		return uuid.Nil, fmt.Errorf("buyer token[%s] is not canonical", token)
	}

	return uuid.Parse(token)
}
