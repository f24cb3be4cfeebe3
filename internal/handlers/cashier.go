package handlers

import (
	"net/http"
	"time"

	"icash/internal/cache"
	"icash/internal/domain"
	"icash/internal/logger"
	"icash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const catalogCacheKey = "icash:catalog"

type CashierHandler struct {
	cashier *service.CashierService
	cache   *cache.SnapshotCache
	log     *logger.Logger
}

func NewCashier(cashier *service.CashierService, snapshots *cache.SnapshotCache, log *logger.Logger) *CashierHandler {
	return &CashierHandler{
		cashier: cashier,
		cache:   snapshots,
		log:     log.With("handler", "CashierHandler"),
	}
}

type createPurchaseRequest struct {
	SupermarketID string          `json:"supermarket_id"`
	UserID        string          `json:"user_id"`
	ItemsList     []string        `json:"items_list"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
}

type purchaseResponse struct {
	ID            int64           `json:"id"`
	SupermarketID string          `json:"supermarket_id"`
	UserID        string          `json:"user_id"`
	CreatedAt     time.Time       `json:"created_at"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ProductIDs    []int64         `json:"product_ids"`
}

func (h *CashierHandler) CreatePurchase(c *gin.Context) {
	var req createPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	h.log.Info("received create_purchase request",
		"supermarket_id", req.SupermarketID,
		"items_count", len(req.ItemsList))

	svcReq := service.CreatePurchaseRequest{
		SupermarketID: req.SupermarketID,
		BuyerToken:    req.UserID,
		ItemIDs:       req.ItemsList,
		ClientTotal:   req.TotalAmount,
	}
	if req.CreatedAt != nil {
		svcReq.CreatedAt = *req.CreatedAt
	}

	purchase, err := h.cashier.CreatePurchase(c.Request.Context(), svcReq)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapPurchaseToResponse(purchase))
}

type productResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type catalogResponse struct {
	Supermarkets []string          `json:"supermarkets"`
	Users        []string          `json:"users"`
	Products     []productResponse `json:"products"`
}

func (h *CashierHandler) Catalog(c *gin.Context) {
	ctx := c.Request.Context()

	var cached catalogResponse
	if h.cache.Get(ctx, catalogCacheKey, &cached) {
		RespondOK(c, cached)
		return
	}

	supermarkets, err := h.cashier.Supermarkets(ctx)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	buyers, err := h.cashier.Buyers(ctx)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	products, err := h.cashier.Products(ctx)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	resp := catalogResponse{
		Supermarkets: supermarkets,
		Users: lo.Map(buyers, func(id uuid.UUID, _ int) string {
			return id.String()
		}),
		Products: lo.Map(products, func(p domain.Product, _ int) productResponse {
			return productResponse{
				ID:        p.ID,
				Name:      p.Name,
				UnitPrice: p.UnitPrice.Amount,
			}
		}),
	}

	h.cache.Set(ctx, catalogCacheKey, resp)
	RespondOK(c, resp)
}

func mapPurchaseToResponse(p domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:            p.ID,
		SupermarketID: p.SupermarketID,
		UserID:        p.BuyerID.String(),
		CreatedAt:     p.CreatedAt,
		TotalAmount:   p.TotalAmount.Amount,
		ProductIDs: lo.Map(p.Products, func(product domain.Product, _ int) int64 {
			return product.ID
		}),
	}
}
