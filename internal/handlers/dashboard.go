package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"icash/internal/cache"
	"icash/internal/domain"
	"icash/internal/logger"
	"icash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
	cache     *cache.SnapshotCache
	topLimit  int
	log       *logger.Logger
}

func NewDashboard(dashboard *service.DashboardService, snapshots *cache.SnapshotCache, topLimit int, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		cache:     snapshots,
		topLimit:  topLimit,
		log:       log.With("handler", "DashboardHandler"),
	}
}

type loyalBuyerResponse struct {
	UserID        string `json:"user_id"`
	PurchaseCount int64  `json:"purchase_count"`
}

type topProductResponse struct {
	ProductName string `json:"product_name"`
	TimesSold   int64  `json:"times_sold"`
}

type analyticsResponse struct {
	UniqueBuyers int64                `json:"unique_buyers"`
	LoyalBuyers  []loyalBuyerResponse `json:"loyal_buyers"`
	TopProducts  []topProductResponse `json:"top_products"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

func (h *DashboardHandler) Analytics(c *gin.Context) {
	ctx := c.Request.Context()

	minPurchases, err := strconv.ParseInt(c.DefaultQuery("min_purchases", "1"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_query", fmt.Errorf("min_purchases must be an integer"))
		return
	}

	cacheKey := fmt.Sprintf("icash:analytics:%d", minPurchases)

	var cached analyticsResponse
	if h.cache.Get(ctx, cacheKey, &cached) {
		RespondOK(c, cached)
		return
	}

	h.log.Info("dashboard analytics requested", "min_purchases", minPurchases)

	uniqueBuyers, err := h.dashboard.UniqueBuyerCount(ctx)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	loyalBuyers, err := h.dashboard.LoyalBuyers(ctx, minPurchases)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	topProducts, err := h.dashboard.TopProducts(ctx, h.topLimit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	resp := analyticsResponse{
		UniqueBuyers: uniqueBuyers,
		LoyalBuyers: lo.Map(loyalBuyers, func(b domain.BuyerStats, _ int) loyalBuyerResponse {
			return loyalBuyerResponse{
				UserID:        b.BuyerID.String(),
				PurchaseCount: b.PurchaseCount,
			}
		}),
		TopProducts: lo.Map(topProducts, func(p domain.ProductStats, _ int) topProductResponse {
			return topProductResponse{
				ProductName: p.ProductName,
				TimesSold:   p.TimesSold,
			}
		}),
		GeneratedAt: time.Now().UTC(),
	}

	h.cache.Set(ctx, cacheKey, resp)
	RespondOK(c, resp)
}
