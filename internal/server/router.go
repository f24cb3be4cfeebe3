package server

import (
	"time"

	"icash/internal/handlers"
	"icash/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CashierHandler   *handlers.CashierHandler
	DashboardHandler *handlers.DashboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), observeDuration())

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/catalog", cfg.CashierHandler.Catalog)
	router.POST("/create_purchase", cfg.CashierHandler.CreatePurchase)

	router.GET("/analytics", cfg.DashboardHandler.Analytics)

	return router
}

func observeDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
