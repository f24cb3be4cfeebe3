package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"icash/internal/cache"
	"icash/internal/config"
	"icash/internal/handlers"
	"icash/internal/logger"
	"icash/internal/metrics"
	"icash/internal/repository"
	"icash/internal/server"
	"icash/internal/service"

	"github.com/avast/retry-go"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/currency"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting api service", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("api service crashed", "error", err)
		os.Exit(1)
	}

	log.Info("api service stopped")
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx := context.Background()

	metrics.Register()

	cur, err := currency.ParseISO(cfg.App.Currency)
	if err != nil {
		return fmt.Errorf("currency[%s] is not valid: %w", cfg.App.Currency, err)
	}

	pool, err := connectPostgres(ctx, cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("connectPostgres: %w", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}

	snapshots, err := cache.New(cfg.Redis.Addr, cfg.Redis.CacheTTL, log)
	if err != nil {
		return fmt.Errorf("cache.New: %w", err)
	}
	defer snapshots.Close()
	if snapshots == nil {
		log.Info("snapshot cache disabled, no redis addr configured")
	}

	productRepo := repository.NewProduct(pool, cur)
	purchaseRepo := repository.NewPurchase(pool, cur)

	cashier := service.NewCashier(productRepo, purchaseRepo, cur, log)
	dashboard := service.NewDashboard(purchaseRepo, log)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(server.RouterConfig{
		CashierHandler:   handlers.NewCashier(cashier, snapshots, log),
		DashboardHandler: handlers.NewDashboard(dashboard, snapshots, cfg.Analytics.TopProductsLimit, log),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

func connectPostgres(ctx context.Context, cfg config.Postgres, log *logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	err = retry.Do(
		func() error {
			return pool.Ping(ctx)
		},
		retry.Attempts(cfg.ConnAttempts),
		retry.Delay(cfg.ConnRetryDelay),
		retry.MaxDelay(cfg.ConnRetryMaxDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("postgres ping failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	return pool, nil
}
