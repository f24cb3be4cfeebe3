package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"icash/internal/config"
	"icash/internal/domain"
	"icash/internal/logger"
	"icash/internal/port"
	"icash/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

func main() {
	productsPath := flag.String("products", "data/products_list.csv", "path to the products CSV")
	purchasesPath := flag.String("purchases", "data/purchases.csv", "path to the purchases CSV")
	flag.Parse()

	cfg := config.MustLoad()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *productsPath, *purchasesPath); err != nil {
		log.Fatal("seed failed", "error", err)
	}
}

func run(cfg config.Config, log *logger.Logger, productsPath, purchasesPath string) error {
	ctx := context.Background()

	cur, err := currency.ParseISO(cfg.App.Currency)
	if err != nil {
		return fmt.Errorf("currency[%s] is not valid: %w", cfg.App.Currency, err)
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}

	productRepo := repository.NewProduct(pool, cur)
	purchaseRepo := repository.NewPurchase(pool, cur)

	// Seed only once: an already-populated store is left untouched.
	seeded, err := purchaseRepo.HasPurchases(ctx)
	if err != nil {
		return fmt.Errorf("purchaseRepo.HasPurchases: %w", err)
	}
	if seeded {
		log.Info("seed skipped, purchases already present")
		return nil
	}

	byName, err := seedProducts(ctx, productRepo, cur, productsPath, log)
	if err != nil {
		return fmt.Errorf("seedProducts: %w", err)
	}

	loaded, err := seedPurchases(ctx, purchaseRepo, cur, purchasesPath, byName, log)
	if err != nil {
		return fmt.Errorf("seedPurchases: %w", err)
	}

	log.Info("seed complete", "products_loaded", len(byName), "purchases_loaded", loaded)
	return nil
}

func seedProducts(ctx context.Context, repo port.ProductRepository, cur currency.Unit, path string, log *logger.Logger) (map[string]domain.Product, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]domain.Product, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row["unit_price"])
		if err != nil {
			return nil, fmt.Errorf("unit_price[%s] is not valid: %w", row["unit_price"], err)
		}

		product := domain.Product{
			Name:      row["product_name"],
			UnitPrice: domain.Money{Amount: price, Currency: cur},
		}

		id, err := repo.InsertProduct(ctx, product)
		if err != nil {
			return nil, fmt.Errorf("repo.InsertProduct[%s]: %w", product.Name, err)
		}

		product.ID = id
		byName[product.Name] = product
	}

	log.Info("products seeded", "count", len(byName))
	return byName, nil
}

func seedPurchases(ctx context.Context, repo port.PurchaseRepository, cur currency.Unit, path string, byName map[string]domain.Product, log *logger.Logger) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	var loaded int
	for _, row := range rows {
		buyerID, err := uuid.Parse(row["user_id"])
		if err != nil {
			log.Warn("skipping row with invalid user_id", "user_id", row["user_id"])
			continue
		}

		var products []domain.Product
		unknown := false
		for _, name := range strings.Split(row["items_list"], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			product, ok := byName[name]
			if !ok {
				log.Warn("skipping row with unknown product", "product_name", name)
				unknown = true
				break
			}
			products = append(products, product)
		}
		if unknown || len(products) == 0 {
			continue
		}

		total, err := decimal.NewFromString(row["total_amount"])
		if err != nil {
			log.Warn("skipping row with invalid total_amount", "total_amount", row["total_amount"])
			continue
		}

		createdAt, err := parseTimestamp(row["timestamp"])
		if err != nil {
			log.Warn("skipping row with invalid timestamp", "timestamp", row["timestamp"])
			continue
		}

		purchase := domain.Purchase{
			SupermarketID: strings.TrimSpace(row["supermarket_id"]),
			BuyerID:       buyerID,
			CreatedAt:     createdAt,
			TotalAmount:   domain.Money{Amount: total, Currency: cur},
			Products:      products,
		}

		if _, err := repo.InsertPurchase(ctx, purchase); err != nil {
			return loaded, fmt.Errorf("repo.InsertPurchase: %w", err)
		}
		loaded++
	}

	return loaded, nil
}

// readCSV returns the file's records as header-keyed maps.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv.ReadAll: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(record) {
				row[strings.TrimSpace(key)] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}

	return time.Parse("2006-01-02 15:04:05", s)
}
