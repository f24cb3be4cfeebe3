package repository_test

import (
	"testing"
	"time"

	"icash/internal/domain"
	"icash/internal/port"
	"icash/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"
	"golang.org/x/text/currency"
)

type purchaseRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	products  port.ProductRepository
	repo      port.PurchaseRepository
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestPurchaseRepositorySuite(t *testing.T) {
	defer goleak.VerifyNone(t)

	suite.Run(t, new(purchaseRepositorySuite))
}

func (suite *purchaseRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.NoError(err)

	suite.NoError(repository.Migrate(ctx, suite.pool))

	suite.products = repository.NewProduct(suite.pool, currency.EUR)
	suite.repo = repository.NewPurchase(suite.pool, currency.EUR)
}

func (suite *purchaseRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *purchaseRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(),
		"TRUNCATE TABLE purchase, purchase_product, product RESTART IDENTITY CASCADE")
	suite.NoError(err)
}

func (suite *purchaseRepositorySuite) seedProducts(n int) []domain.Product {
	ctx := suite.T().Context()

	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		product := fakeProduct()

		id, err := suite.products.InsertProduct(ctx, product)
		suite.NoError(err)

		product.ID = id
		products = append(products, product)
	}

	return products
}

func (suite *purchaseRepositorySuite) TestInsertPurchase() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	products := suite.seedProducts(2)
	ttPurchase := fakePurchase(products...)

	purchaseID, err := suite.repo.InsertPurchase(ctx, ttPurchase)
	require.NoError(t, err)

	actual, err := suite.repo.GetPurchase(ctx, purchaseID)
	require.NoError(t, err)

	expected := ttPurchase
	expected.ID = purchaseID

	assertPurchase(t, expected, actual)
}

func (suite *purchaseRepositorySuite) TestInsertPurchase_NoProducts() {
	t := suite.T()

	_, err := suite.repo.InsertPurchase(t.Context(), domain.Purchase{
		SupermarketID: "S1",
		BuyerID:       uuid.New(),
		TotalAmount:   domain.Money{Amount: decimal.RequireFromString("1.00"), Currency: currency.EUR},
	})

	require.EqualError(t, err, "no products in purchase")
}

func (suite *purchaseRepositorySuite) TestInsertPurchase_UnknownProductRollsBack() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	ttPurchase := fakePurchase(domain.Product{
		ID:        999_999,
		Name:      "ghost",
		UnitPrice: domain.Money{Amount: decimal.RequireFromString("1.00"), Currency: currency.EUR},
	})

	// The FK violation on the association row must roll back the whole
	// purchase, no partial row may remain visible.
	_, err := suite.repo.InsertPurchase(ctx, ttPurchase)
	require.Error(t, err)

	seeded, err := suite.repo.HasPurchases(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func (suite *purchaseRepositorySuite) TestInsertPurchase_ZeroCreatedAtAssigned() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	products := suite.seedProducts(1)

	ttPurchase := fakePurchase(products...)
	ttPurchase.CreatedAt = time.Time{}

	purchaseID, err := suite.repo.InsertPurchase(ctx, ttPurchase)
	require.NoError(t, err)

	actual, err := suite.repo.GetPurchase(ctx, purchaseID)
	require.NoError(t, err)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), actual.CreatedAt, time.Minute)
}

func (suite *purchaseRepositorySuite) TestGetPurchase_NotFound() {
	t := suite.T()

	_, err := suite.repo.GetPurchase(t.Context(), 999_999)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func (suite *purchaseRepositorySuite) TestAggregationQueries() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	products := suite.seedProducts(3)

	buyerA := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaa1")
	buyerB := uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbb2")

	// buyerA buys product 0 twice and product 1 once, buyerB buys products 0+2 once.
	suite.insertPurchases(
		purchaseFor(buyerA, "S1", products[0]),
		purchaseFor(buyerA, "S1", products[0]),
		purchaseFor(buyerA, "S2", products[1]),
		purchaseFor(buyerB, "S1", products[0], products[2]),
	)

	uniqueBuyers, err := suite.repo.UniqueBuyerCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, uniqueBuyers)

	byBuyer, err := suite.repo.CountByBuyer(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.BuyerStats{
		{BuyerID: buyerA, PurchaseCount: 3},
		{BuyerID: buyerB, PurchaseCount: 1},
	}, byBuyer)

	byProduct, err := suite.repo.CountByProduct(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ProductStats{
		{ProductName: products[0].Name, TimesSold: 3},
		{ProductName: products[1].Name, TimesSold: 1},
		{ProductName: products[2].Name, TimesSold: 1},
	}, byProduct)

	buyerIDs, err := suite.repo.DistinctBuyerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{buyerA, buyerB}, buyerIDs)

	supermarketIDs, err := suite.repo.DistinctSupermarketIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, supermarketIDs)
}

func (suite *purchaseRepositorySuite) TestAggregationQueries_EmptyStore() {
	t := suite.T()
	ctx := t.Context()

	uniqueBuyers, err := suite.repo.UniqueBuyerCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, uniqueBuyers)

	byBuyer, err := suite.repo.CountByBuyer(ctx)
	require.NoError(t, err)
	assert.Empty(t, byBuyer)

	byProduct, err := suite.repo.CountByProduct(ctx)
	require.NoError(t, err)
	assert.Empty(t, byProduct)
}

func (suite *purchaseRepositorySuite) insertPurchases(purchases ...domain.Purchase) {
	for _, purchase := range purchases {
		_, err := suite.repo.InsertPurchase(suite.T().Context(), purchase)
		suite.NoError(err)
	}
}

func purchaseFor(buyerID uuid.UUID, supermarketID string, products ...domain.Product) domain.Purchase {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.UnitPrice.Amount)
	}

	return domain.Purchase{
		SupermarketID: supermarketID,
		BuyerID:       buyerID,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		TotalAmount:   domain.Money{Amount: total.Round(2), Currency: currency.EUR},
		Products:      products,
	}
}

func fakePurchase(products ...domain.Product) domain.Purchase {
	return purchaseFor(uuid.MustParse(gofakeit.UUID()), gofakeit.Company(), products...)
}

func assertPurchase(t *testing.T, expected, actual domain.Purchase) {
	t.Helper()

	// Custom comparers for Money fields
	comparers := cmp.Options{
		cmp.Comparer(func(x, y decimal.Decimal) bool {
			return x.Equal(y)
		}),
		cmp.Comparer(func(x, y currency.Unit) bool {
			return x.String() == y.String()
		}),
	}

	// Products come back ordered by id, timestamps compare up to the
	// driver's location normalization
	opts := cmp.Options{
		cmpopts.SortSlices(func(a, b domain.Product) bool { return a.ID < b.ID }),
		cmpopts.EquateApproxTime(time.Second),
		cmpopts.EquateEmpty(),
	}

	diff := cmp.Diff(expected, actual, comparers, opts)
	assert.Empty(t, diff)
}
