package inventory

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSeededProvider(t *testing.T) *SQLiteProvider {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(db))
	require.NoError(t, Seed(db))

	return NewSQLiteProviderFromDB(db, zap.NewNop())
}

func TestListProducts(t *testing.T) {
	provider := newSeededProvider(t)

	products, err := provider.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 7)

	laptop := products[0]
	assert.Equal(t, "Laptop Pro 14", laptop.Name)
	assert.Equal(t, "Electrónica", laptop.Category)
	assert.Equal(t, int64(12), laptop.Stock)
	assert.Equal(t, "1299.99", laptop.SalePrice.StringFixed(2))
	assert.Equal(t, "850.00", laptop.CostPrice.StringFixed(2))
}

func TestListSalesParsesDates(t *testing.T) {
	provider := newSeededProvider(t)

	sales, err := provider.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 4)

	first := sales[0]
	assert.Equal(t, "Comercial Andina", first.ClientName)
	assert.Equal(t, "2599.98", first.Total.StringFixed(2))
	assert.Equal(t, 2025, first.Date.Year())
	assert.False(t, first.Date.IsZero())
}

func TestTopSellingProducts(t *testing.T) {
	provider := newSeededProvider(t)

	top, err := provider.TopSellingProducts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	// Monitor and Lámpara tie at 3 units, lower id first
	assert.Equal(t, "Monitor 27\"", top[0].Name)
	assert.Equal(t, int64(3), top[0].QuantitySold)
	assert.Equal(t, "868.50", top[0].Revenue.StringFixed(2))
	assert.Equal(t, "Lámpara LED", top[1].Name)
	assert.Equal(t, "Laptop Pro 14", top[2].Name)
	assert.Equal(t, int64(2), top[2].QuantitySold)
}

func TestTopClientsBySpend(t *testing.T) {
	provider := newSeededProvider(t)

	top, err := provider.TopClientsBySpend(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, "Comercial Andina", top[0].Name)
	assert.Equal(t, int64(2), top[0].Orders)
	assert.Equal(t, "2848.98", top[0].Total.StringFixed(2))
	assert.Equal(t, "Distribuidora Sol", top[1].Name)
}

func TestCriticalStock(t *testing.T) {
	provider := newSeededProvider(t)

	critical, err := provider.CriticalStock(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, critical, 3)

	// Ascending by stock: agotado first
	assert.Equal(t, "Cafetera", critical[0].Name)
	assert.Equal(t, int64(0), critical[0].Stock)
	assert.Equal(t, "Escritorio compacto", critical[1].Name)
	assert.Equal(t, "Teclado mecánico", critical[2].Name)
}

func TestValuation(t *testing.T) {
	provider := newSeededProvider(t)

	valuation, err := provider.Valuation(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "16565.00", valuation.AtCost.StringFixed(2))
	assert.Equal(t, "26911.98", valuation.AtSale.StringFixed(2))
}

func TestCategoryBreakdown(t *testing.T) {
	provider := newSeededProvider(t)

	stats, err := provider.CategoryBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)

	// Ordered by total stock descending
	assert.Equal(t, "Electrónica", stats[0].Category)
	assert.Equal(t, int64(3), stats[0].Products)
	assert.Equal(t, int64(41), stats[0].Stock)
	assert.Equal(t, "Hogar", stats[1].Category)
	assert.Equal(t, int64(40), stats[1].Stock)
}

func TestClientProductBreakdown(t *testing.T) {
	provider := newSeededProvider(t)

	stats, err := provider.ClientProductBreakdown(context.Background(), []int64{1})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Comercial Andina", stats[0].ClientName)
	assert.Equal(t, "Laptop Pro 14", stats[0].Product)
	assert.Equal(t, int64(2), stats[0].Quantity)
	assert.Equal(t, "Silla ergonómica", stats[1].Product)
}

func TestClientBreakdownsEmptyIDs(t *testing.T) {
	provider := newSeededProvider(t)

	products, err := provider.ClientProductBreakdown(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)

	categories, err := provider.ClientCategoryBreakdown(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestNewProviderRejectsUnknownDriver(t *testing.T) {
	_, err := NewProvider(context.Background(), "mysql", "dsn", zap.NewNop())
	assert.Error(t, err)
}
