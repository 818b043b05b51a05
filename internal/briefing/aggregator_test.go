// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package briefing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/inventory"
)

// stubProvider returns canned data, with selected operations failing
type stubProvider struct {
	products   []inventory.Product
	sales      []inventory.Sale
	topClients []inventory.ClientSpend

	failProducts  bool
	failValuation bool
}

var errStub = errors.New("query failed")

func (s *stubProvider) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	if s.failProducts {
		return nil, errStub
	}
	return s.products, nil
}

func (s *stubProvider) ListCategories(ctx context.Context) ([]inventory.Category, error) {
	return nil, nil
}

func (s *stubProvider) ListSales(ctx context.Context) ([]inventory.Sale, error) {
	return s.sales, nil
}

func (s *stubProvider) ListPurchases(ctx context.Context) ([]inventory.Purchase, error) {
	return nil, nil
}

func (s *stubProvider) ListClients(ctx context.Context) ([]inventory.Client, error) {
	return nil, nil
}

func (s *stubProvider) ListSuppliers(ctx context.Context) ([]inventory.Supplier, error) {
	return nil, nil
}

func (s *stubProvider) ListWarehouses(ctx context.Context) ([]inventory.Warehouse, error) {
	return nil, nil
}

func (s *stubProvider) ListMovements(ctx context.Context) ([]inventory.Movement, error) {
	return nil, nil
}

func (s *stubProvider) TopSellingProducts(ctx context.Context, n int) ([]inventory.ProductSales, error) {
	return []inventory.ProductSales{{ProductID: 1, Name: "Laptop", QuantitySold: 4, Revenue: decimal.NewFromInt(4800)}}, nil
}

func (s *stubProvider) TopClientsBySpend(ctx context.Context, n int) ([]inventory.ClientSpend, error) {
	return s.topClients, nil
}

func (s *stubProvider) CategoryBreakdown(ctx context.Context) ([]inventory.CategoryStat, error) {
	return nil, nil
}

func (s *stubProvider) CriticalStock(ctx context.Context, threshold int) ([]inventory.Product, error) {
	return nil, nil
}

func (s *stubProvider) Valuation(ctx context.Context) (inventory.Valuation, error) {
	if s.failValuation {
		return inventory.Valuation{}, errStub
	}
	return inventory.Valuation{AtCost: decimal.NewFromInt(100), AtSale: decimal.NewFromInt(150)}, nil
}

func (s *stubProvider) ClientProductBreakdown(ctx context.Context, clientIDs []int64) ([]inventory.ClientProductStat, error) {
	stats := make([]inventory.ClientProductStat, 0, len(clientIDs))
	for _, id := range clientIDs {
		stats = append(stats, inventory.ClientProductStat{ClientID: id, ClientName: "Cliente", Product: "Laptop", Quantity: 1})
	}
	return stats, nil
}

func (s *stubProvider) ClientCategoryBreakdown(ctx context.Context, clientIDs []int64) ([]inventory.ClientCategoryStat, error) {
	return nil, nil
}

func (s *stubProvider) Close() error { return nil }

func TestSnapshotPartialFailure(t *testing.T) {
	provider := &stubProvider{
		failProducts: true,
		sales:        []inventory.Sale{{ID: 1, Total: decimal.NewFromInt(99)}},
	}
	agg := NewAggregator(provider, AggregatorOptions{}, zap.NewNop())

	snap := agg.Snapshot(context.Background())

	// Failed entity yields an empty slice, the rest still arrive
	assert.Empty(t, snap.Products)
	assert.Len(t, snap.Sales, 1)
}

func TestStatisticsRecordsFailuresPerAggregate(t *testing.T) {
	provider := &stubProvider{failValuation: true}
	agg := NewAggregator(provider, AggregatorOptions{}, zap.NewNop())

	stats := agg.Statistics(context.Background())

	assert.ErrorIs(t, stats.Errors["valuation"], errStub)
	assert.Len(t, stats.TopProducts, 1)
	assert.True(t, stats.Valuation.AtCost.IsZero())
}

func TestStatisticsClientBreakdownsFollowTopClients(t *testing.T) {
	provider := &stubProvider{}
	agg := NewAggregator(provider, AggregatorOptions{}, zap.NewNop())

	// No top clients resolved, no per-client breakdowns requested
	stats := agg.Statistics(context.Background())
	assert.Empty(t, stats.ClientProducts)

	provider.topClients = []inventory.ClientSpend{
		{ClientID: 3, Name: "Ana", Orders: 2, Total: decimal.NewFromInt(500)},
	}
	stats = agg.Statistics(context.Background())
	assert.Len(t, stats.ClientProducts, 1)
	assert.Equal(t, int64(3), stats.ClientProducts[0].ClientID)
}
