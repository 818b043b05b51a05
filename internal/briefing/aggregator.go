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

// Package briefing builds the business context the assistant feeds into each
// prompt: a per-request snapshot of every tracked entity, derived statistics
// over it, and a deterministic natural-language rendering of both.
package briefing

import (
	"context"

	"go.uber.org/zap"

	"github.com/your-org/inventory-assistant/internal/inventory"
)

// Snapshot is a read-only view of the business entities at the moment of one
// request. Rebuilt per request, never persisted. Entity types whose fetch
// failed appear as empty slices.
type Snapshot struct {
	Products   []inventory.Product
	Categories []inventory.Category
	Sales      []inventory.Sale
	Purchases  []inventory.Purchase
	Clients    []inventory.Client
	Suppliers  []inventory.Supplier
	Warehouses []inventory.Warehouse
	Movements  []inventory.Movement
}

// Statistics holds the derived aggregates. Each field is computed
// independently; a failed aggregate leaves its field empty and records the
// error under its name in Errors.
type Statistics struct {
	TopProducts      []inventory.ProductSales
	TopClients       []inventory.ClientSpend
	Categories       []inventory.CategoryStat
	CriticalStock    []inventory.Product
	Valuation        inventory.Valuation
	ClientProducts   []inventory.ClientProductStat
	ClientCategories []inventory.ClientCategoryStat
	Errors           map[string]error
}

// AggregatorOptions bounds the derived statistics
type AggregatorOptions struct {
	TopN                   int
	CriticalStockThreshold int
}

// Aggregator reads snapshots and statistics from the business data provider.
// It is read-only with respect to business data.
type Aggregator struct {
	provider inventory.Provider
	opts     AggregatorOptions
	logger   *zap.Logger
}

// NewAggregator creates an aggregator over the given provider
func NewAggregator(provider inventory.Provider, opts AggregatorOptions, logger *zap.Logger) *Aggregator {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.CriticalStockThreshold <= 0 {
		opts.CriticalStockThreshold = 5
	}
	return &Aggregator{provider: provider, opts: opts, logger: logger}
}

// Snapshot fetches current rows for every tracked entity type. A failed
// fetch yields an empty slice for that type and a warning log; the snapshot
// as a whole never fails, so a partial context stays usable.
func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	var snap Snapshot

	snap.Products = fetchEntity(ctx, a.logger, "products", a.provider.ListProducts)
	snap.Categories = fetchEntity(ctx, a.logger, "categories", a.provider.ListCategories)
	snap.Sales = fetchEntity(ctx, a.logger, "sales", a.provider.ListSales)
	snap.Purchases = fetchEntity(ctx, a.logger, "purchases", a.provider.ListPurchases)
	snap.Clients = fetchEntity(ctx, a.logger, "clients", a.provider.ListClients)
	snap.Suppliers = fetchEntity(ctx, a.logger, "suppliers", a.provider.ListSuppliers)
	snap.Warehouses = fetchEntity(ctx, a.logger, "warehouses", a.provider.ListWarehouses)
	snap.Movements = fetchEntity(ctx, a.logger, "movements", a.provider.ListMovements)

	return snap
}

func fetchEntity[T any](ctx context.Context, logger *zap.Logger, name string, fetch func(context.Context) ([]T, error)) []T {
	rows, err := fetch(ctx)
	if err != nil {
		logger.Warn("Entity fetch failed, continuing with empty slice",
			zap.String("entity", name),
			zap.Error(err))
		return nil
	}
	return rows
}

// Statistics executes the independent aggregate queries. Failures are
// captured per aggregate in the Errors map rather than aborting the rest.
// The sub-queries share no snapshot isolation, so totals across aggregates
// can disagree when writes land mid-request; that is accepted.
func (a *Aggregator) Statistics(ctx context.Context) Statistics {
	stats := Statistics{Errors: make(map[string]error)}

	var err error

	if stats.TopProducts, err = a.provider.TopSellingProducts(ctx, a.opts.TopN); err != nil {
		a.recordFailure(&stats, "top_products", err)
	}
	if stats.TopClients, err = a.provider.TopClientsBySpend(ctx, a.opts.TopN); err != nil {
		a.recordFailure(&stats, "top_clients", err)
	}
	if stats.Categories, err = a.provider.CategoryBreakdown(ctx); err != nil {
		a.recordFailure(&stats, "categories", err)
	}
	if stats.CriticalStock, err = a.provider.CriticalStock(ctx, a.opts.CriticalStockThreshold); err != nil {
		a.recordFailure(&stats, "critical_stock", err)
	}
	if stats.Valuation, err = a.provider.Valuation(ctx); err != nil {
		a.recordFailure(&stats, "valuation", err)
	}

	// Per-client breakdowns only make sense when the top-client set resolved
	if len(stats.TopClients) > 0 {
		ids := make([]int64, len(stats.TopClients))
		for i, c := range stats.TopClients {
			ids[i] = c.ClientID
		}

		if stats.ClientProducts, err = a.provider.ClientProductBreakdown(ctx, ids); err != nil {
			a.recordFailure(&stats, "client_products", err)
		}
		if stats.ClientCategories, err = a.provider.ClientCategoryBreakdown(ctx, ids); err != nil {
			a.recordFailure(&stats, "client_categories", err)
		}
	}

	return stats
}

func (a *Aggregator) recordFailure(stats *Statistics, name string, err error) {
	stats.Errors[name] = err
	a.logger.Warn("Aggregate query failed",
		zap.String("aggregate", name),
		zap.Error(err))
}
