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

package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Provider exposes read-only access to the business database. The assistant
// never writes business entities through this interface.
type Provider interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListSales(ctx context.Context) ([]Sale, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
	ListClients(ctx context.Context) ([]Client, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	ListMovements(ctx context.Context) ([]Movement, error)

	TopSellingProducts(ctx context.Context, n int) ([]ProductSales, error)
	TopClientsBySpend(ctx context.Context, n int) ([]ClientSpend, error)
	CategoryBreakdown(ctx context.Context) ([]CategoryStat, error)
	CriticalStock(ctx context.Context, threshold int) ([]Product, error)
	Valuation(ctx context.Context) (Valuation, error)
	ClientProductBreakdown(ctx context.Context, clientIDs []int64) ([]ClientProductStat, error)
	ClientCategoryBreakdown(ctx context.Context, clientIDs []int64) ([]ClientCategoryStat, error)

	Close() error
}

// NewProvider creates a provider for the configured driver
func NewProvider(ctx context.Context, driver, dsn string, logger *zap.Logger) (Provider, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteProvider(dsn, logger)
	case "postgres":
		return NewPostgresProvider(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// dateLayouts are the formats business dates arrive in, tried in order
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// parseDate parses a stored date string, returning the zero time on failure
func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseMoney parses a stored monetary amount, returning zero on failure
func parseMoney(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// int64Placeholders renders "?, ?, ..." for n sqlite placeholders
func int64Placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// int64Args converts ids to driver args
func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
