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

// Package inventory provides typed read access to the business database:
// entity listings plus the aggregate queries the assistant builds its
// context from. Two backends are available, SQLite and Postgres.
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item with current stock and pricing
type Product struct {
	ID          int64
	Name        string
	Description string
	Category    string
	CostPrice   decimal.Decimal
	SalePrice   decimal.Decimal
	Stock       int64
}

// Category groups products
type Category struct {
	ID          int64
	Name        string
	Description string
}

// Sale is a completed sale header
type Sale struct {
	ID         int64
	ClientID   int64
	ClientName string
	Total      decimal.Decimal
	Date       time.Time
}

// Purchase is a completed purchase header
type Purchase struct {
	ID           int64
	SupplierID   int64
	SupplierName string
	Total        decimal.Decimal
	Date         time.Time
}

// Client is a registered customer
type Client struct {
	ID    int64
	Name  string
	Email string
}

// Supplier is a registered vendor
type Supplier struct {
	ID    int64
	Name  string
	Email string
}

// Warehouse is a stock location
type Warehouse struct {
	ID       int64
	Name     string
	Location string
}

// Movement is a single inventory movement (in/out/transfer)
type Movement struct {
	ID          int64
	ProductID   int64
	ProductName string
	Type        string
	Quantity    int64
	Date        time.Time
}

// ProductSales ranks a product by units sold
type ProductSales struct {
	ProductID    int64
	Name         string
	QuantitySold int64
	Revenue      decimal.Decimal
}

// ClientSpend ranks a client by total spend
type ClientSpend struct {
	ClientID int64
	Name     string
	Orders   int64
	Total    decimal.Decimal
}

// CategoryStat summarizes one category's products and stock
type CategoryStat struct {
	Category   string
	Products   int64
	Stock      int64
	StockValue decimal.Decimal
}

// Valuation is the total inventory value at cost and at sale price
type Valuation struct {
	AtCost decimal.Decimal
	AtSale decimal.Decimal
}

// ClientProductStat is one product's purchase volume for one client
type ClientProductStat struct {
	ClientID   int64
	ClientName string
	Product    string
	Quantity   int64
}

// ClientCategoryStat is one category's purchase volume for one client
type ClientCategoryStat struct {
	ClientID   int64
	ClientName string
	Category   string
	Quantity   int64
}
