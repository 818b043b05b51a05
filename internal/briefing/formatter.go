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
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/your-org/inventory-assistant/internal/inventory"
)

// Verbosity selects how much of the briefing is rendered
type Verbosity int

const (
	// VerbosityFull renders insights, entity sections, and statistics
	VerbosityFull Verbosity = iota
	// VerbosityReduced renders statistics only, used by the retry path
	VerbosityReduced
)

// FormatterOptions bounds the rendered text
type FormatterOptions struct {
	// ProductSample caps the product listing; entries past it collapse
	// into a count suffix
	ProductSample int
	// LowStockThreshold flags products below it as low stock
	LowStockThreshold int
}

// Formatter renders a Snapshot plus Statistics into bounded Spanish text for
// prompt inclusion. Render is a pure function of its inputs: identical input
// produces byte-identical output, and the formatter keeps no state between
// calls.
type Formatter struct {
	opts FormatterOptions
}

// NewFormatter creates a formatter with the given bounds
func NewFormatter(opts FormatterOptions) *Formatter {
	if opts.ProductSample <= 0 {
		opts.ProductSample = 20
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 10
	}
	return &Formatter{opts: opts}
}

// Render produces the briefing text at the requested verbosity
func (f *Formatter) Render(snap Snapshot, stats Statistics, verbosity Verbosity) string {
	var b strings.Builder

	if verbosity == VerbosityReduced {
		b.WriteString("=== ESTADÍSTICAS DEL INVENTARIO ===\n\n")
		f.writeStatistics(&b, stats)
		return b.String()
	}

	b.WriteString("=== DATOS DEL SISTEMA DE INVENTARIO ===\n\n")

	if insights := f.insights(snap); len(insights) > 0 {
		b.WriteString("📊 INSIGHTS GENERALES:\n")
		for _, line := range insights {
			b.WriteString("• ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	f.writeProducts(&b, snap.Products)
	f.writeCategories(&b, snap.Categories)
	f.writeWarehouses(&b, snap.Warehouses)
	f.writeRecentSales(&b, snap.Sales)
	f.writeStatistics(&b, stats)

	return b.String()
}

// insights computes the narrative summary lines from the snapshot
func (f *Formatter) insights(snap Snapshot) []string {
	var insights []string

	highValueCutoff := decimal.NewFromInt(1000)

	if len(snap.Products) > 0 {
		var totalStock int64
		var lowStock, outOfStock, highValue int
		for _, p := range snap.Products {
			totalStock += p.Stock
			if p.Stock < int64(f.opts.LowStockThreshold) {
				lowStock++
			}
			if p.Stock == 0 {
				outOfStock++
			}
			if p.SalePrice.GreaterThan(highValueCutoff) {
				highValue++
			}
		}

		insights = append(insights, fmt.Sprintf("Hay %d productos en total con %d unidades en inventario", len(snap.Products), totalStock))
		if lowStock > 0 {
			insights = append(insights, fmt.Sprintf("%d productos tienen stock bajo (menos de %d unidades)", lowStock, f.opts.LowStockThreshold))
		}
		if outOfStock > 0 {
			insights = append(insights, fmt.Sprintf("⚠️ %d productos están agotados", outOfStock))
		}
		if highValue > 0 {
			insights = append(insights, fmt.Sprintf("%d productos son de alto valor (más de $1000)", highValue))
		}
	}

	if len(snap.Sales) > 0 {
		total := decimal.Zero
		for _, s := range snap.Sales {
			total = total.Add(s.Total)
		}
		avg := total.Div(decimal.NewFromInt(int64(len(snap.Sales))))
		insights = append(insights, fmt.Sprintf("Se han registrado %d ventas por un total de %s (promedio: %s)",
			len(snap.Sales), FormatMoney(total), FormatMoney(avg)))
	}

	if len(snap.Purchases) > 0 {
		total := decimal.Zero
		for _, p := range snap.Purchases {
			total = total.Add(p.Total)
		}
		insights = append(insights, fmt.Sprintf("Se han registrado %d compras por un total de %s",
			len(snap.Purchases), FormatMoney(total)))
	}

	if len(snap.Clients) > 0 {
		insights = append(insights, fmt.Sprintf("Base de datos: %d clientes registrados", len(snap.Clients)))
	}
	if len(snap.Suppliers) > 0 {
		insights = append(insights, fmt.Sprintf("%d proveedores activos", len(snap.Suppliers)))
	}

	return insights
}

func (f *Formatter) writeProducts(b *strings.Builder, products []inventory.Product) {
	if len(products) == 0 {
		return
	}

	sample := products
	if len(sample) > f.opts.ProductSample {
		sample = sample[:f.opts.ProductSample]
	}

	fmt.Fprintf(b, "📦 PRODUCTOS (muestra de los primeros %d):\n", f.opts.ProductSample)
	for i, p := range sample {
		fmt.Fprintf(b, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(b, "   - Stock: %d unidades", p.Stock)
		if p.Stock < int64(f.opts.LowStockThreshold) {
			b.WriteString(" ⚠️ STOCK BAJO")
		}
		fmt.Fprintf(b, "\n   - Precio Venta: %s\n", FormatMoney(p.SalePrice))
		category := p.Category
		if category == "" {
			category = "Sin categoría"
		}
		fmt.Fprintf(b, "   - Categoría: %s\n", category)
		if p.Description != "" {
			fmt.Fprintf(b, "   - Descripción: %s\n", truncateRunes(p.Description, 100))
		}
		b.WriteString("\n")
	}

	if len(products) > f.opts.ProductSample {
		fmt.Fprintf(b, "... y %d productos más.\n\n", len(products)-f.opts.ProductSample)
	}
}

func (f *Formatter) writeCategories(b *strings.Builder, categories []inventory.Category) {
	if len(categories) == 0 {
		return
	}

	fmt.Fprintf(b, "🏷️ CATEGORÍAS (%d):\n", len(categories))
	sample := categories
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, c := range sample {
		fmt.Fprintf(b, "- %s", c.Name)
		if c.Description != "" {
			fmt.Fprintf(b, ": %s", c.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (f *Formatter) writeWarehouses(b *strings.Builder, warehouses []inventory.Warehouse) {
	if len(warehouses) == 0 {
		return
	}

	fmt.Fprintf(b, "🏢 ALMACENES (%d):\n", len(warehouses))
	for _, w := range warehouses {
		fmt.Fprintf(b, "- %s", w.Name)
		if w.Location != "" {
			fmt.Fprintf(b, " (Ubicación: %s)", w.Location)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (f *Formatter) writeRecentSales(b *strings.Builder, sales []inventory.Sale) {
	if len(sales) == 0 {
		return
	}

	recent := sales
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	b.WriteString("💰 VENTAS RECIENTES:\n")
	for _, s := range recent {
		fmt.Fprintf(b, "- Venta #%d: %s", s.ID, FormatMoney(s.Total))
		if !s.Date.IsZero() {
			fmt.Fprintf(b, " (Fecha: %s)", s.Date.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (f *Formatter) writeStatistics(b *strings.Builder, stats Statistics) {
	if len(stats.TopProducts) > 0 {
		b.WriteString("🏆 PRODUCTOS MÁS VENDIDOS:\n")
		for i, p := range stats.TopProducts {
			fmt.Fprintf(b, "%d. %s: %d unidades vendidas (%s)\n", i+1, p.Name, p.QuantitySold, FormatMoney(p.Revenue))
		}
		b.WriteString("\n")
	}

	if len(stats.TopClients) > 0 {
		b.WriteString("👥 MEJORES CLIENTES:\n")
		for i, c := range stats.TopClients {
			fmt.Fprintf(b, "%d. %s: %s en %d compras\n", i+1, c.Name, FormatMoney(c.Total), c.Orders)
		}
		b.WriteString("\n")
	}

	if len(stats.CriticalStock) > 0 {
		b.WriteString("🚨 STOCK CRÍTICO:\n")
		for _, p := range stats.CriticalStock {
			fmt.Fprintf(b, "- %s: %d unidades\n", p.Name, p.Stock)
		}
		b.WriteString("\n")
	}

	if len(stats.Categories) > 0 {
		b.WriteString("🏷️ STOCK POR CATEGORÍA:\n")
		for _, c := range stats.Categories {
			fmt.Fprintf(b, "- %s: %d productos, %d unidades (valor %s)\n", c.Category, c.Products, c.Stock, FormatMoney(c.StockValue))
		}
		b.WriteString("\n")
	}

	if !stats.Valuation.AtCost.IsZero() || !stats.Valuation.AtSale.IsZero() {
		b.WriteString("💎 VALORACIÓN DEL INVENTARIO:\n")
		fmt.Fprintf(b, "- A precio de costo: %s\n", FormatMoney(stats.Valuation.AtCost))
		fmt.Fprintf(b, "- A precio de venta: %s\n\n", FormatMoney(stats.Valuation.AtSale))
	}

	if len(stats.ClientProducts) > 0 {
		b.WriteString("🛒 PRODUCTOS POR CLIENTE DESTACADO:\n")
		for _, cp := range stats.ClientProducts {
			fmt.Fprintf(b, "- %s compró %d de %s\n", cp.ClientName, cp.Quantity, cp.Product)
		}
		b.WriteString("\n")
	}

	if len(stats.ClientCategories) > 0 {
		b.WriteString("🗂️ CATEGORÍAS POR CLIENTE DESTACADO:\n")
		for _, cc := range stats.ClientCategories {
			fmt.Fprintf(b, "- %s: %d unidades en %s\n", cc.ClientName, cc.Quantity, cc.Category)
		}
		b.WriteString("\n")
	}
}

// FormatMoney renders an amount as $1,234.56. Rounding to two decimals
// happens only at formatting time, never during aggregation.
func FormatMoney(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	whole := parts[0]

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%s", sign, grouped.String(), parts[1])
}

// truncateRunes limits s to n runes
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
