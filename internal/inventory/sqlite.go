package inventory

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteProvider reads business data from a SQLite database
type SQLiteProvider struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteProvider opens the business database at the given path
func NewSQLiteProvider(dsn string, logger *zap.Logger) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open business database: %w", err)
	}

	return &SQLiteProvider{db: db, logger: logger}, nil
}

// NewSQLiteProviderFromDB wraps an existing connection, used by tests and the seeder
func NewSQLiteProviderFromDB(db *sql.DB, logger *zap.Logger) *SQLiteProvider {
	return &SQLiteProvider{db: db, logger: logger}
}

// Close closes the database connection
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// DB exposes the underlying handle for schema and seed helpers
func (p *SQLiteProvider) DB() *sql.DB {
	return p.db
}

// ListProducts returns all products with their category name
func (p *SQLiteProvider) ListProducts(ctx context.Context) ([]Product, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.description, ''), COALESCE(c.name, ''),
		       CAST(p.cost_price AS TEXT), CAST(p.sale_price AS TEXT), p.stock
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var prod Product
		var cost, sale string
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Description, &prod.Category, &cost, &sale, &prod.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		prod.CostPrice = parseMoney(cost)
		prod.SalePrice = parseMoney(sale)
		products = append(products, prod)
	}

	return products, rows.Err()
}

// ListCategories returns all categories
func (p *SQLiteProvider) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(description, '') FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

// ListSales returns all sales with the client name resolved
func (p *SQLiteProvider) ListSales(ctx context.Context) ([]Sale, error) {
	query := `
		SELECT s.id, s.client_id, COALESCE(c.name, ''), CAST(s.total AS TEXT), s.sale_date
		FROM sales s
		LEFT JOIN clients c ON c.id = s.client_id
		ORDER BY s.sale_date, s.id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		var total, date string
		if err := rows.Scan(&sale.ID, &sale.ClientID, &sale.ClientName, &total, &date); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.Total = parseMoney(total)
		sale.Date = parseDate(date)
		sales = append(sales, sale)
	}

	return sales, rows.Err()
}

// ListPurchases returns all purchases with the supplier name resolved
func (p *SQLiteProvider) ListPurchases(ctx context.Context) ([]Purchase, error) {
	query := `
		SELECT pu.id, pu.supplier_id, COALESCE(su.name, ''), CAST(pu.total AS TEXT), pu.purchase_date
		FROM purchases pu
		LEFT JOIN suppliers su ON su.id = pu.supplier_id
		ORDER BY pu.purchase_date, pu.id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var purchase Purchase
		var total, date string
		if err := rows.Scan(&purchase.ID, &purchase.SupplierID, &purchase.SupplierName, &total, &date); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchase.Total = parseMoney(total)
		purchase.Date = parseDate(date)
		purchases = append(purchases, purchase)
	}

	return purchases, rows.Err()
}

// ListClients returns all clients
func (p *SQLiteProvider) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(email, '') FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var client Client
		if err := rows.Scan(&client.ID, &client.Name, &client.Email); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}

// ListSuppliers returns all suppliers
func (p *SQLiteProvider) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(email, '') FROM suppliers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var supplier Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Email); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}

	return suppliers, rows.Err()
}

// ListWarehouses returns all warehouses
func (p *SQLiteProvider) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(location, '') FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var warehouse Warehouse
		if err := rows.Scan(&warehouse.ID, &warehouse.Name, &warehouse.Location); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, warehouse)
	}

	return warehouses, rows.Err()
}

// ListMovements returns all inventory movements with the product name resolved
func (p *SQLiteProvider) ListMovements(ctx context.Context) ([]Movement, error) {
	query := `
		SELECT m.id, m.product_id, COALESCE(p.name, ''), m.movement_type, m.quantity, m.moved_at
		FROM movements m
		LEFT JOIN products p ON p.id = m.product_id
		ORDER BY m.moved_at, m.id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var movement Movement
		var date string
		if err := rows.Scan(&movement.ID, &movement.ProductID, &movement.ProductName,
			&movement.Type, &movement.Quantity, &date); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movement.Date = parseDate(date)
		movements = append(movements, movement)
	}

	return movements, rows.Err()
}

// TopSellingProducts returns the n best-selling products by units sold
func (p *SQLiteProvider) TopSellingProducts(ctx context.Context, n int) ([]ProductSales, error) {
	query := `
		SELECT p.id, p.name,
		       COALESCE(SUM(si.quantity), 0) AS sold,
		       CAST(COALESCE(SUM(si.subtotal), 0) AS TEXT)
		FROM products p
		JOIN sale_items si ON si.product_id = p.id
		GROUP BY p.id, p.name
		HAVING sold > 0
		ORDER BY sold DESC, p.id
		LIMIT ?
	`

	rows, err := p.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top selling products: %w", err)
	}
	defer rows.Close()

	var top []ProductSales
	for rows.Next() {
		var ps ProductSales
		var revenue string
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.QuantitySold, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product ranking: %w", err)
		}
		ps.Revenue = parseMoney(revenue)
		top = append(top, ps)
	}

	return top, rows.Err()
}

// TopClientsBySpend returns the n clients with the highest total spend
func (p *SQLiteProvider) TopClientsBySpend(ctx context.Context, n int) ([]ClientSpend, error) {
	query := `
		SELECT c.id, c.name, COUNT(s.id), CAST(COALESCE(SUM(s.total), 0) AS TEXT) AS spent
		FROM clients c
		JOIN sales s ON s.client_id = c.id
		GROUP BY c.id, c.name
		ORDER BY SUM(s.total) DESC, c.id
		LIMIT ?
	`

	rows, err := p.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top clients: %w", err)
	}
	defer rows.Close()

	var top []ClientSpend
	for rows.Next() {
		var cs ClientSpend
		var total string
		if err := rows.Scan(&cs.ClientID, &cs.Name, &cs.Orders, &total); err != nil {
			return nil, fmt.Errorf("failed to scan client ranking: %w", err)
		}
		cs.Total = parseMoney(total)
		top = append(top, cs)
	}

	return top, rows.Err()
}

// CategoryBreakdown returns per-category product counts, stock and stock value
func (p *SQLiteProvider) CategoryBreakdown(ctx context.Context) ([]CategoryStat, error) {
	query := `
		SELECT c.name,
		       COUNT(p.id),
		       COALESCE(SUM(p.stock), 0),
		       CAST(COALESCE(SUM(p.stock * p.sale_price), 0) AS TEXT)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY COALESCE(SUM(p.stock), 0) DESC, c.id
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category breakdown: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var cs CategoryStat
		var value string
		if err := rows.Scan(&cs.Category, &cs.Products, &cs.Stock, &value); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		cs.StockValue = parseMoney(value)
		stats = append(stats, cs)
	}

	return stats, rows.Err()
}

// CriticalStock returns products at or below the critical threshold
func (p *SQLiteProvider) CriticalStock(ctx context.Context, threshold int) ([]Product, error) {
	query := `
		SELECT p.id, p.name, COALESCE(p.description, ''), COALESCE(c.name, ''),
		       CAST(p.cost_price AS TEXT), CAST(p.sale_price AS TEXT), p.stock
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.stock <= ?
		ORDER BY p.stock, p.id
	`

	rows, err := p.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query critical stock: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var prod Product
		var cost, sale string
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Description, &prod.Category, &cost, &sale, &prod.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan critical product: %w", err)
		}
		prod.CostPrice = parseMoney(cost)
		prod.SalePrice = parseMoney(sale)
		products = append(products, prod)
	}

	return products, rows.Err()
}

// Valuation returns the total inventory value at cost and at sale price
func (p *SQLiteProvider) Valuation(ctx context.Context) (Valuation, error) {
	query := `
		SELECT CAST(COALESCE(SUM(stock * cost_price), 0) AS TEXT),
		       CAST(COALESCE(SUM(stock * sale_price), 0) AS TEXT)
		FROM products
	`

	var atCost, atSale string
	if err := p.db.QueryRowContext(ctx, query).Scan(&atCost, &atSale); err != nil {
		return Valuation{}, fmt.Errorf("failed to query valuation: %w", err)
	}

	return Valuation{AtCost: parseMoney(atCost), AtSale: parseMoney(atSale)}, nil
}

// ClientProductBreakdown returns product purchase volumes for the given clients
func (p *SQLiteProvider) ClientProductBreakdown(ctx context.Context, clientIDs []int64) ([]ClientProductStat, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.name, p.name, COALESCE(SUM(si.quantity), 0) AS qty
		FROM clients c
		JOIN sales s ON s.client_id = c.id
		JOIN sale_items si ON si.sale_id = s.id
		JOIN products p ON p.id = si.product_id
		WHERE c.id IN (%s)
		GROUP BY c.id, c.name, p.id, p.name
		ORDER BY c.id, qty DESC, p.id
	`, int64Placeholders(len(clientIDs)))

	rows, err := p.db.QueryContext(ctx, query, int64Args(clientIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query client product breakdown: %w", err)
	}
	defer rows.Close()

	var stats []ClientProductStat
	for rows.Next() {
		var cp ClientProductStat
		if err := rows.Scan(&cp.ClientID, &cp.ClientName, &cp.Product, &cp.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan client product stat: %w", err)
		}
		stats = append(stats, cp)
	}

	return stats, rows.Err()
}

// ClientCategoryBreakdown returns category purchase volumes for the given clients
func (p *SQLiteProvider) ClientCategoryBreakdown(ctx context.Context, clientIDs []int64) ([]ClientCategoryStat, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.name, COALESCE(cat.name, ''), COALESCE(SUM(si.quantity), 0) AS qty
		FROM clients c
		JOIN sales s ON s.client_id = c.id
		JOIN sale_items si ON si.sale_id = s.id
		JOIN products p ON p.id = si.product_id
		LEFT JOIN categories cat ON cat.id = p.category_id
		WHERE c.id IN (%s)
		GROUP BY c.id, c.name, cat.id, cat.name
		ORDER BY c.id, qty DESC
	`, int64Placeholders(len(clientIDs)))

	rows, err := p.db.QueryContext(ctx, query, int64Args(clientIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query client category breakdown: %w", err)
	}
	defer rows.Close()

	var stats []ClientCategoryStat
	for rows.Next() {
		var cc ClientCategoryStat
		if err := rows.Scan(&cc.ClientID, &cc.ClientName, &cc.Category, &cc.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan client category stat: %w", err)
		}
		stats = append(stats, cc)
	}

	return stats, rows.Err()
}
