package inventory

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates the business tables if they do not exist. Production
// deployments point the provider at an existing database; this exists for the
// seed command and for tests.
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			category_id INTEGER REFERENCES categories(id),
			cost_price NUMERIC NOT NULL DEFAULT 0,
			sale_price NUMERIC NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS warehouses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER REFERENCES clients(id),
			total NUMERIC NOT NULL DEFAULT 0,
			sale_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_id INTEGER NOT NULL REFERENCES sales(id),
			product_id INTEGER NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL,
			subtotal NUMERIC NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			supplier_id INTEGER REFERENCES suppliers(id),
			total NUMERIC NOT NULL DEFAULT 0,
			purchase_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id INTEGER NOT NULL REFERENCES products(id),
			warehouse_id INTEGER REFERENCES warehouses(id),
			movement_type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			moved_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Seed populates a demo inventory so the assistant has something to talk
// about out of the box. Safe to run only against a fresh database.
func Seed(db *sql.DB) error {
	statements := []string{
		`INSERT INTO categories (name, description) VALUES
			('Electrónica', 'Equipos y accesorios electrónicos'),
			('Oficina', 'Mobiliario y suministros de oficina'),
			('Hogar', 'Artículos para el hogar')`,
		`INSERT INTO products (name, description, category_id, cost_price, sale_price, stock) VALUES
			('Laptop Pro 14', 'Portátil de 14 pulgadas', 1, 850.00, 1299.99, 12),
			('Monitor 27"', 'Monitor IPS 27 pulgadas', 1, 180.00, 289.50, 25),
			('Teclado mecánico', 'Teclado mecánico retroiluminado', 1, 35.00, 79.90, 4),
			('Silla ergonómica', 'Silla de oficina ajustable', 2, 120.00, 249.00, 8),
			('Escritorio compacto', 'Escritorio de 120cm', 2, 95.00, 189.00, 3),
			('Lámpara LED', 'Lámpara de escritorio regulable', 3, 12.00, 29.90, 40),
			('Cafetera', 'Cafetera de goteo 1.5L', 3, 28.00, 59.90, 0)`,
		`INSERT INTO clients (name, email) VALUES
			('Comercial Andina', 'compras@andina.example'),
			('Distribuidora Sol', 'ventas@sol.example'),
			('Oficinas Modernas', 'contacto@modernas.example')`,
		`INSERT INTO suppliers (name, email) VALUES
			('TecnoImport', 'pedidos@tecnoimport.example'),
			('Muebles del Norte', 'info@norte.example')`,
		`INSERT INTO warehouses (name, location) VALUES
			('Almacén Central', 'Av. Industrial 450'),
			('Depósito Norte', 'Km 12 Carretera Norte')`,
		`INSERT INTO sales (client_id, total, sale_date) VALUES
			(1, 2599.98, '2025-07-02 10:15:00'),
			(2, 868.50, '2025-07-15 16:40:00'),
			(1, 249.00, '2025-08-01 09:05:00'),
			(3, 139.70, '2025-08-10 12:30:00')`,
		`INSERT INTO sale_items (sale_id, product_id, quantity, subtotal) VALUES
			(1, 1, 2, 2599.98),
			(2, 2, 3, 868.50),
			(3, 4, 1, 249.00),
			(4, 6, 3, 89.70),
			(4, 3, 1, 50.00)`,
		`INSERT INTO purchases (supplier_id, total, purchase_date) VALUES
			(1, 4250.00, '2025-06-20 11:00:00'),
			(2, 1180.00, '2025-07-05 14:20:00')`,
		`INSERT INTO movements (product_id, warehouse_id, movement_type, quantity, moved_at) VALUES
			(1, 1, 'entrada', 15, '2025-06-21 08:00:00'),
			(2, 1, 'entrada', 30, '2025-06-21 08:10:00'),
			(1, 2, 'traslado', 5, '2025-07-01 10:00:00'),
			(6, 1, 'salida', 3, '2025-08-10 12:35:00')`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return nil
}
