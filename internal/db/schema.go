package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// schema uses {{pk}} for the auto-increment primary key, the only part that differs
// between PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id {{pk}},
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		tax_id TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id {{pk}},
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		threshold INTEGER NOT NULL DEFAULT 0,
		supplier_id INTEGER REFERENCES suppliers (id),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id {{pk}},
		sold_at TIMESTAMP NOT NULL,
		total NUMERIC(12,2) NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		customer_name TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		payment_type TEXT NOT NULL DEFAULT 'cash',
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		sale_id INTEGER NOT NULL REFERENCES sales (id),
		product_id INTEGER NOT NULL REFERENCES products (id),
		quantity INTEGER NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (sale_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id {{pk}},
		ordered_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		supplier_id INTEGER NOT NULL REFERENCES suppliers (id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id INTEGER NOT NULL REFERENCES purchase_orders (id),
		product_id INTEGER NOT NULL REFERENCES products (id),
		quantity INTEGER NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		id {{pk}},
		product_id INTEGER NOT NULL REFERENCES products (id),
		delta INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT 'adjustment',
		sale_id INTEGER REFERENCES sales (id),
		order_id INTEGER REFERENCES purchase_orders (id),
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_product_created ON movements (product_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id {{pk}},
		message TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'low_stock',
		product_id INTEGER REFERENCES products (id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id {{pk}},
		issued_at TIMESTAMP NOT NULL,
		total NUMERIC(12,2) NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		order_id INTEGER NOT NULL REFERENCES purchase_orders (id),
		supplier_id INTEGER NOT NULL REFERENCES suppliers (id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id {{pk}},
		amount NUMERIC(12,2) NOT NULL,
		paid_at TIMESTAMP NOT NULL,
		method TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'completed',
		sale_id INTEGER REFERENCES sales (id),
		order_id INTEGER REFERENCES purchase_orders (id)
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id {{pk}},
		number TEXT NOT NULL UNIQUE,
		issued_at TIMESTAMP NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		total NUMERIC(12,2) NOT NULL,
		kind TEXT NOT NULL DEFAULT 'sale',
		sale_id INTEGER NOT NULL REFERENCES sales (id)
	)`,
}

// Migrate creates the tables that do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == DriverPostgres {
		pk = "SERIAL PRIMARY KEY"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, strings.ReplaceAll(stmt, "{{pk}}", pk)); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
