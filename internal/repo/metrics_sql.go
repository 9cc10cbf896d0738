package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

type SQLMetricsRepository struct {
	db DBTX
}

func NewSQLMetricsRepository(db DBTX) *SQLMetricsRepository {
	return &SQLMetricsRepository{db: db}
}

func (r *SQLMetricsRepository) GetDashboardMetrics(ctx context.Context) (Metrics, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m Metrics
	counters := []struct {
		dest  any
		query string
		args  []any
	}{
		{&m.TotalProducts, `SELECT COUNT(*) FROM products`, nil},
		{&m.TotalMovements, `SELECT COUNT(*) FROM movements`, nil},
		{&m.LowStockCount, `SELECT COUNT(*) FROM products WHERE quantity <= threshold`, nil},
		{&m.TotalSales, `SELECT COUNT(*) FROM sales`, nil},
		{&m.SalesRevenue, `SELECT COALESCE(SUM(total), 0) FROM sales`, nil},
		{&m.PendingOrders, `SELECT COUNT(*) FROM purchase_orders WHERE status IN ($1, $2)`, []any{models.OrderPending, models.OrderConfirmed}},
		{&m.UnpaidInvoices, `SELECT COUNT(*) FROM invoices WHERE status <> $1`, []any{models.InvoicePaid}},
	}
	for _, c := range counters {
		if err := r.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return Metrics{}, fmt.Errorf("dashboard metrics: %w", err)
		}
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT p.name, COUNT(*) AS cnt
		FROM movements m
		JOIN products p ON m.product_id = p.id
		GROUP BY p.name
		ORDER BY cnt DESC, p.name
		LIMIT 1
	`).Scan(&m.MostMovedProduct.Name, &m.MostMovedProduct.MovementCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Metrics{}, fmt.Errorf("most moved product: %w", err)
	}
	return m, nil
}
