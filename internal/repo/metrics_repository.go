package repo

import (
	"context"

	"github.com/shopspring/decimal"
)

type MostMovedProduct struct {
	Name          string `json:"name"`
	MovementCount int    `json:"movement_count"`
}

type Metrics struct {
	TotalProducts    int              `json:"total_products"`
	TotalMovements   int              `json:"total_movements"`
	LowStockCount    int              `json:"low_stock_count"`
	TotalSales       int              `json:"total_sales"`
	SalesRevenue     decimal.Decimal  `json:"sales_revenue"`
	PendingOrders    int              `json:"pending_orders"`
	UnpaidInvoices   int              `json:"unpaid_invoices"`
	MostMovedProduct MostMovedProduct `json:"most_moved_product"`
}

type MetricsRepository interface {
	GetDashboardMetrics(ctx context.Context) (Metrics, error)
}
