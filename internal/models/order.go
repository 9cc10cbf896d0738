package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderReceived  = "received"
	OrderCancelled = "cancelled"

	InvoicePending = "pending"
	InvoicePaid    = "paid"
)

type PurchaseOrder struct {
	ID          int             `json:"id"`
	OrderedAt   time.Time       `json:"ordered_at"`
	Status      string          `json:"status"`
	SupplierID  int             `json:"supplier_id"`
	CompanyName string          `json:"company_name,omitempty"`
	Items       []OrderItem     `json:"items"`
	Total       decimal.Decimal `json:"total"`
}

type OrderItem struct {
	OrderID     int             `json:"order_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type Invoice struct {
	ID          int             `json:"id"`
	IssuedAt    time.Time       `json:"issued_at"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	OrderID     int             `json:"order_id"`
	SupplierID  int             `json:"supplier_id"`
	CompanyName string          `json:"company_name,omitempty"`
}
