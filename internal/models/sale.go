package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const SaleCompleted = "completed"

type Sale struct {
	ID            int             `json:"id"`
	SoldAt        time.Time       `json:"sold_at"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	PaymentType   string          `json:"payment_type"`
	Notes         string          `json:"notes"`
	Items         []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	SaleID      int             `json:"sale_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is quantity times unit price.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Payment settles a sale or a purchase order.
type Payment struct {
	ID        int             `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	SaleID    *int            `json:"sale_id,omitempty"`
	OrderID   *int            `json:"order_id,omitempty"`
}

// Receipt is issued once per sale.
type Receipt struct {
	ID       int             `json:"id"`
	Number   string          `json:"number"`
	IssuedAt time.Time       `json:"issued_at"`
	Details  string          `json:"details"`
	Total    decimal.Decimal `json:"total"`
	Kind     string          `json:"kind"`
	SaleID   int             `json:"sale_id"`
	Items    []SaleItem      `json:"items,omitempty"`
}
