package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product entity in the inventory system.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Threshold   int             `json:"threshold"`
	SupplierID  *int            `json:"supplier_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LowStock reports whether the quantity is at or below the threshold.
func (p Product) LowStock() bool {
	return p.Quantity <= p.Threshold
}
