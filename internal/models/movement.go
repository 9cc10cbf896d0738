package models

import "time"

const (
	ReasonAdjustment = "adjustment"
	ReasonSale       = "sale"
	ReasonRestock    = "restock"
)

// Movement is one append-only entry of the stock ledger.
type Movement struct {
	ID        int       `json:"id"`
	ProductID int       `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	SaleID    *int      `json:"sale_id,omitempty"`
	OrderID   *int      `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
