package models

import "time"

const AlertLowStock = "low_stock"

type Alert struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	ProductID *int      `json:"product_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
