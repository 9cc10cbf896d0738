package models

import "time"

// Supplier keeps the contact person's profile inline with the company data.
type Supplier struct {
	ID          int       `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Address     string    `json:"address"`
	Email       string    `json:"email"`
	TaxID       string    `json:"tax_id"`
	CompanyName string    `json:"company_name"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
}
