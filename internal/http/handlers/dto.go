package handlers

import (
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/backup"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Threshold   int             `json:"threshold" validate:"gte=0"`
	SupplierID  *int            `json:"supplier_id,omitempty"`
}

func (req ProductRequest) toModel(id int) models.Product {
	return models.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Threshold:   req.Threshold,
		SupplierID:  req.SupplierID,
	}
}

type ProductResponse struct {
	Id          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Threshold   int             `json:"threshold"`
	SupplierID  *int            `json:"supplier_id,omitempty"`
	LowStock    bool            `json:"low_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		Id:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Threshold:   p.Threshold,
		SupplierID:  p.SupplierID,
		LowStock:    p.LowStock(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type ProductsSearchResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta"`
}

type QuantityAdjustmentRequest struct {
	Delta  int    `json:"delta" validate:"required"` // can be positive or negative
	Reason string `json:"reason" validate:"omitempty,oneof=adjustment restock"`
}

type QuantityAdjustmentResult struct {
	ProductID int  `json:"product_id"`
	Quantity  int  `json:"quantity"`
	LowStock  bool `json:"low_stock"`
}

type MovementsSearchResult struct {
	Data []models.Movement `json:"data"`
	Meta Meta              `json:"meta"`
}

type ImportProductsResult struct {
	ImportedProductsCount int          `json:"imported"`
	Errors                []FieldError `json:"errors"`
}

type AlertEvaluation struct {
	ProductID int  `json:"product_id"`
	Raised    bool `json:"raised"`
}

type SaleLineRequest struct {
	ProductID int              `json:"product_id" validate:"gt=0"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type SaleRequest struct {
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string            `json:"customer_phone"`
	PaymentType   string            `json:"payment_type"`
	Notes         string            `json:"notes"`
	Lines         []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type SaleAvailabilityRequest struct {
	Lines []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type SaleUpdateRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string `json:"customer_phone"`
	PaymentType   string `json:"payment_type"`
	Notes         string `json:"notes"`
}

type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Method    string          `json:"method" validate:"required"`
	Reference string          `json:"reference"`
}

type SupplierRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name"`
	Address     string `json:"address"`
	Email       string `json:"email" validate:"omitempty,email"`
	TaxID       string `json:"tax_id"`
	CompanyName string `json:"company_name" validate:"required"`
	Phone       string `json:"phone"`
}

func (req SupplierRequest) toModel(id int) models.Supplier {
	return models.Supplier{
		ID:          id,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Address:     req.Address,
		Email:       req.Email,
		TaxID:       req.TaxID,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	}
}

type OrderLineRequest struct {
	ProductID *int            `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type OrderRequest struct {
	SupplierID int                `json:"supplier_id" validate:"gt=0"`
	Lines      []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed received cancelled"`
}

type InvoiceRequest struct {
	OrderID    int             `json:"order_id" validate:"gt=0"`
	SupplierID int             `json:"supplier_id" validate:"gt=0"`
	Total      decimal.Decimal `json:"total" validate:"gte=0"`
}

type InvoicePaymentRequest struct {
	SupplierID int             `json:"supplier_id" validate:"gt=0"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	Method     string          `json:"method"`
}

type PruneResult struct {
	Deleted int `json:"deleted"`
	Days    int `json:"days"`
}

type BackupStatus struct {
	Dir           string         `json:"dir"`
	Count         int            `json:"count"`
	Latest        *backup.Record `json:"latest,omitempty"`
	RetentionDays int            `json:"retention_days"`
	Scheduler     backup.Status  `json:"scheduler"`
}
