package repo

import (
	"context"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

// ProductRepository defines the interface for product data operations.
type ProductRepository interface {
	Create(ctx context.Context, product models.Product) (models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (models.Product, error)
	GetByName(ctx context.Context, name string) (models.Product, error)
	Update(ctx context.Context, product models.Product) (models.Product, error)
	Delete(ctx context.Context, id int) error
	Filter(ctx context.Context, pf ProductFilter) ([]models.Product, int, error)
	AdjustQuantity(ctx context.Context, productID int, delta int) (models.Product, error)
	ListLowStock(ctx context.Context) ([]models.Product, error)
	CountSaleItems(ctx context.Context, productID int) (int, error)
	CountOrderItems(ctx context.Context, productID int) (int, error)
	CountBySupplier(ctx context.Context, supplierID int) (int, error)
}
