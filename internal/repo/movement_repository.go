package repo

import (
	"context"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

type MovementRepository interface {
	Log(ctx context.Context, m models.Movement) (models.Movement, error)
	GetByProductID(ctx context.Context, productID int, mf MovementFilter) ([]models.Movement, int, error)
	GetBySale(ctx context.Context, saleID int) ([]models.Movement, error)
	DeleteBySale(ctx context.Context, saleID int) (int64, error)
	DeleteByProduct(ctx context.Context, productID int) error
}
