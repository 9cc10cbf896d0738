package repo

import (
	"context"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

type AlertRepository interface {
	Create(ctx context.Context, a models.Alert) (models.Alert, error)
	List(ctx context.Context, limit int) ([]models.Alert, error)
	ListByProduct(ctx context.Context, productID int) ([]models.Alert, error)
}

type SQLAlertRepository struct {
	db DBTX
}

func NewSQLAlertRepository(db DBTX) *SQLAlertRepository {
	return &SQLAlertRepository{db: db}
}

func (r *SQLAlertRepository) Create(ctx context.Context, a models.Alert) (models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if a.Kind == "" {
		a.Kind = models.AlertLowStock
	}
	a.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO alerts (message, kind, product_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		a.Message, a.Kind, a.ProductID, a.CreatedAt).Scan(&a.ID)
	return a, err
}

// List returns the most recent alerts first.
func (r *SQLAlertRepository) List(ctx context.Context, limit int) ([]models.Alert, error) {
	return r.query(ctx, `SELECT id, message, kind, product_id, created_at FROM alerts ORDER BY created_at DESC, id DESC LIMIT $1`,
		clamp(limit, 1, maxLimit))
}

func (r *SQLAlertRepository) ListByProduct(ctx context.Context, productID int) ([]models.Alert, error) {
	return r.query(ctx, `SELECT id, message, kind, product_id, created_at FROM alerts WHERE product_id = $1 ORDER BY created_at DESC, id DESC`,
		productID)
}

func (r *SQLAlertRepository) query(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Message, &a.Kind, &a.ProductID, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
