package repo

import (
	"context"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

type PaymentRepository interface {
	Create(ctx context.Context, p models.Payment) (models.Payment, error)
	ListBySale(ctx context.Context, saleID int) ([]models.Payment, error)
	DeleteBySale(ctx context.Context, saleID int) error
}

type SQLPaymentRepository struct {
	db DBTX
}

func NewSQLPaymentRepository(db DBTX) *SQLPaymentRepository {
	return &SQLPaymentRepository{db: db}
}

func (r *SQLPaymentRepository) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = "completed"
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO payments (amount, paid_at, method, reference, status, sale_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.Amount, p.PaidAt, p.Method, p.Reference, p.Status, p.SaleID, p.OrderID).Scan(&p.ID)
	return p, err
}

func (r *SQLPaymentRepository) ListBySale(ctx context.Context, saleID int) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, paid_at, method, reference, status, sale_id, order_id FROM payments WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Amount, &p.PaidAt, &p.Method, &p.Reference, &p.Status, &p.SaleID, &p.OrderID); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLPaymentRepository) DeleteBySale(ctx context.Context, saleID int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE sale_id = $1`, saleID)
	return err
}
