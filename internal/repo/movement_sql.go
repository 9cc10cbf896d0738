package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

const (
	movementColumns = `id, product_id, delta, reason, sale_id, order_id, created_at`
	maxLimit        = 1000
)

type SQLMovementRepository struct {
	db DBTX
}

func NewSQLMovementRepository(db DBTX) *SQLMovementRepository {
	return &SQLMovementRepository{db: db}
}

// Log appends a movement to the ledger.
func (r *SQLMovementRepository) Log(ctx context.Context, m models.Movement) (models.Movement, error) {
	query := `INSERT INTO movements (product_id, delta, reason, sale_id, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if m.Reason == "" {
		m.Reason = models.ReasonAdjustment
	}
	m.CreatedAt = time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, m.ProductID, m.Delta, m.Reason, m.SaleID, m.OrderID, m.CreatedAt).Scan(&m.ID); err != nil {
		return models.Movement{}, fmt.Errorf("failed to insert movement: %w", err)
	}
	return m, nil
}

// GetByProductID returns the movements of a product, newest first, together
// with the total number of movements matching the filter.
func (r *SQLMovementRepository) GetByProductID(ctx context.Context, productID int, mf MovementFilter) ([]models.Movement, int, error) {
	if mf.Offset != nil && *mf.Offset < 0 {
		return nil, 0, fmt.Errorf("offset must be non-negative")
	}

	whereClause, args := buildWhereClause(productID, mf)

	total, err := r.getTotal(ctx, whereClause, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	// limit = 0 asks for the count only
	if mf.Limit != nil && *mf.Limit == 0 {
		return []models.Movement{}, total, nil
	}
	if mf.Offset != nil && *mf.Offset >= total {
		return []models.Movement{}, total, nil
	}

	query, queryArgs := buildMainQuery(whereClause, args, mf)
	movements, err := r.queryMovements(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query: %w", err)
	}
	return movements, total, nil
}

func buildWhereClause(productID int, mf MovementFilter) (string, []any) {
	args := []any{productID}
	whereClause := "WHERE product_id = $1"
	argIndex := 2

	if mf.Since != nil {
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, mf.Since.UTC())
		argIndex++
	}
	if mf.Until != nil {
		whereClause += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, mf.Until.UTC())
	}
	return whereClause, args
}

func buildMainQuery(whereClause string, baseArgs []any, mf MovementFilter) (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM movements %s ORDER BY created_at DESC, id DESC", movementColumns, whereClause)
	args := append([]any{}, baseArgs...)
	argIndex := len(baseArgs) + 1

	hasOffset := mf.Offset != nil && *mf.Offset > 0
	switch {
	case mf.Limit != nil && *mf.Limit > 0:
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, clamp(*mf.Limit, 1, maxLimit))
		argIndex++
	case hasOffset:
		// SQLite only accepts OFFSET after a LIMIT clause and Postgres rejects LIMIT -1
		query += " LIMIT " + unboundedLimit
	}

	if hasOffset {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, *mf.Offset)
	}
	return query, args
}

func (r *SQLMovementRepository) getTotal(ctx context.Context, whereClause string, args []any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movements "+whereClause, args...).Scan(&total)
	return total, err
}

func (r *SQLMovementRepository) queryMovements(ctx context.Context, query string, args ...any) ([]models.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []models.Movement{}
	for rows.Next() {
		var m models.Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Reason, &m.SaleID, &m.OrderID, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *SQLMovementRepository) GetBySale(ctx context.Context, saleID int) ([]models.Movement, error) {
	return r.queryMovements(ctx, `SELECT `+movementColumns+` FROM movements WHERE sale_id = $1 ORDER BY id`, saleID)
}

func (r *SQLMovementRepository) DeleteBySale(ctx context.Context, saleID int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE sale_id = $1`, saleID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLMovementRepository) DeleteByProduct(ctx context.Context, productID int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE product_id = $1`, productID)
	return err
}
