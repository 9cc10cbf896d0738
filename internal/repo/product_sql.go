package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

const productColumns = `id, name, description, price, quantity, threshold, supplier_id, created_at, updated_at`

type SQLProductRepository struct {
	db DBTX
}

func NewSQLProductRepository(db DBTX) *SQLProductRepository {
	return &SQLProductRepository{db: db}
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Threshold, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *SQLProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *SQLProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	query := `INSERT INTO products (name, description, price, quantity, threshold, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Price, p.Quantity, p.Threshold, p.SupplierID, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if isUniqueViolation(err) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	return p, err
}

func (r *SQLProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (r *SQLProductRepository) GetByID(ctx context.Context, id int) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *SQLProductRepository) GetByName(ctx context.Context, name string) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *SQLProductRepository) Update(ctx context.Context, p models.Product) (models.Product, error) {
	query := `UPDATE products SET name = $1, description = $2, price = $3, quantity = $4, threshold = $5, supplier_id = $6, updated_at = $7
		WHERE id = $8 RETURNING created_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p.UpdatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Price, p.Quantity, p.Threshold, p.SupplierID, p.UpdatedAt, p.ID).Scan(&p.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Product{}, ErrProductNotFound
	case isUniqueViolation(err):
		return models.Product{}, ErrDuplicatedValueUnique
	case err != nil:
		return models.Product{}, err
	}
	return p, nil
}

func (r *SQLProductRepository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *SQLProductRepository) Filter(ctx context.Context, pf ProductFilter) ([]models.Product, int, error) {
	conditions, args, argIdx := filterConditions(pf)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM products WHERE 1=1" + conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1` + conditions + " ORDER BY id"

	if pf.Limit != nil && *pf.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, *pf.Limit)
		argIdx++
	} else if pf.Offset != nil && *pf.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT clause and Postgres rejects LIMIT -1
		query += " LIMIT " + unboundedLimit
	}
	if pf.Offset != nil && *pf.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, *pf.Offset)
	}

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, totalCount, nil
}

func filterConditions(pf ProductFilter) (string, []any, int) {
	query := ""
	argIdx := 1
	args := []any{}

	if pf.Name != "" {
		query += fmt.Sprintf(" AND LOWER(name) LIKE $%d", argIdx)
		args = append(args, "%"+strings.ToLower(pf.Name)+"%")
		argIdx++
	}
	if pf.MinPrice != nil {
		query += fmt.Sprintf(" AND price >= $%d", argIdx)
		args = append(args, *pf.MinPrice)
		argIdx++
	}
	if pf.MaxPrice != nil {
		query += fmt.Sprintf(" AND price <= $%d", argIdx)
		args = append(args, *pf.MaxPrice)
		argIdx++
	}
	if pf.MinQty != nil {
		query += fmt.Sprintf(" AND quantity >= $%d", argIdx)
		args = append(args, *pf.MinQty)
		argIdx++
	}
	if pf.MaxQty != nil {
		query += fmt.Sprintf(" AND quantity <= $%d", argIdx)
		args = append(args, *pf.MaxQty)
		argIdx++
	}

	return query, args, argIdx
}

// AdjustQuantity applies delta in a single conditional statement, so concurrent
// adjustments of one product are serialized by the database and the quantity
// never goes below zero.
func (r *SQLProductRepository) AdjustQuantity(ctx context.Context, productID int, delta int) (models.Product, error) {
	query := `
		UPDATE products
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3 AND quantity + $1 >= 0
		RETURNING ` + productColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, delta, time.Now().UTC(), productID))
	if errors.Is(err, sql.ErrNoRows) {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE id = $1`, productID).Scan(&exists); err != nil {
			return models.Product{}, err
		}
		if exists == 0 {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, ErrInvalidQuantityChange
	}
	return p, err
}

func (r *SQLProductRepository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE quantity <= threshold ORDER BY quantity, id`)
}

func (r *SQLProductRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *SQLProductRepository) CountSaleItems(ctx context.Context, productID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM sale_items WHERE product_id = $1`, productID)
}

// CountOrderItems counts purchase order lines of any status that reference the product.
func (r *SQLProductRepository) CountOrderItems(ctx context.Context, productID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM order_items WHERE product_id = $1`, productID)
}

func (r *SQLProductRepository) CountBySupplier(ctx context.Context, supplierID int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE supplier_id = $1`, supplierID)
}
