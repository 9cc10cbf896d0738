package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

type SupplierRepository interface {
	Create(ctx context.Context, s models.Supplier) (models.Supplier, error)
	GetAll(ctx context.Context) ([]models.Supplier, error)
	GetByID(ctx context.Context, id int) (models.Supplier, error)
	Update(ctx context.Context, s models.Supplier) (models.Supplier, error)
	Delete(ctx context.Context, id int) error
	CountOrders(ctx context.Context, supplierID int) (int, error)
}

const supplierColumns = `id, first_name, last_name, address, email, tax_id, company_name, phone, created_at`

type SQLSupplierRepository struct {
	db DBTX
}

func NewSQLSupplierRepository(db DBTX) *SQLSupplierRepository {
	return &SQLSupplierRepository{db: db}
}

func scanSupplier(row rowScanner) (models.Supplier, error) {
	var s models.Supplier
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Address, &s.Email, &s.TaxID, &s.CompanyName, &s.Phone, &s.CreatedAt)
	return s, err
}

func (r *SQLSupplierRepository) Create(ctx context.Context, s models.Supplier) (models.Supplier, error) {
	query := `INSERT INTO suppliers (first_name, last_name, address, email, tax_id, company_name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	s.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, s.FirstName, s.LastName, s.Address, s.Email, s.TaxID, s.CompanyName, s.Phone, s.CreatedAt).Scan(&s.ID)
	return s, err
}

func (r *SQLSupplierRepository) GetAll(ctx context.Context) ([]models.Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY company_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := []models.Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *SQLSupplierRepository) GetByID(ctx context.Context, id int) (models.Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	s, err := scanSupplier(r.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Supplier{}, ErrSupplierNotFound
	}
	return s, err
}

func (r *SQLSupplierRepository) Update(ctx context.Context, s models.Supplier) (models.Supplier, error) {
	query := `UPDATE suppliers SET first_name = $1, last_name = $2, address = $3, email = $4, tax_id = $5, company_name = $6, phone = $7
		WHERE id = $8 RETURNING created_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, query, s.FirstName, s.LastName, s.Address, s.Email, s.TaxID, s.CompanyName, s.Phone, s.ID).Scan(&s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Supplier{}, ErrSupplierNotFound
	}
	return s, err
}

func (r *SQLSupplierRepository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

func (r *SQLSupplierRepository) CountOrders(ctx context.Context, supplierID int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE supplier_id = $1`, supplierID).Scan(&n)
	return n, err
}
