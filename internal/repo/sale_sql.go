package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

type SaleRepository interface {
	Create(ctx context.Context, s models.Sale) (models.Sale, error)
	AddItem(ctx context.Context, item models.SaleItem) error
	GetByID(ctx context.Context, id int) (models.Sale, error)
	GetAll(ctx context.Context) ([]models.Sale, error)
	Items(ctx context.Context, saleID int) ([]models.SaleItem, error)
	Update(ctx context.Context, s models.Sale) (models.Sale, error)
	Delete(ctx context.Context, id int) error
	DeleteItems(ctx context.Context, saleID int) error
	CreateReceipt(ctx context.Context, r models.Receipt) (models.Receipt, error)
	GetReceipt(ctx context.Context, saleID int) (models.Receipt, error)
	DeleteReceipts(ctx context.Context, saleID int) error
}

const saleColumns = `id, sold_at, total, status, customer_name, customer_email, customer_phone, payment_type, notes`

type SQLSaleRepository struct {
	db DBTX
}

func NewSQLSaleRepository(db DBTX) *SQLSaleRepository {
	return &SQLSaleRepository{db: db}
}

func scanSale(row rowScanner) (models.Sale, error) {
	var s models.Sale
	err := row.Scan(&s.ID, &s.SoldAt, &s.Total, &s.Status, &s.CustomerName, &s.CustomerEmail, &s.CustomerPhone, &s.PaymentType, &s.Notes)
	return s, err
}

func (r *SQLSaleRepository) Create(ctx context.Context, s models.Sale) (models.Sale, error) {
	query := `INSERT INTO sales (sold_at, total, status, customer_name, customer_email, customer_phone, payment_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if s.SoldAt.IsZero() {
		s.SoldAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = models.SaleCompleted
	}
	err := r.db.QueryRowContext(ctx, query, s.SoldAt, s.Total, s.Status, s.CustomerName, s.CustomerEmail, s.CustomerPhone, s.PaymentType, s.Notes).Scan(&s.ID)
	return s, err
}

func (r *SQLSaleRepository) AddItem(ctx context.Context, item models.SaleItem) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sale_items (sale_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice)
	return err
}

func (r *SQLSaleRepository) GetByID(ctx context.Context, id int) (models.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	s, err := scanSale(r.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return models.Sale{}, err
	}

	s.Items, err = r.Items(ctx, id)
	return s, err
}

func (r *SQLSaleRepository) GetAll(ctx context.Context) ([]models.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sold_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *SQLSaleRepository) Items(ctx context.Context, saleID int) ([]models.SaleItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT si.sale_id, si.product_id, p.name, si.quantity, si.unit_price
		FROM sale_items si
		JOIN products p ON si.product_id = p.id
		WHERE si.sale_id = $1
		ORDER BY si.product_id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.SaleItem{}
	for rows.Next() {
		var it models.SaleItem
		if err := rows.Scan(&it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update rewrites the customer data, payment type and notes of a sale.
func (r *SQLSaleRepository) Update(ctx context.Context, s models.Sale) (models.Sale, error) {
	query := `UPDATE sales SET customer_name = $1, customer_email = $2, customer_phone = $3, payment_type = $4, notes = $5
		WHERE id = $6 RETURNING ` + saleColumns
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	updated, err := scanSale(r.db.QueryRowContext(ctx, query, s.CustomerName, s.CustomerEmail, s.CustomerPhone, s.PaymentType, s.Notes, s.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sale{}, ErrSaleNotFound
	}
	return updated, err
}

func (r *SQLSaleRepository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSaleNotFound
	}
	return nil
}

func (r *SQLSaleRepository) DeleteItems(ctx context.Context, saleID int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
	return err
}

func (r *SQLSaleRepository) CreateReceipt(ctx context.Context, rc models.Receipt) (models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if rc.IssuedAt.IsZero() {
		rc.IssuedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO receipts (number, issued_at, details, total, kind, sale_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		rc.Number, rc.IssuedAt, rc.Details, rc.Total, rc.Kind, rc.SaleID).Scan(&rc.ID)
	if isUniqueViolation(err) {
		return models.Receipt{}, ErrDuplicatedValueUnique
	}
	return rc, err
}

func (r *SQLSaleRepository) GetReceipt(ctx context.Context, saleID int) (models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rc models.Receipt
	err := r.db.QueryRowContext(ctx,
		`SELECT id, number, issued_at, details, total, kind, sale_id FROM receipts WHERE sale_id = $1 ORDER BY id LIMIT 1`, saleID).
		Scan(&rc.ID, &rc.Number, &rc.IssuedAt, &rc.Details, &rc.Total, &rc.Kind, &rc.SaleID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Receipt{}, ErrReceiptNotFound
	}
	if err != nil {
		return models.Receipt{}, err
	}

	rc.Items, err = r.Items(ctx, saleID)
	return rc, err
}

func (r *SQLSaleRepository) DeleteReceipts(ctx context.Context, saleID int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE sale_id = $1`, saleID)
	return err
}
