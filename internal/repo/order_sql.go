package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	Create(ctx context.Context, o models.PurchaseOrder) (models.PurchaseOrder, error)
	AddItem(ctx context.Context, item models.OrderItem) error
	GetByID(ctx context.Context, id int) (models.PurchaseOrder, error)
	GetAll(ctx context.Context) ([]models.PurchaseOrder, error)
	Items(ctx context.Context, orderID int) ([]models.OrderItem, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	Delete(ctx context.Context, id int) error
	DeleteItems(ctx context.Context, orderID int) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	GetAll(ctx context.Context) ([]models.Invoice, error)
	GetByID(ctx context.Context, id int) (models.Invoice, error)
	UpdateStatus(ctx context.Context, id int, status string) error
	CountByOrder(ctx context.Context, orderID int) (int, error)
}

const orderSelect = `
	SELECT o.id, o.ordered_at, o.status, o.supplier_id, s.company_name
	FROM purchase_orders o
	JOIN suppliers s ON o.supplier_id = s.id`

type SQLOrderRepository struct {
	db DBTX
}

func NewSQLOrderRepository(db DBTX) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

func scanOrder(row rowScanner) (models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	err := row.Scan(&o.ID, &o.OrderedAt, &o.Status, &o.SupplierID, &o.CompanyName)
	return o, err
}

func (r *SQLOrderRepository) Create(ctx context.Context, o models.PurchaseOrder) (models.PurchaseOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if o.OrderedAt.IsZero() {
		o.OrderedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO purchase_orders (ordered_at, status, supplier_id) VALUES ($1, $2, $3) RETURNING id`,
		o.OrderedAt, o.Status, o.SupplierID).Scan(&o.ID)
	return o, err
}

func (r *SQLOrderRepository) AddItem(ctx context.Context, item models.OrderItem) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
	return err
}

// GetByID returns the order with its lines and total.
func (r *SQLOrderRepository) GetByID(ctx context.Context, id int) (models.PurchaseOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PurchaseOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	if err := r.withItems(ctx, &o); err != nil {
		return models.PurchaseOrder{}, err
	}
	return o, nil
}

// GetAll returns every order, newest first, with lines and totals.
func (r *SQLOrderRepository) GetAll(ctx context.Context) ([]models.PurchaseOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, orderSelect+` ORDER BY o.ordered_at DESC, o.id DESC`)
	if err != nil {
		return nil, err
	}

	orders := []models.PurchaseOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// lines are loaded after the cursor is closed: SQLite runs on one connection
	for i := range orders {
		if err := r.withItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *SQLOrderRepository) withItems(ctx context.Context, o *models.PurchaseOrder) error {
	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Items = items
	o.Total = decimal.Zero
	for _, it := range items {
		o.Total = o.Total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return nil
}

func (r *SQLOrderRepository) Items(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SQLOrderRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE purchase_orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *SQLOrderRepository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *SQLOrderRepository) DeleteItems(ctx context.Context, orderID int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

const invoiceSelect = `
	SELECT i.id, i.issued_at, i.total, i.status, i.order_id, i.supplier_id, s.company_name
	FROM invoices i
	JOIN suppliers s ON i.supplier_id = s.id`

type SQLInvoiceRepository struct {
	db DBTX
}

func NewSQLInvoiceRepository(db DBTX) *SQLInvoiceRepository {
	return &SQLInvoiceRepository{db: db}
}

func scanInvoice(row rowScanner) (models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.IssuedAt, &inv.Total, &inv.Status, &inv.OrderID, &inv.SupplierID, &inv.CompanyName)
	return inv, err
}

func (r *SQLInvoiceRepository) Create(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now().UTC()
	}
	if inv.Status == "" {
		inv.Status = models.InvoicePending
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO invoices (issued_at, total, status, order_id, supplier_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		inv.IssuedAt, inv.Total, inv.Status, inv.OrderID, inv.SupplierID).Scan(&inv.ID)
	return inv, err
}

func (r *SQLInvoiceRepository) GetAll(ctx context.Context) ([]models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, invoiceSelect+` ORDER BY i.issued_at DESC, i.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *SQLInvoiceRepository) GetByID(ctx context.Context, id int) (models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (r *SQLInvoiceRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE invoices SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *SQLInvoiceRepository) CountByOrder(ctx context.Context, orderID int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE order_id = $1`, orderID).Scan(&n)
	return n, err
}
