package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	queryTimeout   = 3 * time.Second
	unboundedLimit = "9223372036854775807"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrSupplierNotFound      = errors.New("supplier not found")
	ErrSaleNotFound          = errors.New("sale not found")
	ErrReceiptNotFound       = errors.New("receipt not found")
	ErrOrderNotFound         = errors.New("purchase order not found")
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrInvalidQuantityChange = errors.New("quantity cannot be negative")
	ErrDuplicatedValueUnique = errors.New("duplicated value for unique field")
)

// Repos groups the repositories bound to one DBTX.
type Repos struct {
	Products  ProductRepository
	Movements MovementRepository
	Alerts    AlertRepository
	Sales     SaleRepository
	Payments  PaymentRepository
	Suppliers SupplierRepository
	Orders    OrderRepository
	Invoices  InvoiceRepository
	Metrics   MetricsRepository
}

func newRepos(db DBTX) *Repos {
	return &Repos{
		Products:  NewSQLProductRepository(db),
		Movements: NewSQLMovementRepository(db),
		Alerts:    NewSQLAlertRepository(db),
		Sales:     NewSQLSaleRepository(db),
		Payments:  NewSQLPaymentRepository(db),
		Suppliers: NewSQLSupplierRepository(db),
		Orders:    NewSQLOrderRepository(db),
		Invoices:  NewSQLInvoiceRepository(db),
		Metrics:   NewSQLMetricsRepository(db),
	}
}

// Store exposes the repositories bound to the connection pool and runs
// multi-statement writes in a transaction.
type Store struct {
	*Repos
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{Repos: newRepos(db), db: db}
}

// InTx runs fn with repositories bound to a new transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
// fn must not use the Store's own repositories: with SQLite the pool holds one
// connection and the transaction owns it.
func (s *Store) InTx(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
