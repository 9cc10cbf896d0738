package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rogerio-castellano/stationery-tracker/internal/db"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (p *recordingPublisher) Publish(_ context.Context, a models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

type fixture struct {
	store     *repo.Store
	publisher *recordingPublisher
	ledger    *LedgerService
	sales     *SaleService
	suppliers *SupplierService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.Connect(db.DriverSQLite, filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	store := repo.NewStore(conn)
	pub := &recordingPublisher{}
	ledger := NewLedgerService(store, pub)
	return &fixture{
		store:     store,
		publisher: pub,
		ledger:    ledger,
		sales:     NewSaleService(store, ledger),
		suppliers: NewSupplierService(store, ledger),
	}
}

func (f *fixture) product(t *testing.T, name string, qty, threshold int, price string) models.Product {
	t.Helper()

	p, err := f.ledger.CreateProduct(context.Background(), models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		Threshold: threshold,
	})
	require.NoError(t, err)
	return p
}
