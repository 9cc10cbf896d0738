package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStock_RoundTripRestoresQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Pencil HB", 40, 5, "0.80")

	q, err := f.ledger.AdjustStock(ctx, p.ID, -15, "")
	require.NoError(t, err)
	assert.Equal(t, 25, q)

	q, err = f.ledger.AdjustStock(ctx, p.ID, 15, models.ReasonRestock)
	require.NoError(t, err)
	assert.Equal(t, 40, q)

	history, total, err := f.ledger.History(ctx, p.ID, repo.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, history, 2)
	assert.Equal(t, 15, history[0].Delta)
	assert.Equal(t, models.ReasonRestock, history[0].Reason)
	assert.Equal(t, -15, history[1].Delta)
	assert.Equal(t, models.ReasonAdjustment, history[1].Reason)
}

func TestAdjustStock_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Crayons", 3, 1, "4.00")

	_, err := f.ledger.AdjustStock(ctx, 9999, 1, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.ledger.AdjustStock(ctx, p.ID, 0, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.ledger.AdjustStock(ctx, p.ID, -4, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.ledger.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	_, total, err := f.ledger.History(ctx, p.ID, repo.MovementFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "rejected adjustments must not leave movements")
}

func TestAdjustStock_ConcurrentAdjustmentsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Copy paper", 1000, 0, "5.00")

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.AdjustStock(ctx, p.ID, -1, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	got, err := f.ledger.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000-workers, got.Quantity)

	_, total, err := f.ledger.History(ctx, p.ID, repo.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, workers, total)
}

func TestAdjustStock_ConcurrentDemandBeyondStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Stapler", 20, 0, "6.50")

	const workers = 35
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
		other     = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := f.ledger.AdjustStock(ctx, p.ID, -1, "")
			switch {
			case err == nil:
				if q < 0 {
					other <- fmt.Errorf("quantity went negative: %d", q)
				}
				succeeded.Add(1)
			case errors.Is(err, apperr.ErrValidation):
				rejected.Add(1)
			default:
				other <- err
			}
		}()
	}
	wg.Wait()
	close(other)
	for err := range other {
		t.Errorf("unexpected result: %v", err)
	}

	assert.EqualValues(t, 20, succeeded.Load())
	assert.EqualValues(t, workers-20, rejected.Load())

	got, err := f.ledger.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)

	_, total, err := f.ledger.History(ctx, p.ID, repo.MovementFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, succeeded.Load(), total, "one movement per successful adjustment")
}

func TestAdjustStock_RaisesAlertEveryTimeBelowThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Sticky notes", 12, 10, "1.20")

	_, err := f.ledger.AdjustStock(ctx, p.ID, -1, "")
	require.NoError(t, err)
	assert.Zero(t, f.publisher.count())

	_, err = f.ledger.AdjustStock(ctx, p.ID, -1, "")
	require.NoError(t, err)
	_, err = f.ledger.AdjustStock(ctx, p.ID, -1, "")
	require.NoError(t, err)

	alerts, err := f.ledger.ProductAlerts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Low stock for Sticky notes. Current stock: 9, minimum: 10", alerts[0].Message)
	assert.Equal(t, models.AlertLowStock, alerts[0].Kind)
	assert.Equal(t, 2, f.publisher.count())
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := f.product(t, "Compass", 0, 2, "3.00")
	plenty := f.product(t, "Protractor", 30, 2, "1.00")

	a, err := f.ledger.CheckAvailability(ctx, empty.ID)
	require.NoError(t, err)
	assert.False(t, a.Available)
	assert.True(t, a.NeedsRestock)

	a, err = f.ledger.CheckAvailability(ctx, plenty.ID)
	require.NoError(t, err)
	assert.True(t, a.Available)
	assert.False(t, a.NeedsRestock)
	assert.Equal(t, 30, a.Quantity)

	_, err = f.ledger.CheckAvailability(ctx, 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListLowStock_IncludesQuantityAtOrBelowThreshold(t *testing.T) {
	f := newFixture(t)
	low := f.product(t, "Highlighter", 5, 10, "1.50")
	f.product(t, "Binder", 50, 10, "6.00")

	products, err := f.ledger.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.CreateProduct(ctx, models.Product{Name: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.ledger.CreateProduct(ctx, models.Product{Name: "Ink", Price: decimal.Zero})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	missing := 77
	_, err = f.ledger.CreateProduct(ctx, models.Product{Name: "Ink", Price: decimal.NewFromInt(1), SupplierID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f.product(t, "Ink", 1, 0, "2.00")
	_, err = f.ledger.CreateProduct(ctx, models.Product{Name: "Ink", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateProduct_RecordsQuantityChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Paper clips", 100, 20, "0.99")

	p.Quantity = 15
	p.Description = "box of 100"
	updated, err := f.ledger.UpdateProduct(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.Quantity)
	assert.Equal(t, "box of 100", updated.Description)

	history, _, err := f.ledger.History(ctx, p.ID, repo.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, -85, history[0].Delta)
	assert.Equal(t, 1, f.publisher.count())
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Cutter", 10, 1, "2.00")

	_, err := f.ledger.AdjustStock(ctx, p.ID, 2, "")
	require.NoError(t, err)

	require.NoError(t, f.ledger.DeleteProduct(ctx, p.ID))
	_, err = f.ledger.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.ledger.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteProduct_WithSaleLineFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Watercolors", 10, 1, "9.00")

	_, err := f.sales.RegisterSale(ctx, NewSale{Lines: []SaleLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	err = f.ledger.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.ledger.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)
	assert.Equal(t, p.Name, got.Name)
}

func TestHistory_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.ledger.History(context.Background(), 404, repo.MovementFilter{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
