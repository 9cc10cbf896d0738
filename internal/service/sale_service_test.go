package service

import (
	"context"
	"testing"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pen := f.product(t, "Gel pen", 20, 2, "1.25")
	pad := f.product(t, "Drawing pad", 5, 4, "7.50")
	special := decimal.RequireFromString("6.00")

	sale, err := f.sales.RegisterSale(ctx, NewSale{
		CustomerName: "Ana",
		Lines: []SaleLine{
			{ProductID: pen.ID, Quantity: 2},
			{ProductID: pad.ID, Quantity: 1, UnitPrice: &special},
			{ProductID: pen.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("11.00")), "total was %s", sale.Total)
	assert.Equal(t, "cash", sale.PaymentType)

	got, err := f.ledger.GetProduct(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, got.Quantity)

	movements, err := f.store.Movements.GetBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, models.ReasonSale, m.Reason)
		require.NotNil(t, m.SaleID)
		assert.Equal(t, sale.ID, *m.SaleID)
	}

	receipt, err := f.sales.GetReceipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, receipt.Number, 36)
	assert.True(t, receipt.Total.Equal(sale.Total))

	// the drawing pad went from 5 to 4 with a threshold of 4
	assert.Equal(t, 1, f.publisher.count())
}

func TestRegisterSale_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pen := f.product(t, "Fountain pen", 10, 1, "15.00")
	ink := f.product(t, "Ink cartridge", 1, 1, "2.00")

	_, err := f.sales.RegisterSale(ctx, NewSale{Lines: []SaleLine{
		{ProductID: pen.ID, Quantity: 2},
		{ProductID: ink.ID, Quantity: 3},
	}})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Message(err), "Ink cartridge")

	got, err := f.ledger.GetProduct(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	sales, err := f.sales.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCheckSaleAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok := f.product(t, "Chalk", 10, 1, "0.50")
	short := f.product(t, "Board eraser", 1, 1, "3.00")

	report, err := f.sales.CheckAvailability(ctx, []SaleLine{
		{ProductID: ok.ID, Quantity: 10},
		{ProductID: short.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.False(t, report.Available)
	require.Len(t, report.Unavailable, 1)
	assert.Equal(t, UnavailableLine{ProductID: short.ID, Name: "Board eraser", Requested: 2, InStock: 1}, report.Unavailable[0])

	_, err = f.sales.CheckAvailability(ctx, []SaleLine{{ProductID: ok.ID, Quantity: 0}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.sales.CheckAvailability(ctx, []SaleLine{{ProductID: 999, Quantity: 1}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteSale_RestoresStockAndRemovesMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Product A", 10, 1, "2.00")

	sale, err := f.sales.RegisterSale(ctx, NewSale{Lines: []SaleLine{{ProductID: a.ID, Quantity: 3}}})
	require.NoError(t, err)
	_, err = f.sales.AddPayment(ctx, sale.ID, decimal.NewFromInt(6), "card", "ref-1")
	require.NoError(t, err)

	got, _ := f.ledger.GetProduct(ctx, a.ID)
	require.Equal(t, 7, got.Quantity)

	require.NoError(t, f.sales.DeleteSale(ctx, sale.ID))

	got, err = f.ledger.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	movements, err := f.store.Movements.GetBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)

	_, total, err := f.ledger.History(ctx, a.ID, repo.MovementFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = f.sales.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.sales.GetReceipt(ctx, sale.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// with the sale gone the product can be deleted
	assert.NoError(t, f.ledger.DeleteProduct(ctx, a.ID))
}

func TestUpdateSaleAndPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Envelope", 100, 10, "0.10")

	sale, err := f.sales.RegisterSale(ctx, NewSale{Lines: []SaleLine{{ProductID: p.ID, Quantity: 10}}})
	require.NoError(t, err)

	sale.CustomerName = "Luis"
	sale.PaymentType = "card"
	updated, err := f.sales.UpdateSale(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, "Luis", updated.CustomerName)
	assert.Equal(t, "card", updated.PaymentType)
	assert.Len(t, updated.Items, 1)

	_, err = f.sales.AddPayment(ctx, sale.ID, decimal.Zero, "cash", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.sales.AddPayment(ctx, 999, decimal.NewFromInt(1), "cash", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.sales.AddPayment(ctx, sale.ID, decimal.NewFromInt(1), "cash", "")
	require.NoError(t, err)
	payments, err := f.sales.ListPayments(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = f.sales.UpdateSale(ctx, models.Sale{ID: 999})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
