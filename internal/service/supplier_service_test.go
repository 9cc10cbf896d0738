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

func (f *fixture) supplier(t *testing.T, company string) models.Supplier {
	t.Helper()

	s, err := f.suppliers.CreateSupplier(context.Background(), models.Supplier{
		FirstName:   "Marta",
		LastName:    "Ruiz",
		CompanyName: company,
		Email:       "orders@example.com",
	})
	require.NoError(t, err)
	return s
}

func TestSupplierCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.suppliers.CreateSupplier(ctx, models.Supplier{FirstName: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	s := f.supplier(t, "Paper World")
	s.Phone = "555-0101"
	updated, err := f.suppliers.UpdateSupplier(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "555-0101", updated.Phone)

	all, err := f.suppliers.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, f.suppliers.DeleteSupplier(ctx, s.ID))
	_, err = f.suppliers.GetSupplier(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateOrder_PlaceholderProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "Office Supplies Co")
	existing := f.product(t, "Toner", 2, 1, "40.00")

	order, err := f.suppliers.CreateOrder(ctx, NewOrder{
		SupplierID: s.ID,
		Lines: []OrderLine{
			{ProductID: &existing.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("30.00")},
			{Name: "Laminating pouches", Quantity: 10, UnitPrice: decimal.RequireFromString("0.50")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "Office Supplies Co", order.CompanyName)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("155")), "total was %s", order.Total)

	placeholder, err := f.store.Products.GetByName(ctx, "Laminating pouches")
	require.NoError(t, err)
	assert.Equal(t, 0, placeholder.Quantity)
	assert.Equal(t, 1, placeholder.Threshold)
	require.NotNil(t, placeholder.SupplierID)
	assert.Equal(t, s.ID, *placeholder.SupplierID)

	err = f.suppliers.DeleteSupplier(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.suppliers.CreateOrder(ctx, NewOrder{SupplierID: 999, Lines: []OrderLine{{Name: "x", Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateOrder_PlaceholderNeedsPositivePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "Paper Mill")
	f.product(t, "Kraft paper", 0, 1, "3.00")

	_, err := f.suppliers.CreateOrder(ctx, NewOrder{
		SupplierID: s.ID,
		Lines:      []OrderLine{{Name: "Tracing paper", Quantity: 4}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.store.Products.GetByName(ctx, "Tracing paper")
	assert.ErrorIs(t, err, repo.ErrProductNotFound, "no placeholder is left behind")
	orders, err := f.suppliers.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	order, err := f.suppliers.CreateOrder(ctx, NewOrder{
		SupplierID: s.ID,
		Lines:      []OrderLine{{Name: "Kraft paper", Quantity: 4}},
	})
	require.NoError(t, err, "existing products may be ordered without a price")
	assert.Len(t, order.Items, 1)
}

func TestUpdateOrderStatus_ReceivingRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "Inks Ltd")
	p := f.product(t, "Stamp pad", 1, 3, "5.00")

	order, err := f.suppliers.CreateOrder(ctx, NewOrder{SupplierID: s.ID, Lines: []OrderLine{{ProductID: &p.ID, Quantity: 6}}})
	require.NoError(t, err)

	_, err = f.suppliers.UpdateOrderStatus(ctx, order.ID, models.OrderReceived)
	assert.ErrorIs(t, err, apperr.ErrValidation, "pending orders must be confirmed first")

	_, err = f.suppliers.UpdateOrderStatus(ctx, order.ID, models.OrderConfirmed)
	require.NoError(t, err)
	received, err := f.suppliers.UpdateOrderStatus(ctx, order.ID, models.OrderReceived)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReceived, received.Status)

	got, err := f.ledger.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)

	_, err = f.suppliers.UpdateOrderStatus(ctx, order.ID, models.OrderCancelled)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = f.suppliers.DeleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = f.ledger.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteOrder_Pending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "Folders Inc")

	order, err := f.suppliers.CreateOrder(ctx, NewOrder{SupplierID: s.ID, Lines: []OrderLine{{Name: "Folder", Quantity: 3}}})
	require.NoError(t, err)

	require.NoError(t, f.suppliers.DeleteOrder(ctx, order.ID))
	_, err = f.suppliers.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.supplier(t, "Rulers & Co")
	other := f.supplier(t, "Other")

	order, err := f.suppliers.CreateOrder(ctx, NewOrder{SupplierID: s.ID, Lines: []OrderLine{
		{Name: "Metal ruler", Quantity: 4, UnitPrice: decimal.RequireFromString("2.50")},
	}})
	require.NoError(t, err)

	_, err = f.suppliers.CreateInvoice(ctx, NewInvoice{OrderID: order.ID, SupplierID: other.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	inv, err := f.suppliers.CreateInvoice(ctx, NewInvoice{OrderID: order.ID, SupplierID: s.ID})
	require.NoError(t, err)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(10)), "total was %s", inv.Total)
	assert.Equal(t, models.InvoicePending, inv.Status)

	_, err = f.suppliers.PayInvoice(ctx, other.ID, inv.ID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	paid, err := f.suppliers.PayInvoice(ctx, s.ID, inv.ID, decimal.NewFromInt(10), "transfer")
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)

	_, err = f.suppliers.PayInvoice(ctx, s.ID, inv.ID, decimal.NewFromInt(10), "transfer")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	invoices, err := f.suppliers.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "Rulers & Co", invoices[0].CompanyName)
}
