package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderLine references an existing product by id or names a product that
// is created with no stock when the order is placed.
type OrderLine struct {
	ProductID *int
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type NewOrder struct {
	SupplierID int
	Lines      []OrderLine
}

type NewInvoice struct {
	OrderID    int
	SupplierID int
	Total      decimal.Decimal
}

var orderTransitions = map[string][]string{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderReceived, models.OrderCancelled},
}

type SupplierService struct {
	store  *repo.Store
	ledger *LedgerService
}

func NewSupplierService(store *repo.Store, ledger *LedgerService) *SupplierService {
	return &SupplierService{store: store, ledger: ledger}
}

func validateSupplier(s models.Supplier) error {
	var problems []string
	if strings.TrimSpace(s.FirstName) == "" {
		problems = append(problems, "first name is required")
	}
	if strings.TrimSpace(s.CompanyName) == "" {
		problems = append(problems, "company name is required")
	}
	if len(problems) > 0 {
		return apperr.Validation("%s", strings.Join(problems, "; "))
	}
	return nil
}

func (s *SupplierService) CreateSupplier(ctx context.Context, sup models.Supplier) (models.Supplier, error) {
	if err := validateSupplier(sup); err != nil {
		return models.Supplier{}, err
	}
	created, err := s.store.Suppliers.Create(ctx, sup)
	return created, translate(err, "create supplier")
}

func (s *SupplierService) GetSupplier(ctx context.Context, id int) (models.Supplier, error) {
	sup, err := s.store.Suppliers.GetByID(ctx, id)
	return sup, translate(err, "load supplier %d", id)
}

func (s *SupplierService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.store.Suppliers.GetAll(ctx)
	return suppliers, translate(err, "list suppliers")
}

func (s *SupplierService) UpdateSupplier(ctx context.Context, sup models.Supplier) (models.Supplier, error) {
	if err := validateSupplier(sup); err != nil {
		return models.Supplier{}, err
	}
	updated, err := s.store.Suppliers.Update(ctx, sup)
	return updated, translate(err, "update supplier %d", sup.ID)
}

// DeleteSupplier refuses suppliers still referenced by products or orders.
func (s *SupplierService) DeleteSupplier(ctx context.Context, id int) error {
	return s.store.InTx(ctx, func(r *repo.Repos) error {
		if _, err := r.Suppliers.GetByID(ctx, id); err != nil {
			return translate(err, "load supplier %d", id)
		}

		products, err := r.Products.CountBySupplier(ctx, id)
		if err != nil {
			return translate(err, "check products of supplier %d", id)
		}
		orders, err := r.Suppliers.CountOrders(ctx, id)
		if err != nil {
			return translate(err, "check orders of supplier %d", id)
		}
		if products > 0 || orders > 0 {
			return apperr.Validation("supplier %d is referenced by %d product(s) and %d order(s)", id, products, orders)
		}
		return translate(r.Suppliers.Delete(ctx, id), "delete supplier %d", id)
	})
}

// CreateOrder places a pending purchase order. Lines naming an unknown product
// create it with no stock, a threshold of one and the line's unit price, which
// must then be positive.
func (s *SupplierService) CreateOrder(ctx context.Context, req NewOrder) (models.PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return models.PurchaseOrder{}, apperr.Validation("at least one line is required")
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return models.PurchaseOrder{}, apperr.Validation("line quantities must be greater than zero")
		}
		if l.UnitPrice.IsNegative() {
			return models.PurchaseOrder{}, apperr.Validation("unit prices must not be negative")
		}
		if l.ProductID == nil && strings.TrimSpace(l.Name) == "" {
			return models.PurchaseOrder{}, apperr.Validation("each line needs a product id or a product name")
		}
	}

	var orderID int
	err := s.store.InTx(ctx, func(r *repo.Repos) error {
		if _, err := r.Suppliers.GetByID(ctx, req.SupplierID); err != nil {
			return translate(err, "load supplier %d", req.SupplierID)
		}

		order, err := r.Orders.Create(ctx, models.PurchaseOrder{SupplierID: req.SupplierID, Status: models.OrderPending})
		if err != nil {
			return translate(err, "create purchase order")
		}
		orderID = order.ID

		items := []models.OrderItem{}
		index := map[int]int{}
		for _, l := range req.Lines {
			productID, err := s.resolveProduct(ctx, r, req.SupplierID, l)
			if err != nil {
				return err
			}
			if i, ok := index[productID]; ok {
				items[i].Quantity += l.Quantity
				continue
			}
			index[productID] = len(items)
			items = append(items, models.OrderItem{OrderID: order.ID, ProductID: productID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		}

		for _, it := range items {
			if err := r.Orders.AddItem(ctx, it); err != nil {
				return translate(err, "add line for product %d", it.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return models.PurchaseOrder{}, err
	}

	log.Info().Int("order_id", orderID).Int("supplier_id", req.SupplierID).Msg("purchase order created")
	return s.GetOrder(ctx, orderID)
}

func (s *SupplierService) resolveProduct(ctx context.Context, r *repo.Repos, supplierID int, l OrderLine) (int, error) {
	if l.ProductID != nil {
		p, err := r.Products.GetByID(ctx, *l.ProductID)
		if err != nil {
			return 0, translate(err, "load product %d", *l.ProductID)
		}
		return p.ID, nil
	}

	name := strings.TrimSpace(l.Name)
	p, err := r.Products.GetByName(ctx, name)
	if err == nil {
		return p.ID, nil
	}
	if !errors.Is(err, repo.ErrProductNotFound) {
		return 0, translate(err, "look up product %q", name)
	}

	placeholder := models.Product{
		Name:       name,
		Price:      l.UnitPrice,
		Quantity:   0,
		Threshold:  1,
		SupplierID: &supplierID,
	}
	if !placeholder.Price.IsPositive() {
		return 0, apperr.Validation("unit price of new product %q must be greater than zero", name)
	}
	if err := validateProduct(placeholder); err != nil {
		return 0, err
	}
	p, err = r.Products.Create(ctx, placeholder)
	if err != nil {
		return 0, translate(err, "create product %q", name)
	}
	return p.ID, nil
}

func (s *SupplierService) GetOrder(ctx context.Context, id int) (models.PurchaseOrder, error) {
	o, err := s.store.Orders.GetByID(ctx, id)
	return o, translate(err, "load purchase order %d", id)
}

func (s *SupplierService) ListOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	orders, err := s.store.Orders.GetAll(ctx)
	return orders, translate(err, "list purchase orders")
}

// UpdateOrderStatus moves an order along pending → confirmed → received, or to
// cancelled from either open state. Receiving an order restocks every line.
func (s *SupplierService) UpdateOrderStatus(ctx context.Context, id int, status string) (models.PurchaseOrder, error) {
	var restocked []models.Product
	err := s.store.InTx(ctx, func(r *repo.Repos) error {
		order, err := r.Orders.GetByID(ctx, id)
		if err != nil {
			return translate(err, "load purchase order %d", id)
		}
		if !canTransition(order.Status, status) {
			return apperr.Validation("purchase order %d cannot go from %s to %s", id, order.Status, status)
		}

		if status == models.OrderReceived {
			for _, it := range order.Items {
				p, err := applyMovement(ctx, r, models.Movement{
					ProductID: it.ProductID,
					Delta:     it.Quantity,
					Reason:    models.ReasonRestock,
					OrderID:   &order.ID,
				})
				if err != nil {
					return err
				}
				restocked = append(restocked, p)
			}
		}
		return translate(r.Orders.UpdateStatus(ctx, id, status), "update purchase order %d", id)
	})
	if err != nil {
		return models.PurchaseOrder{}, err
	}

	for _, p := range restocked {
		s.ledger.alertAfterCommit(ctx, p)
	}
	log.Info().Int("order_id", id).Str("status", status).Msg("purchase order status changed")
	return s.GetOrder(ctx, id)
}

func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DeleteOrder removes a pending order that has not been invoiced.
func (s *SupplierService) DeleteOrder(ctx context.Context, id int) error {
	return s.store.InTx(ctx, func(r *repo.Repos) error {
		order, err := r.Orders.GetByID(ctx, id)
		if err != nil {
			return translate(err, "load purchase order %d", id)
		}
		if order.Status != models.OrderPending {
			return apperr.Validation("only pending orders can be deleted, order %d is %s", id, order.Status)
		}
		invoiced, err := r.Invoices.CountByOrder(ctx, id)
		if err != nil {
			return translate(err, "check invoices of order %d", id)
		}
		if invoiced > 0 {
			return apperr.Validation("purchase order %d has invoices", id)
		}

		if err := r.Orders.DeleteItems(ctx, id); err != nil {
			return translate(err, "delete lines of order %d", id)
		}
		return translate(r.Orders.Delete(ctx, id), "delete purchase order %d", id)
	})
}

// CreateInvoice bills an order. A zero total takes the order total.
func (s *SupplierService) CreateInvoice(ctx context.Context, req NewInvoice) (models.Invoice, error) {
	if req.Total.IsNegative() {
		return models.Invoice{}, apperr.Validation("total must not be negative")
	}

	order, err := s.store.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return models.Invoice{}, translate(err, "load purchase order %d", req.OrderID)
	}
	if order.SupplierID != req.SupplierID {
		return models.Invoice{}, apperr.Validation("purchase order %d does not belong to supplier %d", req.OrderID, req.SupplierID)
	}
	if order.Status == models.OrderCancelled {
		return models.Invoice{}, apperr.Validation("purchase order %d is cancelled", req.OrderID)
	}

	total := req.Total
	if total.IsZero() {
		total = order.Total
	}
	inv, err := s.store.Invoices.Create(ctx, models.Invoice{
		Total:      total,
		Status:     models.InvoicePending,
		OrderID:    order.ID,
		SupplierID: order.SupplierID,
	})
	if err != nil {
		return models.Invoice{}, translate(err, "create invoice")
	}
	inv.CompanyName = order.CompanyName
	return inv, nil
}

func (s *SupplierService) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	invoices, err := s.store.Invoices.GetAll(ctx)
	return invoices, translate(err, "list invoices")
}

// PayInvoice records the payment of a supplier invoice and marks it paid.
func (s *SupplierService) PayInvoice(ctx context.Context, supplierID, invoiceID int, amount decimal.Decimal, method string) (models.Invoice, error) {
	if !amount.IsPositive() {
		return models.Invoice{}, apperr.Validation("amount must be greater than zero")
	}
	if strings.TrimSpace(method) == "" {
		method = "transfer"
	}

	var paid models.Invoice
	err := s.store.InTx(ctx, func(r *repo.Repos) error {
		inv, err := r.Invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return translate(err, "load invoice %d", invoiceID)
		}
		if inv.SupplierID != supplierID {
			return apperr.NotFound("invoice %d not found for supplier %d", invoiceID, supplierID)
		}
		if inv.Status == models.InvoicePaid {
			return apperr.Validation("invoice %d is already paid", invoiceID)
		}

		if _, err := r.Payments.Create(ctx, models.Payment{Amount: amount, Method: method, OrderID: &inv.OrderID}); err != nil {
			return translate(err, "record payment for invoice %d", invoiceID)
		}
		if err := r.Invoices.UpdateStatus(ctx, invoiceID, models.InvoicePaid); err != nil {
			return translate(err, "update invoice %d", invoiceID)
		}
		inv.Status = models.InvoicePaid
		paid = inv
		return nil
	})
	return paid, err
}
