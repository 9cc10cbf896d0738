package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/service"
)

// CreateSupplierHandler godoc
// @Summary Create a supplier
// @Tags suppliers
// @Accept json
// @Produce json
// @Param supplier body SupplierRequest true "Supplier"
// @Success 201 {object} Response{data=models.Supplier}
// @Failure 400 {object} Response{data=[]FieldError}
// @Router /suppliers [post]
func (s *Server) CreateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sup, err := s.Suppliers.CreateSupplier(r.Context(), req.toModel(0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "supplier created", sup)
}

// GetSuppliersHandler godoc
// @Summary List suppliers
// @Tags suppliers
// @Produce json
// @Success 200 {object} Response{data=[]models.Supplier}
// @Router /suppliers [get]
func (s *Server) GetSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.Suppliers.ListSuppliers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	respond(w, http.StatusOK, "", suppliers)
}

// GetSupplierHandler godoc
// @Summary Get a supplier
// @Tags suppliers
// @Produce json
// @Param id path int true "Supplier ID"
// @Success 200 {object} Response{data=models.Supplier}
// @Failure 404 {object} Response
// @Router /suppliers/{id} [get]
func (s *Server) GetSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid supplier ID")
		return
	}

	sup, err := s.Suppliers.GetSupplier(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", sup)
}

// UpdateSupplierHandler godoc
// @Summary Update a supplier
// @Tags suppliers
// @Accept json
// @Produce json
// @Param id path int true "Supplier ID"
// @Param supplier body SupplierRequest true "Supplier"
// @Success 200 {object} Response{data=models.Supplier}
// @Failure 400 {object} Response{data=[]FieldError}
// @Failure 404 {object} Response
// @Router /suppliers/{id} [put]
func (s *Server) UpdateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid supplier ID")
		return
	}

	var req SupplierRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sup, err := s.Suppliers.UpdateSupplier(r.Context(), req.toModel(id))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "supplier updated", sup)
}

// DeleteSupplierHandler godoc
// @Summary Delete a supplier
// @Description Suppliers still referenced by products or orders are kept
// @Tags suppliers
// @Param id path int true "Supplier ID"
// @Success 204 "Deleted successfully"
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /suppliers/{id} [delete]
func (s *Server) DeleteSupplierHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid supplier ID")
		return
	}
	if err := s.Suppliers.DeleteSupplier(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateOrderHandler godoc
// @Summary Place a purchase order
// @Description Lines may reference a product id or name a new product, which is created with no stock
// @Tags orders
// @Accept json
// @Produce json
// @Param order body OrderRequest true "Order"
// @Success 201 {object} Response{data=models.PurchaseOrder}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /orders [post]
func (s *Server) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lines := make([]service.OrderLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.OrderLine{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	order, err := s.Suppliers.CreateOrder(r.Context(), service.NewOrder{SupplierID: req.SupplierID, Lines: lines})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "purchase order created", order)
}

// GetOrdersHandler godoc
// @Summary List purchase orders
// @Tags orders
// @Produce json
// @Success 200 {object} Response{data=[]models.PurchaseOrder}
// @Router /orders [get]
func (s *Server) GetOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Suppliers.ListOrders(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.PurchaseOrder{}
	}
	respond(w, http.StatusOK, "", orders)
}

// GetOrderHandler godoc
// @Summary Get a purchase order with its lines
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} Response{data=models.PurchaseOrder}
// @Failure 404 {object} Response
// @Router /orders/{id} [get]
func (s *Server) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid order ID")
		return
	}

	order, err := s.Suppliers.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", order)
}

// UpdateOrderStatusHandler godoc
// @Summary Move a purchase order to its next status
// @Description pending → confirmed → received, or cancelled from an open state. Receiving restocks every line.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param status body OrderStatusRequest true "New status"
// @Success 200 {object} Response{data=models.PurchaseOrder}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /orders/{id}/status [put]
func (s *Server) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid order ID")
		return
	}

	var req OrderStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := s.Suppliers.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "order "+order.Status, order)
}

// DeleteOrderHandler godoc
// @Summary Delete a pending purchase order
// @Tags orders
// @Param id path int true "Order ID"
// @Success 204 "Deleted successfully"
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /orders/{id} [delete]
func (s *Server) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid order ID")
		return
	}
	if err := s.Suppliers.DeleteOrder(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInvoiceHandler godoc
// @Summary Bill a purchase order
// @Description A zero or missing total takes the order total
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body InvoiceRequest true "Invoice"
// @Success 201 {object} Response{data=models.Invoice}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /invoices [post]
func (s *Server) CreateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inv, err := s.Suppliers.CreateInvoice(r.Context(), service.NewInvoice{
		OrderID:    req.OrderID,
		SupplierID: req.SupplierID,
		Total:      req.Total,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "invoice created", inv)
}

// GetInvoicesHandler godoc
// @Summary List supplier invoices
// @Tags invoices
// @Produce json
// @Success 200 {object} Response{data=[]models.Invoice}
// @Router /invoices [get]
func (s *Server) GetInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.Suppliers.ListInvoices(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	respond(w, http.StatusOK, "", invoices)
}

// PayInvoiceHandler godoc
// @Summary Pay a supplier invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param payment body InvoicePaymentRequest true "Payment"
// @Success 200 {object} Response{data=models.Invoice}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /invoices/{id}/payments [post]
func (s *Server) PayInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid invoice ID")
		return
	}

	var req InvoicePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inv, err := s.Suppliers.PayInvoice(r.Context(), req.SupplierID, id, req.Amount, req.Method)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "invoice paid", inv)
}
