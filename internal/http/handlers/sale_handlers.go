package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/service"
)

func toSaleLines(lines []SaleLineRequest) []service.SaleLine {
	out := make([]service.SaleLine, len(lines))
	for i, l := range lines {
		out[i] = service.SaleLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return out
}

// CreateSaleHandler godoc
// @Summary Register a sale
// @Description Deducts every line from stock, records the movements and issues a receipt. Nothing is written when a line cannot be served.
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body SaleRequest true "Sale"
// @Success 201 {object} Response{data=models.Sale}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /sales [post]
func (s *Server) CreateSaleHandler(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sale, err := s.Sales.RegisterSale(r.Context(), service.NewSale{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		PaymentType:   req.PaymentType,
		Notes:         req.Notes,
		Lines:         toSaleLines(req.Lines),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "sale registered", sale)
}

// SaleAvailabilityHandler godoc
// @Summary Check whether a sale can be served
// @Tags sales
// @Accept json
// @Produce json
// @Param lines body SaleAvailabilityRequest true "Lines to check"
// @Success 200 {object} Response{data=service.AvailabilityReport}
// @Failure 400 {object} Response
// @Router /sales/availability [post]
func (s *Server) SaleAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req SaleAvailabilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := s.Sales.CheckAvailability(r.Context(), toSaleLines(req.Lines))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if report.Unavailable == nil {
		report.Unavailable = []service.UnavailableLine{}
	}
	respond(w, http.StatusOK, "", report)
}

// GetSalesHandler godoc
// @Summary List sales
// @Tags sales
// @Produce json
// @Success 200 {object} Response{data=[]models.Sale}
// @Router /sales [get]
func (s *Server) GetSalesHandler(w http.ResponseWriter, r *http.Request) {
	sales, err := s.Sales.ListSales(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	respond(w, http.StatusOK, "", sales)
}

// GetSaleHandler godoc
// @Summary Get a sale with its lines
// @Tags sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {object} Response{data=models.Sale}
// @Failure 404 {object} Response
// @Router /sales/{id} [get]
func (s *Server) GetSaleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid sale ID")
		return
	}

	sale, err := s.Sales.GetSale(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", sale)
}

// UpdateSaleHandler godoc
// @Summary Update customer data of a sale
// @Tags sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param sale body SaleUpdateRequest true "Customer data"
// @Success 200 {object} Response{data=models.Sale}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /sales/{id} [put]
func (s *Server) UpdateSaleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid sale ID")
		return
	}

	var req SaleUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sale, err := s.Sales.UpdateSale(r.Context(), models.Sale{
		ID:            id,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		PaymentType:   req.PaymentType,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "sale updated", sale)
}

// DeleteSaleHandler godoc
// @Summary Delete a sale
// @Description Gives the sold quantities back to stock
// @Tags sales
// @Param id path int true "Sale ID"
// @Success 204 "Deleted successfully"
// @Failure 404 {object} Response
// @Router /sales/{id} [delete]
func (s *Server) DeleteSaleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid sale ID")
		return
	}
	if err := s.Sales.DeleteSale(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSalePaymentHandler godoc
// @Summary Record a payment for a sale
// @Tags sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param payment body PaymentRequest true "Payment"
// @Success 201 {object} Response{data=models.Payment}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /sales/{id}/payments [post]
func (s *Server) AddSalePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid sale ID")
		return
	}

	var req PaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := s.Sales.AddPayment(r.Context(), id, req.Amount, req.Method, req.Reference)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "payment recorded", p)
}

// GetSalePaymentsHandler godoc
// @Summary Payments recorded for a sale
// @Tags sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {object} Response{data=[]models.Payment}
// @Failure 404 {object} Response
// @Router /sales/{id}/payments [get]
func (s *Server) GetSalePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid sale ID")
		return
	}

	payments, err := s.Sales.ListPayments(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	respond(w, http.StatusOK, "", payments)
}

// GetReceiptHandler godoc
// @Summary Receipt issued for a sale
// @Tags sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {object} Response{data=models.Receipt}
// @Failure 404 {object} Response
// @Router /sales/{id}/receipt [get]
func (s *Server) GetReceiptHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid sale ID")
		return
	}

	rc, err := s.Sales.GetReceipt(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", rc)
}
