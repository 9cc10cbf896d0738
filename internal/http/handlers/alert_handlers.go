package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
)

// EvaluateAlertHandler godoc
// @Summary Check a product against its threshold
// @Description Raises a low-stock alert when the current stock is at or below the threshold
// @Tags alerts
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} Response{data=AlertEvaluation}
// @Failure 404 {object} Response
// @Router /products/{id}/alerts [post]
func (s *Server) EvaluateAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid product ID")
		return
	}

	raised, err := s.Ledger.EvaluateAlert(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	msg := "stock above threshold"
	if raised {
		msg = "low stock alert raised"
	}
	respond(w, http.StatusOK, msg, AlertEvaluation{ProductID: id, Raised: raised})
}

// GetProductAlertsHandler godoc
// @Summary Alerts raised for a product
// @Tags alerts
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} Response{data=[]models.Alert}
// @Failure 404 {object} Response
// @Router /products/{id}/alerts [get]
func (s *Server) GetProductAlertsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid product ID")
		return
	}

	alerts, err := s.Ledger.ProductAlerts(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	respond(w, http.StatusOK, "", alerts)
}

// GetAlertsHandler godoc
// @Summary Most recent alerts
// @Tags alerts
// @Produce json
// @Param limit query int false "Maximum number of alerts (default 50)"
// @Success 200 {object} Response{data=[]models.Alert}
// @Router /alerts [get]
func (s *Server) GetAlertsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := parseIntPtr(r.URL.Query().Get("limit")); v != nil {
		limit = *v
	}

	alerts, err := s.Ledger.ListAlerts(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	respond(w, http.StatusOK, "", alerts)
}

// GetLowStockHandler godoc
// @Summary Products at or below their threshold
// @Tags alerts
// @Produce json
// @Success 200 {object} Response{data=[]ProductResponse}
// @Router /stock/low [get]
func (s *Server) GetLowStockHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.Ledger.ListLowStock(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", toProductResponses(products))
}
