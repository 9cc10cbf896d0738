package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// AdjustQuantityHandler godoc
// @Summary Adjust quantity of a product
// @Description Adds delta to the stock and records the movement. Adjustments that would leave the stock below zero are rejected.
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param adjustment body QuantityAdjustmentRequest true "Quantity change"
// @Success 200 {object} Response{data=QuantityAdjustmentResult}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /products/{id}/adjust [post]
func (s *Server) AdjustQuantityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid product ID")
		return
	}

	var req QuantityAdjustmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	qty, err := s.Ledger.AdjustStock(r.Context(), id, req.Delta, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	product, err := s.Ledger.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "stock adjusted", QuantityAdjustmentResult{
		ProductID: id,
		Quantity:  qty,
		LowStock:  product.LowStock(),
	})
}

// AvailabilityHandler godoc
// @Summary Stock position of a product
// @Tags inventory
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} Response{data=service.Availability}
// @Failure 404 {object} Response
// @Router /products/{id}/availability [get]
func (s *Server) AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid product ID")
		return
	}

	a, err := s.Ledger.CheckAvailability(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", a)
}

func movementFilter(r *http.Request) (repo.MovementFilter, error) {
	q := r.URL.Query()
	var (
		mf  repo.MovementFilter
		err error
	)
	if mf.Since, err = parseTimeParam(q.Get("since")); err != nil {
		return mf, fmt.Errorf("invalid since date format")
	}
	if mf.Until, err = parseTimeParam(q.Get("until")); err != nil {
		return mf, fmt.Errorf("invalid until date format")
	}
	if mf.Limit, err = parseStrictInt(q.Get("limit")); err != nil {
		return mf, fmt.Errorf("invalid limit format")
	}
	if mf.Limit != nil && *mf.Limit <= 0 {
		return mf, fmt.Errorf("limit must be greater than zero")
	}
	if mf.Offset, err = parseStrictInt(q.Get("offset")); err != nil {
		return mf, fmt.Errorf("invalid offset format")
	}
	if mf.Offset != nil && *mf.Offset < 0 {
		return mf, fmt.Errorf("offset must be zero or positive")
	}
	return mf, nil
}

// GetMovementsHandler godoc
// @Summary Get product movement logs
// @Tags movements
// @Produce json
// @Param id path int true "Product ID"
// @Param since query string false "Filter movements from this timestamp (RFC3339)"
// @Param until query string false "Filter movements until this timestamp (RFC3339)"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} Response{data=MovementsSearchResult}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /products/{id}/movements [get]
func (s *Server) GetMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid product ID")
		return
	}

	mf, err := movementFilter(r)
	if err != nil {
		log.Debug().Err(err).Int("product_id", id).Msg("rejected movement query")
		badRequest(w, err.Error())
		return
	}

	movements, total, err := s.Ledger.History(r.Context(), id, mf)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if movements == nil {
		movements = []models.Movement{}
	}
	respond(w, http.StatusOK, "", MovementsSearchResult{
		Data: movements,
		Meta: Meta{TotalCount: total},
	})
}

// ExportMovementsHandler godoc
// @Summary Export product movement logs
// @Tags movements
// @Produce text/csv,application/json,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Product ID"
// @Param format query string true "Export format (csv, json or xlsx)"
// @Param since query string false "Filter from timestamp (RFC3339)"
// @Param until query string false "Filter until timestamp (RFC3339)"
// @Success 200 {file} file
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /products/{id}/movements/export [get]
func (s *Server) ExportMovementsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, "invalid product ID")
		return
	}

	format := r.URL.Query().Get("format")
	if format != "csv" && format != "json" && format != "xlsx" {
		badRequest(w, "format must be 'csv', 'json' or 'xlsx'")
		return
	}

	since, err := parseTimeParam(r.URL.Query().Get("since"))
	if err != nil {
		badRequest(w, "invalid since date format")
		return
	}
	until, err := parseTimeParam(r.URL.Query().Get("until"))
	if err != nil {
		badRequest(w, "invalid until date format")
		return
	}

	movements, _, err := s.Ledger.History(r.Context(), id, repo.MovementFilter{Since: since, Until: until})
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("movements_%d.%s", id, format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		if movements == nil {
			movements = []models.Movement{}
		}
		err = json.NewEncoder(w).Encode(movements)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = writeMovementsCSV(w, movements)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = writeMovementsXLSX(w, id, movements)
	}
	if err != nil {
		log.Error().Err(err).Int("product_id", id).Str("format", format).Msg("movement export failed")
	}
}

var movementHeader = []string{"id", "product_id", "delta", "reason", "sale_id", "order_id", "created_at"}

func optionalID(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}

func movementRecord(m models.Movement) []string {
	return []string{
		strconv.Itoa(m.ID),
		strconv.Itoa(m.ProductID),
		strconv.Itoa(m.Delta),
		m.Reason,
		optionalID(m.SaleID),
		optionalID(m.OrderID),
		m.CreatedAt.Format(time.RFC3339),
	}
}

func writeMovementsCSV(w io.Writer, movements []models.Movement) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(movementHeader); err != nil {
		return err
	}
	for _, m := range movements {
		if err := csvWriter.Write(movementRecord(m)); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func writeMovementsXLSX(w io.Writer, productID int, movements []models.Movement) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Product %d", productID)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(movementHeader))
	for i, h := range movementHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, m := range movements {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{m.ID, m.ProductID, m.Delta, m.Reason, optionalID(m.SaleID), optionalID(m.OrderID), m.CreatedAt.Format(time.RFC3339)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
