package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/shopspring/decimal"
)

type csvRow struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Quantity    int
	Threshold   int
}

var requiredColumns = []string{"name", "price", "quantity", "threshold"}

func parseCSV(file io.Reader) ([]csvRow, []FieldError, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CSV header")
	}

	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}
	descCol, hasDesc := index["description"]

	var (
		rows    []csvRow
		rowErrs []FieldError
	)
	for line := 2; ; line++ { // header is row 1
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("CSV read error: %v", err)
		}

		row, err := toRow(record, index)
		if err != nil {
			rowErrs = append(rowErrs, FieldError{Field: fmt.Sprintf("row %d", line), Description: err.Error()})
			rows = append(rows, csvRow{})
			continue
		}
		if hasDesc && descCol < len(record) {
			d := record[descCol]
			row.Description = &d
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func toRow(record []string, index map[string]int) (csvRow, error) {
	get := func(col string) string {
		if i := index[col]; i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	price, err := decimal.NewFromString(get("price"))
	if err != nil {
		return csvRow{}, errors.New("invalid price")
	}
	qty, err := strconv.Atoi(get("quantity"))
	if err != nil {
		return csvRow{}, errors.New("invalid quantity")
	}
	threshold, err := strconv.Atoi(get("threshold"))
	if err != nil {
		return csvRow{}, errors.New("invalid threshold")
	}
	return csvRow{Name: get("name"), Price: price, Quantity: qty, Threshold: threshold}, nil
}

func validateRow(r csvRow) error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("missing name")
	}
	if !r.Price.IsPositive() {
		return errors.New("invalid price")
	}
	if r.Quantity < 0 {
		return errors.New("invalid quantity")
	}
	if r.Threshold < 0 {
		return errors.New("invalid threshold")
	}
	return nil
}

// ImportProductsHandler godoc
// @Summary Import products via CSV
// @Description Columns: name, price, quantity, threshold and an optional description. Existing names are skipped, or overwritten with mode=update.
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param mode query string false "Import mode (skip|update)"
// @Success 200 {object} Response{data=ImportProductsResult}
// @Failure 400 {object} Response
// @Router /products/import [post]
func (s *Server) ImportProductsHandler(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	if mode != "update" {
		mode = "skip" // default
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file")
		return
	}
	defer file.Close()

	records, errorsList, err := parseCSV(file)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	failed := map[string]bool{}
	for _, e := range errorsList {
		failed[e.Field] = true
	}

	ctx := r.Context()
	var imported int
	for i, rec := range records {
		row := fmt.Sprintf("row %d", i+2)
		if failed[row] {
			continue
		}
		if err := validateRow(rec); err != nil {
			errorsList = append(errorsList, FieldError{Field: row, Description: err.Error()})
			continue
		}

		existing, err := s.Ledger.ProductByName(ctx, rec.Name)
		switch {
		case err == nil:
			if mode == "skip" {
				errorsList = append(errorsList, FieldError{Field: row, Description: fmt.Sprintf("product '%s' already exists", rec.Name)})
				continue
			}
			existing.Price = rec.Price
			existing.Quantity = rec.Quantity
			existing.Threshold = rec.Threshold
			if rec.Description != nil {
				existing.Description = *rec.Description
			}
			if _, err := s.Ledger.UpdateProduct(ctx, existing); err != nil {
				errorsList = append(errorsList, FieldError{Field: row, Description: fmt.Sprintf("failed to update '%s': %s", rec.Name, apperr.Message(err))})
				continue
			}
		case errors.Is(err, apperr.ErrNotFound):
			p := models.Product{Name: rec.Name, Price: rec.Price, Quantity: rec.Quantity, Threshold: rec.Threshold}
			if rec.Description != nil {
				p.Description = *rec.Description
			}
			if _, err := s.Ledger.CreateProduct(ctx, p); err != nil {
				errorsList = append(errorsList, FieldError{Field: row, Description: apperr.Message(err)})
				continue
			}
		default:
			respondError(w, r, err)
			return
		}
		imported++
	}

	respond(w, http.StatusOK, fmt.Sprintf("%d product(s) imported", imported), ImportProductsResult{
		ImportedProductsCount: imported,
		Errors:                errorsList,
	})
}
