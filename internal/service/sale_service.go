package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type SaleLine struct {
	ProductID int              `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type NewSale struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	PaymentType   string
	Notes         string
	Lines         []SaleLine
}

type UnavailableLine struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	InStock   int    `json:"in_stock"`
}

type AvailabilityReport struct {
	Available   bool              `json:"available"`
	Unavailable []UnavailableLine `json:"unavailable"`
}

type SaleService struct {
	store  *repo.Store
	ledger *LedgerService
}

func NewSaleService(store *repo.Store, ledger *LedgerService) *SaleService {
	return &SaleService{store: store, ledger: ledger}
}

// mergeLines validates the lines and folds repeated products into one line.
func mergeLines(lines []SaleLine) ([]SaleLine, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("at least one line is required")
	}

	merged := make([]SaleLine, 0, len(lines))
	index := map[int]int{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation("quantity for product %d must be greater than zero", l.ProductID)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return nil, apperr.Validation("unit price for product %d must not be negative", l.ProductID)
		}
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// CheckAvailability verifies every line against the current stock without
// changing anything.
func (s *SaleService) CheckAvailability(ctx context.Context, lines []SaleLine) (AvailabilityReport, error) {
	lines, err := mergeLines(lines)
	if err != nil {
		return AvailabilityReport{}, err
	}
	return s.checkLines(ctx, s.store.Repos, lines)
}

func (s *SaleService) checkLines(ctx context.Context, r *repo.Repos, lines []SaleLine) (AvailabilityReport, error) {
	report := AvailabilityReport{Available: true, Unavailable: []UnavailableLine{}}
	for _, l := range lines {
		p, err := r.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return AvailabilityReport{}, translate(err, "load product %d", l.ProductID)
		}
		if p.Quantity < l.Quantity {
			report.Available = false
			report.Unavailable = append(report.Unavailable, UnavailableLine{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: l.Quantity,
				InStock:   p.Quantity,
			})
		}
	}
	return report, nil
}

// RegisterSale checks every line first, then writes the sale, its lines, the
// stock movements and the receipt in a single transaction.
func (s *SaleService) RegisterSale(ctx context.Context, req NewSale) (models.Sale, error) {
	lines, err := mergeLines(req.Lines)
	if err != nil {
		return models.Sale{}, err
	}
	if req.PaymentType == "" {
		req.PaymentType = "cash"
	}

	var (
		saleID  int
		touched []models.Product
	)
	err = s.store.InTx(ctx, func(r *repo.Repos) error {
		report, err := s.checkLines(ctx, r, lines)
		if err != nil {
			return err
		}
		if !report.Available {
			names := make([]string, 0, len(report.Unavailable))
			for _, u := range report.Unavailable {
				names = append(names, fmt.Sprintf("%s (requested %d, in stock %d)", u.Name, u.Requested, u.InStock))
			}
			return apperr.Validation("insufficient stock for %s", strings.Join(names, ", "))
		}

		items := make([]models.SaleItem, 0, len(lines))
		total := decimal.Zero
		for _, l := range lines {
			p, err := r.Products.GetByID(ctx, l.ProductID)
			if err != nil {
				return translate(err, "load product %d", l.ProductID)
			}
			price := p.Price
			if l.UnitPrice != nil {
				price = *l.UnitPrice
			}
			item := models.SaleItem{ProductID: p.ID, ProductName: p.Name, Quantity: l.Quantity, UnitPrice: price}
			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		sale, err := r.Sales.Create(ctx, models.Sale{
			Total:         total,
			Status:        models.SaleCompleted,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			PaymentType:   req.PaymentType,
			Notes:         req.Notes,
		})
		if err != nil {
			return translate(err, "create sale")
		}
		saleID = sale.ID

		for _, item := range items {
			item.SaleID = sale.ID
			if err := r.Sales.AddItem(ctx, item); err != nil {
				return translate(err, "add line for product %d", item.ProductID)
			}
			p, err := applyMovement(ctx, r, models.Movement{
				ProductID: item.ProductID,
				Delta:     -item.Quantity,
				Reason:    models.ReasonSale,
				SaleID:    &sale.ID,
			})
			if err != nil {
				return err
			}
			touched = append(touched, p)
		}

		_, err = r.Sales.CreateReceipt(ctx, models.Receipt{
			Number:  uuid.NewString(),
			Details: fmt.Sprintf("Sale #%d, %d line(s)", sale.ID, len(items)),
			Total:   total,
			Kind:    "sale",
			SaleID:  sale.ID,
		})
		return translate(err, "issue receipt for sale %d", sale.ID)
	})
	if err != nil {
		return models.Sale{}, err
	}

	for _, p := range touched {
		s.ledger.alertAfterCommit(ctx, p)
	}
	log.Info().Int("sale_id", saleID).Int("lines", len(lines)).Msg("sale registered")
	return s.GetSale(ctx, saleID)
}

func (s *SaleService) GetSale(ctx context.Context, id int) (models.Sale, error) {
	sale, err := s.store.Sales.GetByID(ctx, id)
	return sale, translate(err, "load sale %d", id)
}

func (s *SaleService) ListSales(ctx context.Context) ([]models.Sale, error) {
	sales, err := s.store.Sales.GetAll(ctx)
	return sales, translate(err, "list sales")
}

// UpdateSale changes the customer data, payment type and notes. Lines are
// immutable; delete and register the sale again to change them.
func (s *SaleService) UpdateSale(ctx context.Context, sale models.Sale) (models.Sale, error) {
	if sale.PaymentType == "" {
		sale.PaymentType = "cash"
	}
	if _, err := s.store.Sales.Update(ctx, sale); err != nil {
		return models.Sale{}, translate(err, "update sale %d", sale.ID)
	}
	return s.GetSale(ctx, sale.ID)
}

// DeleteSale gives the sold quantities back to stock and removes the sale with
// its movements, lines, receipt and payments.
func (s *SaleService) DeleteSale(ctx context.Context, id int) error {
	err := s.store.InTx(ctx, func(r *repo.Repos) error {
		sale, err := r.Sales.GetByID(ctx, id)
		if err != nil {
			return translate(err, "load sale %d", id)
		}

		for _, item := range sale.Items {
			if _, err := r.Products.AdjustQuantity(ctx, item.ProductID, item.Quantity); err != nil {
				return translate(err, "restore stock of product %d", item.ProductID)
			}
		}
		if _, err := r.Movements.DeleteBySale(ctx, id); err != nil {
			return translate(err, "delete movements of sale %d", id)
		}
		if err := r.Payments.DeleteBySale(ctx, id); err != nil {
			return translate(err, "delete payments of sale %d", id)
		}
		if err := r.Sales.DeleteReceipts(ctx, id); err != nil {
			return translate(err, "delete receipt of sale %d", id)
		}
		if err := r.Sales.DeleteItems(ctx, id); err != nil {
			return translate(err, "delete lines of sale %d", id)
		}
		return translate(r.Sales.Delete(ctx, id), "delete sale %d", id)
	})
	if err == nil {
		log.Info().Int("sale_id", id).Msg("sale deleted and stock restored")
	}
	return err
}

func (s *SaleService) AddPayment(ctx context.Context, saleID int, amount decimal.Decimal, method, reference string) (models.Payment, error) {
	if !amount.IsPositive() {
		return models.Payment{}, apperr.Validation("amount must be greater than zero")
	}
	if strings.TrimSpace(method) == "" {
		return models.Payment{}, apperr.Validation("payment method is required")
	}
	if _, err := s.store.Sales.GetByID(ctx, saleID); err != nil {
		return models.Payment{}, translate(err, "load sale %d", saleID)
	}

	p, err := s.store.Payments.Create(ctx, models.Payment{
		Amount:    amount,
		Method:    method,
		Reference: reference,
		SaleID:    &saleID,
	})
	return p, translate(err, "record payment for sale %d", saleID)
}

func (s *SaleService) ListPayments(ctx context.Context, saleID int) ([]models.Payment, error) {
	if _, err := s.store.Sales.GetByID(ctx, saleID); err != nil {
		return nil, translate(err, "load sale %d", saleID)
	}
	payments, err := s.store.Payments.ListBySale(ctx, saleID)
	return payments, translate(err, "list payments of sale %d", saleID)
}

func (s *SaleService) GetReceipt(ctx context.Context, saleID int) (models.Receipt, error) {
	rc, err := s.store.Sales.GetReceipt(ctx, saleID)
	return rc, translate(err, "load receipt of sale %d", saleID)
}
