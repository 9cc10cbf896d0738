package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
	"github.com/rs/zerolog/log"
)

// AlertPublisher forwards raised alerts to an external feed.
type AlertPublisher interface {
	Publish(ctx context.Context, alert models.Alert) error
}

// Availability describes the stock position of one product.
type Availability struct {
	ProductID    int  `json:"product_id"`
	Available    bool `json:"available"`
	Quantity     int  `json:"quantity"`
	Threshold    int  `json:"threshold"`
	NeedsRestock bool `json:"needs_restock"`
}

// LedgerService owns product quantities and their movement history.
// Every change of a quantity goes through a movement written in the same
// transaction.
type LedgerService struct {
	store     *repo.Store
	publisher AlertPublisher
}

func NewLedgerService(store *repo.Store, publisher AlertPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// AdjustStock adds delta to the product quantity, records the movement and
// returns the new quantity. An adjustment that would leave the quantity below
// zero is rejected.
func (s *LedgerService) AdjustStock(ctx context.Context, productID, delta int, reason string) (int, error) {
	if delta == 0 {
		return 0, apperr.Validation("delta must not be zero")
	}
	if reason == "" {
		reason = models.ReasonAdjustment
	}

	var product models.Product
	err := s.store.InTx(ctx, func(r *repo.Repos) error {
		var err error
		product, err = applyMovement(ctx, r, models.Movement{ProductID: productID, Delta: delta, Reason: reason})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.alertAfterCommit(ctx, product)
	return product.Quantity, nil
}

// applyMovement changes the quantity and appends the movement using the
// repositories of an open transaction.
func applyMovement(ctx context.Context, r *repo.Repos, m models.Movement) (models.Product, error) {
	product, err := r.Products.AdjustQuantity(ctx, m.ProductID, m.Delta)
	if err != nil {
		return models.Product{}, translate(err, "adjust stock of product %d", m.ProductID)
	}
	if _, err := r.Movements.Log(ctx, m); err != nil {
		return models.Product{}, translate(err, "record movement for product %d", m.ProductID)
	}
	return product, nil
}

func (s *LedgerService) CheckAvailability(ctx context.Context, productID int) (Availability, error) {
	p, err := s.store.Products.GetByID(ctx, productID)
	if err != nil {
		return Availability{}, translate(err, "load product %d", productID)
	}
	return Availability{
		ProductID:    p.ID,
		Available:    p.Quantity > 0,
		Quantity:     p.Quantity,
		Threshold:    p.Threshold,
		NeedsRestock: p.LowStock(),
	}, nil
}

func (s *LedgerService) ListLowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.Products.ListLowStock(ctx)
	return products, translate(err, "list low stock products")
}

// RaiseAlertIfNeeded stores a low-stock alert when the product is at or below
// its threshold and forwards it to the publisher. Repeated breaches raise
// repeated alerts.
func (s *LedgerService) RaiseAlertIfNeeded(ctx context.Context, p models.Product) (bool, error) {
	if !p.LowStock() {
		return false, nil
	}

	productID := p.ID
	alert, err := s.store.Alerts.Create(ctx, models.Alert{
		Message:   lowStockMessage(p),
		Kind:      models.AlertLowStock,
		ProductID: &productID,
	})
	if err != nil {
		return false, translate(err, "store alert for product %d", p.ID)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, alert); err != nil {
			log.Warn().Err(err).Int("product_id", p.ID).Msg("failed to publish low stock alert")
		}
	}
	log.Info().Int("product_id", p.ID).Int("quantity", p.Quantity).Int("threshold", p.Threshold).Msg("low stock alert raised")
	return true, nil
}

func lowStockMessage(p models.Product) string {
	return fmt.Sprintf("Low stock for %s. Current stock: %d, minimum: %d", p.Name, p.Quantity, p.Threshold)
}

// alertAfterCommit evaluates the threshold once the write is durable. A failure
// here does not undo the adjustment.
func (s *LedgerService) alertAfterCommit(ctx context.Context, p models.Product) {
	if _, err := s.RaiseAlertIfNeeded(ctx, p); err != nil {
		log.Error().Err(err).Int("product_id", p.ID).Msg("failed to raise low stock alert")
	}
}

// History returns the movements of a product, newest first, and the number of
// movements matching the filter.
func (s *LedgerService) History(ctx context.Context, productID int, mf repo.MovementFilter) ([]models.Movement, int, error) {
	if _, err := s.store.Products.GetByID(ctx, productID); err != nil {
		return nil, 0, translate(err, "load product %d", productID)
	}
	if mf.Offset != nil && *mf.Offset < 0 {
		return nil, 0, apperr.Validation("offset must be non-negative")
	}

	movements, total, err := s.store.Movements.GetByProductID(ctx, productID, mf)
	if err != nil {
		return nil, 0, translate(err, "load movements of product %d", productID)
	}
	return movements, total, nil
}

func (s *LedgerService) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	alerts, err := s.store.Alerts.List(ctx, limit)
	return alerts, translate(err, "list alerts")
}

func (s *LedgerService) ProductAlerts(ctx context.Context, productID int) ([]models.Alert, error) {
	if _, err := s.store.Products.GetByID(ctx, productID); err != nil {
		return nil, translate(err, "load product %d", productID)
	}
	alerts, err := s.store.Alerts.ListByProduct(ctx, productID)
	return alerts, translate(err, "list alerts of product %d", productID)
}

// EvaluateAlert checks the current quantity of a product against its threshold.
func (s *LedgerService) EvaluateAlert(ctx context.Context, productID int) (bool, error) {
	p, err := s.store.Products.GetByID(ctx, productID)
	if err != nil {
		return false, translate(err, "load product %d", productID)
	}
	return s.RaiseAlertIfNeeded(ctx, p)
}

func validateProduct(p models.Product) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !p.Price.IsPositive() {
		problems = append(problems, "price must be greater than zero")
	}
	if p.Quantity < 0 {
		problems = append(problems, "quantity must be zero or greater")
	}
	if p.Threshold < 0 {
		problems = append(problems, "threshold must be zero or greater")
	}
	if len(problems) > 0 {
		return apperr.Validation("%s", strings.Join(problems, "; "))
	}
	return nil
}

func (s *LedgerService) checkSupplier(ctx context.Context, r *repo.Repos, supplierID *int) error {
	if supplierID == nil {
		return nil
	}
	if _, err := r.Suppliers.GetByID(ctx, *supplierID); err != nil {
		return translate(err, "load supplier %d", *supplierID)
	}
	return nil
}

func (s *LedgerService) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	if err := s.checkSupplier(ctx, s.store.Repos, p.SupplierID); err != nil {
		return models.Product{}, err
	}

	created, err := s.store.Products.Create(ctx, p)
	if err != nil {
		return models.Product{}, translate(err, "create product")
	}
	return created, nil
}

// UpdateProduct rewrites the product. A changed quantity is recorded as an
// adjustment movement.
func (s *LedgerService) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}

	var (
		updated models.Product
		delta   int
	)
	err := s.store.InTx(ctx, func(r *repo.Repos) error {
		current, err := r.Products.GetByID(ctx, p.ID)
		if err != nil {
			return translate(err, "load product %d", p.ID)
		}
		if err := s.checkSupplier(ctx, r, p.SupplierID); err != nil {
			return err
		}

		updated, err = r.Products.Update(ctx, p)
		if err != nil {
			return translate(err, "update product %d", p.ID)
		}

		delta = updated.Quantity - current.Quantity
		if delta == 0 {
			return nil
		}
		_, err = r.Movements.Log(ctx, models.Movement{ProductID: p.ID, Delta: delta, Reason: models.ReasonAdjustment})
		return translate(err, "record movement for product %d", p.ID)
	})
	if err != nil {
		return models.Product{}, err
	}

	if delta != 0 {
		s.alertAfterCommit(ctx, updated)
	}
	return updated, nil
}

func (s *LedgerService) GetProduct(ctx context.Context, id int) (models.Product, error) {
	p, err := s.store.Products.GetByID(ctx, id)
	return p, translate(err, "load product %d", id)
}

// ProductByName looks a product up by its unique name.
func (s *LedgerService) ProductByName(ctx context.Context, name string) (models.Product, error) {
	p, err := s.store.Products.GetByName(ctx, strings.TrimSpace(name))
	return p, translate(err, "load product %q", name)
}

func (s *LedgerService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.Products.GetAll(ctx)
	return products, translate(err, "list products")
}

func (s *LedgerService) SearchProducts(ctx context.Context, pf repo.ProductFilter) ([]models.Product, int, error) {
	products, total, err := s.store.Products.Filter(ctx, pf)
	if err != nil {
		return nil, 0, translate(err, "search products")
	}
	return products, total, nil
}

// DeleteProduct removes a product and its movements. Products referenced by a
// sale line or a purchase order line cannot be deleted.
func (s *LedgerService) DeleteProduct(ctx context.Context, id int) error {
	return s.store.InTx(ctx, func(r *repo.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return translate(err, "load product %d", id)
		}

		sold, err := r.Products.CountSaleItems(ctx, id)
		if err != nil {
			return translate(err, "check sales of product %d", id)
		}
		if sold > 0 {
			return apperr.Validation("product %q cannot be deleted: it appears in %d sale(s)", p.Name, sold)
		}

		ordered, err := r.Products.CountOrderItems(ctx, id)
		if err != nil {
			return translate(err, "check purchase orders of product %d", id)
		}
		if ordered > 0 {
			return apperr.Validation("product %q cannot be deleted: it appears in %d purchase order(s)", p.Name, ordered)
		}

		if err := r.Movements.DeleteByProduct(ctx, id); err != nil {
			return translate(err, "delete movements of product %d", id)
		}
		return translate(r.Products.Delete(ctx, id), "delete product %d", id)
	})
}
