package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/shopspring/decimal"
)

func TestProductRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := createProduct(t, s, "Notebook A5", 12, 3)
	if p.ID == 0 {
		t.Fatal("expected an id to be assigned")
	}

	got, err := s.Products.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Notebook A5" || got.Quantity != 12 || got.Threshold != 3 {
		t.Errorf("unexpected product: %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected price 2.5, got %s", got.Price)
	}

	byName, err := s.Products.GetByName(ctx, "Notebook A5")
	if err != nil || byName.ID != p.ID {
		t.Errorf("expected lookup by name to return id %d, got %d (%v)", p.ID, byName.ID, err)
	}
}

func TestProductRepository_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	createProduct(t, s, "Stapler", 1, 0)

	_, err := s.Products.Create(context.Background(), models.Product{Name: "Stapler", Price: decimal.NewFromInt(3)})
	if !errors.Is(err, ErrDuplicatedValueUnique) {
		t.Fatalf("expected ErrDuplicatedValueUnique, got %v", err)
	}
}

func TestProductRepository_GetByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Products.GetByID(context.Background(), 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := s.Products.Delete(context.Background(), 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound on delete, got %v", err)
	}
}

func TestProductRepository_AdjustQuantity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createProduct(t, s, "Glue stick", 5, 1)

	updated, err := s.Products.AdjustQuantity(ctx, p.ID, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Quantity != 12 {
		t.Errorf("expected 12, got %d", updated.Quantity)
	}

	if _, err := s.Products.AdjustQuantity(ctx, p.ID, -13); !errors.Is(err, ErrInvalidQuantityChange) {
		t.Errorf("expected ErrInvalidQuantityChange, got %v", err)
	}
	if _, err := s.Products.AdjustQuantity(ctx, 404, 1); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}

	got, _ := s.Products.GetByID(ctx, p.ID)
	if got.Quantity != 12 {
		t.Errorf("rejected adjustment must not change quantity, got %d", got.Quantity)
	}
}

func TestProductRepository_ListLowStock(t *testing.T) {
	s := newTestStore(t)
	low := createProduct(t, s, "Marker", 5, 10)
	createProduct(t, s, "Ruler", 20, 10)
	edge := createProduct(t, s, "Folder", 10, 10)

	products, err := s.Products.ListLowStock(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 low stock products, got %d", len(products))
	}
	if products[0].ID != low.ID || products[1].ID != edge.ID {
		t.Errorf("expected lowest quantity first, got %+v", products)
	}
}

func TestProductRepository_Filter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createProduct(t, s, "Blue pen", 10, 1)
	createProduct(t, s, "Red pen", 3, 1)
	createProduct(t, s, "Pencil case", 8, 1)

	products, total, err := s.Products.Filter(ctx, ProductFilter{Name: "PEN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(products) != 3 {
		t.Errorf("expected 3 matches, got total=%d len=%d", total, len(products))
	}

	minQty, limit, offset := 5, 1, 1
	products, total, err = s.Products.Filter(ctx, ProductFilter{Name: "pen", MinQty: &minQty, Limit: &limit, Offset: &offset})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(products) != 1 || products[0].Name != "Pencil case" {
		t.Errorf("expected the second match only, got %+v", products)
	}

	products, _, err = s.Products.Filter(ctx, ProductFilter{Offset: &offset})
	if err != nil {
		t.Fatalf("offset without limit: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products after offset, got %d", len(products))
	}
}
