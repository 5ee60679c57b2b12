package service

import (
	"errors"
	"testing"
	"time"

	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newCartService(db *gorm.DB) *CartService {
	return NewCartService(repository.NewCartRepository(db), repository.NewVariationRepository(db))
}

func TestAddItemCollapsesDuplicateLines(t *testing.T) {
	db := newServiceTestDB(t, "cart_collapse")
	variation := seedSofaVariation(t, db, 10)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-collapse", variation.ID, 1); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	detail, err := svc.AddItem("sess-collapse", variation.ID, 2)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(detail.Items))
	}
	if detail.Items[0].Quantity != 3 {
		t.Fatalf("expected collapsed quantity 3, got %d", detail.Items[0].Quantity)
	}
	if detail.TotalItems != 3 {
		t.Fatalf("expected total items 3, got %d", detail.TotalItems)
	}
}

func TestAddItemRejectsBeyondStock(t *testing.T) {
	db := newServiceTestDB(t, "cart_stock_cap")
	variation := seedSofaVariation(t, db, 3)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-cap", variation.ID, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	_, err := svc.AddItem("sess-cap", variation.ID, 2)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}

	// The existing line is untouched.
	detail, err := svc.GetCart("sess-cap")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(detail.Items) != 1 || detail.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2 preserved, got %+v", detail.Items)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	db := newServiceTestDB(t, "cart_qty")
	variation := seedSofaVariation(t, db, 3)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-qty", variation.ID, 0); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected quantity invalid for 0, got: %v", err)
	}
	if _, err := svc.AddItem("sess-qty", variation.ID, -1); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected quantity invalid for -1, got: %v", err)
	}
}

func TestAddItemInactiveVariationRejected(t *testing.T) {
	db := newServiceTestDB(t, "cart_inactive_variation")
	variation := seedSofaVariation(t, db, 3)
	if err := db.Model(&models.Variation{}).Where("id = ?", variation.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate variation failed: %v", err)
	}
	svc := newCartService(db)

	_, err := svc.AddItem("sess-inactive", variation.ID, 1)
	if !errors.Is(err, ErrVariationNotFound) {
		t.Fatalf("expected variation not found, got: %v", err)
	}
}

func TestAddItemInactiveProductRejected(t *testing.T) {
	db := newServiceTestDB(t, "cart_inactive_product")
	variation := seedSofaVariation(t, db, 3)
	if err := db.Model(&models.Product{}).Where("id = ?", variation.ProductID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	svc := newCartService(db)

	_, err := svc.AddItem("sess-inactive-product", variation.ID, 1)
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got: %v", err)
	}
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	db := newServiceTestDB(t, "cart_update_zero")
	variation := seedSofaVariation(t, db, 5)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-zero", variation.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	detail, err := svc.UpdateItem("sess-zero", variation.ID, 0)
	if err != nil {
		t.Fatalf("update to zero failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(detail.Items))
	}
}

func TestUpdateItemMissingLineRejected(t *testing.T) {
	db := newServiceTestDB(t, "cart_update_missing")
	variation := seedSofaVariation(t, db, 5)
	svc := newCartService(db)

	_, err := svc.UpdateItem("sess-missing", variation.ID, 1)
	if !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected cart item not found, got: %v", err)
	}
}

func TestRemoveItemDeletesLine(t *testing.T) {
	db := newServiceTestDB(t, "cart_remove")
	variation := seedSofaVariation(t, db, 5)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-remove", variation.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	detail, err := svc.RemoveItem("sess-remove", variation.ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(detail.Items))
	}
}

func TestClearCartEmptiesItems(t *testing.T) {
	db := newServiceTestDB(t, "cart_clear")
	variation := seedSofaVariation(t, db, 5)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-clear", variation.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.ClearCart("sess-clear"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	detail, err := svc.GetCart("sess-clear")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(detail.Items) != 0 || !detail.Subtotal.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected empty cart with zero subtotal, got %+v", detail)
	}
}

func TestGetCartDropsDeactivatedLines(t *testing.T) {
	db := newServiceTestDB(t, "cart_drop_inactive")
	variation := seedSofaVariation(t, db, 5)
	svc := newCartService(db)

	if _, err := svc.AddItem("sess-drop", variation.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", variation.ProductID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	detail, err := svc.GetCart("sess-drop")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("expected deactivated line dropped, got %d lines", len(detail.Items))
	}
}

func TestGetCartUsesCurrentSalePrice(t *testing.T) {
	db := newServiceTestDB(t, "cart_sale_price")
	variation := seedSofaVariation(t, db, 5)

	// Open-ended sale window: the sale price applies immediately.
	sale := models.NewMoneyFromDecimal(decimal.NewFromInt(68000))
	start := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Product{}).Where("id = ?", variation.ProductID).Updates(map[string]interface{}{
		"sale_price": sale,
		"sale_start": start,
	}).Error; err != nil {
		t.Fatalf("set sale failed: %v", err)
	}

	svc := newCartService(db)
	detail, err := svc.AddItem("sess-sale", variation.ID, 2)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !detail.Items[0].UnitPrice.Decimal.Equal(decimal.NewFromInt(68000)) {
		t.Fatalf("expected sale unit price 68000, got %s", detail.Items[0].UnitPrice.String())
	}
	if !detail.Subtotal.Decimal.Equal(decimal.NewFromInt(136000)) {
		t.Fatalf("expected subtotal 136000, got %s", detail.Subtotal.String())
	}
}
