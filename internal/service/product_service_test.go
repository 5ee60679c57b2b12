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

func newProductService(db *gorm.DB) *ProductService {
	return NewProductService(
		repository.NewProductRepository(db),
		repository.NewVariationRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewRedirectRepository(db),
	)
}

func TestCreateProductWithTaxonomy(t *testing.T) {
	db := newServiceTestDB(t, "product_create")
	room := models.RoomCategory{Slug: "living-room", Name: "Living Room", IsActive: true}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room category failed: %v", err)
	}

	svc := newProductService(db)
	product, err := svc.CreateProduct(ProductInput{
		Slug:            "nairobi-3-seater-sofa",
		Name:            "Nairobi 3-Seater Sofa",
		BasePrice:       decimal.NewFromInt(75000),
		IsActive:        true,
		RoomCategoryIDs: []uint{room.ID},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if len(product.RoomCategories) != 1 || product.RoomCategories[0].Slug != "living-room" {
		t.Fatalf("expected room category linked, got %+v", product.RoomCategories)
	}
}

func TestCreateProductUnknownTaxonomyRejected(t *testing.T) {
	db := newServiceTestDB(t, "product_bad_taxonomy")
	svc := newProductService(db)

	_, err := svc.CreateProduct(ProductInput{
		Slug:            "orphan-product",
		Name:            "Orphan",
		BasePrice:       decimal.NewFromInt(1000),
		RoomCategoryIDs: []uint{42},
	})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got: %v", err)
	}
}

func TestUpdateProductRenameRegistersRedirect(t *testing.T) {
	db := newServiceTestDB(t, "product_rename")
	svc := newProductService(db)

	product, err := svc.CreateProduct(ProductInput{
		Slug:      "nairobi-3-seater-sofa",
		Name:      "Nairobi 3-Seater Sofa",
		BasePrice: decimal.NewFromInt(75000),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	updated, err := svc.UpdateProduct(product.ID, ProductInput{
		Slug:      "nairobi-three-seater",
		Name:      "Nairobi 3-Seater Sofa",
		BasePrice: decimal.NewFromInt(75000),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	if updated.Slug != "nairobi-three-seater" {
		t.Fatalf("expected renamed slug, got %s", updated.Slug)
	}

	var redirect models.Redirect
	if err := db.Where("old_path = ?", "/products/nairobi-3-seater-sofa").First(&redirect).Error; err != nil {
		t.Fatalf("expected redirect row for renamed product: %v", err)
	}
	if redirect.NewPath != "/products/nairobi-three-seater" || !redirect.IsPermanent {
		t.Fatalf("unexpected redirect: %+v", redirect)
	}
}

func TestUpdateProductSlugConflictRejected(t *testing.T) {
	db := newServiceTestDB(t, "product_slug_conflict")
	svc := newProductService(db)

	if _, err := svc.CreateProduct(ProductInput{Slug: "sofa-a", Name: "Sofa A", BasePrice: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("create sofa-a failed: %v", err)
	}
	second, err := svc.CreateProduct(ProductInput{Slug: "sofa-b", Name: "Sofa B", BasePrice: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("create sofa-b failed: %v", err)
	}

	_, err = svc.UpdateProduct(second.ID, ProductInput{Slug: "sofa-a", Name: "Sofa B", BasePrice: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected slug taken, got: %v", err)
	}
}

func TestCreateVariationDuplicateSKURejected(t *testing.T) {
	db := newServiceTestDB(t, "variation_sku")
	variation := seedSofaVariation(t, db, 5)
	svc := newProductService(db)

	_, err := svc.CreateVariation(VariationInput{
		ProductID:     variation.ProductID,
		SKU:           variation.SKU,
		StockQuantity: 1,
		PriceModifier: decimal.Zero,
		IsActive:      true,
	})
	if !errors.Is(err, ErrSKUTaken) {
		t.Fatalf("expected sku taken, got: %v", err)
	}
}

func TestCreateVariationNegativeStockRejected(t *testing.T) {
	db := newServiceTestDB(t, "variation_stock")
	variation := seedSofaVariation(t, db, 5)
	svc := newProductService(db)

	_, err := svc.CreateVariation(VariationInput{
		ProductID:     variation.ProductID,
		SKU:           "NRB-SOFA-3S-NEW",
		StockQuantity: -1,
		PriceModifier: decimal.Zero,
	})
	if !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected quantity invalid, got: %v", err)
	}
}

func TestGetBySlugResolvesSalePrice(t *testing.T) {
	db := newServiceTestDB(t, "product_sale")
	variation := seedSofaVariation(t, db, 5)

	sale := models.NewMoneyFromDecimal(decimal.NewFromInt(68000))
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	if err := db.Model(&models.Product{}).Where("id = ?", variation.ProductID).Updates(map[string]interface{}{
		"sale_price": sale,
		"sale_start": start,
		"sale_end":   end,
	}).Error; err != nil {
		t.Fatalf("set sale failed: %v", err)
	}

	svc := newProductService(db)
	detail, err := svc.GetBySlug("nairobi-3-seater-sofa", true)
	if err != nil {
		t.Fatalf("get by slug failed: %v", err)
	}
	if !detail.OnSale {
		t.Fatalf("expected product on sale")
	}
	if !detail.CurrentPrice.Decimal.Equal(decimal.NewFromInt(68000)) {
		t.Fatalf("expected current price 68000, got %s", detail.CurrentPrice.String())
	}
}

func TestGetBySlugExpiredSaleUsesBasePrice(t *testing.T) {
	db := newServiceTestDB(t, "product_sale_expired")
	variation := seedSofaVariation(t, db, 5)

	sale := models.NewMoneyFromDecimal(decimal.NewFromInt(68000))
	start := time.Now().Add(-48 * time.Hour)
	end := time.Now().Add(-24 * time.Hour)
	if err := db.Model(&models.Product{}).Where("id = ?", variation.ProductID).Updates(map[string]interface{}{
		"sale_price": sale,
		"sale_start": start,
		"sale_end":   end,
	}).Error; err != nil {
		t.Fatalf("set sale failed: %v", err)
	}

	svc := newProductService(db)
	detail, err := svc.GetBySlug("nairobi-3-seater-sofa", true)
	if err != nil {
		t.Fatalf("get by slug failed: %v", err)
	}
	if detail.OnSale {
		t.Fatalf("expected expired sale to be inactive")
	}
	if !detail.CurrentPrice.Decimal.Equal(decimal.NewFromInt(75000)) {
		t.Fatalf("expected base price 75000, got %s", detail.CurrentPrice.String())
	}
}

func TestGetBySlugInactiveHiddenFromStorefront(t *testing.T) {
	db := newServiceTestDB(t, "product_inactive")
	variation := seedSofaVariation(t, db, 5)
	if err := db.Model(&models.Product{}).Where("id = ?", variation.ProductID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	svc := newProductService(db)
	if _, err := svc.GetBySlug("nairobi-3-seater-sofa", true); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found for storefront, got: %v", err)
	}
	// The back office still sees it.
	if _, err := svc.GetBySlug("nairobi-3-seater-sofa", false); err != nil {
		t.Fatalf("expected admin lookup to succeed, got: %v", err)
	}
}
