package service

import (
	"strings"
	"time"

	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductDetail is a product as returned to the storefront, with the
// effective price resolved for the current instant.
type ProductDetail struct {
	models.Product
	CurrentPrice models.Money `json:"current_price"`
	OnSale       bool         `json:"on_sale"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Slug            string
	Name            string
	Description     string
	BasePrice       decimal.Decimal
	SalePrice       *decimal.Decimal
	SaleStart       *time.Time
	SaleEnd         *time.Time
	IsActive        bool
	RoomCategoryIDs []uint
	ProductTypeIDs  []uint
	TagIDs          []uint
}

// VariationInput is the admin variation payload.
type VariationInput struct {
	ProductID     uint
	SKU           string
	Attributes    models.VariationAttributes
	StockQuantity int
	PriceModifier decimal.Decimal
	IsActive      bool
}

// ProductService manages the catalog.
type ProductService struct {
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
	categoryRepo  repository.CategoryRepository
	redirectRepo  repository.RedirectRepository
}

// NewProductService creates the product service.
func NewProductService(
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	categoryRepo repository.CategoryRepository,
	redirectRepo repository.RedirectRepository,
) *ProductService {
	return &ProductService{
		productRepo:   productRepo,
		variationRepo: variationRepo,
		categoryRepo:  categoryRepo,
		redirectRepo:  redirectRepo,
	}
}

func buildProductDetail(product models.Product, now time.Time) ProductDetail {
	return ProductDetail{
		Product:      product,
		CurrentPrice: models.NewMoneyFromDecimal(product.CurrentPrice(now)),
		OnSale:       product.IsOnSale(now),
	}
}

// List returns a product page with effective prices.
func (s *ProductService) List(filter repository.ProductListFilter) ([]ProductDetail, int64, error) {
	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	details := make([]ProductDetail, 0, len(products))
	for _, product := range products {
		details = append(details, buildProductDetail(product, now))
	}
	return details, total, nil
}

// GetBySlug returns one storefront product.
func (s *ProductService) GetBySlug(slug string, onlyActive bool) (*ProductDetail, error) {
	product, err := s.productRepo.GetBySlug(slug, onlyActive)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	detail := buildProductDetail(*product, time.Now())
	return &detail, nil
}

// GetByID returns one product for the back office.
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// CreateProduct inserts a product with its taxonomy links.
func (s *ProductService) CreateProduct(input ProductInput) (*models.Product, error) {
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrProductNotAvailable
	}
	count, err := s.productRepo.CountBySlug(input.Slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	product := models.Product{
		Slug:        strings.TrimSpace(input.Slug),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		BasePrice:   models.NewMoneyFromDecimal(input.BasePrice),
		SaleStart:   input.SaleStart,
		SaleEnd:     input.SaleEnd,
		IsActive:    input.IsActive,
	}
	if input.SalePrice != nil {
		sale := models.NewMoneyFromDecimal(*input.SalePrice)
		product.SalePrice = &sale
	}

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		if err := productRepo.Create(&product); err != nil {
			return err
		}
		return s.applyAssociations(tx, &product, input)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "slug", product.Slug)
	return s.productRepo.GetByID(product.ID)
}

// UpdateProduct saves a product. Changing the slug registers a redirect
// from the old storefront path in the same transaction, so the rename and
// its redirect land or fail together.
func (s *ProductService) UpdateProduct(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := ValidateSlug(input.Slug); err != nil {
		return nil, err
	}
	count, err := s.productRepo.CountBySlug(input.Slug, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	oldSlug := product.Slug
	product.Slug = strings.TrimSpace(input.Slug)
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.BasePrice = models.NewMoneyFromDecimal(input.BasePrice)
	product.SaleStart = input.SaleStart
	product.SaleEnd = input.SaleEnd
	product.IsActive = input.IsActive
	product.SalePrice = nil
	if input.SalePrice != nil {
		sale := models.NewMoneyFromDecimal(*input.SalePrice)
		product.SalePrice = &sale
	}

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		if err := productRepo.Update(product); err != nil {
			return err
		}
		if err := s.applyAssociations(tx, product, input); err != nil {
			return err
		}
		if oldSlug != product.Slug {
			redirect := &models.Redirect{
				OldPath:     "/products/" + oldSlug,
				NewPath:     "/products/" + product.Slug,
				IsPermanent: true,
			}
			if err := s.redirectRepo.WithTx(tx).Upsert(redirect); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if oldSlug != product.Slug {
		logger.Infow("product_slug_renamed", "product_id", product.ID, "old_slug", oldSlug, "new_slug", product.Slug)
	}
	return s.productRepo.GetByID(product.ID)
}

func (s *ProductService) applyAssociations(tx *gorm.DB, product *models.Product, input ProductInput) error {
	productRepo := s.productRepo.WithTx(tx)
	categoryRepo := s.categoryRepo.WithTx(tx)

	categories, err := categoryRepo.ListRoomCategoriesByIDs(input.RoomCategoryIDs)
	if err != nil {
		return err
	}
	if len(categories) != len(input.RoomCategoryIDs) {
		return ErrCategoryNotFound
	}
	if err := productRepo.ReplaceRoomCategories(product, categories); err != nil {
		return err
	}

	types, err := categoryRepo.ListProductTypesByIDs(input.ProductTypeIDs)
	if err != nil {
		return err
	}
	if len(types) != len(input.ProductTypeIDs) {
		return ErrCategoryNotFound
	}
	if err := productRepo.ReplaceProductTypes(product, types); err != nil {
		return err
	}

	tags, err := categoryRepo.ListTagsByIDs(input.TagIDs)
	if err != nil {
		return err
	}
	if len(tags) != len(input.TagIDs) {
		return ErrCategoryNotFound
	}
	return productRepo.ReplaceTags(product, tags)
}

// DeleteProduct soft-deletes a product.
func (s *ProductService) DeleteProduct(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.productRepo.Delete(id)
}

// CreateVariation adds a purchasable configuration to a product.
func (s *ProductService) CreateVariation(input VariationInput) (*models.Variation, error) {
	if input.ProductID == 0 || strings.TrimSpace(input.SKU) == "" {
		return nil, ErrVariationNotFound
	}
	if input.StockQuantity < 0 {
		return nil, ErrQuantityInvalid
	}
	if _, err := s.GetByID(input.ProductID); err != nil {
		return nil, err
	}
	count, err := s.variationRepo.CountBySKU(input.SKU, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSKUTaken
	}

	variation := models.Variation{
		ProductID:     input.ProductID,
		SKU:           strings.TrimSpace(input.SKU),
		Attributes:    input.Attributes,
		StockQuantity: input.StockQuantity,
		PriceModifier: models.NewMoneyFromDecimal(input.PriceModifier),
		IsActive:      input.IsActive,
	}
	if err := s.variationRepo.Create(&variation); err != nil {
		return nil, err
	}
	logger.Infow("variation_created", "variation_id", variation.ID, "sku", variation.SKU)
	return s.variationRepo.GetByID(variation.ID)
}

// UpdateVariation saves a variation.
func (s *ProductService) UpdateVariation(id uint, input VariationInput) (*models.Variation, error) {
	variation, err := s.variationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if variation == nil {
		return nil, ErrVariationNotFound
	}
	if strings.TrimSpace(input.SKU) == "" {
		return nil, ErrVariationNotFound
	}
	if input.StockQuantity < 0 {
		return nil, ErrQuantityInvalid
	}
	count, err := s.variationRepo.CountBySKU(input.SKU, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSKUTaken
	}

	variation.SKU = strings.TrimSpace(input.SKU)
	variation.Attributes = input.Attributes
	variation.StockQuantity = input.StockQuantity
	variation.PriceModifier = models.NewMoneyFromDecimal(input.PriceModifier)
	variation.IsActive = input.IsActive
	if err := s.variationRepo.Update(variation); err != nil {
		return nil, err
	}
	return s.variationRepo.GetByID(id)
}

// DeleteVariation soft-deletes a variation. Order items keep their copied
// snapshot and survive the deletion.
func (s *ProductService) DeleteVariation(id uint) error {
	variation, err := s.variationRepo.GetByID(id)
	if err != nil {
		return err
	}
	if variation == nil {
		return ErrVariationNotFound
	}
	return s.variationRepo.Delete(id)
}
