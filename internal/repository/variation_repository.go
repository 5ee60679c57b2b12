package repository

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/models"

	"gorm.io/gorm"
)

// VariationRepository is the variation data access interface.
type VariationRepository interface {
	GetByID(id uint) (*models.Variation, error)
	GetBySKU(sku string) (*models.Variation, error)
	ListByIDs(ids []uint) ([]models.Variation, error)
	Create(variation *models.Variation) error
	Update(variation *models.Variation) error
	Delete(id uint) error
	CountBySKU(sku string, excludeID *uint) (int64, error)
	ReserveStock(variationID uint, quantity int) (int64, error)
	ReleaseStock(variationID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) VariationRepository
}

// GormVariationRepository is the GORM implementation.
type GormVariationRepository struct {
	db *gorm.DB
}

// NewVariationRepository creates the variation repository.
func NewVariationRepository(db *gorm.DB) *GormVariationRepository {
	return &GormVariationRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormVariationRepository) WithTx(tx *gorm.DB) VariationRepository {
	if tx == nil {
		return r
	}
	return &GormVariationRepository{db: tx}
}

// GetByID returns a variation with its product preloaded, nil when absent.
func (r *GormVariationRepository) GetByID(id uint) (*models.Variation, error) {
	var variation models.Variation
	if err := r.db.Preload("Product").First(&variation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variation, nil
}

// GetBySKU returns a variation by SKU, nil when absent.
func (r *GormVariationRepository) GetBySKU(sku string) (*models.Variation, error) {
	var variation models.Variation
	if err := r.db.Preload("Product").Where("sku = ?", sku).First(&variation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variation, nil
}

// ListByIDs batch-loads variations with their products.
func (r *GormVariationRepository) ListByIDs(ids []uint) ([]models.Variation, error) {
	if len(ids) == 0 {
		return []models.Variation{}, nil
	}
	var variations []models.Variation
	if err := r.db.Preload("Product").Where("id IN ?", ids).Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}

// Create inserts a variation.
func (r *GormVariationRepository) Create(variation *models.Variation) error {
	return r.db.Create(variation).Error
}

// Update saves a variation.
func (r *GormVariationRepository) Update(variation *models.Variation) error {
	return r.db.Save(variation).Error
}

// Delete soft-deletes a variation.
func (r *GormVariationRepository) Delete(id uint) error {
	return r.db.Delete(&models.Variation{}, id).Error
}

// CountBySKU counts variations holding a SKU, optionally excluding one ID.
func (r *GormVariationRepository) CountBySKU(sku string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Variation{}).Where("sku = ?", sku)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReserveStock decrements stock only when enough remains. The returned
// rows-affected count is 0 when the guard fails, which callers treat as
// insufficient stock.
func (r *GormVariationRepository) ReserveStock(variationID uint, quantity int) (int64, error) {
	if variationID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.Variation{}).
		Where("id = ? AND stock_quantity >= ?", variationID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseStock returns previously reserved stock after a cancellation.
func (r *GormVariationRepository) ReleaseStock(variationID uint, quantity int) (int64, error) {
	if variationID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.Variation{}).
		Where("id = ?", variationID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
