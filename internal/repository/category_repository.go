package repository

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository covers the three catalog taxonomies: room categories,
// product types and tags.
type CategoryRepository interface {
	ListRoomCategories(onlyActive bool) ([]models.RoomCategory, error)
	GetRoomCategoryByID(id uint) (*models.RoomCategory, error)
	GetRoomCategoryBySlug(slug string) (*models.RoomCategory, error)
	CreateRoomCategory(category *models.RoomCategory) error
	UpdateRoomCategory(category *models.RoomCategory) error
	DeleteRoomCategory(id uint) error
	CountRoomCategoryBySlug(slug string, excludeID *uint) (int64, error)

	ListProductTypes(onlyActive bool) ([]models.ProductType, error)
	GetProductTypeByID(id uint) (*models.ProductType, error)
	GetProductTypeBySlug(slug string) (*models.ProductType, error)
	CreateProductType(productType *models.ProductType) error
	UpdateProductType(productType *models.ProductType) error
	DeleteProductType(id uint) error
	CountProductTypeBySlug(slug string, excludeID *uint) (int64, error)

	ListTags() ([]models.Tag, error)
	GetTagByID(id uint) (*models.Tag, error)
	CreateTag(tag *models.Tag) error
	DeleteTag(id uint) error
	ListTagsByIDs(ids []uint) ([]models.Tag, error)
	ListRoomCategoriesByIDs(ids []uint) ([]models.RoomCategory, error)
	ListProductTypesByIDs(ids []uint) ([]models.ProductType, error)

	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CategoryRepository
}

// GormCategoryRepository is the GORM implementation.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates the category repository.
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCategoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	if tx == nil {
		return r
	}
	return &GormCategoryRepository{db: tx}
}

// Transaction runs fn inside a transaction.
func (r *GormCategoryRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// ListRoomCategories returns room categories ordered for display.
func (r *GormCategoryRepository) ListRoomCategories(onlyActive bool) ([]models.RoomCategory, error) {
	var categories []models.RoomCategory
	query := r.db.Model(&models.RoomCategory{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order DESC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetRoomCategoryByID returns a room category, nil when absent.
func (r *GormCategoryRepository) GetRoomCategoryByID(id uint) (*models.RoomCategory, error) {
	var category models.RoomCategory
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetRoomCategoryBySlug returns a room category by slug, nil when absent.
func (r *GormCategoryRepository) GetRoomCategoryBySlug(slug string) (*models.RoomCategory, error) {
	var category models.RoomCategory
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// CreateRoomCategory inserts a room category.
func (r *GormCategoryRepository) CreateRoomCategory(category *models.RoomCategory) error {
	return r.db.Create(category).Error
}

// UpdateRoomCategory saves a room category.
func (r *GormCategoryRepository) UpdateRoomCategory(category *models.RoomCategory) error {
	return r.db.Save(category).Error
}

// DeleteRoomCategory soft-deletes a room category.
func (r *GormCategoryRepository) DeleteRoomCategory(id uint) error {
	return r.db.Delete(&models.RoomCategory{}, id).Error
}

// CountRoomCategoryBySlug counts room categories holding a slug.
func (r *GormCategoryRepository) CountRoomCategoryBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.RoomCategory{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListProductTypes returns product types ordered for display.
func (r *GormCategoryRepository) ListProductTypes(onlyActive bool) ([]models.ProductType, error) {
	var types []models.ProductType
	query := r.db.Model(&models.ProductType{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order DESC, id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// GetProductTypeByID returns a product type, nil when absent.
func (r *GormCategoryRepository) GetProductTypeByID(id uint) (*models.ProductType, error) {
	var productType models.ProductType
	if err := r.db.First(&productType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &productType, nil
}

// GetProductTypeBySlug returns a product type by slug, nil when absent.
func (r *GormCategoryRepository) GetProductTypeBySlug(slug string) (*models.ProductType, error) {
	var productType models.ProductType
	if err := r.db.Where("slug = ?", slug).First(&productType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &productType, nil
}

// CreateProductType inserts a product type.
func (r *GormCategoryRepository) CreateProductType(productType *models.ProductType) error {
	return r.db.Create(productType).Error
}

// UpdateProductType saves a product type.
func (r *GormCategoryRepository) UpdateProductType(productType *models.ProductType) error {
	return r.db.Save(productType).Error
}

// DeleteProductType soft-deletes a product type.
func (r *GormCategoryRepository) DeleteProductType(id uint) error {
	return r.db.Delete(&models.ProductType{}, id).Error
}

// CountProductTypeBySlug counts product types holding a slug.
func (r *GormCategoryRepository) CountProductTypeBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.ProductType{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListTags returns all tags.
func (r *GormCategoryRepository) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.Order("id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetTagByID returns a tag, nil when absent.
func (r *GormCategoryRepository) GetTagByID(id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// CreateTag inserts a tag.
func (r *GormCategoryRepository) CreateTag(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

// DeleteTag soft-deletes a tag.
func (r *GormCategoryRepository) DeleteTag(id uint) error {
	return r.db.Delete(&models.Tag{}, id).Error
}

// ListTagsByIDs batch-loads tags.
func (r *GormCategoryRepository) ListTagsByIDs(ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	if err := r.db.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ListRoomCategoriesByIDs batch-loads room categories.
func (r *GormCategoryRepository) ListRoomCategoriesByIDs(ids []uint) ([]models.RoomCategory, error) {
	if len(ids) == 0 {
		return []models.RoomCategory{}, nil
	}
	var categories []models.RoomCategory
	if err := r.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListProductTypesByIDs batch-loads product types.
func (r *GormCategoryRepository) ListProductTypesByIDs(ids []uint) ([]models.ProductType, error) {
	if len(ids) == 0 {
		return []models.ProductType{}, nil
	}
	var types []models.ProductType
	if err := r.db.Where("id IN ?", ids).Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
