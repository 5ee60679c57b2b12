package repository

import (
	"errors"
	"strings"

	"github.com/sofahub/sofahub-api/internal/models"

	"gorm.io/gorm"
)

// ProductRepository is the catalog data access interface.
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	ReplaceRoomCategories(product *models.Product, categories []models.RoomCategory) error
	ReplaceProductTypes(product *models.Product, types []models.ProductType) error
	ReplaceTags(product *models.Product, tags []models.Tag) error
	Delete(id uint) error
	CountBySlug(slug string, excludeID *uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository is the GORM implementation.
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates the product repository.
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction runs fn inside a transaction.
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// List returns a product page.
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{}).
		Preload("RoomCategories").
		Preload("ProductTypes").
		Preload("Tags")
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
		query = query.Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("id ASC")
		})
	} else {
		query = query.Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}
	if filter.RoomCategoryID != 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM product_room_categories prc WHERE prc.product_id = products.id AND prc.room_category_id = ?)",
			filter.RoomCategoryID,
		)
	}
	if filter.ProductTypeID != 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM product_product_types ppt WHERE ppt.product_id = products.id AND ppt.product_type_id = ?)",
			filter.ProductTypeID,
		)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR slug LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("created_at DESC, id DESC").Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetBySlug returns a product by slug, nil when absent.
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	query := r.db.Preload("RoomCategories").
		Preload("ProductTypes").
		Preload("Tags").
		Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("is_active = ?", true)
		query = query.Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("id ASC")
		})
	} else {
		query = query.Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByID returns a product by ID, nil when absent.
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("RoomCategories").
		Preload("ProductTypes").
		Preload("Tags").
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create inserts a product.
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update saves a product.
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// ReplaceRoomCategories rewrites the room category association set.
func (r *GormProductRepository) ReplaceRoomCategories(product *models.Product, categories []models.RoomCategory) error {
	return r.db.Model(product).Association("RoomCategories").Replace(categories)
}

// ReplaceProductTypes rewrites the product type association set.
func (r *GormProductRepository) ReplaceProductTypes(product *models.Product, types []models.ProductType) error {
	return r.db.Model(product).Association("ProductTypes").Replace(types)
}

// ReplaceTags rewrites the tag association set.
func (r *GormProductRepository) ReplaceTags(product *models.Product, tags []models.Tag) error {
	return r.db.Model(product).Association("Tags").Replace(tags)
}

// Delete soft-deletes a product.
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// CountBySlug counts products holding a slug, optionally excluding one ID.
func (r *GormProductRepository) CountBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
