package repository

import (
	"errors"

	"github.com/sofahub/sofahub-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is the cart data access interface.
type CartRepository interface {
	GetBySession(sessionID string) (*models.Cart, error)
	GetOrCreateBySession(sessionID string) (*models.Cart, error)
	LockBySession(sessionID string) (*models.Cart, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	GetItem(cartID, variationID uint) (*models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteItem(cartID, variationID uint) error
	ClearItems(cartID uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository is the GORM implementation.
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates the cart repository.
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// Transaction runs fn inside a transaction.
func (r *GormCartRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetBySession returns the cart for a session with items and their
// variations preloaded, nil when absent.
func (r *GormCartRepository) GetBySession(sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Preload("Items.Variation").
		Preload("Items.Variation.Product").
		Where("session_id = ?", sessionID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateBySession returns the session's cart, creating an empty one
// when none exists yet.
func (r *GormCartRepository) GetOrCreateBySession(sessionID string) (*models.Cart, error) {
	cart, err := r.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	created := models.Cart{SessionID: sessionID}
	if err := r.db.Create(&created).Error; err != nil {
		return nil, err
	}
	created.Items = []models.CartItem{}
	return &created, nil
}

// LockBySession fetches the cart row FOR UPDATE so concurrent checkouts of
// the same session serialize on it. Must run inside a transaction.
func (r *GormCartRepository) LockBySession(sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListItems returns a cart's items with variations and products preloaded.
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Variation").
		Preload("Variation.Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns one (cart, variation) row, nil when absent.
func (r *GormCartRepository) GetItem(cartID, variationID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("cart_id = ? AND variation_id = ?", cartID, variationID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert writes a cart line, updating quantity when the (cart, variation)
// pair already exists.
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where("cart_id = ? AND variation_id = ?", item.CartID, item.VariationID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(item).Error
	}
	if err != nil {
		return err
	}
	if err := r.db.Model(&existing).Update("quantity", item.Quantity).Error; err != nil {
		return err
	}
	item.ID = existing.ID
	return nil
}

// DeleteItem removes one cart line.
func (r *GormCartRepository) DeleteItem(cartID, variationID uint) error {
	return r.db.Where("cart_id = ? AND variation_id = ?", cartID, variationID).Delete(&models.CartItem{}).Error
}

// ClearItems empties a cart without deleting the cart row.
func (r *GormCartRepository) ClearItems(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
