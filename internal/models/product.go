package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog product with base/sale pricing.
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	BasePrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`
	SalePrice   *Money         `gorm:"type:decimal(20,2)" json:"sale_price,omitempty"`
	SaleStart   *time.Time     `gorm:"index" json:"sale_start,omitempty"`
	SaleEnd     *time.Time     `gorm:"index" json:"sale_end,omitempty"`
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	RoomCategories []RoomCategory `gorm:"many2many:product_room_categories" json:"room_categories,omitempty"`
	ProductTypes   []ProductType  `gorm:"many2many:product_product_types" json:"product_types,omitempty"`
	Tags           []Tag          `gorm:"many2many:product_tags" json:"tags,omitempty"`
	Variations     []Variation    `gorm:"foreignKey:ProductID" json:"variations,omitempty"`
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}

// IsOnSale reports whether the sale window is active at the given instant.
// A sale price with no window bounds counts as always on sale.
func (p *Product) IsOnSale(now time.Time) bool {
	if p.SalePrice == nil {
		return false
	}
	switch {
	case p.SaleStart != nil && p.SaleEnd != nil:
		return !now.Before(*p.SaleStart) && now.Before(*p.SaleEnd)
	case p.SaleStart != nil:
		return !now.Before(*p.SaleStart)
	case p.SaleEnd != nil:
		return now.Before(*p.SaleEnd)
	default:
		return true
	}
}

// CurrentPrice resolves the effective price at the given instant. The value
// is derived, never stored; orders freeze it into OrderItem.UnitPrice.
func (p *Product) CurrentPrice(now time.Time) decimal.Decimal {
	if p.IsOnSale(now) && p.SalePrice != nil {
		return p.SalePrice.Decimal
	}
	return p.BasePrice.Decimal
}
