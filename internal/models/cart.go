package models

import (
	"time"
)

// Cart is a session-scoped shopping cart. The session token is opaque and
// stable for the life of an anonymous session; the cart row itself survives
// checkout (only its items are deleted).
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SessionID string    `gorm:"uniqueIndex;not null;type:varchar(36)" json:"session_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

// TableName sets the table name.
func (Cart) TableName() string {
	return "carts"
}

// CartItem is a (cart, variation) pair; the pair is unique so adding the
// same variation again increments quantity instead of duplicating rows.
type CartItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CartID      uint      `gorm:"not null;uniqueIndex:idx_cart_variation" json:"cart_id"`
	VariationID uint      `gorm:"not null;uniqueIndex:idx_cart_variation" json:"variation_id"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt   time.Time `gorm:"index" json:"added_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Variation *Variation `gorm:"foreignKey:VariationID" json:"variation,omitempty"`
}

// TableName sets the table name.
func (CartItem) TableName() string {
	return "cart_items"
}
