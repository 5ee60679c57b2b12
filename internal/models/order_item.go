package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem is a purchased line frozen at order-creation time. Product name
// and variation attributes are copied by value so later catalog edits or
// deletions cannot corrupt order history; the variation link is nullable and
// survives variation deletion.
type OrderItem struct {
	ID                  uint                `gorm:"primarykey" json:"id"`
	OrderID             uint                `gorm:"index;not null" json:"order_id"`
	VariationID         *uint               `gorm:"index" json:"variation_id,omitempty"`
	ProductName         string              `gorm:"not null" json:"product_name"`
	VariationSKU        string              `gorm:"type:varchar(50)" json:"variation_sku"`
	VariationAttributes VariationAttributes `gorm:"type:json" json:"variation_attributes"`
	Quantity            int                 `gorm:"not null" json:"quantity"`
	UnitPrice           Money               `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	TotalPrice          Money               `gorm:"type:decimal(20,2);not null" json:"total_price"`
	CreatedAt           time.Time           `gorm:"index" json:"created_at"`
	DeletedAt           gorm.DeletedAt      `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (OrderItem) TableName() string {
	return "order_items"
}
