package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariationAttributes is the typed attribute set of a purchasable
// configuration. Stored as a JSON column; only these keys are allowed.
type VariationAttributes struct {
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
	Size     string `json:"size,omitempty"`
}

// Value implements driver.Valuer.
func (a VariationAttributes) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *VariationAttributes) Scan(value interface{}) error {
	if value == nil {
		*a = VariationAttributes{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return nil
	}
}

// Display renders the attributes as a human-readable string.
func (a VariationAttributes) Display() string {
	parts := make([]string, 0, 3)
	if a.Color != "" {
		parts = append(parts, a.Color)
	}
	if a.Material != "" {
		parts = append(parts, a.Material)
	}
	if a.Size != "" {
		parts = append(parts, a.Size)
	}
	return strings.Join(parts, " / ")
}

// Variation is a purchasable configuration of a product with its own SKU,
// stock and price modifier.
type Variation struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	ProductID     uint                `gorm:"index;not null" json:"product_id"`
	SKU           string              `gorm:"uniqueIndex;not null" json:"sku"`
	Attributes    VariationAttributes `gorm:"type:json" json:"attributes"`
	StockQuantity int                 `gorm:"not null;default:0" json:"stock_quantity"`
	PriceModifier Money               `gorm:"type:decimal(20,2);not null;default:0" json:"price_modifier"`
	IsActive      bool                `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName sets the table name.
func (Variation) TableName() string {
	return "variations"
}

// Price resolves the effective unit price at the given instant: the owning
// product's current price plus this variation's modifier.
func (v *Variation) Price(now time.Time) decimal.Decimal {
	base := decimal.Zero
	if v.Product != nil {
		base = v.Product.CurrentPrice(now)
	}
	return base.Add(v.PriceModifier.Decimal)
}
