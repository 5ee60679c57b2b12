package models

import (
	"time"

	"gorm.io/gorm"
)

// Redirect maps a retired path to its replacement. Rows are written
// explicitly by rename operations, in the same transaction as the rename.
type Redirect struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	OldPath     string         `gorm:"uniqueIndex;not null;type:varchar(500)" json:"old_path"`
	NewPath     string         `gorm:"not null;type:varchar(500)" json:"new_path"`
	IsPermanent bool           `gorm:"default:true" json:"is_permanent"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Redirect) TableName() string {
	return "redirects"
}
