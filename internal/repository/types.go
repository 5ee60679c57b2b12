package repository

import "time"

// ProductListFilter filters product list queries.
type ProductListFilter struct {
	Page           int
	PageSize       int
	RoomCategoryID uint
	ProductTypeID  uint
	Search         string
	OnlyActive     bool
}

// OrderListFilter filters order list queries.
type OrderListFilter struct {
	Page        int
	PageSize    int
	Status      string
	CartSession string
	Phone       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
