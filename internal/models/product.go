package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. Stock is mutated only by sale
// creation (decrement) and sale deletion (increment).
type Product struct {
	ID          int             `db:"id" json:"id"`
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"-"`
}
