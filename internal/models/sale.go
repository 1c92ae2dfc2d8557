package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable record of a completed sale. Created atomically
// with its items and the matching stock decrements; the only other
// lifecycle event is deletion, which reverses the decrements.
type Sale struct {
	ID              int             `db:"id" json:"id"`
	SaleNumber      string          `db:"sale_number" json:"saleNumber"`
	CustomerID      *int            `db:"customer_id" json:"customerId,omitempty"`
	UserID          int             `db:"user_id" json:"userId"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	PromotionAmount decimal.Decimal `db:"promotion_amount" json:"promotionAmount"`
	Total           decimal.Decimal `db:"total" json:"total"`
	DiscountID      *int            `db:"discount_id" json:"discountId,omitempty"`
	PromotionID     *int            `db:"promotion_id" json:"promotionId,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`

	Items []SaleItem `db:"-" json:"items"`
}

// SaleItem is a persisted line item. UnitPrice is copied from the
// product at sale time so historical sales reprice consistently even
// if the catalog price later changes.
type SaleItem struct {
	ID        int             `db:"id" json:"id"`
	SaleID    int             `db:"sale_id" json:"-"`
	ProductID int             `db:"product_id" json:"productId"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`

	// Expansions populated on reads.
	ProductName string `db:"product_name" json:"productName,omitempty"`
	ProductSKU  string `db:"product_sku" json:"productSku,omitempty"`
}

// LineItem is a transient (productId, quantity) pair supplied by the
// caller when creating a sale.
type LineItem struct {
	ProductID int `json:"productId" binding:"required"`
	Quantity  int `json:"quantity" binding:"required"`
}
