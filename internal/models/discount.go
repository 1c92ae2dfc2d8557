package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
)

// Discount is a code-activated price reduction with a validity window
// and an optional usage cap. UsedCount is incremented inside the sale
// transaction, never by the evaluator.
type Discount struct {
	ID          int              `db:"id" json:"id"`
	Code        string           `db:"code" json:"code"`
	Type        DiscountType     `db:"type" json:"type"`
	Value       decimal.Decimal  `db:"value" json:"value"`
	MinPurchase *decimal.Decimal `db:"min_purchase" json:"minPurchase,omitempty"`
	StartDate   time.Time        `db:"start_date" json:"startDate"`
	EndDate     time.Time        `db:"end_date" json:"endDate"`
	MaxUses     *int             `db:"max_uses" json:"maxUses,omitempty"`
	UsedCount   int              `db:"used_count" json:"usedCount"`
	IsActive    bool             `db:"is_active" json:"isActive"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"-"`
}

// ValidateValue checks the type/value invariant: percentages stay in
// [0,100], fixed amounts must be positive.
func (d *Discount) ValidateValue() bool {
	switch d.Type {
	case DiscountPercentage:
		return d.Value.GreaterThanOrEqual(decimal.Zero) && d.Value.LessThanOrEqual(decimal.NewFromInt(100))
	case DiscountFixed:
		return d.Value.GreaterThan(decimal.Zero)
	default:
		return false
	}
}
