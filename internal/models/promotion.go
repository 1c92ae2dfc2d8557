package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	PromotionBuyXGetY PromotionType = "BUY_X_GET_Y"
	PromotionBundle   PromotionType = "BUNDLE"
	PromotionFlatRate PromotionType = "FLAT_RATE"
)

// BuyXGetYConditions applies to a single product: buying at least
// RequiredQuantity units grants FreeQuantity units at no charge.
type BuyXGetYConditions struct {
	ProductID        int `json:"productId"`
	RequiredQuantity int `json:"requiredQuantity"`
	FreeQuantity     int `json:"freeQuantity"`
}

// BundleConditions applies when every listed product is present in the
// cart. Exactly one of DiscountPercentage or FixedPrice must be set.
type BundleConditions struct {
	ProductIDs         []int            `json:"products"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	FixedPrice         *decimal.Decimal `json:"fixedPrice,omitempty"`
}

// FlatRateConditions grants a flat discount once the order total
// reaches MinimumAmount.
type FlatRateConditions struct {
	MinimumAmount  decimal.Decimal `json:"minimumAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// PromotionConditions is the tagged union of per-type condition
// payloads. Exactly one variant is populated, selected by the owning
// promotion's type.
type PromotionConditions struct {
	BuyXGetY *BuyXGetYConditions
	Bundle   *BundleConditions
	FlatRate *FlatRateConditions
}

var ErrInvalidConditions = errors.New("invalid promotion conditions")

// ParseConditions decodes and validates the raw conditions payload for
// the given promotion type. Unknown types and payloads that fail the
// per-type invariants are rejected up front rather than at read time.
func ParseConditions(t PromotionType, raw json.RawMessage) (PromotionConditions, error) {
	var c PromotionConditions
	switch t {
	case PromotionBuyXGetY:
		var v BuyXGetYConditions
		if err := json.Unmarshal(raw, &v); err != nil {
			return c, ErrInvalidConditions
		}
		if v.ProductID <= 0 || v.RequiredQuantity <= 0 || v.FreeQuantity <= 0 {
			return c, ErrInvalidConditions
		}
		c.BuyXGetY = &v
	case PromotionBundle:
		var v BundleConditions
		if err := json.Unmarshal(raw, &v); err != nil {
			return c, ErrInvalidConditions
		}
		if len(v.ProductIDs) < 2 {
			return c, ErrInvalidConditions
		}
		// discountPercentage XOR fixedPrice
		if (v.DiscountPercentage == nil) == (v.FixedPrice == nil) {
			return c, ErrInvalidConditions
		}
		c.Bundle = &v
	case PromotionFlatRate:
		var v FlatRateConditions
		if err := json.Unmarshal(raw, &v); err != nil {
			return c, ErrInvalidConditions
		}
		if v.MinimumAmount.LessThan(decimal.Zero) {
			return c, ErrInvalidConditions
		}
		c.FlatRate = &v
	default:
		return c, ErrInvalidConditions
	}
	return c, nil
}

// MarshalJSON emits the populated variant's payload directly, matching
// the shape stored in the conditions column.
func (c PromotionConditions) MarshalJSON() ([]byte, error) {
	switch {
	case c.BuyXGetY != nil:
		return json.Marshal(c.BuyXGetY)
	case c.Bundle != nil:
		return json.Marshal(c.Bundle)
	case c.FlatRate != nil:
		return json.Marshal(c.FlatRate)
	}
	return []byte("null"), nil
}

// Promotion is a catalog-driven conditional price reduction evaluated
// against the concrete cart contents.
type Promotion struct {
	ID          int                 `db:"id" json:"id"`
	Name        string              `db:"name" json:"name"`
	Description *string             `db:"description" json:"description,omitempty"`
	Type        PromotionType       `db:"type" json:"type"`
	Conditions  PromotionConditions `db:"-" json:"conditions"`
	StartDate   time.Time           `db:"start_date" json:"startDate"`
	EndDate     time.Time           `db:"end_date" json:"endDate"`
	IsActive    bool                `db:"is_active" json:"isActive"`
	CreatedAt   time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `db:"updated_at" json:"-"`

	// RawConditions carries the jsonb payload as stored; Conditions is
	// the parsed form populated by the repository.
	RawConditions json.RawMessage `db:"-" json:"-"`
}
