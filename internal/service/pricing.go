package service

import "github.com/shopspring/decimal"

// PricedItem is a requested line item with its unit price already
// resolved from the catalog. Evaluation and pricing work exclusively
// with these frozen prices; the catalog is never re-read mid-pricing.
type PricedItem struct {
	ProductID int
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity × unit price.
func (i PricedItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums quantity × unit price over all line items.
func Subtotal(items []PricedItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Total computes subtotal minus discount minus promotion. Amounts are
// not clamped: a discount larger than the subtotal yields a negative
// total, matching the documented pricing rules.
func Total(subtotal, discountAmount, promotionAmount decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discountAmount).Sub(promotionAmount)
}
