package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/operantis/backoffice-api/internal/cache"
	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// PromotionStore is the read/write surface the promotion service needs.
type PromotionStore interface {
	GetAll() ([]models.Promotion, error)
	GetByID(id int) (*models.Promotion, error)
	Create(p *models.Promotion) error
	Update(p *models.Promotion) error
	Delete(id int) error
}

// PromotionService evaluates promotions against concrete cart contents
// and manages the promotion catalog. Evaluation is a pure function over
// the line items plus one read of the promotion record.
type PromotionService struct {
	store PromotionStore
	cache *cache.PromoCache // nil when Redis is disabled
}

// NewPromotionService constructs a PromotionService.
func NewPromotionService(store PromotionStore, promoCache *cache.PromoCache) *PromotionService {
	return &PromotionService{store: store, cache: promoCache}
}

// Evaluate resolves a promotion and applies its type-specific rules to
// the line items. It returns the promotion and the computed amount, or
// the reason the promotion does not apply.
func (s *PromotionService) Evaluate(ctx context.Context, promotionID int, items []PricedItem) (*models.Promotion, decimal.Decimal, error) {
	p, err := s.lookup(ctx, promotionID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if !p.IsActive {
		return nil, decimal.Zero, utils.ErrPromotionInactive
	}

	now := time.Now()
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return nil, decimal.Zero, utils.ErrPromotionOutOfWindow
	}

	var amount decimal.Decimal
	switch p.Type {
	case models.PromotionBuyXGetY:
		amount, err = evaluateBuyXGetY(p.Conditions.BuyXGetY, items)
	case models.PromotionBundle:
		amount, err = evaluateBundle(p.Conditions.Bundle, items)
	case models.PromotionFlatRate:
		amount, err = evaluateFlatRate(p.Conditions.FlatRate, items)
	default:
		err = utils.ErrPromotionNotApplicable
	}
	if err != nil {
		return nil, decimal.Zero, err
	}

	return p, amount, nil
}

// evaluateBuyXGetY grants the free quantity of the target product when
// the cart holds at least the required quantity of it.
func evaluateBuyXGetY(c *models.BuyXGetYConditions, items []PricedItem) (decimal.Decimal, error) {
	for _, item := range items {
		if item.ProductID == c.ProductID && item.Quantity >= c.RequiredQuantity {
			return item.UnitPrice.Mul(decimal.NewFromInt(int64(c.FreeQuantity))), nil
		}
	}
	return decimal.Zero, utils.ErrPromotionNotApplicable
}

// evaluateBundle requires every bundle product in the cart. Partial
// matches are invalid. A fixed-price bundle may produce a negative
// amount when the fixed price exceeds the bundle's original sum; that
// mirrors the documented pricing rules and is not clamped.
func evaluateBundle(c *models.BundleConditions, items []PricedItem) (decimal.Decimal, error) {
	bundleSum := decimal.Zero
	matched := 0
	for _, id := range c.ProductIDs {
		for _, item := range items {
			if item.ProductID == id {
				bundleSum = bundleSum.Add(item.LineTotal())
				matched++
				break
			}
		}
	}
	if matched != len(c.ProductIDs) {
		return decimal.Zero, utils.ErrPromotionNotApplicable
	}

	if c.DiscountPercentage != nil {
		return bundleSum.Mul(*c.DiscountPercentage).Div(decimal.NewFromInt(100)), nil
	}
	return bundleSum.Sub(*c.FixedPrice), nil
}

// evaluateFlatRate grants a flat amount once the order total reaches
// the minimum, independent of order size beyond it.
func evaluateFlatRate(c *models.FlatRateConditions, items []PricedItem) (decimal.Decimal, error) {
	if Subtotal(items).LessThan(c.MinimumAmount) {
		return decimal.Zero, utils.ErrPromotionNotApplicable
	}
	return c.DiscountAmount, nil
}

// lookup reads through the cache when one is configured.
func (s *PromotionService) lookup(ctx context.Context, id int) (*models.Promotion, error) {
	if s.cache != nil {
		if p, err := s.cache.GetPromotion(ctx, id); err != nil {
			log.Warn().Err(err).Int("promotion_id", id).Msg("promotion cache read failed")
		} else if p != nil {
			return p, nil
		}
	}

	p, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPromotion(ctx, p); err != nil {
			log.Warn().Err(err).Int("promotion_id", id).Msg("promotion cache write failed")
		}
	}
	return p, nil
}

// invalidate drops a promotion from the cache after a write.
func (s *PromotionService) invalidate(ctx context.Context, id int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePromotion(ctx, id); err != nil {
		log.Warn().Err(err).Int("promotion_id", id).Msg("promotion cache invalidation failed")
	}
}

// List returns all promotions.
func (s *PromotionService) List() ([]models.Promotion, error) {
	return s.store.GetAll()
}

// Get returns a promotion by id.
func (s *PromotionService) Get(id int) (*models.Promotion, error) {
	return s.store.GetByID(id)
}

// Create persists a new promotion. Conditions must already be parsed
// into the typed union.
func (s *PromotionService) Create(ctx context.Context, p *models.Promotion) error {
	if err := s.store.Create(p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

// Update persists changes to a promotion.
func (s *PromotionService) Update(ctx context.Context, p *models.Promotion) error {
	if err := s.store.Update(p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

// Delete removes a promotion that no sale references.
func (s *PromotionService) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}
