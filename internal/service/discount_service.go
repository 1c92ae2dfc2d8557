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

// DiscountStore is the read/write surface the discount service needs.
type DiscountStore interface {
	GetAll() ([]models.Discount, error)
	GetByID(id int) (*models.Discount, error)
	GetByCode(code string) (*models.Discount, error)
	Create(d *models.Discount) error
	Update(d *models.Discount) error
	Delete(id int) error
}

// DiscountService validates discount codes against order subtotals and
// manages the discount catalog. Evaluation is strictly read-only: the
// usage counter is incremented by the sale transaction, never here.
type DiscountService struct {
	store DiscountStore
	cache *cache.PromoCache // nil when Redis is disabled
}

// NewDiscountService constructs a DiscountService.
func NewDiscountService(store DiscountStore, promoCache *cache.PromoCache) *DiscountService {
	return &DiscountService{store: store, cache: promoCache}
}

// Evaluate resolves a code and checks every gate in order: existence,
// active flag, validity window, minimum purchase, usage cap. On success
// it returns the discount and the computed amount. The amount is NOT
// clamped to the subtotal.
func (s *DiscountService) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.Discount, decimal.Decimal, error) {
	d, err := s.lookup(ctx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if !d.IsActive {
		return nil, decimal.Zero, utils.ErrDiscountInactive
	}

	now := time.Now()
	if now.Before(d.StartDate) || now.After(d.EndDate) {
		return nil, decimal.Zero, utils.ErrDiscountOutOfWindow
	}

	if d.MinPurchase != nil && subtotal.LessThan(*d.MinPurchase) {
		return nil, decimal.Zero, utils.ErrDiscountBelowMinimum
	}

	if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
		return nil, decimal.Zero, utils.ErrDiscountExhausted
	}

	var amount decimal.Decimal
	switch d.Type {
	case models.DiscountPercentage:
		amount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	case models.DiscountFixed:
		amount = d.Value
	}

	return d, amount, nil
}

// lookup reads through the cache when one is configured. Cache failures
// fall back to the store; they are never user-visible.
func (s *DiscountService) lookup(ctx context.Context, code string) (*models.Discount, error) {
	if s.cache != nil {
		if d, err := s.cache.GetDiscount(ctx, code); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("discount cache read failed")
		} else if d != nil {
			return d, nil
		}
	}

	d, err := s.store.GetByCode(code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDiscount(ctx, d); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("discount cache write failed")
		}
	}
	return d, nil
}

// Invalidate drops a code from the cache. Called after any write that
// changes the record, including the usage increment inside the sale
// transaction.
func (s *DiscountService) Invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDiscount(ctx, code); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("discount cache invalidation failed")
	}
}

// List returns all discounts.
func (s *DiscountService) List() ([]models.Discount, error) {
	return s.store.GetAll()
}

// Get returns a discount by id.
func (s *DiscountService) Get(id int) (*models.Discount, error) {
	return s.store.GetByID(id)
}

// Create validates and persists a new discount.
func (s *DiscountService) Create(ctx context.Context, d *models.Discount) error {
	if !d.ValidateValue() {
		return utils.ErrInvalidDiscountValue
	}
	if err := s.store.Create(d); err != nil {
		return err
	}
	s.Invalidate(ctx, d.Code)
	return nil
}

// Update validates and persists changes to a discount.
func (s *DiscountService) Update(ctx context.Context, d *models.Discount) error {
	if !d.ValidateValue() {
		return utils.ErrInvalidDiscountValue
	}
	prev, err := s.store.GetByID(d.ID)
	if err != nil {
		return err
	}
	if err := s.store.Update(d); err != nil {
		return err
	}
	s.Invalidate(ctx, prev.Code)
	s.Invalidate(ctx, d.Code)
	return nil
}

// Delete removes a discount that no sale references.
func (s *DiscountService) Delete(ctx context.Context, id int) error {
	d, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.Invalidate(ctx, d.Code)
	return nil
}
