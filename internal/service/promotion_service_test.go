package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

type fakePromotionStore struct {
	byID map[int]*models.Promotion
}

func newFakePromotionStore(promotions ...*models.Promotion) *fakePromotionStore {
	s := &fakePromotionStore{byID: make(map[int]*models.Promotion)}
	for _, p := range promotions {
		s.byID[p.ID] = p
	}
	return s
}

func (s *fakePromotionStore) GetAll() ([]models.Promotion, error) {
	var out []models.Promotion
	for _, p := range s.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakePromotionStore) GetByID(id int) (*models.Promotion, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, utils.ErrPromotionNotFound
	}
	copy := *p
	return &copy, nil
}

func (s *fakePromotionStore) Create(p *models.Promotion) error { s.byID[p.ID] = p; return nil }
func (s *fakePromotionStore) Update(p *models.Promotion) error { s.byID[p.ID] = p; return nil }
func (s *fakePromotionStore) Delete(id int) error              { delete(s.byID, id); return nil }

func activePromotion(t models.PromotionType, c models.PromotionConditions) *models.Promotion {
	return &models.Promotion{
		ID:         1,
		Name:       "test promotion",
		Type:       t,
		Conditions: c,
		StartDate:  time.Now().Add(-time.Hour),
		EndDate:    time.Now().Add(time.Hour),
		IsActive:   true,
	}
}

func TestEvaluateBuyXGetYApplies(t *testing.T) {
	p := activePromotion(models.PromotionBuyXGetY, models.PromotionConditions{
		BuyXGetY: &models.BuyXGetYConditions{ProductID: 7, RequiredQuantity: 3, FreeQuantity: 1},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{{ProductID: 7, Quantity: 3, UnitPrice: dec("25")}}
	_, amount, err := svc.Evaluate(context.Background(), 1, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("25")))
}

func TestEvaluateBuyXGetYQuantityTooLow(t *testing.T) {
	p := activePromotion(models.PromotionBuyXGetY, models.PromotionConditions{
		BuyXGetY: &models.BuyXGetYConditions{ProductID: 7, RequiredQuantity: 3, FreeQuantity: 1},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{{ProductID: 7, Quantity: 2, UnitPrice: dec("25")}}
	_, _, err := svc.Evaluate(context.Background(), 1, items)
	assert.ErrorIs(t, err, utils.ErrPromotionNotApplicable)
}

func TestEvaluateBundlePercentage(t *testing.T) {
	pct := dec("25")
	p := activePromotion(models.PromotionBundle, models.PromotionConditions{
		Bundle: &models.BundleConditions{ProductIDs: []int{1, 2}, DiscountPercentage: &pct},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{
		{ProductID: 1, Quantity: 1, UnitPrice: dec("40")},
		{ProductID: 2, Quantity: 2, UnitPrice: dec("30")},
		{ProductID: 3, Quantity: 1, UnitPrice: dec("99")}, // outside the bundle
	}
	// Bundle sum is 40 + 60 = 100; 25% of it is 25.
	_, amount, err := svc.Evaluate(context.Background(), 1, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("25")))
}

func TestEvaluateBundleFixedPrice(t *testing.T) {
	fixed := dec("50")
	p := activePromotion(models.PromotionBundle, models.PromotionConditions{
		Bundle: &models.BundleConditions{ProductIDs: []int{1, 2}, FixedPrice: &fixed},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{
		{ProductID: 1, Quantity: 1, UnitPrice: dec("30")},
		{ProductID: 2, Quantity: 1, UnitPrice: dec("40")},
	}
	// Bundle sum 70 collapses to the fixed price 50: the amount is 20.
	_, amount, err := svc.Evaluate(context.Background(), 1, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("20")))
}

func TestEvaluateBundleFixedPriceAboveSum(t *testing.T) {
	// Fixed price above the bundle sum yields a negative amount; the
	// pricing rules do not clamp it.
	fixed := dec("100")
	p := activePromotion(models.PromotionBundle, models.PromotionConditions{
		Bundle: &models.BundleConditions{ProductIDs: []int{1, 2}, FixedPrice: &fixed},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{
		{ProductID: 1, Quantity: 1, UnitPrice: dec("30")},
		{ProductID: 2, Quantity: 1, UnitPrice: dec("40")},
	}
	_, amount, err := svc.Evaluate(context.Background(), 1, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("-30")))
}

func TestEvaluateBundlePartialMatch(t *testing.T) {
	pct := dec("25")
	p := activePromotion(models.PromotionBundle, models.PromotionConditions{
		Bundle: &models.BundleConditions{ProductIDs: []int{1, 2}, DiscountPercentage: &pct},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{{ProductID: 1, Quantity: 1, UnitPrice: dec("40")}}
	_, _, err := svc.Evaluate(context.Background(), 1, items)
	assert.ErrorIs(t, err, utils.ErrPromotionNotApplicable)
}

func TestEvaluateFlatRateApplies(t *testing.T) {
	p := activePromotion(models.PromotionFlatRate, models.PromotionConditions{
		FlatRate: &models.FlatRateConditions{MinimumAmount: dec("100"), DiscountAmount: dec("10")},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{{ProductID: 1, Quantity: 1, UnitPrice: dec("100")}}
	_, amount, err := svc.Evaluate(context.Background(), 1, items)
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("10")))
}

func TestEvaluateFlatRateBelowMinimum(t *testing.T) {
	p := activePromotion(models.PromotionFlatRate, models.PromotionConditions{
		FlatRate: &models.FlatRateConditions{MinimumAmount: dec("100"), DiscountAmount: dec("10")},
	})
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	items := []PricedItem{{ProductID: 1, Quantity: 1, UnitPrice: dec("99.99")}}
	_, _, err := svc.Evaluate(context.Background(), 1, items)
	assert.ErrorIs(t, err, utils.ErrPromotionNotApplicable)
}

func TestEvaluateInactivePromotion(t *testing.T) {
	p := activePromotion(models.PromotionFlatRate, models.PromotionConditions{
		FlatRate: &models.FlatRateConditions{MinimumAmount: dec("0"), DiscountAmount: dec("10")},
	})
	p.IsActive = false
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	_, _, err := svc.Evaluate(context.Background(), 1, nil)
	assert.ErrorIs(t, err, utils.ErrPromotionInactive)
}

func TestEvaluateExpiredPromotion(t *testing.T) {
	p := activePromotion(models.PromotionFlatRate, models.PromotionConditions{
		FlatRate: &models.FlatRateConditions{MinimumAmount: dec("0"), DiscountAmount: dec("10")},
	})
	p.StartDate = time.Now().Add(-48 * time.Hour)
	p.EndDate = time.Now().Add(-24 * time.Hour)
	svc := NewPromotionService(newFakePromotionStore(p), nil)

	_, _, err := svc.Evaluate(context.Background(), 1, nil)
	assert.ErrorIs(t, err, utils.ErrPromotionOutOfWindow)
}

func TestEvaluateUnknownPromotion(t *testing.T) {
	svc := NewPromotionService(newFakePromotionStore(), nil)

	_, _, err := svc.Evaluate(context.Background(), 42, nil)
	assert.ErrorIs(t, err, utils.ErrPromotionNotFound)
}
