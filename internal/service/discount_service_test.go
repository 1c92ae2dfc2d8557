package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

type fakeDiscountStore struct {
	byCode map[string]*models.Discount
	byID   map[int]*models.Discount
}

func newFakeDiscountStore(discounts ...*models.Discount) *fakeDiscountStore {
	s := &fakeDiscountStore{
		byCode: make(map[string]*models.Discount),
		byID:   make(map[int]*models.Discount),
	}
	for _, d := range discounts {
		s.byCode[d.Code] = d
		s.byID[d.ID] = d
	}
	return s
}

func (s *fakeDiscountStore) GetAll() ([]models.Discount, error) {
	var out []models.Discount
	for _, d := range s.byID {
		out = append(out, *d)
	}
	return out, nil
}

func (s *fakeDiscountStore) GetByID(id int) (*models.Discount, error) {
	d, ok := s.byID[id]
	if !ok {
		return nil, utils.ErrDiscountNotFound
	}
	copy := *d
	return &copy, nil
}

func (s *fakeDiscountStore) GetByCode(code string) (*models.Discount, error) {
	d, ok := s.byCode[code]
	if !ok {
		return nil, utils.ErrDiscountNotFound
	}
	copy := *d
	return &copy, nil
}

func (s *fakeDiscountStore) Create(d *models.Discount) error {
	s.byCode[d.Code] = d
	s.byID[d.ID] = d
	return nil
}

func (s *fakeDiscountStore) Update(d *models.Discount) error {
	s.byCode[d.Code] = d
	s.byID[d.ID] = d
	return nil
}

func (s *fakeDiscountStore) Delete(id int) error {
	d, ok := s.byID[id]
	if !ok {
		return utils.ErrDiscountNotFound
	}
	delete(s.byCode, d.Code)
	delete(s.byID, id)
	return nil
}

func validDiscount() *models.Discount {
	return &models.Discount{
		ID:        1,
		Code:      "SAVE10",
		Type:      models.DiscountPercentage,
		Value:     dec("10"),
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
		IsActive:  true,
	}
}

func TestEvaluatePercentageDiscount(t *testing.T) {
	svc := NewDiscountService(newFakeDiscountStore(validDiscount()), nil)

	d, amount, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	require.NoError(t, err)
	assert.Equal(t, 1, d.ID)
	assert.True(t, amount.Equal(dec("20")))
}

func TestEvaluateFixedDiscount(t *testing.T) {
	d := validDiscount()
	d.Type = models.DiscountFixed
	d.Value = dec("15")
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, amount, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("15")))
}

func TestEvaluateFixedDiscountExceedsSubtotal(t *testing.T) {
	// The amount is not clamped; the coordinator may record a negative total.
	d := validDiscount()
	d.Type = models.DiscountFixed
	d.Value = dec("500")
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, amount, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("500")))
}

func TestEvaluateUnknownCode(t *testing.T) {
	svc := NewDiscountService(newFakeDiscountStore(), nil)

	_, _, err := svc.Evaluate(context.Background(), "NOPE", dec("200"))
	assert.ErrorIs(t, err, utils.ErrDiscountNotFound)
}

func TestEvaluateInactiveDiscount(t *testing.T) {
	d := validDiscount()
	d.IsActive = false
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, _, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	assert.ErrorIs(t, err, utils.ErrDiscountInactive)
}

func TestEvaluateExpiredDiscount(t *testing.T) {
	d := validDiscount()
	d.StartDate = time.Now().Add(-48 * time.Hour)
	d.EndDate = time.Now().Add(-24 * time.Hour)
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, _, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	assert.ErrorIs(t, err, utils.ErrDiscountOutOfWindow)
}

func TestEvaluateBelowMinimumPurchase(t *testing.T) {
	d := validDiscount()
	min := dec("300")
	d.MinPurchase = &min
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, _, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	assert.ErrorIs(t, err, utils.ErrDiscountBelowMinimum)
}

func TestEvaluateMinimumPurchaseBoundary(t *testing.T) {
	// Equal to the minimum still qualifies.
	d := validDiscount()
	min := dec("200")
	d.MinPurchase = &min
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, _, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	assert.NoError(t, err)
}

func TestEvaluateExhaustedDiscount(t *testing.T) {
	d := validDiscount()
	max := 5
	d.MaxUses = &max
	d.UsedCount = 5
	svc := NewDiscountService(newFakeDiscountStore(d), nil)

	_, _, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	assert.ErrorIs(t, err, utils.ErrDiscountExhausted)
}

func TestEvaluateDoesNotIncrementUsage(t *testing.T) {
	// Usage only moves inside the sale transaction, never during evaluation.
	d := validDiscount()
	store := newFakeDiscountStore(d)
	svc := NewDiscountService(store, nil)

	_, _, err := svc.Evaluate(context.Background(), "SAVE10", dec("200"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.byCode["SAVE10"].UsedCount)
}

func TestCreateRejectsInvalidValue(t *testing.T) {
	svc := NewDiscountService(newFakeDiscountStore(), nil)

	d := validDiscount()
	d.Value = dec("150") // percentage above 100
	err := svc.Create(context.Background(), d)
	assert.ErrorIs(t, err, utils.ErrInvalidDiscountValue)

	d.Type = models.DiscountFixed
	d.Value = decimal.Zero // fixed amount must be positive
	err = svc.Create(context.Background(), d)
	assert.ErrorIs(t, err, utils.ErrInvalidDiscountValue)
}
