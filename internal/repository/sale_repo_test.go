package repository

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/operantis/backoffice-api/internal/utils"
)

func saleNumberViolation() error {
	return &pq.Error{Code: "23505", Constraint: "sales_sale_number_key"}
}

func TestIsSaleNumberCollision(t *testing.T) {
	assert.True(t, isSaleNumberCollision(saleNumberViolation()))

	// Other unique violations must surface as-is, not trigger a retry.
	assert.False(t, isSaleNumberCollision(&pq.Error{Code: "23505", Constraint: "products_sku_key"}))
	assert.False(t, isSaleNumberCollision(&pq.Error{Code: "40001"}))
	assert.False(t, isSaleNumberCollision(utils.ErrStockConflict))
	assert.False(t, isSaleNumberCollision(nil))
}

func TestRetrySaleNumberCollisionRecovers(t *testing.T) {
	calls := 0
	err := retrySaleNumberCollision(maxCreateAttempts, func() error {
		calls++
		if calls == 1 {
			return saleNumberViolation()
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetrySaleNumberCollisionExhausted(t *testing.T) {
	calls := 0
	err := retrySaleNumberCollision(maxCreateAttempts, func() error {
		calls++
		return saleNumberViolation()
	})
	assert.ErrorIs(t, err, utils.ErrSaleNumberConflict)
	assert.Equal(t, maxCreateAttempts, calls)
}

func TestRetrySaleNumberCollisionPassesThroughOtherErrors(t *testing.T) {
	calls := 0
	err := retrySaleNumberCollision(maxCreateAttempts, func() error {
		calls++
		return utils.ErrStockConflict
	})
	assert.ErrorIs(t, err, utils.ErrStockConflict)
	assert.Equal(t, 1, calls)
}
