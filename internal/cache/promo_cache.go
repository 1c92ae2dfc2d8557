package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/operantis/backoffice-api/internal/models"
)

// promoTTL bounds staleness of cached discount/promotion records. Writes
// (CRUD and usage increments) also invalidate eagerly, so the TTL only
// matters when an invalidation is lost.
const promoTTL = 5 * time.Minute

// PromoCache caches discount-by-code and promotion-by-id lookups so
// sale creation does not hit the database for every evaluation of a
// popular code.
type PromoCache struct {
	redis *RedisClient
}

// NewPromoCache creates a new PromoCache.
func NewPromoCache(redis *RedisClient) *PromoCache {
	return &PromoCache{redis: redis}
}

func discountKey(code string) string {
	return fmt.Sprintf("discount:code:%s", code)
}

func promotionKey(id int) string {
	return fmt.Sprintf("promotion:id:%d", id)
}

// GetDiscount returns a cached discount or nil on miss.
func (c *PromoCache) GetDiscount(ctx context.Context, code string) (*models.Discount, error) {
	raw, err := c.redis.Get(ctx, discountKey(code))
	if err != nil {
		if IsMiss(err) {
			return nil, nil
		}
		return nil, err
	}
	var d models.Discount
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached discount: %w", err)
	}
	return &d, nil
}

// SetDiscount caches a discount record.
func (c *PromoCache) SetDiscount(ctx context.Context, d *models.Discount) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal discount: %w", err)
	}
	return c.redis.Set(ctx, discountKey(d.Code), string(raw), promoTTL)
}

// InvalidateDiscount drops a cached discount.
func (c *PromoCache) InvalidateDiscount(ctx context.Context, code string) error {
	return c.redis.Delete(ctx, discountKey(code))
}

// promotionEnvelope carries the raw conditions payload alongside the
// promotion row so the tagged union can be re-parsed after a cache hit.
type promotionEnvelope struct {
	Promotion  models.Promotion `json:"promotion"`
	Conditions json.RawMessage  `json:"conditions"`
}

// GetPromotion returns a cached promotion or nil on miss. Conditions
// are re-parsed from the stored raw payload.
func (c *PromoCache) GetPromotion(ctx context.Context, id int) (*models.Promotion, error) {
	raw, err := c.redis.Get(ctx, promotionKey(id))
	if err != nil {
		if IsMiss(err) {
			return nil, nil
		}
		return nil, err
	}
	var env promotionEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached promotion: %w", err)
	}
	p := env.Promotion
	p.RawConditions = env.Conditions
	conditions, err := models.ParseConditions(p.Type, env.Conditions)
	if err != nil {
		return nil, err
	}
	p.Conditions = conditions
	return &p, nil
}

// SetPromotion caches a promotion record including its raw conditions.
func (c *PromoCache) SetPromotion(ctx context.Context, p *models.Promotion) error {
	raw, err := json.Marshal(promotionEnvelope{Promotion: *p, Conditions: p.RawConditions})
	if err != nil {
		return fmt.Errorf("failed to marshal promotion: %w", err)
	}
	return c.redis.Set(ctx, promotionKey(p.ID), string(raw), promoTTL)
}

// InvalidatePromotion drops a cached promotion.
func (c *PromoCache) InvalidatePromotion(ctx context.Context, id int) error {
	return c.redis.Delete(ctx, promotionKey(id))
}
