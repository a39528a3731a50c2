package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/models"
)

const productKeyPrefix = "product:"

type ProductSource interface {
	GetByID(ctx context.Context, id string) (models.Product, error)
}

// ProductCache serves product snapshots from Redis, falling back to the source on a
// miss or when Redis is unavailable.
type ProductCache struct {
	client *redis.Client
	source ProductSource
	ttl    time.Duration
	log    zerolog.Logger
}

func NewProductCache(client *redis.Client, source ProductSource, ttl time.Duration, log zerolog.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{
		client: client,
		source: source,
		ttl:    ttl,
		log:    log,
	}
}

func (c *ProductCache) FindProduct(ctx context.Context, id string) (models.Product, error) {
	key := productKeyPrefix + id

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product models.Product
		if err := json.Unmarshal(raw, &product); err == nil {
			return product, nil
		}
		c.log.Warn().Str("product_id", id).Msg("discarding undecodable cached product")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
	}

	product, err := c.source.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	if payload, err := json.Marshal(product); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("product_id", id).Msg("product cache write failed")
		}
	}
	return product, nil
}

func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, productKeyPrefix+id).Err()
}
