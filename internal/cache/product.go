package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flicky/go-ecommerce-cli/internal/model"
)

const DefaultProductTTL = 60 * time.Second

// ProductCache keeps JSON snapshots of products in Redis. A nil client turns
// every method into a no-op so callers never branch on whether caching is on.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &ProductCache{client: client, ttl: ttl, log: log}
}

func productKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// Get reports a miss on any failure.
func (c *ProductCache) Get(ctx context.Context, id int64) (*model.Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("product cache get", zap.Int64("product_id", id), zap.Error(err))
		}
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(cached, &p); err != nil {
		c.log.Warn("product cache decode", zap.Int64("product_id", id), zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *model.Product) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("product cache set", zap.Int64("product_id", p.ID), zap.Error(err))
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if c == nil || c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("product cache invalidate", zap.Int64s("product_ids", ids), zap.Error(err))
	}
}
