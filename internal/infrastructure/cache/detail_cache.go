package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/upstream"
)

// DetailLookup is the slice of the upstream client this cache decorates
type DetailLookup interface {
	GetProduct(ctx context.Context, storeID uuid.UUID, productID string) (*upstream.Product, error)
	GetMember(ctx context.Context, storeID uuid.UUID, memberID string) (*upstream.Member, error)
}

// RedisDetailCache is a best-effort Redis cache in front of the product and
// member detail endpoints. Product and member data changes rarely compared
// to orders, and the detail endpoints dominate a sync run's API call count.
// Any Redis failure degrades to a direct upstream call; the cache never
// fails a lookup on its own.
//
// Order listings and credentials are deliberately NOT cached: the sync
// window must observe live order state, and credential reads must observe
// concurrent writes from the other slot's actor.
type RedisDetailCache struct {
	next   DetailLookup
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDetailCache creates a detail cache around the given lookup
func NewRedisDetailCache(next DetailLookup, client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisDetailCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisDetailCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetProduct returns product detail, served from cache when possible
func (c *RedisDetailCache) GetProduct(ctx context.Context, storeID uuid.UUID, productID string) (*upstream.Product, error) {
	key := fmt.Sprintf("shop:product:%s:%s", storeID, productID)

	var cached upstream.Product
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := c.next.GetProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, product)
	return product, nil
}

// GetMember returns member detail, served from cache when possible
func (c *RedisDetailCache) GetMember(ctx context.Context, storeID uuid.UUID, memberID string) (*upstream.Member, error) {
	key := fmt.Sprintf("shop:member:%s:%s", storeID, memberID)

	var cached upstream.Member
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	member, err := c.next.GetMember(ctx, storeID, memberID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, member)
	return member, nil
}

// InvalidateStore drops all cached detail for a store (data reset)
func (c *RedisDetailCache) InvalidateStore(ctx context.Context, storeID uuid.UUID) {
	for _, pattern := range []string{
		fmt.Sprintf("shop:product:%s:*", storeID),
		fmt.Sprintf("shop:member:%s:*", storeID),
	} {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.Warn("Cache invalidation failed", zap.String("key", iter.Val()), zap.Error(err))
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("Cache scan failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func (c *RedisDetailCache) get(ctx context.Context, key string, out any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Cache entry corrupted", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisDetailCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
