// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/rates/usecase"
)

var _ usecase.RateRepository = (*CachingRateRepository)(nil)

// CachingRateRepository decorates a RateRepository with Redis caching.
// Queries are cached per series key and limit; any upsert for a key drops
// every cached query of that key.
type CachingRateRepository struct {
	inner     usecase.RateRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingRateRepository decorates a RateRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "rates".
func NewCachingRateRepository(rdb *redis.Client, ttl time.Duration, inner usecase.RateRepository, namespace string) *CachingRateRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "rates"
	}
	return &CachingRateRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch stores observations and invalidates the cached queries of key.
func (c *CachingRateRepository) UpsertBatch(ctx context.Context, key string, obs []entity.Observation) error {
	if err := c.inner.UpsertBatch(ctx, key, obs); err != nil {
		return err
	}
	if c.rdb == nil || len(obs) == 0 {
		return nil
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(key)+"*") // best effort
	return nil
}

// Find returns cached observations when present and otherwise reads through
// to the inner repository.
func (c *CachingRateRepository) Find(ctx context.Context, key string, limit int) ([]entity.Observation, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, key, limit)
	}

	ck := c.cacheKey(key, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, ck).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Observation
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, ck).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Find(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	// Empty results are not cached so a later ingest is visible at once.
	if len(out) == 0 {
		return out, nil
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, ck, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingRateRepository) cacheKey(key string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(key), limit)
}

func (c *CachingRateRepository) cacheKeyPrefix(key string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(key))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingRateRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys and glob patterns.
func safe(s string) string {
	return strings.NewReplacer(" ", "_", ":", "_", "*", "_", "?", "_", "[", "_", "]", "_").Replace(s)
}
