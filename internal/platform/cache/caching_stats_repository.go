// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskly_backend/internal/feature/tasks/usecase"
)

// CachingStatsRepository decorates a StatsRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository. Task writes call InvalidateOwner so
// dashboard numbers never lag behind a mutation.
type CachingStatsRepository struct {
	inner     usecase.StatsRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// CachingStatsRepositoryがStatsRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.StatsRepository = (*CachingStatsRepository)(nil)

// NewCachingStatsRepository decorates a StatsRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "stats".
func NewCachingStatsRepository(rdb *redis.Client, ttl time.Duration, inner usecase.StatsRepository, namespace string) *CachingStatsRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "stats"
	}
	return &CachingStatsRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// ownerKeyPrefix generates the key prefix shared by all of an owner's entries.
func (c *CachingStatsRepository) ownerKeyPrefix(ownerID uint) string {
	return fmt.Sprintf("%s:%d:", c.namespace, ownerID)
}

// cacheKey generates a cache key for a specific query.
func (c *CachingStatsRepository) cacheKey(ownerID uint, query string) string {
	return c.ownerKeyPrefix(ownerID) + query
}

// fetch runs the get-or-load cycle for one cache entry.
// Cache errors are best effort: corrupted entries get deleted and the
// underlying repository is consulted.
func fetch[T any](ctx context.Context, c *CachingStatsRepository, key string, load func() (T, error)) (T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		return out, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// StatusCounts retrieves status counts, checking cache first.
// The key carries the date so a cached entry never crosses a day boundary.
func (c *CachingStatsRepository) StatusCounts(ctx context.Context, ownerID uint, today time.Time) (usecase.StatusCounts, error) {
	key := c.cacheKey(ownerID, "status:"+today.Format("2006-01-02"))
	return fetch(ctx, c, key, func() (usecase.StatusCounts, error) {
		return c.inner.StatusCounts(ctx, ownerID, today)
	})
}

// PriorityCounts retrieves priority counts, checking cache first.
func (c *CachingStatsRepository) PriorityCounts(ctx context.Context, ownerID uint) ([]usecase.PriorityCount, error) {
	return fetch(ctx, c, c.cacheKey(ownerID, "priority"), func() ([]usecase.PriorityCount, error) {
		return c.inner.PriorityCounts(ctx, ownerID)
	})
}

// MonthlyCounts retrieves monthly counts, checking cache first.
func (c *CachingStatsRepository) MonthlyCounts(ctx context.Context, ownerID uint) (usecase.MonthlyCounts, error) {
	return fetch(ctx, c, c.cacheKey(ownerID, "trend"), func() (usecase.MonthlyCounts, error) {
		return c.inner.MonthlyCounts(ctx, ownerID)
	})
}

// CompletionTotals retrieves completion totals, checking cache first.
func (c *CachingStatsRepository) CompletionTotals(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error) {
	return fetch(ctx, c, c.cacheKey(ownerID, "totals"), func() (usecase.CompletionTotals, error) {
		return c.inner.CompletionTotals(ctx, ownerID)
	})
}

// InvalidateOwner deletes all cached aggregates for an owner using SCAN.
func (c *CachingStatsRepository) InvalidateOwner(ctx context.Context, ownerID uint) error {
	if c.rdb == nil {
		return nil
	}

	pattern := c.ownerKeyPrefix(ownerID) + "*"
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
