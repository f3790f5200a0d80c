package cache

import (
	"context"
	"errors"
	"log"
	"time"
)

// MultiLevelCache reads through a local L1 into an optional shared L2.
// L2 calls go through a circuit breaker so a dead Redis costs one
// failed call per breaker window instead of one per request.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	l1TTL   time.Duration
	breaker *CircuitBreaker
	metrics *CacheMetrics
}

func NewMultiLevelCache(l1 *MemoryCache, l2 Cache, l1TTL time.Duration) *MultiLevelCache {
	if l1 == nil {
		l1 = NewMemoryCache(0)
	}
	if l1TTL <= 0 {
		l1TTL = time.Minute
	}
	return &MultiLevelCache{
		l1:      l1,
		l2:      l2,
		l1TTL:   l1TTL,
		breaker: NewCircuitBreaker(nil),
		metrics: NewCacheMetrics(),
	}
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.metrics.RecordSet()
	if err := c.l1.Set(ctx, key, value, c.localTTL(ttl)); err != nil {
		c.metrics.RecordError()
		return err
	}

	if c.l2 == nil {
		return nil
	}
	err := c.breaker.Execute(func() error {
		return c.l2.Set(ctx, key, value, ttl)
	})
	if err != nil {
		c.metrics.RecordError()
	}
	return err
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		c.metrics.RecordHit()
		return nil
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	miss := false
	err := c.breaker.Execute(func() error {
		err := c.l2.Get(ctx, key, dest)
		if errors.Is(err, ErrCacheMiss) {
			// a miss is a healthy answer
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		c.metrics.RecordError()
		return err
	}
	if miss {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	c.metrics.RecordHit()
	if err := c.l1.Set(ctx, key, dest, c.l1TTL); err != nil {
		log.Printf("cache: failed to promote %s to L1: %v", key, err)
	}
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	c.metrics.RecordDelete()
	_ = c.l1.Delete(ctx, keys...)

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(func() error {
		return c.l2.Delete(ctx, keys...)
	})
}

func (c *MultiLevelCache) Metrics() *CacheMetrics {
	return c.metrics
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	snapshot := c.metrics.GetStats()
	stats := map[string]interface{}{
		"l1":       c.l1.Stats(),
		"hits":     snapshot.Hits,
		"misses":   snapshot.Misses,
		"errors":   snapshot.Errors,
		"hit_rate": c.metrics.HitRate(),
		"breaker":  c.breaker.GetStats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 != nil {
		return c.l2.Health(ctx)
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

func (c *MultiLevelCache) localTTL(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < c.l1TTL {
		return ttl
	}
	return c.l1TTL
}
