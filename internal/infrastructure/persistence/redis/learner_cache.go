package redis

import (
	"context"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// LearnerCache caches learner records using the generic Redis Cache.
// A miss is reported as ErrCacheMiss; callers fall through to PostgreSQL.
type LearnerCache struct {
	cache *Cache
}

// NewLearnerCache creates a new LearnerCache.
func NewLearnerCache(cache *Cache) *LearnerCache {
	return &LearnerCache{cache: cache}
}

// Get gets a learner from cache.
func (c *LearnerCache) Get(ctx context.Context, id learner.ID) (*learner.Learner, error) {
	var l learner.Learner
	if err := c.cache.Get(ctx, LearnerKey(string(id)), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Set stores a learner in cache.
func (c *LearnerCache) Set(ctx context.Context, l *learner.Learner, ttl time.Duration) error {
	if l == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLLearnerCache
	}
	return c.cache.Set(ctx, LearnerKey(string(l.ID)), l, ttl)
}

// Invalidate removes a learner from cache. Called after every mutating
// operation so reads never serve a stale xp or position.
func (c *LearnerCache) Invalidate(ctx context.Context, id learner.ID) error {
	return c.cache.Delete(ctx, LearnerKey(string(id)))
}

// InvalidateAll clears the whole learner cache.
func (c *LearnerCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixLearner+"*")
}
