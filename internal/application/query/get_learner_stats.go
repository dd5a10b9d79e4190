// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
	"github.com/cyber-academy/academy-engine/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER STATS QUERY
// Learner record is read through the Redis cache behind a circuit
// breaker: a dead or slow cache degrades to a direct PostgreSQL read,
// never to an error.
// ══════════════════════════════════════════════════════════════════════════════

// GetLearnerStatsQuery contains the query parameters.
type GetLearnerStatsQuery struct {
	// LearnerID is the learner to inspect.
	LearnerID string
}

// Validate validates the query.
func (q GetLearnerStatsQuery) Validate() error {
	if !learner.ID(q.LearnerID).IsValid() {
		return errors.New("get_learner_stats: invalid learner_id")
	}
	return nil
}

// GetLearnerStatsResult contains the aggregated learner view.
type GetLearnerStatsResult struct {
	// Learner is the current record.
	Learner *learner.Learner

	// Stats is the aggregate counters achievements are judged by.
	Stats *learner.Stats

	// Awards are the unlocked achievements, newest first.
	Awards []achievement.Awarded
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLearnerStatsHandler handles the GetLearnerStatsQuery.
type GetLearnerStatsHandler struct {
	learnerRepo     learner.Repository
	achievementRepo achievement.Repository
	cache           *redis.LearnerCache
	breaker         *circuitbreaker.CircuitBreaker
}

// NewGetLearnerStatsHandler creates a new GetLearnerStatsHandler.
// Cache and breaker may be nil; reads then always go to PostgreSQL.
func NewGetLearnerStatsHandler(
	learnerRepo learner.Repository,
	achievementRepo achievement.Repository,
	cache *redis.LearnerCache,
	breaker *circuitbreaker.CircuitBreaker,
) *GetLearnerStatsHandler {
	return &GetLearnerStatsHandler{
		learnerRepo:     learnerRepo,
		achievementRepo: achievementRepo,
		cache:           cache,
		breaker:         breaker,
	}
}

// Handle executes the query.
func (h *GetLearnerStatsHandler) Handle(ctx context.Context, q GetLearnerStatsQuery) (*GetLearnerStatsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	id := learner.ID(q.LearnerID)

	l, err := h.getLearner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_learner_stats: %w", err)
	}

	stats, err := h.learnerRepo.GetStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_learner_stats: %w", err)
	}

	awards, err := h.achievementRepo.ListAwarded(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_learner_stats: %w", err)
	}

	return &GetLearnerStatsResult{Learner: l, Stats: stats, Awards: awards}, nil
}

// getLearner reads through the cache when it is healthy, falling back
// to the repository on a miss, a cache error, or an open breaker.
func (h *GetLearnerStatsHandler) getLearner(ctx context.Context, id learner.ID) (*learner.Learner, error) {
	if h.cache != nil {
		var cached *learner.Learner
		err := h.execute(ctx, func(ctx context.Context) error {
			l, cacheErr := h.cache.Get(ctx, id)
			if errors.Is(cacheErr, redis.ErrCacheMiss) {
				// A miss is a healthy answer, not a cache failure.
				return nil
			}
			if cacheErr != nil {
				return cacheErr
			}
			cached = l
			return nil
		})
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	l, err := h.learnerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.execute(ctx, func(ctx context.Context) error {
			return h.cache.Set(ctx, l, 0)
		})
	}

	return l, nil
}

func (h *GetLearnerStatsHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	return h.breaker.Execute(ctx, fn)
}
