package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
	"github.com/cyber-academy/academy-engine/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// The XP board is served from the Redis snapshot when present; a miss
// falls back to PostgreSQL and repopulates the snapshot. Ordering is
// always the repository's: xp DESC, joined_at ASC, id ASC.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit is used when the query asks for no specific size.
const DefaultLeaderboardLimit = 10

// snapshotBuildSize is how many rows a miss-triggered rebuild fetches.
// It matches the scheduler's board size so an on-demand rebuild never
// shrinks the snapshot the scheduler maintains: the board a request
// sees depends on the data, not on which caller repopulated the cache.
const snapshotBuildSize = 100

// xpBoardCache is the slice of the leaderboard cache the XP board read
// path uses. TopXP answers only when the snapshot covers the request.
type xpBoardCache interface {
	TopXP(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error)
	RebuildXP(ctx context.Context, entries []learner.LeaderboardEntry, buildLimit int) error
}

// GetLeaderboardQuery contains the query parameters.
type GetLeaderboardQuery struct {
	// Limit caps the number of rows. 0 means DefaultLeaderboardLimit.
	Limit int
}

// Validate validates the query.
func (q GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("get_leaderboard: %w: limit cannot be negative", shared.ErrValueOutOfRange)
	}
	return nil
}

// GetLeaderboardResult contains the XP leaderboard view.
type GetLeaderboardResult struct {
	// Entries are ordered rows with 1-based ranks.
	Entries []learner.LeaderboardEntry

	// FromCache is true when the Redis snapshot served the read.
	FromCache bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	learnerRepo learner.Repository
	cache       xpBoardCache
	breaker     *circuitbreaker.CircuitBreaker
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// Cache and breaker may be nil; reads then always go to PostgreSQL.
func NewGetLeaderboardHandler(
	learnerRepo learner.Repository,
	cache *redis.LeaderboardCache,
	breaker *circuitbreaker.CircuitBreaker,
) *GetLeaderboardHandler {
	h := &GetLeaderboardHandler{learnerRepo: learnerRepo, breaker: breaker}
	if cache != nil {
		h.cache = cache
	}
	return h
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultLeaderboardLimit
	}

	if h.cache != nil {
		var entries []learner.LeaderboardEntry
		hit := false
		err := h.execute(ctx, func(ctx context.Context) error {
			res, cacheErr := h.cache.TopXP(ctx, limit)
			if cacheErr == nil {
				entries, hit = res, true
				return nil
			}
			if errors.Is(cacheErr, redis.ErrLeaderboardEmpty) {
				// Snapshot absent or too short for this request;
				// rebuild below.
				return nil
			}
			return cacheErr
		})
		if err == nil && hit {
			return &GetLeaderboardResult{Entries: entries, FromCache: true}, nil
		}
	}

	fetch := limit
	if fetch < snapshotBuildSize {
		fetch = snapshotBuildSize
	}

	entries, err := h.learnerRepo.TopByXP(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	if h.cache != nil {
		_ = h.execute(ctx, func(ctx context.Context) error {
			return h.cache.RebuildXP(ctx, entries, fetch)
		})
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}

	return &GetLeaderboardResult{Entries: entries}, nil
}

func (h *GetLeaderboardHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	return h.breaker.Execute(ctx, fn)
}
