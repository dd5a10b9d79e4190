package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
	"github.com/cyber-academy/academy-engine/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CTF LEADERBOARD QUERY
// Same read path as the XP board: Redis snapshot first, PostgreSQL
// fallback with snapshot repopulation. Ordering: points DESC,
// solves DESC, learner_id ASC.
// ══════════════════════════════════════════════════════════════════════════════

// ctfBoardCache is the slice of the leaderboard cache the CTF board
// read path uses.
type ctfBoardCache interface {
	TopCTF(ctx context.Context, limit int) ([]ctf.LeaderboardRow, error)
	RebuildCTF(ctx context.Context, rows []ctf.LeaderboardRow, buildLimit int) error
}

// GetCTFLeaderboardQuery contains the query parameters.
type GetCTFLeaderboardQuery struct {
	// Limit caps the number of rows. 0 means DefaultLeaderboardLimit.
	Limit int
}

// Validate validates the query.
func (q GetCTFLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("get_ctf_leaderboard: %w: limit cannot be negative", shared.ErrValueOutOfRange)
	}
	return nil
}

// GetCTFLeaderboardResult contains the CTF leaderboard view.
type GetCTFLeaderboardResult struct {
	// Rows are ordered with 1-based ranks.
	Rows []ctf.LeaderboardRow

	// FromCache is true when the Redis snapshot served the read.
	FromCache bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetCTFLeaderboardHandler handles the GetCTFLeaderboardQuery.
type GetCTFLeaderboardHandler struct {
	ctfRepo ctf.Repository
	cache   ctfBoardCache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGetCTFLeaderboardHandler creates a new GetCTFLeaderboardHandler.
// Cache and breaker may be nil; reads then always go to PostgreSQL.
func NewGetCTFLeaderboardHandler(
	ctfRepo ctf.Repository,
	cache *redis.LeaderboardCache,
	breaker *circuitbreaker.CircuitBreaker,
) *GetCTFLeaderboardHandler {
	h := &GetCTFLeaderboardHandler{ctfRepo: ctfRepo, breaker: breaker}
	if cache != nil {
		h.cache = cache
	}
	return h
}

// Handle executes the query.
func (h *GetCTFLeaderboardHandler) Handle(ctx context.Context, q GetCTFLeaderboardQuery) (*GetCTFLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultLeaderboardLimit
	}

	if h.cache != nil {
		var rows []ctf.LeaderboardRow
		hit := false
		err := h.execute(ctx, func(ctx context.Context) error {
			res, cacheErr := h.cache.TopCTF(ctx, limit)
			if cacheErr == nil {
				rows, hit = res, true
				return nil
			}
			if errors.Is(cacheErr, redis.ErrLeaderboardEmpty) {
				return nil
			}
			return cacheErr
		})
		if err == nil && hit {
			return &GetCTFLeaderboardResult{Rows: rows, FromCache: true}, nil
		}
	}

	fetch := limit
	if fetch < snapshotBuildSize {
		fetch = snapshotBuildSize
	}

	rows, err := h.ctfRepo.Leaderboard(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("get_ctf_leaderboard: %w", err)
	}

	if h.cache != nil {
		_ = h.execute(ctx, func(ctx context.Context) error {
			return h.cache.RebuildCTF(ctx, rows, fetch)
		})
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}

	return &GetCTFLeaderboardResult{Rows: rows}, nil
}

func (h *GetCTFLeaderboardHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	return h.breaker.Execute(ctx, fn)
}
