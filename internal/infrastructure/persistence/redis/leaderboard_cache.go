// Package redis implements Redis caching for the academy engine.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when no snapshot has been built yet.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrNotRanked is returned when the learner is not in the ranking.
	ErrNotRanked = errors.New("leaderboard_cache: learner not ranked")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache caches leaderboard views in Redis.
//
// Architecture:
//   - String "leaderboard:xp:snapshot" holds the ordered XP board as JSON.
//     A snapshot, not a sorted set, because the deterministic tie-break
//     (joined_at, then id) cannot be expressed in a ZSET score.
//   - Sorted set "leaderboard:xp:rank" holds learnerID -> XP for O(log N)
//     individual rank lookups, where ties may rank in member order.
//   - String "leaderboard:ctf:snapshot" holds the ordered CTF board.
//
// Both views are rebuilt from PostgreSQL by the scheduler and on demand
// after a cache miss.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	keyXPSnapshot  = PrefixLeaderboard + "xp:snapshot"
	keyXPRank      = PrefixLeaderboard + "xp:rank"
	keyCTFSnapshot = PrefixLeaderboard + "ctf:snapshot"
	keyMeta        = PrefixLeaderboard + "meta"
)

// Meta contains metadata about the cached leaderboards.
type Meta struct {
	RebuiltAt    time.Time `json:"rebuilt_at"`
	XPEntries    int       `json:"xp_entries"`
	CTFEntries   int       `json:"ctf_entries"`
	RebuildCause string    `json:"rebuild_cause"`
}

// boardSnapshot is the stored form of a leaderboard view. Limit records
// how many rows the build asked the repository for: a snapshot shorter
// than its limit covers the whole table and can answer any request, a
// full one only answers requests within its length.
type boardSnapshot[T any] struct {
	Limit int `json:"limit"`
	Rows  []T `json:"rows"`
}

// snapshotSlice returns the first limit rows of a snapshot, or ok=false
// when the snapshot is too short to answer the request and the caller
// must refetch from PostgreSQL. limit <= 0 asks for the whole board.
func snapshotSlice[T any](rows []T, buildLimit, limit int) ([]T, bool) {
	if limit > 0 && limit <= len(rows) {
		return rows[:limit], true
	}
	if len(rows) < buildLimit {
		return rows, true
	}
	return nil, false
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ─────────────────────────────────────────────────────────────────────────────
// XP leaderboard
// ─────────────────────────────────────────────────────────────────────────────

// RebuildXP replaces the cached XP board with the given ordered entries.
// buildLimit is the row count the entries were fetched with; it lets
// TopXP tell a complete board apart from a truncated one.
func (lc *LeaderboardCache) RebuildXP(ctx context.Context, entries []learner.LeaderboardEntry, buildLimit int) error {
	snap := boardSnapshot[learner.LeaderboardEntry]{Limit: buildLimit, Rows: entries}
	if err := lc.cache.Set(ctx, keyXPSnapshot, snap, TTLLeaderboardCache); err != nil {
		return fmt.Errorf("failed to store xp snapshot: %w", err)
	}

	pipe := lc.cache.Client().Pipeline()
	pipe.Del(ctx, keyXPRank)
	for _, e := range entries {
		pipe.ZAdd(ctx, keyXPRank, redis.Z{Score: float64(e.XP), Member: string(e.LearnerID)})
	}
	pipe.Expire(ctx, keyXPRank, TTLLeaderboardCache)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild xp rank set: %w", err)
	}

	return nil
}

// TopXP returns up to limit entries of the cached XP board.
// Returns ErrLeaderboardEmpty when no snapshot exists or the snapshot
// holds fewer rows than the request needs.
func (lc *LeaderboardCache) TopXP(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	var snap boardSnapshot[learner.LeaderboardEntry]
	if err := lc.cache.Get(ctx, keyXPSnapshot, &snap); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrLeaderboardEmpty
		}
		return nil, err
	}

	entries, ok := snapshotSlice(snap.Rows, snap.Limit, limit)
	if !ok {
		return nil, ErrLeaderboardEmpty
	}

	return entries, nil
}

// RankOf returns the 1-based rank of the learner in the XP board.
// Ties may rank in member order here; the snapshot is authoritative.
func (lc *LeaderboardCache) RankOf(ctx context.Context, learnerID learner.ID) (int64, error) {
	rank, err := lc.cache.Client().ZRevRank(ctx, keyXPRank, string(learnerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotRanked
		}
		return 0, err
	}

	return rank + 1, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CTF leaderboard
// ─────────────────────────────────────────────────────────────────────────────

// RebuildCTF replaces the cached CTF board with the given ordered rows.
// buildLimit has the same meaning as in RebuildXP.
func (lc *LeaderboardCache) RebuildCTF(ctx context.Context, rows []ctf.LeaderboardRow, buildLimit int) error {
	snap := boardSnapshot[ctf.LeaderboardRow]{Limit: buildLimit, Rows: rows}
	if err := lc.cache.Set(ctx, keyCTFSnapshot, snap, TTLLeaderboardCache); err != nil {
		return fmt.Errorf("failed to store ctf snapshot: %w", err)
	}

	return nil
}

// TopCTF returns up to limit rows of the cached CTF board.
// Returns ErrLeaderboardEmpty when no snapshot exists or the snapshot
// holds fewer rows than the request needs.
func (lc *LeaderboardCache) TopCTF(ctx context.Context, limit int) ([]ctf.LeaderboardRow, error) {
	var snap boardSnapshot[ctf.LeaderboardRow]
	if err := lc.cache.Get(ctx, keyCTFSnapshot, &snap); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrLeaderboardEmpty
		}
		return nil, err
	}

	rows, ok := snapshotSlice(snap.Rows, snap.Limit, limit)
	if !ok {
		return nil, ErrLeaderboardEmpty
	}

	return rows, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Maintenance
// ─────────────────────────────────────────────────────────────────────────────

// SetMeta stores rebuild metadata.
func (lc *LeaderboardCache) SetMeta(ctx context.Context, meta Meta) error {
	return lc.cache.Set(ctx, keyMeta, meta, TTLLeaderboardCache)
}

// GetMeta returns rebuild metadata, or ErrLeaderboardEmpty if absent.
func (lc *LeaderboardCache) GetMeta(ctx context.Context) (*Meta, error) {
	var meta Meta
	if err := lc.cache.Get(ctx, keyMeta, &meta); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrLeaderboardEmpty
		}
		return nil, err
	}
	return &meta, nil
}

// Invalidate drops every cached leaderboard view.
func (lc *LeaderboardCache) Invalidate(ctx context.Context) error {
	return lc.cache.Delete(ctx, keyXPSnapshot, keyXPRank, keyCTFSnapshot, keyMeta)
}
