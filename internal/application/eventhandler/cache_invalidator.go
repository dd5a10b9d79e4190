package eventhandler

import (
	"context"
	"log/slog"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
)

// CacheInvalidator drops cached views that an event made stale: the
// learner record after any mutation, the leaderboard snapshots after
// anything that moved XP or CTF points. Invalidation failures are
// logged, never propagated - a stale cache entry expires by TTL anyway.
type CacheInvalidator struct {
	learnerCache     *redis.LearnerCache
	leaderboardCache *redis.LeaderboardCache
	logger           *slog.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator. Either cache may
// be nil when that layer is disabled.
func NewCacheInvalidator(
	learnerCache *redis.LearnerCache,
	leaderboardCache *redis.LeaderboardCache,
	logger *slog.Logger,
) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}

	return &CacheInvalidator{
		learnerCache:     learnerCache,
		leaderboardCache: leaderboardCache,
		logger:           logger,
	}
}

// Name implements shared.EventHandler.
func (h *CacheInvalidator) Name() string {
	return "cache-invalidator"
}

// EventTypes returns the event types this handler subscribes to.
func (h *CacheInvalidator) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventLearnerRegistered,
		shared.EventXPAdded,
		shared.EventLessonCompleted,
		shared.EventQuizRecorded,
		shared.EventAchievementUnlocked,
		shared.EventFlagSolved,
	}
}

// Handle implements shared.EventHandler.
func (h *CacheInvalidator) Handle(ctx context.Context, event shared.Event) error {
	id := learner.ID(event.AggregateID())

	if h.learnerCache != nil && id.IsValid() {
		if err := h.learnerCache.Invalidate(ctx, id); err != nil {
			h.logger.Warn("learner cache invalidation failed",
				"learner_id", string(id),
				"event_type", string(event.EventType()),
				"error", err,
			)
		}
	}

	if h.leaderboardCache != nil && movesLeaderboard(event.EventType()) {
		if err := h.leaderboardCache.Invalidate(ctx); err != nil {
			h.logger.Warn("leaderboard cache invalidation failed",
				"event_type", string(event.EventType()),
				"error", err,
			)
		}
	}

	return nil
}

// movesLeaderboard reports whether the event can change board order.
// Achievement unlocks count: the bonus XP they carry shifts the XP board.
func movesLeaderboard(t shared.EventType) bool {
	switch t {
	case shared.EventXPAdded, shared.EventFlagSolved, shared.EventAchievementUnlocked:
		return true
	default:
		return false
	}
}
