// Package jobs contains implementations of scheduled jobs for the
// academy engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob refreshes the cached leaderboard snapshots from
// PostgreSQL. The repositories produce the deterministic ordering; this
// job only copies it into Redis so reads stay cheap between rebuilds.
type RebuildLeaderboardJob struct {
	learnerRepo      learner.Repository
	ctfRepo          ctf.Repository
	leaderboardCache *redis.LeaderboardCache
	publisher        shared.EventPublisher
	logger           *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// BoardSize is how many rows each snapshot holds.
	BoardSize int

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		BoardSize: 100,
		Timeout:   2 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	XPEntries   int
	CTFEntries  int
	Errors      []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	learnerRepo learner.Repository,
	ctfRepo ctf.Repository,
	leaderboardCache *redis.LeaderboardCache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		learnerRepo:      learnerRepo,
		ctfRepo:          ctfRepo,
		leaderboardCache: leaderboardCache,
		publisher:        publisher,
		logger:           logger,
		config:           config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Refreshes the cached XP and CTF leaderboard snapshots from PostgreSQL"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	size := j.config.BoardSize
	if size <= 0 {
		size = DefaultRebuildLeaderboardConfig().BoardSize
	}

	// XP board.
	xpEntries, err := j.learnerRepo.TopByXP(ctx, size)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Errorf("xp board: %w", err))
		j.logger.Error("failed to read xp leaderboard", "error", err)
	} else {
		stats.XPEntries = len(xpEntries)
		if err := j.leaderboardCache.RebuildXP(ctx, xpEntries, size); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("xp snapshot: %w", err))
			j.logger.Error("failed to rebuild xp snapshot", "error", err)
		}
	}

	// CTF board.
	ctfRows, err := j.ctfRepo.Leaderboard(ctx, size)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Errorf("ctf board: %w", err))
		j.logger.Error("failed to read ctf leaderboard", "error", err)
	} else {
		stats.CTFEntries = len(ctfRows)
		if err := j.leaderboardCache.RebuildCTF(ctx, ctfRows, size); err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("ctf snapshot: %w", err))
			j.logger.Error("failed to rebuild ctf snapshot", "error", err)
		}
	}

	if len(stats.Errors) == 0 {
		meta := redis.Meta{
			RebuiltAt:    time.Now().UTC(),
			XPEntries:    stats.XPEntries,
			CTFEntries:   stats.CTFEntries,
			RebuildCause: "scheduled",
		}
		if err := j.leaderboardCache.SetMeta(ctx, meta); err != nil {
			j.logger.Warn("failed to store rebuild metadata", "error", err)
		}

		_ = j.publisher.Publish(ctx, shared.NewLeaderboardRebuiltEvent(
			stats.XPEntries, stats.CTFEntries, "scheduled",
		))
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"xp_entries", stats.XPEntries,
		"ctf_entries", stats.CTFEntries,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
