package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRebuildLeaderboardJob_Identity(t *testing.T) {
	job := NewRebuildLeaderboardJob(nil, nil, nil, nil, nil, DefaultRebuildLeaderboardConfig())

	assert.Equal(t, "rebuild_leaderboard", job.Name())
	assert.NotEmpty(t, job.Description())
	assert.Nil(t, job.LastRebuildStats(), "no stats before the first run")
}

func TestDefaultRebuildLeaderboardConfig(t *testing.T) {
	cfg := DefaultRebuildLeaderboardConfig()

	assert.Equal(t, 100, cfg.BoardSize)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}
