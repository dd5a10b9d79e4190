package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

func TestGetLearnerStats_AggregatesAllSources(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	l := mustLearner("u1", "Alice", 2300)
	learnerRepo.learners[l.ID] = l
	learnerRepo.stats[l.ID] = &learner.Stats{
		LessonsCompleted: 12,
		PerfectQuizzes:   3,
		CTFSolves:        2,
		XP:               2300,
		Level:            3,
	}

	achievementRepo := newFakeAchievementRepo()
	achievementRepo.awarded[l.ID] = []achievement.Awarded{
		{RuleID: "lessons_10", Name: "Dedicated Student", XPBonus: 150, AwardedAt: time.Now()},
		{RuleID: "first_lesson", Name: "First Steps", XPBonus: 50, AwardedAt: time.Now().Add(-time.Hour)},
	}

	h := NewGetLearnerStatsHandler(learnerRepo, achievementRepo, nil, nil)

	res, err := h.Handle(context.Background(), GetLearnerStatsQuery{LearnerID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "Alice", res.Learner.DisplayName)
	assert.Equal(t, 12, res.Stats.LessonsCompleted)
	assert.Equal(t, 3, res.Stats.Level)
	require.Len(t, res.Awards, 2)
	assert.Equal(t, "lessons_10", res.Awards[0].RuleID)
}

func TestGetLearnerStats_UnknownLearner(t *testing.T) {
	h := NewGetLearnerStatsHandler(newFakeLearnerRepo(), newFakeAchievementRepo(), nil, nil)

	_, err := h.Handle(context.Background(), GetLearnerStatsQuery{LearnerID: "ghost"})
	assert.ErrorIs(t, err, learner.ErrNotFound)
}

func TestGetLearnerStats_Validation(t *testing.T) {
	h := NewGetLearnerStatsHandler(newFakeLearnerRepo(), newFakeAchievementRepo(), nil, nil)

	_, err := h.Handle(context.Background(), GetLearnerStatsQuery{LearnerID: ""})
	assert.Error(t, err)
}
