package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
)

func TestGetAchievements_SplitsUnlockedAndLocked(t *testing.T) {
	repo := newFakeAchievementRepo()
	repo.awarded["u1"] = []achievement.Awarded{
		{RuleID: "lessons_10", Name: "Dedicated Student", XPBonus: 150, AwardedAt: time.Now()},
		{RuleID: "first_lesson", Name: "First Steps", XPBonus: 50, AwardedAt: time.Now().Add(-time.Hour)},
	}
	h := NewGetAchievementsHandler(repo)

	res, err := h.Handle(context.Background(), GetAchievementsQuery{LearnerID: "u1"})
	require.NoError(t, err)

	assert.Len(t, res.Unlocked, 2)
	assert.Equal(t, 200, res.TotalBonus)

	assert.Len(t, res.Locked, len(achievement.DefaultRules())-2)
	for _, rule := range res.Locked {
		assert.NotContains(t, []string{"first_lesson", "lessons_10"}, rule.ID)
	}
}

func TestGetAchievements_LevelMilestonesNeverListedAsLocked(t *testing.T) {
	repo := newFakeAchievementRepo()
	repo.awarded["u1"] = []achievement.Awarded{
		{RuleID: achievement.LevelRuleID(2), Name: "Level 2 Reached", XPBonus: 0, AwardedAt: time.Now()},
	}
	h := NewGetAchievementsHandler(repo)

	res, err := h.Handle(context.Background(), GetAchievementsQuery{LearnerID: "u1"})
	require.NoError(t, err)

	// The dynamic milestone counts as unlocked but the locked list only
	// ever shows the static catalogue.
	assert.Len(t, res.Unlocked, 1)
	assert.Len(t, res.Locked, len(achievement.DefaultRules()))
}

func TestGetAchievements_NothingUnlocked(t *testing.T) {
	h := NewGetAchievementsHandler(newFakeAchievementRepo())

	res, err := h.Handle(context.Background(), GetAchievementsQuery{LearnerID: "u1"})
	require.NoError(t, err)

	assert.Empty(t, res.Unlocked)
	assert.Zero(t, res.TotalBonus)
	assert.Len(t, res.Locked, len(achievement.DefaultRules()))
}

func TestGetAchievements_Validation(t *testing.T) {
	h := NewGetAchievementsHandler(newFakeAchievementRepo())

	_, err := h.Handle(context.Background(), GetAchievementsQuery{LearnerID: ""})
	assert.Error(t, err)
}
