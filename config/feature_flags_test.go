package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureCTFChallenges, nil))
	assert.True(t, ff.IsEnabled(FeatureSessionResume, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalMissions, nil), "experimental features start dark")
	assert.False(t, ff.IsEnabled("no.such.feature", nil))
}

func TestFeatureFlags_EnvOverrideBoolean(t *testing.T) {
	t.Setenv("FEATURE_CTF_CHALLENGES", "false")
	t.Setenv("FEATURE_EXPERIMENTAL_MISSIONS", "true")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureCTFChallenges, nil))
	assert.True(t, ff.IsEnabled(FeatureExperimentalMissions, nil))
}

func TestFeatureFlags_EnvOverridePercent(t *testing.T) {
	t.Setenv("FEATURE_EXPERIMENTAL_MISSIONS", "50")

	ff := LoadFeatureFlags()
	features := ff.GetAllFeatures()

	f := features[FeatureExperimentalMissions]
	require.NotNil(t, f)
	assert.True(t, f.Enabled)
	assert.Equal(t, 50, f.RolloutPercent)
}

func TestFeatureFlags_RolloutBucketsAreStable(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureExperimentalMissions, 50))

	ctx := &FeatureContext{LearnerID: "u1"}
	first := ff.IsEnabled(FeatureExperimentalMissions, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureExperimentalMissions, ctx),
			"a learner never flips buckets between evaluations")
	}
}

func TestFeatureFlags_RolloutSplitsTheAudience(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureExperimentalMissions, 50))

	enabled := 0
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9", "u10"} {
		if ff.IsEnabled(FeatureExperimentalMissions, &FeatureContext{LearnerID: id}) {
			enabled++
		}
	}

	assert.Greater(t, enabled, 0, "some learners are in")
	assert.Less(t, enabled, 10, "some learners are out")
}

func TestFeatureFlags_LearnerOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()

	ff.SetLearnerOverride("u1", FeatureCTFChallenges, false)
	assert.False(t, ff.IsEnabled(FeatureCTFChallenges, &FeatureContext{LearnerID: "u1"}))
	assert.True(t, ff.IsEnabled(FeatureCTFChallenges, &FeatureContext{LearnerID: "u2"}))

	ff.ClearLearnerOverrides("u1")
	assert.True(t, ff.IsEnabled(FeatureCTFChallenges, &FeatureContext{LearnerID: "u1"}))
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()

	ctx := &FeatureContext{LearnerID: "admin", IsAdmin: true}
	assert.True(t, ff.IsEnabled(FeatureExperimentalMissions, ctx))
}

func TestFeatureFlags_TimeWindow(t *testing.T) {
	ff := LoadFeatureFlags()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	ff.mu.Lock()
	ff.features[FeatureCTFHints].EnabledFrom = &future
	ff.features[FeatureLeaderboardXP].EnabledUntil = &past
	ff.mu.Unlock()

	assert.False(t, ff.IsEnabled(FeatureCTFHints, nil), "not yet active")
	assert.False(t, ff.IsEnabled(FeatureLeaderboardXP, nil), "window closed")
}

func TestFeatureFlags_SetRolloutPercentValidation(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureCTFHints, 120), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureCTFHints, -1), ErrInvalidRolloutPercent)

	require.NoError(t, ff.DisableFeature(FeatureCTFHints))
	assert.False(t, ff.IsEnabled(FeatureCTFHints, nil))
	require.NoError(t, ff.EnableFeature(FeatureCTFHints))
	assert.True(t, ff.IsEnabled(FeatureCTFHints, nil))
}

func TestFeatureFlags_GetAllFeaturesReturnsCopies(t *testing.T) {
	ff := LoadFeatureFlags()

	features := ff.GetAllFeatures()
	features[FeatureCTFChallenges].Enabled = false

	assert.True(t, ff.IsEnabled(FeatureCTFChallenges, nil), "mutating the copy leaves the source intact")
}
