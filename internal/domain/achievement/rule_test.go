package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

func TestRule_Satisfied(t *testing.T) {
	stats := &learner.Stats{
		LessonsCompleted: 10,
		PerfectQuizzes:   4,
		CTFSolves:        1,
		XP:               4200,
		Level:            5,
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"lesson count met exactly", Rule{Kind: KindLessonCount, Threshold: 10}, true},
		{"lesson count below", Rule{Kind: KindLessonCount, Threshold: 11}, false},
		{"perfect quiz below", Rule{Kind: KindPerfectQuizCount, Threshold: 5}, false},
		{"level reached", Rule{Kind: KindLevelReached, Threshold: 5}, true},
		{"level above", Rule{Kind: KindLevelReached, Threshold: 6}, false},
		{"ctf solve met", Rule{Kind: KindCTFSolveCount, Threshold: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.Satisfied(stats)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRule_Satisfied_UnknownKind(t *testing.T) {
	_, err := Rule{Kind: "telepathy", Threshold: 1}.Satisfied(&learner.Stats{})
	assert.Error(t, err)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NotEmpty(t, rules)

	seen := map[string]bool{}
	for _, r := range rules {
		assert.True(t, r.Kind.IsValid(), "rule %q has unknown kind %q", r.ID, r.Kind)
		assert.Greater(t, r.Threshold, 0, "rule %q", r.ID)
		assert.GreaterOrEqual(t, r.XPBonus, 0, "rule %q", r.ID)
		assert.False(t, seen[r.ID], "duplicate rule id %q", r.ID)
		seen[r.ID] = true
	}
}

func TestRuleByID(t *testing.T) {
	rules := DefaultRules()

	r, ok := RuleByID(rules, "first_lesson")
	require.True(t, ok)
	assert.Equal(t, KindLessonCount, r.Kind)
	assert.Equal(t, 1, r.Threshold)

	_, ok = RuleByID(rules, "no_such_rule")
	assert.False(t, ok)
}

func TestLevelRuleID(t *testing.T) {
	assert.Equal(t, "level_reached:5", LevelRuleID(5))
	assert.Equal(t, "Level 5 Reached", LevelRuleName(5))

	// Synthetic level awards must never collide with catalog rules.
	for _, r := range DefaultRules() {
		assert.NotEqual(t, r.ID, LevelRuleID(r.Threshold))
	}
}
