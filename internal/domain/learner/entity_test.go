package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		name string
		xp   XP
		want Level
	}{
		{"zero xp is level 1", 0, 1},
		{"just below first threshold", 999, 1},
		{"exact threshold crosses", 1000, 2},
		{"just above threshold", 1001, 2},
		{"mid range", 4500, 5},
		{"ten levels", 9999, 10},
		{"negative clamps to 1", -50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateLevel(tt.xp))
		})
	}
}

func TestID_IsValid(t *testing.T) {
	assert.True(t, ID("user-123").IsValid())
	assert.True(t, ID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b").IsValid())

	assert.False(t, ID("").IsValid())
	assert.False(t, ID("has space").IsValid())
	assert.False(t, ID("has\ttab").IsValid())
	assert.False(t, ID("has\nnewline").IsValid())

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ID(long).IsValid())
}

func TestNewLearner(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{ID: "u1", DisplayName: "  Alice  "})
	require.NoError(t, err)

	assert.Equal(t, ID("u1"), l.ID)
	assert.Equal(t, "Alice", l.DisplayName, "display name is trimmed")
	assert.Equal(t, XP(0), l.XP)
	assert.Equal(t, Level(1), l.Level())
	assert.Equal(t, StartPosition(), l.Position, "zero position defaults to start")
	assert.False(t, l.ContentDone)
	assert.False(t, l.JoinedAt.IsZero())
}

func TestNewLearner_Validation(t *testing.T) {
	_, err := NewLearner(NewLearnerParams{ID: "", DisplayName: "Alice"})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = NewLearner(NewLearnerParams{ID: "bad id", DisplayName: "Alice"})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = NewLearner(NewLearnerParams{ID: "u1", DisplayName: "   "})
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestNewLearner_ExplicitPosition(t *testing.T) {
	pos := Position{CourseID: 2, ModuleID: 3, LessonID: 7}
	l, err := NewLearner(NewLearnerParams{ID: "u1", DisplayName: "Alice", Position: pos})
	require.NoError(t, err)
	assert.Equal(t, pos, l.Position)
}

func TestLearner_ApplyXP(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{ID: "u1", DisplayName: "Alice"})
	require.NoError(t, err)

	oldLevel, newLevel, err := l.ApplyXP(500)
	require.NoError(t, err)
	assert.Equal(t, Level(1), oldLevel)
	assert.Equal(t, Level(1), newLevel)
	assert.Equal(t, XP(500), l.XP)

	// Crossing the threshold.
	oldLevel, newLevel, err = l.ApplyXP(600)
	require.NoError(t, err)
	assert.Equal(t, Level(1), oldLevel)
	assert.Equal(t, Level(2), newLevel)

	// A single grant can cross several thresholds.
	oldLevel, newLevel, err = l.ApplyXP(3000)
	require.NoError(t, err)
	assert.Equal(t, Level(2), oldLevel)
	assert.Equal(t, Level(5), newLevel)
	assert.Equal(t, XP(4100), l.XP)
}

func TestLearner_ApplyXP_RejectsNegative(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{ID: "u1", DisplayName: "Alice"})
	require.NoError(t, err)

	_, _, err = l.ApplyXP(-1)
	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.Equal(t, XP(0), l.XP, "xp is untouched on rejection")
}

func TestLearner_AdvanceAndMarkDone(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{ID: "u1", DisplayName: "Alice"})
	require.NoError(t, err)

	next := Position{CourseID: 1, ModuleID: 1, LessonID: 2}
	l.AdvanceTo(next)
	assert.Equal(t, next, l.Position)
	assert.False(t, l.ContentDone)

	l.MarkContentDone()
	assert.True(t, l.ContentDone)
	assert.Equal(t, next, l.Position, "position stays on the last completed lesson")
}

func TestLearner_Rename(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{ID: "u1", DisplayName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, l.Rename("  Bob "))
	assert.Equal(t, "Bob", l.DisplayName)

	assert.ErrorIs(t, l.Rename(""), ErrInvalidDisplayName)
	assert.Equal(t, "Bob", l.DisplayName)
}

func TestXPResult_LevelledUp(t *testing.T) {
	assert.False(t, XPResult{OldLevel: 3, NewLevel: 3}.LevelledUp())
	assert.True(t, XPResult{OldLevel: 3, NewLevel: 4}.LevelledUp())
	assert.True(t, XPResult{OldLevel: 1, NewLevel: 5}.LevelledUp())
}

func TestQuizAttempt_IsPerfect(t *testing.T) {
	assert.True(t, QuizAttempt{Score: 5, Total: 5}.IsPerfect())
	assert.False(t, QuizAttempt{Score: 4, Total: 5}.IsPerfect())
	assert.False(t, QuizAttempt{Score: 0, Total: 0}.IsPerfect())
}

func TestPosition(t *testing.T) {
	assert.True(t, Position{}.IsZero())
	assert.False(t, Position{CourseID: 1}.IsZero())
	assert.Equal(t, "1.2.3", Position{CourseID: 1, ModuleID: 2, LessonID: 3}.String())
}
