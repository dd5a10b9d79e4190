package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

func testGraph(t *testing.T) *content.Graph {
	t.Helper()

	g, err := content.NewGraph([]content.CourseDef{
		{ID: 1, Title: "Networking", Modules: []content.ModuleDef{
			{ID: 1, Title: "Basics", Lessons: []content.LessonDef{
				{ID: 1, Title: "Intro", XPReward: 100},
				{ID: 3, Title: "OSI", XPReward: 950, Quiz: []content.QuizQuestion{
					{Text: "Layers?", Options: []string{"5", "7"}, Correct: 1},
				}},
			}},
			{ID: 2, Title: "Routing", Lessons: []content.LessonDef{
				{ID: 1, Title: "IP", XPReward: 200},
			}},
		}},
	})
	require.NoError(t, err)
	return g
}

func TestRegisterLearner_CreatesAtStart(t *testing.T) {
	repo := newFakeLearnerRepo()
	pub := &capturePublisher{}
	h := NewRegisterLearnerHandler(repo, testGraph(t), pub)

	res, err := h.Handle(context.Background(), RegisterLearnerCommand{
		LearnerID:   "u1",
		DisplayName: "Alice",
	})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, "Alice", res.Learner.DisplayName)
	assert.Equal(t, learner.XP(0), res.Learner.XP)
	assert.Equal(t, learner.Position{CourseID: 1, ModuleID: 1, LessonID: 1}, res.Learner.Position)

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventLearnerRegistered, pub.events[0].EventType())
	assert.Equal(t, "u1", pub.events[0].AggregateID())
}

func TestRegisterLearner_Idempotent(t *testing.T) {
	repo := newFakeLearnerRepo()
	pub := &capturePublisher{}
	h := NewRegisterLearnerHandler(repo, testGraph(t), pub)

	_, err := h.Handle(context.Background(), RegisterLearnerCommand{LearnerID: "u1", DisplayName: "Alice"})
	require.NoError(t, err)

	// Give the learner some progress, then register again.
	_, err = repo.AddXP(context.Background(), "u1", 2500, "test")
	require.NoError(t, err)

	res, err := h.Handle(context.Background(), RegisterLearnerCommand{LearnerID: "u1", DisplayName: "Alice v2"})
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, "Alice v2", res.Learner.DisplayName, "repeat registration refreshes the name")
	assert.Equal(t, learner.XP(2500), res.Learner.XP, "xp survives re-registration")

	assert.Len(t, pub.events, 1, "no event on repeat registration")
}

func TestRegisterLearner_Validation(t *testing.T) {
	h := NewRegisterLearnerHandler(newFakeLearnerRepo(), testGraph(t), nil)

	_, err := h.Handle(context.Background(), RegisterLearnerCommand{LearnerID: "", DisplayName: "Alice"})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), RegisterLearnerCommand{LearnerID: "u1", DisplayName: ""})
	assert.Error(t, err)
}
