package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngine_AllOperationsWired(t *testing.T) {
	// Nil deps are the minimal configuration: no caches, no events.
	// Every handler must still come out constructed.
	eng := NewEngine(Deps{})

	assert.NotNil(t, eng.RegisterLearner)
	assert.NotNil(t, eng.AddXP)
	assert.NotNil(t, eng.CompleteLesson)
	assert.NotNil(t, eng.RecordQuizAttempt)
	assert.NotNil(t, eng.SubmitFlag)
	assert.NotNil(t, eng.SaveSession)
	assert.NotNil(t, eng.DeleteSession)

	assert.NotNil(t, eng.LearnerStats)
	assert.NotNil(t, eng.Leaderboard)
	assert.NotNil(t, eng.CTFLeaderboard)
	assert.NotNil(t, eng.CTFProgress)
	assert.NotNil(t, eng.Achievements)
	assert.NotNil(t, eng.ListSessions)
	assert.NotNil(t, eng.LoadSession)
}
