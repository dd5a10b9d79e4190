package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

func seedSession(t *testing.T, repo *fakeSessionRepo, learnerID string, payload session.Payload, savedAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &session.Session{
		LearnerID: learner.ID(learnerID),
		Kind:      payload.Kind(),
		Payload:   payload,
		SavedAt:   savedAt,
	}))
}

func TestListSessions_SummarizesEachSlot(t *testing.T) {
	repo := &fakeSessionRepo{}
	now := time.Now().UTC()
	seedSession(t, repo, "u1", session.QuizPayload{
		CourseID: 1, ModuleID: 1, LessonID: 3,
		CurrentQuestion: 2, TotalQuestions: 8,
	}, now)
	seedSession(t, repo, "u1", session.LessonPayload{CourseID: 1, ModuleID: 1, LessonID: 1}, now.Add(-time.Minute))
	seedSession(t, repo, "u2", session.LessonPayload{CourseID: 1, ModuleID: 1, LessonID: 1}, now)

	h := NewListSessionsHandler(repo)

	res, err := h.Handle(context.Background(), ListSessionsQuery{LearnerID: "u1"})
	require.NoError(t, err)

	require.Len(t, res.Sessions, 2, "only the owner's sessions are listed")
	assert.Equal(t, session.KindQuiz, res.Sessions[0].Kind)
	assert.Equal(t, "Question 2 of 8", res.Sessions[0].Label)
}

func TestListSessions_EmptyIsNotAnError(t *testing.T) {
	h := NewListSessionsHandler(&fakeSessionRepo{})

	res, err := h.Handle(context.Background(), ListSessionsQuery{LearnerID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, res.Sessions)
}

func TestLoadSession_ReturnsSnapshot(t *testing.T) {
	repo := &fakeSessionRepo{}
	seedSession(t, repo, "u1", session.CTFPayload{ChallengeID: 7, ChallengeName: "Caesar"}, time.Now())

	h := NewLoadSessionHandler(repo)

	s, err := h.Handle(context.Background(), LoadSessionQuery{LearnerID: "u1", Kind: session.KindCTF})
	require.NoError(t, err)
	assert.Equal(t, session.CTFPayload{ChallengeID: 7, ChallengeName: "Caesar"}, s.Payload)
}

func TestLoadSession_EmptySlot(t *testing.T) {
	h := NewLoadSessionHandler(&fakeSessionRepo{})

	_, err := h.Handle(context.Background(), LoadSessionQuery{LearnerID: "u1", Kind: session.KindLesson})
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestLoadSession_InvalidKind(t *testing.T) {
	h := NewLoadSessionHandler(&fakeSessionRepo{})

	_, err := h.Handle(context.Background(), LoadSessionQuery{LearnerID: "u1", Kind: "hologram"})
	assert.ErrorIs(t, err, shared.ErrInvalidSessionKind)
}
