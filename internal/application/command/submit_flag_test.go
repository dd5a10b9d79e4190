package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

func seedChallenge(t *testing.T, repo *fakeCTFRepo, flag string, points, requiredXP int) int64 {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(ctf.NormalizeFlag(flag)), bcrypt.MinCost)
	require.NoError(t, err)

	id, err := repo.AddChallenge(context.Background(), &ctf.Challenge{
		Name:       "Test Challenge",
		Category:   ctf.CategoryCrypto,
		Points:     points,
		FlagHash:   string(hash),
		RequiredXP: requiredXP,
	})
	require.NoError(t, err)
	return id
}

func TestSubmitFlag_CorrectFirstSolve(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 900))
	ctfRepo := newFakeCTFRepo(learnerRepo)
	id := seedChallenge(t, ctfRepo, "CYBER{x}", 150, 500)
	pub := &capturePublisher{}
	h := NewSubmitFlagHandler(learnerRepo, ctfRepo, pub)

	res, err := h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: id, Flag: "  CYBER{x}  ",
	})
	require.NoError(t, err)

	assert.True(t, res.Correct, "outer whitespace is stripped before comparison")
	assert.True(t, res.FirstSolve)
	assert.Equal(t, 150, res.PointsAwarded)
	assert.Equal(t, 1, res.TotalSolves)
	assert.Equal(t, 1050, res.NewXP)
	assert.True(t, res.LevelledUp, "900 + 150 crosses the level threshold")

	assert.True(t, pub.has(shared.EventFlagSubmitted))
	assert.True(t, pub.has(shared.EventFlagSolved))
	assert.True(t, pub.has(shared.EventLevelledUp))
}

func TestSubmitFlag_WrongFlag(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 900))
	ctfRepo := newFakeCTFRepo(learnerRepo)
	id := seedChallenge(t, ctfRepo, "CYBER{x}", 150, 0)
	pub := &capturePublisher{}
	h := NewSubmitFlagHandler(learnerRepo, ctfRepo, pub)

	res, err := h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: id, Flag: "CYBER{y}",
	})
	require.NoError(t, err, "a wrong flag is an outcome, not an error")

	assert.False(t, res.Correct)
	assert.False(t, res.FirstSolve)
	assert.Equal(t, 0, res.PointsAwarded)

	// The wrong attempt still lands in the journal.
	require.Len(t, ctfRepo.submissions, 1)
	assert.False(t, ctfRepo.submissions[0].Correct)

	assert.True(t, pub.has(shared.EventFlagSubmitted))
	assert.False(t, pub.has(shared.EventFlagSolved))
}

func TestSubmitFlag_CaseSensitive(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 0))
	ctfRepo := newFakeCTFRepo(learnerRepo)
	id := seedChallenge(t, ctfRepo, "CYBER{Flag}", 100, 0)
	h := NewSubmitFlagHandler(learnerRepo, ctfRepo, nil)

	res, err := h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: id, Flag: "cyber{flag}",
	})
	require.NoError(t, err)
	assert.False(t, res.Correct)
}

func TestSubmitFlag_RepeatSolveCreditsNothing(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 0))
	ctfRepo := newFakeCTFRepo(learnerRepo)
	id := seedChallenge(t, ctfRepo, "CYBER{x}", 150, 0)
	h := NewSubmitFlagHandler(learnerRepo, ctfRepo, nil)

	cmd := SubmitFlagCommand{LearnerID: "u1", ChallengeID: id, Flag: "CYBER{x}"}

	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.True(t, first.FirstSolve)

	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, second.Correct)
	assert.False(t, second.FirstSolve)
	assert.Equal(t, 0, second.PointsAwarded)
	assert.Equal(t, 1, second.TotalSolves)

	// Both correct attempts are in the journal, the second with zero points.
	require.Len(t, ctfRepo.submissions, 2)
	assert.Equal(t, 0, ctfRepo.submissions[1].PointsAwarded)
}

func TestSubmitFlag_LockedByXPGate(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 400))
	ctfRepo := newFakeCTFRepo(learnerRepo)
	id := seedChallenge(t, ctfRepo, "CYBER{x}", 150, 500)
	h := NewSubmitFlagHandler(learnerRepo, ctfRepo, nil)

	_, err := h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: id, Flag: "CYBER{x}",
	})
	assert.ErrorIs(t, err, shared.ErrChallengeLocked)
	assert.Empty(t, ctfRepo.submissions, "locked submissions are not journalled")
}

func TestSubmitFlag_Validation(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	h := NewSubmitFlagHandler(learnerRepo, newFakeCTFRepo(learnerRepo), nil)

	_, err := h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: 1, Flag: "   ",
	})
	assert.ErrorIs(t, err, shared.ErrEmptyFlag)

	_, err = h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: 0, Flag: "CYBER{x}",
	})
	assert.ErrorIs(t, err, shared.ErrChallengeNotFound)
}

func TestSubmitFlag_UnknownChallenge(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 0))
	h := NewSubmitFlagHandler(learnerRepo, newFakeCTFRepo(learnerRepo), nil)

	_, err := h.Handle(context.Background(), SubmitFlagCommand{
		LearnerID: "u1", ChallengeID: 42, Flag: "CYBER{x}",
	})
	assert.ErrorIs(t, err, shared.ErrChallengeNotFound)
}

func TestSubmitFlag_SolveAndCreditAreOneTransaction(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	learnerRepo.add(mustLearner("u1", "Alice", 900))
	ctfRepo := newFakeCTFRepo(learnerRepo)
	id := seedChallenge(t, ctfRepo, "CYBER{x}", 150, 0)
	h := NewSubmitFlagHandler(learnerRepo, ctfRepo, nil)

	cmd := SubmitFlagCommand{LearnerID: "u1", ChallengeID: id, Flag: "CYBER{x}"}

	// A rolled-back write leaves neither the solve nor the credit.
	ctfRepo.failNext = errors.New("connection reset by peer")
	_, err := h.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.Empty(t, ctfRepo.submissions)
	assert.Empty(t, learnerRepo.xpReasons)

	// The retry still counts as the first solve and credits the reward.
	res, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, res.FirstSolve)
	assert.Equal(t, 150, res.PointsAwarded)
	assert.Equal(t, 1050, res.NewXP)
	assert.Equal(t, []string{"ctf_solve:1"}, learnerRepo.xpReasons)
}
