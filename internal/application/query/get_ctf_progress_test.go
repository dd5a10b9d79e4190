package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

func TestGetCTFProgress_Partitioning(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	l := mustLearner("u1", "Alice", 600)
	learnerRepo.learners[l.ID] = l

	ctfRepo := newFakeCTFRepo()
	for _, ch := range []*ctf.Challenge{
		{Name: "Caesar", Category: ctf.CategoryCrypto, Points: 100, RequiredXP: 0},
		{Name: "Headers", Category: ctf.CategoryWeb, Points: 150, RequiredXP: 500},
		{Name: "Forensics", Category: ctf.CategoryForens, Points: 300, RequiredXP: 2000},
	} {
		_, err := ctfRepo.AddChallenge(context.Background(), ch)
		require.NoError(t, err)
	}
	ctfRepo.solves["u1"] = []ctf.SolveRecord{
		{ChallengeID: 1, Name: "Caesar", Points: 100, SolvedAt: time.Now()},
	}

	h := NewGetCTFProgressHandler(learnerRepo, ctfRepo)

	progress, err := h.Handle(context.Background(), GetCTFProgressQuery{LearnerID: "u1"})
	require.NoError(t, err)

	require.Len(t, progress.Solved, 1)
	assert.Equal(t, 100, progress.TotalPoints)

	// "Headers" is open at 600 XP; "Forensics" needs 2000.
	require.Len(t, progress.Available, 1)
	assert.Equal(t, "Headers", progress.Available[0].Name)
	require.Len(t, progress.Locked, 1)
	assert.Equal(t, "Forensics", progress.Locked[0].Name)
}

func TestGetCTFProgress_ExactXPUnlocks(t *testing.T) {
	learnerRepo := newFakeLearnerRepo()
	l := mustLearner("u1", "Alice", 500)
	learnerRepo.learners[l.ID] = l

	ctfRepo := newFakeCTFRepo()
	_, err := ctfRepo.AddChallenge(context.Background(), &ctf.Challenge{
		Name: "Headers", Category: ctf.CategoryWeb, Points: 150, RequiredXP: 500,
	})
	require.NoError(t, err)

	h := NewGetCTFProgressHandler(learnerRepo, ctfRepo)

	progress, err := h.Handle(context.Background(), GetCTFProgressQuery{LearnerID: "u1"})
	require.NoError(t, err)

	assert.Len(t, progress.Available, 1, "the gate is inclusive")
	assert.Empty(t, progress.Locked)
}

func TestGetCTFProgress_UnknownLearner(t *testing.T) {
	h := NewGetCTFProgressHandler(newFakeLearnerRepo(), newFakeCTFRepo())

	_, err := h.Handle(context.Background(), GetCTFProgressQuery{LearnerID: "ghost"})
	assert.ErrorIs(t, err, learner.ErrNotFound)
}
