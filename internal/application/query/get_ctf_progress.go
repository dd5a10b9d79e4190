package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CTF PROGRESS QUERY
// Splits the challenge set into solved / available / locked for one
// learner. Availability is gated by the learner's current XP against
// each challenge's RequiredXP.
// ══════════════════════════════════════════════════════════════════════════════

// GetCTFProgressQuery contains the query parameters.
type GetCTFProgressQuery struct {
	// LearnerID is the learner to inspect.
	LearnerID string
}

// Validate validates the query.
func (q GetCTFProgressQuery) Validate() error {
	if !learner.ID(q.LearnerID).IsValid() {
		return errors.New("get_ctf_progress: invalid learner_id")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetCTFProgressHandler handles the GetCTFProgressQuery.
type GetCTFProgressHandler struct {
	learnerRepo learner.Repository
	ctfRepo     ctf.Repository
}

// NewGetCTFProgressHandler creates a new GetCTFProgressHandler.
func NewGetCTFProgressHandler(learnerRepo learner.Repository, ctfRepo ctf.Repository) *GetCTFProgressHandler {
	return &GetCTFProgressHandler{learnerRepo: learnerRepo, ctfRepo: ctfRepo}
}

// Handle executes the query.
func (h *GetCTFProgressHandler) Handle(ctx context.Context, q GetCTFProgressQuery) (*ctf.Progress, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	id := learner.ID(q.LearnerID)

	l, err := h.learnerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_ctf_progress: %w", err)
	}

	solves, err := h.ctfRepo.ListSolves(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_ctf_progress: %w", err)
	}

	challenges, err := h.ctfRepo.ListChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_ctf_progress: %w", err)
	}

	solved := make(map[int64]bool, len(solves))
	totalPoints := 0
	for _, s := range solves {
		solved[s.ChallengeID] = true
		totalPoints += s.Points
	}

	progress := &ctf.Progress{Solved: solves, TotalPoints: totalPoints}
	for _, ch := range challenges {
		if solved[ch.ID] {
			continue
		}
		if ch.AvailableFor(int(l.XP)) {
			progress.Available = append(progress.Available, ch)
		} else {
			progress.Locked = append(progress.Locked, ch)
		}
	}

	return progress, nil
}
