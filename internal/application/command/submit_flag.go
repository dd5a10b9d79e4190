package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT FLAG COMMAND
// Flags are compared against a bcrypt hash of the reference flag, so
// even a read of the challenges table reveals nothing. Points and XP
// are credited only for the FIRST correct solve of a challenge; every
// attempt, correct or not, lands in the submissions journal. The solve
// row and the XP credit are one repository transaction, so a failure
// leaves no half-credited state behind.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitFlagCommand contains a flag submission.
type SubmitFlagCommand struct {
	// LearnerID is the submitting learner.
	LearnerID string

	// ChallengeID is the challenge being attempted.
	ChallengeID int64

	// Flag is the submitted flag, as typed. Normalization (outer
	// whitespace only) happens here; case is preserved.
	Flag string
}

// Validate validates the command.
func (c SubmitFlagCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("submit_flag: invalid learner_id")
	}
	if c.ChallengeID <= 0 {
		return fmt.Errorf("submit_flag: %w", shared.ErrChallengeNotFound)
	}
	if ctf.NormalizeFlag(c.Flag) == "" {
		return fmt.Errorf("submit_flag: %w", shared.ErrEmptyFlag)
	}
	return nil
}

// SubmitFlagResult contains the outcome of a submission.
type SubmitFlagResult struct {
	// Correct is true when the flag matched the reference.
	Correct bool

	// FirstSolve is true when this is the learner's first correct
	// solve of this challenge. Points and XP were credited only then.
	FirstSolve bool

	// PointsAwarded is the CTF points credited (0 unless FirstSolve).
	PointsAwarded int

	// TotalSolves is how many challenges the learner has solved after
	// this submission.
	TotalSolves int

	// NewXP, NewLevel - learner totals after any XP credit. Zero when
	// nothing was credited.
	NewXP    int
	NewLevel int

	// LevelledUp is true when the XP credit crossed a level threshold.
	LevelledUp bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitFlagHandler handles the SubmitFlagCommand.
type SubmitFlagHandler struct {
	learnerRepo learner.Repository
	ctfRepo     ctf.Repository
	publisher   shared.EventPublisher
}

// NewSubmitFlagHandler creates a new SubmitFlagHandler.
func NewSubmitFlagHandler(
	learnerRepo learner.Repository,
	ctfRepo ctf.Repository,
	publisher shared.EventPublisher,
) *SubmitFlagHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &SubmitFlagHandler{
		learnerRepo: learnerRepo,
		ctfRepo:     ctfRepo,
		publisher:   publisher,
	}
}

// Handle executes the submit flag command.
func (h *SubmitFlagHandler) Handle(ctx context.Context, cmd SubmitFlagCommand) (*SubmitFlagResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	l, err := h.learnerRepo.GetByID(ctx, learner.ID(cmd.LearnerID))
	if err != nil {
		return nil, fmt.Errorf("submit_flag: %w", err)
	}

	challenge, err := h.ctfRepo.GetChallenge(ctx, cmd.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("submit_flag: %w", err)
	}

	if !challenge.AvailableFor(int(l.XP)) {
		return nil, fmt.Errorf("submit_flag: %w", shared.ErrChallengeLocked)
	}

	correct := bcrypt.CompareHashAndPassword(
		[]byte(challenge.FlagHash),
		[]byte(ctf.NormalizeFlag(cmd.Flag)),
	) == nil

	sub := &ctf.Submission{
		LearnerID:     learner.ID(cmd.LearnerID),
		ChallengeID:   cmd.ChallengeID,
		Correct:       correct,
		PointsAwarded: challenge.Points,
		SubmittedAt:   time.Now().UTC(),
	}

	outcome, err := h.ctfRepo.RecordSubmission(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("submit_flag: %w", err)
	}

	result := &SubmitFlagResult{Correct: correct, FirstSolve: outcome.FirstSolve}

	if outcome.FirstSolve {
		result.PointsAwarded = challenge.Points
	}

	if xp := outcome.XP; xp != nil {
		result.NewXP = xp.NewXP
		result.NewLevel = xp.NewLevel
		result.LevelledUp = xp.LevelledUp()

		if xp.LevelledUp() {
			_ = h.publisher.Publish(ctx, shared.NewLevelledUpEvent(cmd.LearnerID, xp.OldLevel, xp.NewLevel))
		}
	}

	if correct {
		solves, err := h.ctfRepo.CountSolves(ctx, learner.ID(cmd.LearnerID))
		if err != nil {
			return nil, fmt.Errorf("submit_flag: %w", err)
		}
		result.TotalSolves = solves
	}

	_ = h.publisher.Publish(ctx, shared.NewFlagSubmittedEvent(cmd.LearnerID, int(cmd.ChallengeID), correct))
	if outcome.FirstSolve {
		_ = h.publisher.Publish(ctx, shared.NewFlagSolvedEvent(cmd.LearnerID, int(cmd.ChallengeID), challenge.Name, challenge.Points))
	}

	return result, nil
}
