package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD XP COMMAND
// Atomic XP credit. Level is always derived from the new XP total, and
// a crossed level milestone is awarded inside the same transaction as
// the credit itself.
// ══════════════════════════════════════════════════════════════════════════════

// AddXPCommand contains the data to credit XP.
type AddXPCommand struct {
	// LearnerID is the learner to credit.
	LearnerID string

	// Amount is the XP delta. Must be non-negative.
	Amount int

	// Reason is a short audit tag stored in the XP history.
	Reason string
}

// Validate validates the command.
func (c AddXPCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("add_xp: invalid learner_id")
	}
	if c.Amount < 0 {
		return learner.ErrNegativeAmount
	}
	if c.Reason == "" {
		return errors.New("add_xp: reason is required")
	}
	return nil
}

// AddXPResult contains the result of an XP credit.
type AddXPResult struct {
	// OldXP, NewXP - totals before and after.
	OldXP int
	NewXP int

	// OldLevel, NewLevel - derived levels before and after.
	OldLevel int
	NewLevel int

	// LevelledUp is true when a level threshold was crossed.
	LevelledUp bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AddXPHandler handles the AddXPCommand.
type AddXPHandler struct {
	learnerRepo learner.Repository
	publisher   shared.EventPublisher
}

// NewAddXPHandler creates a new AddXPHandler.
func NewAddXPHandler(learnerRepo learner.Repository, publisher shared.EventPublisher) *AddXPHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &AddXPHandler{learnerRepo: learnerRepo, publisher: publisher}
}

// Handle executes the add XP command.
func (h *AddXPHandler) Handle(ctx context.Context, cmd AddXPCommand) (*AddXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	res, err := h.learnerRepo.AddXP(ctx, learner.ID(cmd.LearnerID), cmd.Amount, cmd.Reason)
	if err != nil {
		return nil, fmt.Errorf("add_xp: %w", err)
	}

	_ = h.publisher.Publish(ctx, shared.NewXPAddedEvent(cmd.LearnerID, cmd.Amount, res.NewXP, res.NewLevel, cmd.Reason))
	if res.LevelledUp() {
		_ = h.publisher.Publish(ctx, shared.NewLevelledUpEvent(cmd.LearnerID, res.OldLevel, res.NewLevel))
	}

	return &AddXPResult{
		OldXP:      res.OldXP,
		NewXP:      res.NewXP,
		OldLevel:   res.OldLevel,
		NewLevel:   res.NewLevel,
		LevelledUp: res.LevelledUp(),
	}, nil
}
