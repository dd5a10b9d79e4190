// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Idempotent registration: the first call creates the learner at the
// start of the content graph, repeat calls only refresh the display
// name and never touch xp or position.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand contains the data to register a learner.
type RegisterLearnerCommand struct {
	// LearnerID is the opaque external identifier owned by the platform.
	LearnerID string

	// DisplayName is the name shown on leaderboards.
	DisplayName string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("register_learner: invalid learner_id")
	}
	if c.DisplayName == "" {
		return errors.New("register_learner: display_name is required")
	}
	return nil
}

// RegisterLearnerResult contains the result of registration.
type RegisterLearnerResult struct {
	// Created is true when the learner was registered for the first time.
	Created bool

	// Learner is the state after the operation.
	Learner *learner.Learner
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo learner.Repository
	graph       *content.Graph
	publisher   shared.EventPublisher
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	graph *content.Graph,
	publisher shared.EventPublisher,
) *RegisterLearnerHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &RegisterLearnerHandler{
		learnerRepo: learnerRepo,
		graph:       graph,
		publisher:   publisher,
	}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	start, err := h.graph.StartPosition()
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:          learner.ID(cmd.LearnerID),
		DisplayName: cmd.DisplayName,
		Position:    start,
	})
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	res, err := h.learnerRepo.Upsert(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to upsert: %w", err)
	}

	if res.Created {
		event := shared.NewLearnerRegisteredEvent(cmd.LearnerID, cmd.DisplayName)
		_ = h.publisher.Publish(ctx, event)
	}

	return &RegisterLearnerResult{Created: res.Created, Learner: res.Learner}, nil
}
