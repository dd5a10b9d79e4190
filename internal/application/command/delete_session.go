package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE SESSION COMMAND
// Deleting a missing session is a no-op, not an error: the caller only
// cares that the slot is empty afterwards. An empty Kind clears every
// slot of the learner.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteSessionCommand contains the slot(s) to clear.
type DeleteSessionCommand struct {
	// LearnerID is the session owner.
	LearnerID string

	// Kind selects the slot to clear. Empty means all slots.
	Kind session.Kind
}

// Validate validates the command.
func (c DeleteSessionCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("delete_session: invalid learner_id")
	}
	if c.Kind != "" && !c.Kind.IsValid() {
		return fmt.Errorf("delete_session: %w", shared.ErrInvalidSessionKind)
	}
	return nil
}

// DeleteSessionResult contains the result of a delete.
type DeleteSessionResult struct {
	// Deleted is how many sessions were actually removed.
	Deleted int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// DeleteSessionHandler handles the DeleteSessionCommand.
type DeleteSessionHandler struct {
	sessionRepo session.Repository
	publisher   shared.EventPublisher
}

// NewDeleteSessionHandler creates a new DeleteSessionHandler.
func NewDeleteSessionHandler(sessionRepo session.Repository, publisher shared.EventPublisher) *DeleteSessionHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &DeleteSessionHandler{sessionRepo: sessionRepo, publisher: publisher}
}

// Handle executes the delete session command.
func (h *DeleteSessionHandler) Handle(ctx context.Context, cmd DeleteSessionCommand) (*DeleteSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := learner.ID(cmd.LearnerID)

	if cmd.Kind == "" {
		deleted, err := h.sessionRepo.DeleteAll(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("delete_session: %w", err)
		}
		if deleted > 0 {
			_ = h.publisher.Publish(ctx, shared.NewSessionDeletedEvent(cmd.LearnerID, "all"))
		}
		return &DeleteSessionResult{Deleted: deleted}, nil
	}

	if err := h.sessionRepo.Delete(ctx, id, cmd.Kind); err != nil {
		return nil, fmt.Errorf("delete_session: %w", err)
	}

	_ = h.publisher.Publish(ctx, shared.NewSessionDeletedEvent(cmd.LearnerID, string(cmd.Kind)))

	return &DeleteSessionResult{Deleted: 1}, nil
}
