package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE SESSION COMMAND
// One session per (learner, kind): saving overwrites the previous
// snapshot of that kind without touching the other kinds.
// ══════════════════════════════════════════════════════════════════════════════

// SaveSessionCommand contains the session snapshot to persist.
type SaveSessionCommand struct {
	// LearnerID is the session owner.
	LearnerID string

	// Payload is the typed snapshot. Its Kind() decides which slot the
	// session occupies.
	Payload session.Payload

	// Extra carries optional free-form state alongside the typed payload.
	Extra map[string]any
}

// Validate validates the command.
func (c SaveSessionCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("save_session: invalid learner_id")
	}
	if c.Payload == nil {
		return fmt.Errorf("save_session: %w: payload is required", shared.ErrInvalidInput)
	}
	if !c.Payload.Kind().IsValid() {
		return fmt.Errorf("save_session: %w", shared.ErrInvalidSessionKind)
	}
	return nil
}

// SaveSessionResult contains the result of a save.
type SaveSessionResult struct {
	// Kind is the slot the session was written to.
	Kind session.Kind

	// SavedAt is the snapshot timestamp.
	SavedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SaveSessionHandler handles the SaveSessionCommand.
type SaveSessionHandler struct {
	sessionRepo session.Repository
	publisher   shared.EventPublisher
}

// NewSaveSessionHandler creates a new SaveSessionHandler.
func NewSaveSessionHandler(sessionRepo session.Repository, publisher shared.EventPublisher) *SaveSessionHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &SaveSessionHandler{sessionRepo: sessionRepo, publisher: publisher}
}

// Handle executes the save session command.
func (h *SaveSessionHandler) Handle(ctx context.Context, cmd SaveSessionCommand) (*SaveSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s := &session.Session{
		LearnerID: learner.ID(cmd.LearnerID),
		Kind:      cmd.Payload.Kind(),
		Payload:   cmd.Payload,
		Extra:     cmd.Extra,
		SavedAt:   time.Now().UTC(),
	}

	if err := h.sessionRepo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save_session: %w", err)
	}

	_ = h.publisher.Publish(ctx, shared.NewSessionSavedEvent(cmd.LearnerID, string(s.Kind)))

	return &SaveSessionResult{Kind: s.Kind, SavedAt: s.SavedAt}, nil
}
