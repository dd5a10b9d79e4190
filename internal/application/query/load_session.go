package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOAD SESSION QUERY
// ══════════════════════════════════════════════════════════════════════════════

// LoadSessionQuery contains the query parameters.
type LoadSessionQuery struct {
	// LearnerID is the session owner.
	LearnerID string

	// Kind selects the slot to load.
	Kind session.Kind
}

// Validate validates the query.
func (q LoadSessionQuery) Validate() error {
	if !learner.ID(q.LearnerID).IsValid() {
		return errors.New("load_session: invalid learner_id")
	}
	if !q.Kind.IsValid() {
		return fmt.Errorf("load_session: %w", shared.ErrInvalidSessionKind)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// LoadSessionHandler handles the LoadSessionQuery.
type LoadSessionHandler struct {
	sessionRepo session.Repository
}

// NewLoadSessionHandler creates a new LoadSessionHandler.
func NewLoadSessionHandler(sessionRepo session.Repository) *LoadSessionHandler {
	return &LoadSessionHandler{sessionRepo: sessionRepo}
}

// Handle executes the query. Returns shared.ErrSessionNotFound when
// the slot is empty.
func (h *LoadSessionHandler) Handle(ctx context.Context, q LoadSessionQuery) (*session.Session, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s, err := h.sessionRepo.Load(ctx, learner.ID(q.LearnerID), q.Kind)
	if err != nil {
		return nil, fmt.Errorf("load_session: %w", err)
	}

	return s, nil
}
