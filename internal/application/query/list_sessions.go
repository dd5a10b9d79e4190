package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST SESSIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListSessionsQuery contains the query parameters.
type ListSessionsQuery struct {
	// LearnerID is the session owner.
	LearnerID string
}

// Validate validates the query.
func (q ListSessionsQuery) Validate() error {
	if !learner.ID(q.LearnerID).IsValid() {
		return errors.New("list_sessions: invalid learner_id")
	}
	return nil
}

// ListSessionsResult contains resumable session cards, newest first.
type ListSessionsResult struct {
	// Sessions holds up to session.ListLimit summaries.
	Sessions []session.Summary
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ListSessionsHandler handles the ListSessionsQuery.
type ListSessionsHandler struct {
	sessionRepo session.Repository
}

// NewListSessionsHandler creates a new ListSessionsHandler.
func NewListSessionsHandler(sessionRepo session.Repository) *ListSessionsHandler {
	return &ListSessionsHandler{sessionRepo: sessionRepo}
}

// Handle executes the query.
func (h *ListSessionsHandler) Handle(ctx context.Context, q ListSessionsQuery) (*ListSessionsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sessions, err := h.sessionRepo.List(ctx, learner.ID(q.LearnerID))
	if err != nil {
		return nil, fmt.Errorf("list_sessions: %w", err)
	}

	summaries := make([]session.Summary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, s.Summarize())
	}

	return &ListSessionsResult{Sessions: summaries}, nil
}
