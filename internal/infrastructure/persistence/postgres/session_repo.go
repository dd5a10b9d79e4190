package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionRepository implements session.Repository for PostgreSQL.
// Payloads are stored as JSONB in the versioned envelope produced by
// session.EncodePayload.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

// Save stores the session, overwriting any previous session of the
// same kind for the learner.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	if !s.Kind.IsValid() {
		return shared.ErrInvalidSessionKind
	}

	raw, err := session.EncodePayload(s.Payload, s.Extra)
	if err != nil {
		return err
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sessions (id, learner_id, kind, payload, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (learner_id, kind) DO UPDATE SET
			payload = EXCLUDED.payload,
			saved_at = EXCLUDED.saved_at
	`

	if _, err := r.conn.Exec(ctx, query, s.ID, string(s.LearnerID), string(s.Kind), raw, s.SavedAt); err != nil {
		if IsForeignKeyViolation(err) {
			return learner.ErrNotFound
		}
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load returns the learner's session of the given kind.
func (r *SessionRepository) Load(ctx context.Context, learnerID learner.ID, kind session.Kind) (*session.Session, error) {
	if !kind.IsValid() {
		return nil, shared.ErrInvalidSessionKind
	}

	var (
		s   = &session.Session{LearnerID: learnerID, Kind: kind}
		raw []byte
	)

	err := r.conn.QueryRow(ctx,
		`SELECT id, payload, saved_at FROM sessions WHERE learner_id = $1 AND kind = $2`,
		string(learnerID), string(kind),
	).Scan(&s.ID, &raw, &s.SavedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	payload, extra, err := session.DecodePayload(raw)
	if err != nil {
		return nil, err
	}

	s.Payload = payload
	s.Extra = extra
	return s, nil
}

// Delete removes the session. Deleting a missing session is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, learnerID learner.ID, kind session.Kind) error {
	if !kind.IsValid() {
		return shared.ErrInvalidSessionKind
	}

	if _, err := r.conn.Exec(ctx,
		`DELETE FROM sessions WHERE learner_id = $1 AND kind = $2`,
		string(learnerID), string(kind),
	); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteAll removes every session of the learner.
func (r *SessionRepository) DeleteAll(ctx context.Context, learnerID learner.ID) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM sessions WHERE learner_id = $1`, string(learnerID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// List returns up to session.ListLimit sessions, newest first.
func (r *SessionRepository) List(ctx context.Context, learnerID learner.ID) ([]*session.Session, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, kind, payload, saved_at
		FROM sessions
		WHERE learner_id = $1
		ORDER BY saved_at DESC
		LIMIT $2
	`, string(learnerID), session.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		var (
			s    = &session.Session{LearnerID: learnerID}
			kind string
			raw  []byte
		)

		if err := rows.Scan(&s.ID, &kind, &raw, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		s.Kind = session.Kind(kind)
		payload, extra, err := session.DecodePayload(raw)
		if err != nil {
			// A corrupt payload must not hide the rest of the list.
			continue
		}

		s.Payload = payload
		s.Extra = extra
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
