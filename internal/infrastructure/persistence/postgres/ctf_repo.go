package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CTF REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CTFRepository implements ctf.Repository for PostgreSQL.
type CTFRepository struct {
	conn *Connection
}

// NewCTFRepository creates a new CTFRepository.
func NewCTFRepository(conn *Connection) *CTFRepository {
	return &CTFRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Challenges
// ─────────────────────────────────────────────────────────────────────────────

const challengeColumns = `id, name, category, difficulty, points, description, flag_hash, hints, required_xp, created_at`

// GetChallenge returns a challenge by id.
func (r *CTFRepository) GetChallenge(ctx context.Context, id int64) (*ctf.Challenge, error) {
	query := fmt.Sprintf(`SELECT %s FROM ctf_challenges WHERE id = $1`, challengeColumns)

	ch, err := scanChallenge(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return ch, nil
}

// ListChallenges returns all challenges ordered by (required_xp ASC, id ASC).
func (r *CTFRepository) ListChallenges(ctx context.Context) ([]*ctf.Challenge, error) {
	query := fmt.Sprintf(`SELECT %s FROM ctf_challenges ORDER BY required_xp ASC, id ASC`, challengeColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*ctf.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}

	return challenges, rows.Err()
}

// AddChallenge inserts a new challenge. Names are unique; a conflict
// leaves the existing row untouched and returns its id.
func (r *CTFRepository) AddChallenge(ctx context.Context, ch *ctf.Challenge) (int64, error) {
	query := `
		INSERT INTO ctf_challenges (name, category, difficulty, points, description, flag_hash, hints, required_xp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.conn.QueryRow(ctx, query,
		ch.Name,
		string(ch.Category),
		string(ch.Difficulty),
		ch.Points,
		ch.Description,
		ch.FlagHash,
		ch.Hints,
		ch.RequiredXP,
	).Scan(&id)
	if err != nil {
		if IsNoRows(err) {
			// Already seeded.
			err = r.conn.QueryRow(ctx, `SELECT id FROM ctf_challenges WHERE name = $1`, ch.Name).Scan(&id)
			if err != nil {
				return 0, fmt.Errorf("failed to resolve existing challenge: %w", err)
			}
			return id, nil
		}
		return 0, fmt.Errorf("failed to add challenge: %w", err)
	}

	return id, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Submissions
// ─────────────────────────────────────────────────────────────────────────────

// RecordSubmission appends the submission to the journal. For a correct
// submission it also tries the solve insert: the UNIQUE constraint on
// ctf_solves decides atomically whether this is the first solve. A
// first solve credits the learner's XP through the shared ledger step
// in the same transaction, so the solve row and the XP credit commit
// or roll back together.
func (r *CTFRepository) RecordSubmission(ctx context.Context, sub *ctf.Submission) (*ctf.SubmissionOutcome, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	outcome := &ctf.SubmissionOutcome{}
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if sub.Correct {
			tag, err := tx.Exec(ctx, `
				INSERT INTO ctf_solves (learner_id, challenge_id, points, solved_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (learner_id, challenge_id) DO NOTHING
			`, string(sub.LearnerID), sub.ChallengeID, sub.PointsAwarded, sub.SubmittedAt)
			if err != nil {
				if IsForeignKeyViolation(err) {
					return learner.ErrNotFound
				}
				return fmt.Errorf("failed to record solve: %w", err)
			}
			outcome.FirstSolve = tag.RowsAffected() > 0
		}

		// Repeat solves land in the journal with zero points.
		points := sub.PointsAwarded
		if !outcome.FirstSolve {
			points = 0
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO ctf_submissions (id, learner_id, challenge_id, correct, points_awarded, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, sub.ID, string(sub.LearnerID), sub.ChallengeID, sub.Correct, points, sub.SubmittedAt); err != nil {
			if IsForeignKeyViolation(err) {
				return learner.ErrNotFound
			}
			return fmt.Errorf("failed to record submission: %w", err)
		}

		if outcome.FirstSolve && points > 0 {
			reason := fmt.Sprintf("ctf_solve:%d", sub.ChallengeID)
			xp, err := creditXP(ctx, tx, sub.LearnerID, points, reason, true)
			if err != nil {
				return err
			}
			outcome.XP = xp
		}

		sub.PointsAwarded = points
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// CountSolves returns the number of distinct challenges solved.
func (r *CTFRepository) CountSolves(ctx context.Context, learnerID learner.ID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM ctf_solves WHERE learner_id = $1`,
		string(learnerID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count solves: %w", err)
	}

	return count, nil
}

// ListSolves returns the learner's solved challenges, newest first.
func (r *CTFRepository) ListSolves(ctx context.Context, learnerID learner.ID) ([]ctf.SolveRecord, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT s.challenge_id, c.name, c.category, s.points, s.solved_at
		FROM ctf_solves s
		JOIN ctf_challenges c ON c.id = s.challenge_id
		WHERE s.learner_id = $1
		ORDER BY s.solved_at DESC, s.challenge_id ASC
	`, string(learnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list solves: %w", err)
	}
	defer rows.Close()

	var solves []ctf.SolveRecord
	for rows.Next() {
		var rec ctf.SolveRecord
		var category string

		if err := rows.Scan(&rec.ChallengeID, &rec.Name, &category, &rec.Points, &rec.SolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solve: %w", err)
		}

		rec.Category = ctf.Category(category)
		solves = append(solves, rec)
	}

	return solves, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Leaderboard
// ─────────────────────────────────────────────────────────────────────────────

// Leaderboard returns the top learners by CTF points in deterministic
// order: points DESC, solves DESC, learner_id ASC.
func (r *CTFRepository) Leaderboard(ctx context.Context, limit int) ([]ctf.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.conn.Query(ctx, `
		SELECT s.learner_id, l.display_name, SUM(s.points) AS total_points, COUNT(*) AS solves
		FROM ctf_solves s
		JOIN learners l ON l.id = s.learner_id
		GROUP BY s.learner_id, l.display_name
		ORDER BY total_points DESC, solves DESC, s.learner_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ctf leaderboard: %w", err)
	}
	defer rows.Close()

	var board []ctf.LeaderboardRow
	for rows.Next() {
		var row ctf.LeaderboardRow
		var id string

		if err := rows.Scan(&id, &row.DisplayName, &row.Points, &row.Solves); err != nil {
			return nil, fmt.Errorf("failed to scan ctf leaderboard row: %w", err)
		}

		row.LearnerID = learner.ID(id)
		row.Rank = len(board) + 1
		board = append(board, row)
	}

	return board, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanChallenge(row pgx.Row) (*ctf.Challenge, error) {
	ch := &ctf.Challenge{}
	var category, difficulty string

	err := row.Scan(
		&ch.ID,
		&ch.Name,
		&category,
		&difficulty,
		&ch.Points,
		&ch.Description,
		&ch.FlagHash,
		&ch.Hints,
		&ch.RequiredXP,
		&ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ch.Category = ctf.Category(category)
	ch.Difficulty = ctf.Difficulty(difficulty)
	return ch, nil
}
