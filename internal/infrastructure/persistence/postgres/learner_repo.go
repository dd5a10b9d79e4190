package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
//
// Every mutating method is one short transaction that takes an exclusive
// row lock on the learner (SELECT ... FOR UPDATE). Operations on the
// same learner are therefore linearized; operations on different
// learners never contend.
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Registration & Lookup
// ─────────────────────────────────────────────────────────────────────────────

// Upsert registers a learner idempotently. An existing learner keeps
// xp and position; only the display name is refreshed.
func (r *LearnerRepository) Upsert(ctx context.Context, l *learner.Learner) (*learner.UpsertResult, error) {
	query := `
		INSERT INTO learners (id, display_name, xp, course_id, module_id, lesson_id, content_done, joined_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = NOW()
		RETURNING xp, course_id, module_id, lesson_id, content_done,
			joined_at, created_at, updated_at, (xmax = 0) AS inserted
	`

	out := &learner.Learner{ID: l.ID, DisplayName: l.DisplayName}
	var xp int
	var inserted bool

	err := r.conn.QueryRow(ctx, query,
		string(l.ID),
		l.DisplayName,
		int(l.XP),
		l.Position.CourseID,
		l.Position.ModuleID,
		l.Position.LessonID,
		l.ContentDone,
		l.JoinedAt,
		l.CreatedAt,
		l.UpdatedAt,
	).Scan(
		&xp,
		&out.Position.CourseID,
		&out.Position.ModuleID,
		&out.Position.LessonID,
		&out.ContentDone,
		&out.JoinedAt,
		&out.CreatedAt,
		&out.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert learner: %w", err)
	}

	out.XP = learner.XP(xp)
	return &learner.UpsertResult{Created: inserted, Learner: out}, nil
}

// GetByID returns a learner by external identifier.
func (r *LearnerRepository) GetByID(ctx context.Context, id learner.ID) (*learner.Learner, error) {
	query := `
		SELECT id, display_name, xp, course_id, module_id, lesson_id, content_done,
			joined_at, created_at, updated_at
		FROM learners
		WHERE id = $1
	`

	l, err := scanLearner(r.conn.QueryRow(ctx, query, string(id)))
	if err != nil {
		if IsNoRows(err) {
			return nil, learner.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}

	return l, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ledger Operations
// ─────────────────────────────────────────────────────────────────────────────

// AddXP credits XP atomically and, on level-up, inserts the
// "Level N Reached" award inside the same transaction.
func (r *LearnerRepository) AddXP(ctx context.Context, id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	return r.addXP(ctx, id, amount, reason, true)
}

// AddXPQuiet credits XP without the level award. Used for achievement
// bonuses so the evaluator cannot recurse into itself.
func (r *LearnerRepository) AddXPQuiet(ctx context.Context, id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	return r.addXP(ctx, id, amount, reason, false)
}

func (r *LearnerRepository) addXP(ctx context.Context, id learner.ID, amount int, reason string, withLevelAward bool) (*learner.XPResult, error) {
	if amount < 0 {
		return nil, learner.ErrNegativeAmount
	}

	var result *learner.XPResult
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		res, err := creditXP(ctx, tx, id, amount, reason, withLevelAward)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// creditXP is the shared ledger step: lock the learner row, write the
// new xp, append history, and award level milestones when asked. Runs
// inside the caller's transaction.
func creditXP(ctx context.Context, tx pgx.Tx, id learner.ID, amount int, reason string, withLevelAward bool) (*learner.XPResult, error) {
	var oldXP int
	err := tx.QueryRow(ctx, `SELECT xp FROM learners WHERE id = $1 FOR UPDATE`, string(id)).Scan(&oldXP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, learner.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock learner row: %w", err)
	}

	newXP := oldXP + amount

	if _, err := tx.Exec(ctx,
		`UPDATE learners SET xp = $2, updated_at = NOW() WHERE id = $1`,
		string(id), newXP,
	); err != nil {
		return nil, fmt.Errorf("failed to update xp: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO xp_history (learner_id, old_xp, new_xp, delta, reason) VALUES ($1, $2, $3, $4, $5)`,
		string(id), oldXP, newXP, amount, reason,
	); err != nil {
		return nil, fmt.Errorf("failed to append xp history: %w", err)
	}

	result := &learner.XPResult{
		OldXP:    oldXP,
		NewXP:    newXP,
		OldLevel: int(learner.CalculateLevel(learner.XP(oldXP))),
		NewLevel: int(learner.CalculateLevel(learner.XP(newXP))),
	}

	if withLevelAward && result.NewLevel > result.OldLevel {
		// One award per crossed milestone. ON CONFLICT keeps the
		// exactly-once guarantee under concurrent credits.
		for level := result.OldLevel + 1; level <= result.NewLevel; level++ {
			if _, err := tx.Exec(ctx, `
				INSERT INTO awarded_achievements (learner_id, rule_id, name, xp_bonus)
				VALUES ($1, $2, $3, 0)
				ON CONFLICT (learner_id, rule_id) DO NOTHING
			`, string(id), achievement.LevelRuleID(level), achievement.LevelRuleName(level)); err != nil {
				return nil, fmt.Errorf("failed to award level milestone: %w", err)
			}
		}
	}

	return result, nil
}

// CompleteLesson marks a lesson completed. XP is credited only on the
// first completion of that lesson; the learner position advances to
// next, or content_done is set when the graph is exhausted.
func (r *LearnerRepository) CompleteLesson(ctx context.Context, id learner.ID, courseID, moduleID, lessonID, xpReward int, next learner.Position, terminal bool) (*learner.CompletionResult, error) {
	var result *learner.CompletionResult

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var xp int
		err := tx.QueryRow(ctx, `SELECT xp FROM learners WHERE id = $1 FOR UPDATE`, string(id)).Scan(&xp)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return learner.ErrNotFound
			}
			return fmt.Errorf("failed to lock learner row: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO completion_records (learner_id, course_id, module_id, lesson_id, completed)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (learner_id, course_id, module_id, lesson_id) DO NOTHING
		`, string(id), courseID, moduleID, lessonID)
		if err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		first := tag.RowsAffected() > 0

		res := &learner.CompletionResult{
			FirstCompletion: first,
			NewXP:           xp,
			NewLevel:        int(learner.CalculateLevel(learner.XP(xp))),
			NextPosition:    next,
			Terminal:        terminal,
		}

		if first && xpReward > 0 {
			reason := fmt.Sprintf("lesson_completed:%d.%d.%d", courseID, moduleID, lessonID)
			xpRes, err := creditXP(ctx, tx, id, xpReward, reason, true)
			if err != nil {
				return err
			}
			res.XPAwarded = xpReward
			res.NewXP = xpRes.NewXP
			res.NewLevel = xpRes.NewLevel
			res.LevelledUp = xpRes.LevelledUp()
		}

		if terminal {
			// Position stays on the last lesson; only the flag moves.
			if _, err := tx.Exec(ctx,
				`UPDATE learners SET content_done = TRUE, updated_at = NOW() WHERE id = $1`,
				string(id),
			); err != nil {
				return fmt.Errorf("failed to mark content done: %w", err)
			}
			res.NextPosition = learner.Position{CourseID: courseID, ModuleID: moduleID, LessonID: lessonID}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE learners
				SET course_id = $2, module_id = $3, lesson_id = $4, content_done = FALSE, updated_at = NOW()
				WHERE id = $1
			`, string(id), next.CourseID, next.ModuleID, next.LessonID); err != nil {
				return fmt.Errorf("failed to advance position: %w", err)
			}
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SetPosition moves the learner without recording a completion.
func (r *LearnerRepository) SetPosition(ctx context.Context, id learner.ID, pos learner.Position) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE learners
		SET course_id = $2, module_id = $3, lesson_id = $4, content_done = FALSE, updated_at = NOW()
		WHERE id = $1
	`, string(id), pos.CourseID, pos.ModuleID, pos.LessonID)
	if err != nil {
		return fmt.Errorf("failed to set position: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return learner.ErrNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Quiz & Stats
// ─────────────────────────────────────────────────────────────────────────────

// RecordQuizAttempt appends an attempt to the quiz journal.
func (r *LearnerRepository) RecordQuizAttempt(ctx context.Context, attempt *learner.QuizAttempt) error {
	attemptedAt := attempt.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO quiz_attempts (learner_id, course_id, module_id, lesson_id, score, total, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		string(attempt.LearnerID),
		attempt.CourseID,
		attempt.ModuleID,
		attempt.LessonID,
		attempt.Score,
		attempt.Total,
		attemptedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return learner.ErrNotFound
		}
		return fmt.Errorf("failed to record quiz attempt: %w", err)
	}

	return nil
}

// GetStats returns the aggregated statistics achievement rules are
// evaluated against.
func (r *LearnerRepository) GetStats(ctx context.Context, id learner.ID) (*learner.Stats, error) {
	query := `
		SELECT
			l.xp,
			(SELECT COUNT(*) FROM completion_records c WHERE c.learner_id = l.id AND c.completed),
			(SELECT COUNT(*) FROM quiz_attempts q WHERE q.learner_id = l.id AND q.score = q.total),
			(SELECT COUNT(*) FROM ctf_solves s WHERE s.learner_id = l.id)
		FROM learners l
		WHERE l.id = $1
	`

	stats := &learner.Stats{}
	err := r.conn.QueryRow(ctx, query, string(id)).Scan(
		&stats.XP,
		&stats.LessonsCompleted,
		&stats.PerfectQuizzes,
		&stats.CTFSolves,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, learner.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get learner stats: %w", err)
	}

	stats.Level = int(learner.CalculateLevel(learner.XP(stats.XP)))
	return stats, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Leaderboard
// ─────────────────────────────────────────────────────────────────────────────

// TopByXP returns the top learners by XP in deterministic order:
// xp DESC, joined_at ASC, id ASC.
func (r *LearnerRepository) TopByXP(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, display_name, xp
		FROM learners
		ORDER BY xp DESC, joined_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []learner.LeaderboardEntry
	for rows.Next() {
		var e learner.LeaderboardEntry
		var id string

		if err := rows.Scan(&id, &e.DisplayName, &e.XP); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}

		e.LearnerID = learner.ID(id)
		e.Level = int(learner.CalculateLevel(learner.XP(e.XP)))
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanLearner(row pgx.Row) (*learner.Learner, error) {
	l := &learner.Learner{}
	var id string
	var xp int

	err := row.Scan(
		&id,
		&l.DisplayName,
		&xp,
		&l.Position.CourseID,
		&l.Position.ModuleID,
		&l.Position.LessonID,
		&l.ContentDone,
		&l.JoinedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.ID = learner.ID(id)
	l.XP = learner.XP(xp)
	return l, nil
}
