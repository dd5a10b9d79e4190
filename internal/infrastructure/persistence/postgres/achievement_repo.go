package postgres

import (
	"context"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// Award inserts the award under the UNIQUE(learner_id, rule_id) guard.
// A conflict means the award already exists; that is reported as
// (nil, nil), not as an error.
func (r *AchievementRepository) Award(ctx context.Context, learnerID learner.ID, rule achievement.Rule) (*achievement.Awarded, error) {
	query := `
		INSERT INTO awarded_achievements (learner_id, rule_id, name, xp_bonus)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (learner_id, rule_id) DO NOTHING
		RETURNING id, awarded_at
	`

	awarded := &achievement.Awarded{
		LearnerID: learnerID,
		RuleID:    rule.ID,
		Name:      rule.Name,
		XPBonus:   rule.XPBonus,
	}

	err := r.conn.QueryRow(ctx, query,
		string(learnerID), rule.ID, rule.Name, rule.XPBonus,
	).Scan(&awarded.ID, &awarded.AwardedAt)
	if err != nil {
		if IsNoRows(err) {
			// Already awarded earlier.
			return nil, nil
		}
		if IsForeignKeyViolation(err) {
			return nil, learner.ErrNotFound
		}
		return nil, fmt.Errorf("failed to award achievement: %w", err)
	}

	return awarded, nil
}

// ListAwarded returns the learner's awards, newest first.
func (r *AchievementRepository) ListAwarded(ctx context.Context, learnerID learner.ID) ([]achievement.Awarded, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, rule_id, name, xp_bonus, awarded_at
		FROM awarded_achievements
		WHERE learner_id = $1
		ORDER BY awarded_at DESC, rule_id ASC
	`, string(learnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list awarded achievements: %w", err)
	}
	defer rows.Close()

	var awards []achievement.Awarded
	for rows.Next() {
		a := achievement.Awarded{LearnerID: learnerID}
		if err := rows.Scan(&a.ID, &a.RuleID, &a.Name, &a.XPBonus, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan awarded achievement: %w", err)
		}
		awards = append(awards, a)
	}

	return awards, rows.Err()
}

// IsAwarded reports whether the rule has already been awarded.
func (r *AchievementRepository) IsAwarded(ctx context.Context, learnerID learner.ID, ruleID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM awarded_achievements WHERE learner_id = $1 AND rule_id = $2)`,
		string(learnerID), ruleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check award: %w", err)
	}

	return exists, nil
}
