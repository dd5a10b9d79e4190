package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Returns the unlocked awards plus the static rules still locked, so a
// caller can render both halves of the achievements screen.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery contains the query parameters.
type GetAchievementsQuery struct {
	// LearnerID is the learner to inspect.
	LearnerID string
}

// Validate validates the query.
func (q GetAchievementsQuery) Validate() error {
	if !learner.ID(q.LearnerID).IsValid() {
		return errors.New("get_achievements: invalid learner_id")
	}
	return nil
}

// GetAchievementsResult contains unlocked and locked achievements.
type GetAchievementsResult struct {
	// Unlocked are the earned awards, newest first.
	Unlocked []achievement.Awarded

	// Locked are the static rules not yet satisfied. Dynamic level
	// milestones are open-ended and never listed as locked.
	Locked []achievement.Rule

	// TotalBonus is the XP earned from achievement bonuses.
	TotalBonus int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsHandler handles the GetAchievementsQuery.
type GetAchievementsHandler struct {
	achievementRepo achievement.Repository
}

// NewGetAchievementsHandler creates a new GetAchievementsHandler.
func NewGetAchievementsHandler(achievementRepo achievement.Repository) *GetAchievementsHandler {
	return &GetAchievementsHandler{achievementRepo: achievementRepo}
}

// Handle executes the query.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) (*GetAchievementsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	unlocked, err := h.achievementRepo.ListAwarded(ctx, learner.ID(q.LearnerID))
	if err != nil {
		return nil, fmt.Errorf("get_achievements: %w", err)
	}

	have := make(map[string]bool, len(unlocked))
	totalBonus := 0
	for _, a := range unlocked {
		have[a.RuleID] = true
		totalBonus += a.XPBonus
	}

	var locked []achievement.Rule
	for _, rule := range achievement.DefaultRules() {
		if !have[rule.ID] {
			locked = append(locked, rule)
		}
	}

	return &GetAchievementsResult{
		Unlocked:   unlocked,
		Locked:     locked,
		TotalBonus: totalBonus,
	}, nil
}
