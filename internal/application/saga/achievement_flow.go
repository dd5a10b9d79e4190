// Package saga contains multi-step application flows that coordinate
// several repositories. The achievement flow is not a strict saga with
// compensation: every step is idempotent, so a crash mid-flow heals on
// the next evaluation.
package saga

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT ENGINE
// Evaluates the static rule set against a learner's aggregate stats and
// awards everything newly satisfied. The flow per satisfied rule:
//
//   1. insert the award (unique on learner+rule, conflict = already had it);
//   2. credit the XP bonus with the QUIET variant, which skips level
//      milestone awards and never re-enters this engine.
//
// Step 2 uses AddXPQuiet precisely to break the recursion a bonus
// would otherwise cause: bonus XP -> level up -> award -> bonus XP -> ...
// ══════════════════════════════════════════════════════════════════════════════

// triggerFilter narrows which rule kinds a trigger can newly satisfy.
// Evaluation over the full set is always correct; this only skips
// predicates the trigger cannot have changed.
var triggerFilter = map[achievement.TriggerKind][]achievement.RuleKind{
	achievement.TriggerLessonCompleted: {achievement.KindLessonCount, achievement.KindLevelReached},
	achievement.TriggerQuizScored:      {achievement.KindPerfectQuizCount, achievement.KindLevelReached},
	achievement.TriggerXPGained:        {achievement.KindLevelReached},
	achievement.TriggerCTFSolve:        {achievement.KindCTFSolveCount, achievement.KindLevelReached},
}

// Unlock describes one newly awarded achievement.
type Unlock struct {
	Rule    achievement.Rule
	Awarded *achievement.Awarded
}

// EvaluationResult contains the outcome of one evaluation pass.
type EvaluationResult struct {
	// Unlocked are the achievements newly awarded by this pass.
	Unlocked []Unlock

	// BonusXP is the total bonus credited by this pass.
	BonusXP int
}

// AchievementEngine evaluates achievement rules for a learner.
type AchievementEngine struct {
	learnerRepo     learner.Repository
	achievementRepo achievement.Repository
	publisher       shared.EventPublisher
	rules           []achievement.Rule
	logger          *slog.Logger
}

// NewAchievementEngine creates a new AchievementEngine over the default
// rule set.
func NewAchievementEngine(
	learnerRepo learner.Repository,
	achievementRepo achievement.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *AchievementEngine {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AchievementEngine{
		learnerRepo:     learnerRepo,
		achievementRepo: achievementRepo,
		publisher:       publisher,
		rules:           achievement.DefaultRules(),
		logger:          logger,
	}
}

// Evaluate runs one evaluation pass for the learner. The trigger only
// narrows which rules are checked; passing an unknown trigger checks
// the full set.
func (e *AchievementEngine) Evaluate(ctx context.Context, learnerID learner.ID, trigger achievement.TriggerKind) (*EvaluationResult, error) {
	stats, err := e.learnerRepo.GetStats(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("achievement evaluate: %w", err)
	}

	result := &EvaluationResult{}

	for _, rule := range e.relevantRules(trigger) {
		ok, err := rule.Satisfied(stats)
		if err != nil {
			return nil, fmt.Errorf("achievement evaluate: rule %s: %w", rule.ID, err)
		}
		if !ok {
			continue
		}

		awarded, err := e.achievementRepo.Award(ctx, learnerID, rule)
		if err != nil {
			return nil, fmt.Errorf("achievement evaluate: award %s: %w", rule.ID, err)
		}
		if awarded == nil {
			// Already unlocked earlier; the unique constraint spoke.
			continue
		}

		if rule.XPBonus > 0 {
			reason := "achievement_bonus:" + rule.ID
			if _, err := e.learnerRepo.AddXPQuiet(ctx, learnerID, rule.XPBonus, reason); err != nil {
				// The award row is already in. A retry of the pass would
				// see the unique conflict and skip the bonus, so failing
				// here cannot recover it. Log and move on.
				e.logger.Error("achievement bonus credit failed",
					"learner_id", string(learnerID),
					"rule_id", rule.ID,
					"error", err,
				)
			}
		}

		e.logger.Info("achievement unlocked",
			"learner_id", string(learnerID),
			"rule_id", rule.ID,
			"xp_bonus", rule.XPBonus,
			"trigger", string(trigger),
		)

		_ = e.publisher.Publish(ctx, shared.NewAchievementUnlockedEvent(
			string(learnerID), rule.ID, rule.Name, rule.XPBonus,
		))

		result.Unlocked = append(result.Unlocked, Unlock{Rule: rule, Awarded: awarded})
		result.BonusXP += rule.XPBonus
	}

	return result, nil
}

// relevantRules returns the rules a trigger can have newly satisfied.
func (e *AchievementEngine) relevantRules(trigger achievement.TriggerKind) []achievement.Rule {
	kinds, ok := triggerFilter[trigger]
	if !ok {
		return e.rules
	}

	allowed := make(map[achievement.RuleKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	var out []achievement.Rule
	for _, r := range e.rules {
		if allowed[r.Kind] {
			out = append(out, r)
		}
	}
	return out
}
