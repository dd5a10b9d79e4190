// Package eventhandler contains the subscribers that react to domain
// events: achievement evaluation and cache invalidation. Handlers are
// idempotent; the dispatcher delivers at-least-once.
package eventhandler

import (
	"context"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/application/saga"
	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// AchievementEvaluator runs the achievement engine whenever an event
// that can change a learner's stats arrives.
type AchievementEvaluator struct {
	engine *saga.AchievementEngine
}

// NewAchievementEvaluator creates a new AchievementEvaluator.
func NewAchievementEvaluator(engine *saga.AchievementEngine) *AchievementEvaluator {
	return &AchievementEvaluator{engine: engine}
}

// Name implements shared.EventHandler.
func (h *AchievementEvaluator) Name() string {
	return "achievement-evaluator"
}

// EventTypes returns the event types this handler subscribes to.
func (h *AchievementEvaluator) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventLessonCompleted,
		shared.EventQuizRecorded,
		shared.EventXPAdded,
		shared.EventFlagSolved,
	}
}

// Handle implements shared.EventHandler.
func (h *AchievementEvaluator) Handle(ctx context.Context, event shared.Event) error {
	trigger, ok := triggerFor(event.EventType())
	if !ok {
		// Not an event this handler evaluates; nothing to do.
		return nil
	}

	id := learner.ID(event.AggregateID())
	if !id.IsValid() {
		return fmt.Errorf("achievement evaluator: invalid aggregate id %q", event.AggregateID())
	}

	_, err := h.engine.Evaluate(ctx, id, trigger)
	return err
}

// triggerFor maps an event type to the evaluation trigger.
func triggerFor(t shared.EventType) (achievement.TriggerKind, bool) {
	switch t {
	case shared.EventLessonCompleted:
		return achievement.TriggerLessonCompleted, true
	case shared.EventQuizRecorded:
		return achievement.TriggerQuizScored, true
	case shared.EventXPAdded:
		return achievement.TriggerXPGained, true
	case shared.EventFlagSolved:
		return achievement.TriggerCTFSolve, true
	default:
		return "", false
	}
}
