package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// First completion credits the lesson's XP reward and advances the
// learner to the next pointer in the content graph; repeats are recorded
// but credit nothing. Both happen in one transaction in the repository.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to complete a lesson.
type CompleteLessonCommand struct {
	// LearnerID is the learner completing the lesson.
	LearnerID string

	// CourseID, ModuleID, LessonID address the lesson in the content graph.
	CourseID int
	ModuleID int
	LessonID int
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("complete_lesson: invalid learner_id")
	}
	if c.CourseID <= 0 || c.ModuleID <= 0 || c.LessonID <= 0 {
		return fmt.Errorf("complete_lesson: %w", shared.ErrNodeNotFound)
	}
	return nil
}

// CompleteLessonResult contains the result of a lesson completion.
type CompleteLessonResult struct {
	// FirstCompletion is true when this lesson had never been completed
	// by this learner before. XP is credited only in that case.
	FirstCompletion bool

	// XPAwarded is the XP credited by this operation (0 on repeats).
	XPAwarded int

	// NewXP, NewLevel - learner totals after the operation.
	NewXP    int
	NewLevel int

	// LevelledUp is true when the credit crossed a level threshold.
	LevelledUp bool

	// NextPosition is where the learner stands after the operation.
	NextPosition learner.Position

	// Terminal is true when there is no further content.
	Terminal bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	learnerRepo learner.Repository
	graph       *content.Graph
	publisher   shared.EventPublisher
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	learnerRepo learner.Repository,
	graph *content.Graph,
	publisher shared.EventPublisher,
) *CompleteLessonHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &CompleteLessonHandler{
		learnerRepo: learnerRepo,
		graph:       graph,
		publisher:   publisher,
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lesson, err := h.graph.Lookup(cmd.CourseID, cmd.ModuleID, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", shared.ErrNodeNotFound)
	}

	// The next pointer is computed against the immutable graph before the
	// transaction: sparse IDs, module and course boundaries are all
	// resolved here, the repository only records the outcome.
	next, ok := h.graph.NextPointer(cmd.CourseID, cmd.ModuleID, cmd.LessonID)
	terminal := !ok
	if terminal {
		next = learner.Position{CourseID: cmd.CourseID, ModuleID: cmd.ModuleID, LessonID: cmd.LessonID}
	}

	res, err := h.learnerRepo.CompleteLesson(
		ctx,
		learner.ID(cmd.LearnerID),
		cmd.CourseID, cmd.ModuleID, cmd.LessonID,
		lesson.XPReward,
		next,
		terminal,
	)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}

	_ = h.publisher.Publish(ctx, shared.NewLessonCompletedEvent(
		cmd.LearnerID, cmd.CourseID, cmd.ModuleID, cmd.LessonID, res.XPAwarded, res.Terminal,
	))
	if res.FirstCompletion && res.XPAwarded > 0 {
		reason := fmt.Sprintf("lesson_completed:%d.%d.%d", cmd.CourseID, cmd.ModuleID, cmd.LessonID)
		_ = h.publisher.Publish(ctx, shared.NewXPAddedEvent(cmd.LearnerID, res.XPAwarded, res.NewXP, res.NewLevel, reason))
	}
	if res.LevelledUp {
		oldLevel := int(learner.CalculateLevel(learner.XP(res.NewXP - res.XPAwarded)))
		_ = h.publisher.Publish(ctx, shared.NewLevelledUpEvent(cmd.LearnerID, oldLevel, res.NewLevel))
	}
	if res.FirstCompletion && res.Terminal {
		_ = h.publisher.Publish(ctx, shared.NewCourseFinishedEvent(cmd.LearnerID, cmd.CourseID))
	}

	return &CompleteLessonResult{
		FirstCompletion: res.FirstCompletion,
		XPAwarded:       res.XPAwarded,
		NewXP:           res.NewXP,
		NewLevel:        res.NewLevel,
		LevelledUp:      res.LevelledUp,
		NextPosition:    res.NextPosition,
		Terminal:        res.Terminal,
	}, nil
}
