package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD QUIZ ATTEMPT COMMAND
// Every attempt lands in the append-only journal and is paid out:
// XPPerCorrectAnswer per correct answer, plus PerfectQuizBonus when no
// answer was wrong. Repeat attempts pay again - the journal, not a
// uniqueness rule, is the record of what happened.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// XPPerCorrectAnswer is credited for each correct answer.
	XPPerCorrectAnswer = 25

	// PerfectQuizBonus is the extra credit for a faultless attempt.
	PerfectQuizBonus = 100
)

// RecordQuizAttemptCommand contains the data of one quiz attempt.
type RecordQuizAttemptCommand struct {
	// LearnerID is the learner who took the quiz.
	LearnerID string

	// CourseID, ModuleID, LessonID address the quiz's lesson.
	CourseID int
	ModuleID int
	LessonID int

	// Score is the number of correct answers.
	Score int

	// Total is the number of questions asked.
	Total int
}

// Validate validates the command.
func (c RecordQuizAttemptCommand) Validate() error {
	if !learner.ID(c.LearnerID).IsValid() {
		return errors.New("record_quiz_attempt: invalid learner_id")
	}
	if c.Total <= 0 {
		return fmt.Errorf("record_quiz_attempt: %w: total must be positive", shared.ErrValueOutOfRange)
	}
	if c.Score < 0 || c.Score > c.Total {
		return fmt.Errorf("record_quiz_attempt: %w: score must be within [0, total]", shared.ErrValueOutOfRange)
	}
	return nil
}

// RecordQuizAttemptResult contains the result of recording an attempt.
type RecordQuizAttemptResult struct {
	// Perfect is true when every answer was correct.
	Perfect bool

	// XPAwarded is the total credit for this attempt.
	XPAwarded int

	// NewXP, NewLevel - learner totals after the credit.
	NewXP    int
	NewLevel int

	// LevelledUp is true when the credit crossed a level threshold.
	LevelledUp bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizAttemptHandler handles the RecordQuizAttemptCommand.
type RecordQuizAttemptHandler struct {
	learnerRepo learner.Repository
	graph       *content.Graph
	publisher   shared.EventPublisher
}

// NewRecordQuizAttemptHandler creates a new RecordQuizAttemptHandler.
func NewRecordQuizAttemptHandler(
	learnerRepo learner.Repository,
	graph *content.Graph,
	publisher shared.EventPublisher,
) *RecordQuizAttemptHandler {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}

	return &RecordQuizAttemptHandler{
		learnerRepo: learnerRepo,
		graph:       graph,
		publisher:   publisher,
	}
}

// Handle executes the record quiz attempt command.
func (h *RecordQuizAttemptHandler) Handle(ctx context.Context, cmd RecordQuizAttemptCommand) (*RecordQuizAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	lesson, err := h.graph.Lookup(cmd.CourseID, cmd.ModuleID, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("record_quiz_attempt: %w", shared.ErrNodeNotFound)
	}
	if !lesson.HasQuiz() {
		return nil, fmt.Errorf("record_quiz_attempt: %w: lesson has no quiz", shared.ErrNodeNotFound)
	}

	attempt := &learner.QuizAttempt{
		LearnerID:   learner.ID(cmd.LearnerID),
		CourseID:    cmd.CourseID,
		ModuleID:    cmd.ModuleID,
		LessonID:    cmd.LessonID,
		Score:       cmd.Score,
		Total:       cmd.Total,
		AttemptedAt: time.Now().UTC(),
	}

	if err := h.learnerRepo.RecordQuizAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record_quiz_attempt: %w", err)
	}

	award := cmd.Score * XPPerCorrectAnswer
	if attempt.IsPerfect() {
		award += PerfectQuizBonus
	}

	reason := fmt.Sprintf("quiz_scored:%d.%d.%d", cmd.CourseID, cmd.ModuleID, cmd.LessonID)
	xp, err := h.learnerRepo.AddXP(ctx, learner.ID(cmd.LearnerID), award, reason)
	if err != nil {
		return nil, fmt.Errorf("record_quiz_attempt: %w", err)
	}

	_ = h.publisher.Publish(ctx, shared.NewQuizRecordedEvent(
		cmd.LearnerID, cmd.CourseID, cmd.ModuleID, cmd.LessonID, cmd.Score, cmd.Total,
	))
	_ = h.publisher.Publish(ctx, shared.NewXPAddedEvent(cmd.LearnerID, award, xp.NewXP, xp.NewLevel, reason))
	if xp.LevelledUp() {
		_ = h.publisher.Publish(ctx, shared.NewLevelledUpEvent(cmd.LearnerID, xp.OldLevel, xp.NewLevel))
	}

	return &RecordQuizAttemptResult{
		Perfect:    attempt.IsPerfect(),
		XPAwarded:  award,
		NewXP:      xp.NewXP,
		NewLevel:   xp.NewLevel,
		LevelledUp: xp.LevelledUp(),
	}, nil
}
