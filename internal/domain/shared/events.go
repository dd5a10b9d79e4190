// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
// The chat layer subscribes to these to notify users; the engine itself
// never talks to the chat platform.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"

	// Progression events
	EventXPAdded         EventType = "progression.xp_added"
	EventLevelledUp      EventType = "progression.levelled_up"
	EventLessonCompleted EventType = "progression.lesson_completed"
	EventQuizRecorded    EventType = "progression.quiz_recorded"
	EventCourseFinished  EventType = "progression.course_finished"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// CTF events
	EventFlagSubmitted EventType = "ctf.flag_submitted"
	EventFlagSolved    EventType = "ctf.flag_solved"

	// Session events
	EventSessionSaved   EventType = "session.saved"
	EventSessionDeleted EventType = "session.deleted"

	// System events
	EventLeaderboardRebuilt EventType = "system.leaderboard_rebuilt"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// EventHandler processes a single event. Handlers must be idempotent: the
// dispatcher delivers at-least-once after transient failures.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error

	// Name returns a stable handler name for logging and metrics.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, event Event) error
}

func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Fn(ctx, event)
}

func (f EventHandlerFunc) Name() string {
	return f.HandlerName
}

// EventPublisher publishes domain events to interested subscribers.
// Publishing happens after the owning transaction commits, so subscribers
// never observe state that was later rolled back.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards all events. Used in tests and in tools (cmd/seed)
// that have no subscribers.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a learner is first registered.
// Re-registering an existing learner does not emit this event.
type LearnerRegisteredEvent struct {
	BaseEvent
	DisplayName string `json:"display_name"`
}

// NewLearnerRegisteredEvent creates the registration event.
func NewLearnerRegisteredEvent(learnerID, displayName string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, learnerID),
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPAddedEvent is emitted on every successful XP credit.
type XPAddedEvent struct {
	BaseEvent
	Amount   int    `json:"amount"`
	NewXP    int    `json:"new_xp"`
	NewLevel int    `json:"new_level"`
	Reason   string `json:"reason"`
}

// NewXPAddedEvent creates an XP credit event.
func NewXPAddedEvent(learnerID string, amount, newXP, newLevel int, reason string) XPAddedEvent {
	return XPAddedEvent{
		BaseEvent: NewBaseEvent(EventXPAdded, learnerID),
		Amount:    amount,
		NewXP:     newXP,
		NewLevel:  newLevel,
		Reason:    reason,
	}
}

// LevelledUpEvent is emitted when an XP credit crosses a level boundary.
type LevelledUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// NewLevelledUpEvent creates a level-up event.
func NewLevelledUpEvent(learnerID string, oldLevel, newLevel int) LevelledUpEvent {
	return LevelledUpEvent{
		BaseEvent: NewBaseEvent(EventLevelledUp, learnerID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// LessonCompletedEvent is emitted on the first completion of a lesson.
// Repeat completions of the same lesson are silent.
type LessonCompletedEvent struct {
	BaseEvent
	CourseID int  `json:"course_id"`
	ModuleID int  `json:"module_id"`
	LessonID int  `json:"lesson_id"`
	XPReward int  `json:"xp_reward"`
	Terminal bool `json:"terminal"`
}

// NewLessonCompletedEvent creates a lesson completion event.
func NewLessonCompletedEvent(learnerID string, courseID, moduleID, lessonID, xpReward int, terminal bool) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, learnerID),
		CourseID:  courseID,
		ModuleID:  moduleID,
		LessonID:  lessonID,
		XPReward:  xpReward,
		Terminal:  terminal,
	}
}

// QuizRecordedEvent is emitted for every recorded quiz attempt.
type QuizRecordedEvent struct {
	BaseEvent
	CourseID int  `json:"course_id"`
	ModuleID int  `json:"module_id"`
	LessonID int  `json:"lesson_id"`
	Score    int  `json:"score"`
	Total    int  `json:"total"`
	Perfect  bool `json:"perfect"`
}

// NewQuizRecordedEvent creates a quiz attempt event.
func NewQuizRecordedEvent(learnerID string, courseID, moduleID, lessonID, score, total int) QuizRecordedEvent {
	return QuizRecordedEvent{
		BaseEvent: NewBaseEvent(EventQuizRecorded, learnerID),
		CourseID:  courseID,
		ModuleID:  moduleID,
		LessonID:  lessonID,
		Score:     score,
		Total:     total,
		Perfect:   total > 0 && score == total,
	}
}

// CourseFinishedEvent is emitted when a learner completes the terminal
// lesson of the content graph.
type CourseFinishedEvent struct {
	BaseEvent
	CourseID int `json:"course_id"`
}

// NewCourseFinishedEvent creates a course finished event.
func NewCourseFinishedEvent(learnerID string, courseID int) CourseFinishedEvent {
	return CourseFinishedEvent{
		BaseEvent: NewBaseEvent(EventCourseFinished, learnerID),
		CourseID:  courseID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted exactly once per (learner, rule).
type AchievementUnlockedEvent struct {
	BaseEvent
	RuleID  string `json:"rule_id"`
	Name    string `json:"name"`
	XPBonus int    `json:"xp_bonus"`
}

// NewAchievementUnlockedEvent creates an achievement event.
func NewAchievementUnlockedEvent(learnerID, ruleID, name string, xpBonus int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent: NewBaseEvent(EventAchievementUnlocked, learnerID),
		RuleID:    ruleID,
		Name:      name,
		XPBonus:   xpBonus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// CTF Events
// ═══════════════════════════════════════════════════════════════════════════

// FlagSubmittedEvent is emitted for every recorded submission, correct or not.
type FlagSubmittedEvent struct {
	BaseEvent
	ChallengeID int  `json:"challenge_id"`
	Correct     bool `json:"correct"`
}

// NewFlagSubmittedEvent creates a flag submission event.
func NewFlagSubmittedEvent(learnerID string, challengeID int, correct bool) FlagSubmittedEvent {
	return FlagSubmittedEvent{
		BaseEvent:   NewBaseEvent(EventFlagSubmitted, learnerID),
		ChallengeID: challengeID,
		Correct:     correct,
	}
}

// FlagSolvedEvent is emitted only on the first correct submission of a challenge.
type FlagSolvedEvent struct {
	BaseEvent
	ChallengeID   int    `json:"challenge_id"`
	ChallengeName string `json:"challenge_name"`
	Points        int    `json:"points"`
}

// NewFlagSolvedEvent creates a first-solve event.
func NewFlagSolvedEvent(learnerID string, challengeID int, challengeName string, points int) FlagSolvedEvent {
	return FlagSolvedEvent{
		BaseEvent:     NewBaseEvent(EventFlagSolved, learnerID),
		ChallengeID:   challengeID,
		ChallengeName: challengeName,
		Points:        points,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionSavedEvent is emitted when a pause-point snapshot is stored.
type SessionSavedEvent struct {
	BaseEvent
	Kind string `json:"kind"`
}

// NewSessionSavedEvent creates a session save event.
func NewSessionSavedEvent(learnerID, kind string) SessionSavedEvent {
	return SessionSavedEvent{
		BaseEvent: NewBaseEvent(EventSessionSaved, learnerID),
		Kind:      kind,
	}
}

// SessionDeletedEvent is emitted when a snapshot is removed.
type SessionDeletedEvent struct {
	BaseEvent
	Kind string `json:"kind"`
}

// NewSessionDeletedEvent creates a session delete event.
func NewSessionDeletedEvent(learnerID, kind string) SessionDeletedEvent {
	return SessionDeletedEvent{
		BaseEvent: NewBaseEvent(EventSessionDeleted, learnerID),
		Kind:      kind,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardRebuiltEvent is emitted when the cached leaderboard views
// are rebuilt from PostgreSQL.
type LeaderboardRebuiltEvent struct {
	BaseEvent
	XPEntries  int    `json:"xp_entries"`
	CTFEntries int    `json:"ctf_entries"`
	Cause      string `json:"cause"`
}

// NewLeaderboardRebuiltEvent creates a leaderboard rebuild event.
func NewLeaderboardRebuiltEvent(xpEntries, ctfEntries int, cause string) LeaderboardRebuiltEvent {
	return LeaderboardRebuiltEvent{
		BaseEvent:  NewBaseEvent(EventLeaderboardRebuilt, "leaderboard"),
		XPEntries:  xpEntries,
		CTFEntries: ctfEntries,
		Cause:      cause,
	}
}
