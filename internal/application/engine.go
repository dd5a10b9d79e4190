// Package application wires the engine's commands and queries into a
// single facade. An embedding chat layer talks to the engine through
// an Engine value and never touches repositories directly.
package application

import (
	"github.com/cyber-academy/academy-engine/internal/application/command"
	"github.com/cyber-academy/academy-engine/internal/application/query"
	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
	"github.com/cyber-academy/academy-engine/pkg/circuitbreaker"
)

// Deps are the repositories and infrastructure an Engine is built on.
// The caches and the breaker may be nil; reads then go straight to
// PostgreSQL. A nil Publisher suppresses events.
type Deps struct {
	Learners     learner.Repository
	Achievements achievement.Repository
	CTF          ctf.Repository
	Sessions     session.Repository

	Graph     *content.Graph
	Publisher shared.EventPublisher

	LearnerCache     *redis.LearnerCache
	LeaderboardCache *redis.LeaderboardCache
	CacheBreaker     *circuitbreaker.CircuitBreaker
}

// Engine is the complete operation surface of the academy engine.
type Engine struct {
	// Commands
	RegisterLearner   *command.RegisterLearnerHandler
	AddXP             *command.AddXPHandler
	CompleteLesson    *command.CompleteLessonHandler
	RecordQuizAttempt *command.RecordQuizAttemptHandler
	SubmitFlag        *command.SubmitFlagHandler
	SaveSession       *command.SaveSessionHandler
	DeleteSession     *command.DeleteSessionHandler

	// Queries
	LearnerStats   *query.GetLearnerStatsHandler
	Leaderboard    *query.GetLeaderboardHandler
	CTFLeaderboard *query.GetCTFLeaderboardHandler
	CTFProgress    *query.GetCTFProgressHandler
	Achievements   *query.GetAchievementsHandler
	ListSessions   *query.ListSessionsHandler
	LoadSession    *query.LoadSessionHandler
}

// NewEngine constructs every command and query handler from deps.
func NewEngine(deps Deps) *Engine {
	return &Engine{
		RegisterLearner:   command.NewRegisterLearnerHandler(deps.Learners, deps.Graph, deps.Publisher),
		AddXP:             command.NewAddXPHandler(deps.Learners, deps.Publisher),
		CompleteLesson:    command.NewCompleteLessonHandler(deps.Learners, deps.Graph, deps.Publisher),
		RecordQuizAttempt: command.NewRecordQuizAttemptHandler(deps.Learners, deps.Graph, deps.Publisher),
		SubmitFlag:        command.NewSubmitFlagHandler(deps.Learners, deps.CTF, deps.Publisher),
		SaveSession:       command.NewSaveSessionHandler(deps.Sessions, deps.Publisher),
		DeleteSession:     command.NewDeleteSessionHandler(deps.Sessions, deps.Publisher),

		LearnerStats:   query.NewGetLearnerStatsHandler(deps.Learners, deps.Achievements, deps.LearnerCache, deps.CacheBreaker),
		Leaderboard:    query.NewGetLeaderboardHandler(deps.Learners, deps.LeaderboardCache, deps.CacheBreaker),
		CTFLeaderboard: query.NewGetCTFLeaderboardHandler(deps.CTF, deps.LeaderboardCache, deps.CacheBreaker),
		CTFProgress:    query.NewGetCTFProgressHandler(deps.Learners, deps.CTF),
		Achievements:   query.NewGetAchievementsHandler(deps.Achievements),
		ListSessions:   query.NewListSessionsHandler(deps.Sessions),
		LoadSession:    query.NewLoadSessionHandler(deps.Sessions),
	}
}
