package ctf

import (
	"context"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над CTF-заданиями и попытками.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Challenges
	// ─────────────────────────────────────────────────────────────────────────

	// GetChallenge возвращает задание по ID.
	// Возвращает ErrNotFound, если задания нет.
	GetChallenge(ctx context.Context, id int64) (*Challenge, error)

	// ListChallenges возвращает все задания, отсортированные по
	// (required_xp ASC, id ASC).
	ListChallenges(ctx context.Context) ([]*Challenge, error)

	// AddChallenge сохраняет новое задание (флаг уже захеширован).
	// Имя задания уникально; при конфликте существующая запись
	// остаётся без изменений.
	AddChallenge(ctx context.Context, ch *Challenge) (int64, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Submissions
	// ─────────────────────────────────────────────────────────────────────────

	// RecordSubmission добавляет попытку в журнал и, для верной попытки,
	// атомарно определяет, первое ли это решение задания учеником.
	// Первое решение начисляет XP в той же транзакции, что и запись
	// решения: либо фиксируются оба эффекта, либо ни один.
	// Журнал append-only; повторные верные попытки записываются с
	// нулевыми очками.
	RecordSubmission(ctx context.Context, sub *Submission) (*SubmissionOutcome, error)

	// CountSolves возвращает число уникальных решённых учеником заданий.
	CountSolves(ctx context.Context, learnerID learner.ID) (int, error)

	// ListSolves возвращает решённые учеником задания, свежие первыми.
	ListSolves(ctx context.Context, learnerID learner.ID) ([]SolveRecord, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Leaderboard
	// ─────────────────────────────────────────────────────────────────────────

	// Leaderboard возвращает топ-N по очкам CTF.
	// Порядок детерминирован: points DESC, solves DESC, learner_id ASC.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

// SubmissionOutcome описывает результат записи попытки.
type SubmissionOutcome struct {
	// FirstSolve — первое ли это решение задания учеником.
	FirstSolve bool

	// XP — итог начисления XP за первое решение.
	// nil, если очки не начислялись.
	XP *learner.XPResult
}
