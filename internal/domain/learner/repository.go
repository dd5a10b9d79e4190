package learner

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
//
// Каждый мутирующий метод - одна короткая транзакция с эксклюзивной
// блокировкой строки ученика (FOR UPDATE): операции над одним учеником
// линеаризуются, операции над разными учениками не блокируют друг друга.
// ══════════════════════════════════════════════════════════════════════════════

// UpsertResult - результат идемпотентной регистрации.
type UpsertResult struct {
	// Created - true, если ученик создан впервые.
	Created bool

	// Learner - актуальное состояние после операции.
	Learner *Learner
}

// Repository определяет операции над учениками.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Registration & Lookup
	// ─────────────────────────────────────────────────────────────────────────

	// Upsert регистрирует ученика идемпотентно: существующему обновляет
	// только отображаемое имя, сохраняя xp/level/position без изменений.
	Upsert(ctx context.Context, l *Learner) (*UpsertResult, error)

	// GetByID возвращает ученика по идентификатору.
	// Возвращает ErrNotFound, если ученик не зарегистрирован.
	GetByID(ctx context.Context, id ID) (*Learner, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Ledger Operations
	// ─────────────────────────────────────────────────────────────────────────

	// AddXP атомарно начисляет XP: читает (xp, level) под блокировкой,
	// записывает newXP = xp + amount и newLevel = floor(newXP/1000)+1 в
	// одной транзакции. При levelUp в ТОЙ ЖЕ транзакции вставляет
	// достижение "Level N Reached" под защитой уникального ограничения,
	// поэтому конкурентные вызовы не дублируют награду.
	//
	// Возвращает ErrNotFound, если ученик не существует.
	// Отрицательный amount отклоняется с ErrNegativeAmount.
	AddXP(ctx context.Context, id ID, amount int, reason string) (*XPResult, error)

	// AddXPQuiet - вариант AddXP без проверки достижения за уровень.
	// Используется для бонусов самих достижений, чтобы исключить
	// рекурсию оценивателя.
	AddXPQuiet(ctx context.Context, id ID, amount int, reason string) (*XPResult, error)

	// CompleteLesson атомарно: upsert записи о прохождении; только при
	// ПЕРВОМ прохождении начисляет xpReward (семантика AddXP, включая
	// достижение за уровень); записывает next как новую позицию ученика
	// (при terminal=true позиция не меняется, ставится флаг ContentDone).
	CompleteLesson(ctx context.Context, id ID, courseID, moduleID, lessonID, xpReward int, next Position, terminal bool) (*CompletionResult, error)

	// SetPosition перемещает ученика без отметки о прохождении
	// (используется при возобновлении сессии и навигации).
	SetPosition(ctx context.Context, id ID, pos Position) error

	// ─────────────────────────────────────────────────────────────────────────
	// Quiz & Stats
	// ─────────────────────────────────────────────────────────────────────────

	// RecordQuizAttempt добавляет попытку квиза в журнал (append-only).
	RecordQuizAttempt(ctx context.Context, attempt *QuizAttempt) error

	// GetStats возвращает агрегированную статистику ученика.
	GetStats(ctx context.Context, id ID) (*Stats, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Leaderboard
	// ─────────────────────────────────────────────────────────────────────────

	// TopByXP возвращает топ-N учеников по XP.
	// Порядок детерминирован: xp DESC, joined_at ASC, id ASC - при равном
	// XP выше тот, кто зарегистрировался раньше.
	TopByXP(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}
