package learner

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecord представляет отметку о прохождении урока.
// Уникален по кортежу (ученик, курс, модуль, урок): повторное прохождение
// перезаписывает запись, но не создаёт дубликат и не начисляет XP второй раз.
type CompletionRecord struct {
	// LearnerID - идентификатор ученика.
	LearnerID ID

	// CourseID - курс пройденного урока.
	CourseID int

	// ModuleID - модуль пройденного урока.
	ModuleID int

	// LessonID - идентификатор урока.
	LessonID int

	// Completed - флаг завершения (всегда true после первого прохождения).
	Completed bool

	// CompletedAt - время первого прохождения.
	CompletedAt time.Time
}

// CompletionResult - результат операции завершения урока.
type CompletionResult struct {
	// FirstCompletion - true, если урок пройден впервые.
	// Только в этом случае начислялся XP.
	FirstCompletion bool

	// XPAwarded - сколько XP начислено (0 при повторном прохождении).
	XPAwarded int

	// NewXP - XP ученика после операции.
	NewXP int

	// NewLevel - уровень после операции.
	NewLevel int

	// LevelledUp - пересечён ли порог уровня этой операцией.
	LevelledUp bool

	// NextPosition - новая позиция ученика.
	NextPosition Position

	// Terminal - true, если дальше контента нет.
	Terminal bool
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ ATTEMPTS
// ══════════════════════════════════════════════════════════════════════════════

// QuizAttempt представляет одну попытку прохождения квиза.
// Каждая попытка записывается; история не перезаписывается.
type QuizAttempt struct {
	// LearnerID - идентификатор ученика.
	LearnerID ID

	// CourseID, ModuleID, LessonID - урок, к которому привязан квиз.
	CourseID int
	ModuleID int
	LessonID int

	// Score - количество правильных ответов.
	Score int

	// Total - общее количество вопросов.
	Total int

	// AttemptedAt - время попытки.
	AttemptedAt time.Time
}

// IsPerfect возвращает true для попытки без единой ошибки.
func (a QuizAttempt) IsPerfect() bool {
	return a.Total > 0 && a.Score == a.Total
}

// Percent возвращает результат в процентах (0-100).
func (a QuizAttempt) Percent() int {
	if a.Total <= 0 {
		return 0
	}
	return a.Score * 100 / a.Total
}

// ══════════════════════════════════════════════════════════════════════════════
// XP RESULT & STATS
// ══════════════════════════════════════════════════════════════════════════════

// XPResult - результат атомарного начисления XP.
type XPResult struct {
	// OldXP, NewXP - значения до и после начисления.
	OldXP int
	NewXP int

	// OldLevel, NewLevel - уровни до и после (всегда floor(xp/1000)+1).
	OldLevel int
	NewLevel int
}

// LevelledUp возвращает true, если начисление пересекло порог уровня.
func (r XPResult) LevelledUp() bool {
	return r.NewLevel > r.OldLevel
}

// Stats - агрегированная статистика ученика, по которой оцениваются
// правила достижений.
type Stats struct {
	// LessonsCompleted - количество уникальных пройденных уроков.
	LessonsCompleted int

	// PerfectQuizzes - количество попыток квизов без ошибок.
	PerfectQuizzes int

	// CTFSolves - количество решённых CTF-заданий (уникальных).
	CTFSolves int

	// XP - текущий XP.
	XP int

	// Level - текущий уровень.
	Level int
}

// LeaderboardEntry - строка таблицы лидеров по XP.
type LeaderboardEntry struct {
	// Rank - позиция (с 1).
	Rank int

	// LearnerID - идентификатор ученика.
	LearnerID ID

	// DisplayName - отображаемое имя.
	DisplayName string

	// XP - текущий XP.
	XP int

	// Level - уровень.
	Level int
}
