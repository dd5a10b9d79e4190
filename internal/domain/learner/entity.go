// Package learner содержит доменную модель ученика Cyber Academy.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID представляет внешний идентификатор ученика (выдаётся чат-платформой).
// Для движка это непрозрачное значение: никакой аутентификации здесь нет.
type ID string

// IsValid проверяет, что ID непустой и без пробельных символов.
func (id ID) IsValid() bool {
	s := string(id)
	return len(s) > 0 && len(s) <= 64 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление идентификатора.
func (id ID) String() string {
	return string(id)
}

// XP представляет очки опыта ученика. Монотонно неубывающее значение.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Level представляет уровень ученика, вычисляемый из XP.
type Level int

// XPPerLevel - сколько XP нужно на один уровень.
const XPPerLevel = 1000

// CalculateLevel вычисляет уровень на основе XP.
// Формула: floor(xp / 1000) + 1. Уровень никогда не хранится отдельно
// от XP - он всегда пересчитывается, чтобы исключить расхождение.
func CalculateLevel(xp XP) Level {
	if xp < 0 {
		return 1
	}
	return Level(xp/XPPerLevel) + 1
}

// Position представляет текущую позицию ученика в дереве контента:
// курс → модуль → урок.
type Position struct {
	// CourseID - идентификатор курса.
	CourseID int

	// ModuleID - идентификатор модуля внутри курса.
	ModuleID int

	// LessonID - идентификатор урока внутри модуля.
	LessonID int
}

// StartPosition возвращает позицию нового ученика: самый первый урок.
// Конкретные идентификаторы задаёт граф контента; нулевое значение
// означает "позиция ещё не назначена".
func StartPosition() Position {
	return Position{CourseID: 1, ModuleID: 1, LessonID: 1}
}

// IsZero проверяет, что позиция не назначена.
func (p Position) IsZero() bool {
	return p.CourseID == 0 && p.ModuleID == 0 && p.LessonID == 0
}

// String возвращает строковое представление позиции для логирования.
func (p Position) String() string {
	return fmt.Sprintf("%d.%d.%d", p.CourseID, p.ModuleID, p.LessonID)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// Learner - центральная сущность системы, представляющая ученика академии.
type Learner struct {
	// ID - внешний идентификатор (непрозрачное значение чат-платформы).
	ID ID

	// DisplayName - отображаемое имя.
	DisplayName string

	// XP - текущее количество очков опыта. Никогда не уменьшается.
	XP XP

	// Position - текущая позиция в дереве контента.
	Position Position

	// ContentDone - true, когда ученик прошёл последний урок последнего
	// модуля последнего курса. Position при этом остаётся на последнем
	// пройденном уроке.
	ContentDone bool

	// JoinedAt - время первой регистрации.
	JoinedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidID - невалидный идентификатор ученика.
	ErrInvalidID = errors.New("invalid learner id: must be 1-64 chars without whitespace")

	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidXP - невалидное значение XP.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrNegativeAmount - попытка списать XP. XP монотонен.
	ErrNegativeAmount = errors.New("xp amount must be non-negative")

	// ErrNotFound - ученик не найден. Обычный исход, а не сбой:
	// вызывающая сторона обязана сначала зарегистрировать ученика.
	ErrNotFound = errors.New("learner not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewLearnerParams содержит параметры для создания нового ученика.
type NewLearnerParams struct {
	ID          ID
	DisplayName string
	Position    Position
}

// NewLearner создаёт нового ученика с валидацией всех полей.
func NewLearner(params NewLearnerParams) (*Learner, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidID
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	pos := params.Position
	if pos.IsZero() {
		pos = StartPosition()
	}

	now := time.Now().UTC()

	return &Learner{
		ID:          params.ID,
		DisplayName: displayName,
		XP:          0,
		Position:    pos,
		ContentDone: false,
		JoinedAt:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// Level возвращает текущий уровень ученика.
func (l *Learner) Level() Level {
	return CalculateLevel(l.XP)
}

// ApplyXP начисляет XP и возвращает старый и новый уровень.
// Отрицательная дельта запрещена: XP монотонно неубывающий.
func (l *Learner) ApplyXP(amount XP) (oldLevel, newLevel Level, err error) {
	if amount < 0 {
		return 0, 0, ErrNegativeAmount
	}

	oldLevel = l.Level()
	l.XP = l.XP.Add(amount)
	newLevel = l.Level()
	l.UpdatedAt = time.Now().UTC()

	return oldLevel, newLevel, nil
}

// AdvanceTo перемещает ученика на следующую позицию в контенте.
func (l *Learner) AdvanceTo(pos Position) {
	l.Position = pos
	l.ContentDone = false
	l.UpdatedAt = time.Now().UTC()
}

// MarkContentDone помечает, что контент пройден до конца.
// Позиция остаётся на последнем пройденном уроке.
func (l *Learner) MarkContentDone() {
	l.ContentDone = true
	l.UpdatedAt = time.Now().UTC()
}

// Rename обновляет отображаемое имя (идемпотентный upsert сохраняет
// xp/level/position, но имя обновляет всегда).
func (l *Learner) Rename(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return ErrInvalidDisplayName
	}

	l.DisplayName = displayName
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// String возвращает строковое представление ученика для логирования.
func (l *Learner) String() string {
	return fmt.Sprintf(
		"Learner{ID: %s, Name: %s, XP: %d, Level: %d, Position: %s}",
		l.ID, l.DisplayName, l.XP, l.Level(), l.Position,
	)
}

// Clone создаёт копию ученика.
func (l *Learner) Clone() *Learner {
	if l == nil {
		return nil
	}

	clone := *l
	return &clone
}
