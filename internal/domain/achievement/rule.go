// Package achievement содержит правила достижений и записи о наградах.
// Ключевой инвариант: каждая награда выдаётся ученику не более одного
// раза за всё время жизни, при любой конкурентности.
package achievement

import (
	"fmt"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE KINDS (закрытое множество предикатов)
// ══════════════════════════════════════════════════════════════════════════════

// RuleKind - вид предиката правила. Закрытое перечисление: оцениватель
// не принимает произвольных предикатов.
type RuleKind string

const (
	// KindLessonCount - пройдено уроков >= Threshold.
	KindLessonCount RuleKind = "lesson_count"

	// KindPerfectQuizCount - квизов без ошибок >= Threshold.
	KindPerfectQuizCount RuleKind = "perfect_quiz_count"

	// KindLevelReached - уровень >= Threshold.
	KindLevelReached RuleKind = "level_reached"

	// KindCTFSolveCount - решено CTF-заданий >= Threshold.
	KindCTFSolveCount RuleKind = "ctf_solve_count"
)

// IsValid проверяет, что вид предиката известен оценивателю.
func (k RuleKind) IsValid() bool {
	switch k {
	case KindLessonCount, KindPerfectQuizCount, KindLevelReached, KindCTFSolveCount:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RULE
// ══════════════════════════════════════════════════════════════════════════════

// Rule - правило достижения: предикат над агрегированной статистикой
// ученика плюс бонус XP за разблокировку.
type Rule struct {
	// ID - стабильный идентификатор правила (ключ уникальности награды).
	ID string

	// Name - отображаемое название.
	Name string

	// Description - описание для карточки достижения.
	Description string

	// Kind - вид предиката.
	Kind RuleKind

	// Threshold - порог предиката.
	Threshold int

	// XPBonus - бонус XP за разблокировку. Начисляется "тихим"
	// вариантом начисления, который не запускает оцениватель
	// повторно - иначе возможна бесконечная рекурсия наград.
	XPBonus int
}

// Satisfied проверяет предикат правила на статистике ученика.
func (r Rule) Satisfied(stats *learner.Stats) (bool, error) {
	switch r.Kind {
	case KindLessonCount:
		return stats.LessonsCompleted >= r.Threshold, nil
	case KindPerfectQuizCount:
		return stats.PerfectQuizzes >= r.Threshold, nil
	case KindLevelReached:
		return stats.Level >= r.Threshold, nil
	case KindCTFSolveCount:
		return stats.CTFSolves >= r.Threshold, nil
	default:
		return false, fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RULE SET
// ══════════════════════════════════════════════════════════════════════════════

// TriggerKind - что вызвало оценку правил. Используется для логирования
// и для узкой фильтрации правил (оценка всегда корректна и по полному
// набору, фильтр - только оптимизация).
type TriggerKind string

const (
	TriggerLessonCompleted TriggerKind = "lesson_completed"
	TriggerQuizScored      TriggerKind = "quiz_scored"
	TriggerXPGained        TriggerKind = "xp_gained"
	TriggerCTFSolve        TriggerKind = "ctf_solve"
)

// DefaultRules возвращает фиксированный набор правил академии.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "first_lesson", Name: "First Steps", Description: "Complete your first lesson", Kind: KindLessonCount, Threshold: 1, XPBonus: 50},
		{ID: "lessons_10", Name: "Dedicated Learner", Description: "Complete 10 lessons", Kind: KindLessonCount, Threshold: 10, XPBonus: 150},
		{ID: "lessons_25", Name: "Knowledge Seeker", Description: "Complete 25 lessons", Kind: KindLessonCount, Threshold: 25, XPBonus: 400},
		{ID: "quiz_perfect_5", Name: "Quiz Ace", Description: "Score 100% on 5 quizzes", Kind: KindPerfectQuizCount, Threshold: 5, XPBonus: 200},
		{ID: "level_5", Name: "Rising Defender", Description: "Reach level 5", Kind: KindLevelReached, Threshold: 5, XPBonus: 100},
		{ID: "level_10", Name: "Cyber Veteran", Description: "Reach level 10", Kind: KindLevelReached, Threshold: 10, XPBonus: 250},
		{ID: "ctf_first_blood", Name: "First Blood", Description: "Solve your first CTF challenge", Kind: KindCTFSolveCount, Threshold: 1, XPBonus: 100},
		{ID: "ctf_hunter_5", Name: "Flag Hunter", Description: "Solve 5 CTF challenges", Kind: KindCTFSolveCount, Threshold: 5, XPBonus: 300},
		{ID: "ctf_champion_10", Name: "CTF Champion", Description: "Solve 10 CTF challenges", Kind: KindCTFSolveCount, Threshold: 10, XPBonus: 600},
	}
}

// RuleByID ищет правило в наборе.
func RuleByID(rules []Rule, id string) (Rule, bool) {
	for _, r := range rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARDED ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// Awarded - запись о выданной награде. Append-only, уникальна по
// (LearnerID, RuleID), после создания неизменяема.
type Awarded struct {
	// ID - внутренний идентификатор записи (UUID).
	ID string

	// LearnerID - кому выдана награда.
	LearnerID learner.ID

	// RuleID - идентификатор правила. Для наград "Level N Reached",
	// выдаваемых из транзакции начисления XP, используется
	// синтетический идентификатор вида "level_reached:N".
	RuleID string

	// Name - название на момент выдачи.
	Name string

	// XPBonus - начисленный бонус.
	XPBonus int

	// AwardedAt - время выдачи.
	AwardedAt time.Time
}

// LevelRuleID возвращает синтетический идентификатор награды за
// достижение уровня N (выдаётся из транзакции AddXP).
func LevelRuleID(level int) string {
	return fmt.Sprintf("level_reached:%d", level)
}

// LevelRuleName возвращает отображаемое имя награды за уровень.
func LevelRuleName(level int) string {
	return fmt.Sprintf("Level %d Reached", level)
}
