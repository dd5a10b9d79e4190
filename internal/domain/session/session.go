// Package session содержит модель возобновляемых сессий: ученик в любой
// момент может прерваться и позже продолжить с сохранённого места.
// На пару (ученик, вид активности) хранится не более одной сессии;
// повторное сохранение перезаписывает предыдущую.
package session

import (
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION KINDS
// ══════════════════════════════════════════════════════════════════════════════

// Kind - вид активности сессии. Закрытое перечисление: полезная
// нагрузка каждой сессии типизирована по виду.
type Kind string

const (
	KindLesson     Kind = "lesson"
	KindQuiz       Kind = "quiz"
	KindCTF        Kind = "ctf"
	KindMission    Kind = "mission"
	KindMultimedia Kind = "multimedia"
)

// IsValid проверяет, что вид известен движку.
func (k Kind) IsValid() bool {
	switch k {
	case KindLesson, KindQuiz, KindCTF, KindMission, KindMultimedia:
		return true
	default:
		return false
	}
}

// Kinds возвращает все известные виды в стабильном порядке.
func Kinds() []Kind {
	return []Kind{KindLesson, KindQuiz, KindCTF, KindMission, KindMultimedia}
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session - сохранённая сессия ученика.
type Session struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// LearnerID - владелец сессии.
	LearnerID learner.ID

	// Kind - вид активности.
	Kind Kind

	// Payload - типизированная полезная нагрузка (позиция остановки).
	Payload Payload

	// Extra - произвольное дополнительное состояние вызывателя.
	Extra map[string]any

	// SavedAt - время последнего сохранения.
	SavedAt time.Time
}

// Summary - сессия в списке без развёрнутой нагрузки.
type Summary struct {
	ID      string
	Kind    Kind
	Label   string
	SavedAt time.Time
}

// Summarize строит краткую карточку сессии для списка возобновления.
func (s *Session) Summarize() Summary {
	return Summary{
		ID:      s.ID,
		Kind:    s.Kind,
		Label:   s.Payload.Label(),
		SavedAt: s.SavedAt,
	}
}
