package session

import (
	"encoding/json"
	"fmt"

	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOADS (tagged union)
// Полезная нагрузка сессии типизирована по виду активности. На проводе
// хранится версионированный конверт {v, kind, position, data}: поле v
// позволяет мигрировать схему, kind - дискриминатор объединения.
// ══════════════════════════════════════════════════════════════════════════════

// SchemaVersion - текущая версия конверта сериализации.
const SchemaVersion = 1

// Payload - типизированная полезная нагрузка сессии.
type Payload interface {
	// Kind возвращает вид активности, которому принадлежит нагрузка.
	Kind() Kind

	// Label возвращает краткую человекочитаемую подпись места остановки.
	Label() string
}

// LessonPayload - место остановки в уроке.
type LessonPayload struct {
	CourseID int `json:"course"`
	ModuleID int `json:"module"`
	LessonID int `json:"lesson"`

	// ScrollOffset - позиция прокрутки текста урока.
	ScrollOffset int `json:"scroll_offset,omitempty"`
}

func (p LessonPayload) Kind() Kind { return KindLesson }

func (p LessonPayload) Label() string {
	return fmt.Sprintf("Course %d, Module %d, Lesson %d", p.CourseID, p.ModuleID, p.LessonID)
}

// QuizPayload - место остановки в квизе.
type QuizPayload struct {
	CourseID int `json:"course"`
	ModuleID int `json:"module"`
	LessonID int `json:"lesson"`

	// CurrentQuestion - номер текущего вопроса (с 1).
	CurrentQuestion int `json:"current_question"`

	// TotalQuestions - всего вопросов в квизе.
	TotalQuestions int `json:"total_questions"`

	// Answers - уже данные ответы (индексы вариантов по порядку вопросов).
	Answers []int `json:"answers,omitempty"`
}

func (p QuizPayload) Kind() Kind { return KindQuiz }

func (p QuizPayload) Label() string {
	return fmt.Sprintf("Question %d of %d", p.CurrentQuestion, p.TotalQuestions)
}

// CTFPayload - место остановки в CTF-задании.
type CTFPayload struct {
	ChallengeID   int64  `json:"challenge_id"`
	ChallengeName string `json:"challenge_name"`

	// HintUsed - просил ли ученик подсказку.
	HintUsed bool `json:"hint_used,omitempty"`
}

func (p CTFPayload) Kind() Kind { return KindCTF }

func (p CTFPayload) Label() string {
	return fmt.Sprintf("Challenge: %s", p.ChallengeName)
}

// MissionPayload - место остановки в практической миссии.
type MissionPayload struct {
	MissionID int    `json:"mission_id"`
	Name      string `json:"name"`

	// Step - текущий шаг миссии (с 1).
	Step int `json:"step"`

	// TotalSteps - всего шагов.
	TotalSteps int `json:"total_steps"`
}

func (p MissionPayload) Kind() Kind { return KindMission }

func (p MissionPayload) Label() string {
	return fmt.Sprintf("Mission: %s (step %d/%d)", p.Name, p.Step, p.TotalSteps)
}

// MultimediaPayload - место остановки в мультимедийном контенте.
type MultimediaPayload struct {
	ContentType string `json:"content_type"`
	ContentID   int    `json:"content_id"`

	// OffsetSeconds - позиция воспроизведения для видео/аудио.
	OffsetSeconds int `json:"offset_seconds,omitempty"`
}

func (p MultimediaPayload) Kind() Kind { return KindMultimedia }

func (p MultimediaPayload) Label() string {
	return fmt.Sprintf("Content: %s", p.ContentType)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENVELOPE CODEC
// ══════════════════════════════════════════════════════════════════════════════

// envelope - формат хранения нагрузки: позиция и произвольное
// дополнительное состояние разделены, как их разделяют вызыватели.
type envelope struct {
	V        int             `json:"v"`
	Kind     Kind            `json:"kind"`
	Position json.RawMessage `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// EncodePayload сериализует нагрузку в версионированный конверт.
// extra - необязательное состояние вызывателя, хранимое как есть.
func EncodePayload(p Payload, extra map[string]any) ([]byte, error) {
	if p == nil {
		return nil, shared.ErrInvalidSessionKind
	}

	pos, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal session position: %w", err)
	}

	env := envelope{V: SchemaVersion, Kind: p.Kind(), Position: pos}
	if len(extra) > 0 {
		data, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("marshal session data: %w", err)
		}
		env.Data = data
	}

	return json.Marshal(env)
}

// DecodePayload разбирает конверт обратно в типизированную нагрузку.
// Конверт с незнакомым kind или версией старше текущей отклоняется:
// движок не пытается угадывать чужие схемы.
func DecodePayload(raw []byte) (Payload, map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("unmarshal session envelope: %w", err)
	}

	if env.V > SchemaVersion {
		return nil, nil, fmt.Errorf("session schema version %d is newer than supported %d: %w",
			env.V, SchemaVersion, shared.ErrValidation)
	}

	var p Payload
	switch env.Kind {
	case KindLesson:
		var lp LessonPayload
		if err := json.Unmarshal(env.Position, &lp); err != nil {
			return nil, nil, fmt.Errorf("unmarshal lesson position: %w", err)
		}
		p = lp
	case KindQuiz:
		var qp QuizPayload
		if err := json.Unmarshal(env.Position, &qp); err != nil {
			return nil, nil, fmt.Errorf("unmarshal quiz position: %w", err)
		}
		p = qp
	case KindCTF:
		var cp CTFPayload
		if err := json.Unmarshal(env.Position, &cp); err != nil {
			return nil, nil, fmt.Errorf("unmarshal ctf position: %w", err)
		}
		p = cp
	case KindMission:
		var mp MissionPayload
		if err := json.Unmarshal(env.Position, &mp); err != nil {
			return nil, nil, fmt.Errorf("unmarshal mission position: %w", err)
		}
		p = mp
	case KindMultimedia:
		var mm MultimediaPayload
		if err := json.Unmarshal(env.Position, &mm); err != nil {
			return nil, nil, fmt.Errorf("unmarshal multimedia position: %w", err)
		}
		p = mm
	default:
		return nil, nil, shared.ErrInvalidSessionKind
	}

	var extra map[string]any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &extra); err != nil {
			return nil, nil, fmt.Errorf("unmarshal session data: %w", err)
		}
	}

	return p, extra, nil
}
