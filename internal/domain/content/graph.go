// Package content содержит типизированный граф учебного контента:
// курс → модуль → урок. Граф строится один раз при старте процесса,
// неизменяем и безопасен для конкурентного чтения.
package content

import (
	"errors"
	"sort"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// NODE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// MediaKind - тип мультимедийного вложения урока.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Media - мультимедийное вложение урока.
type Media struct {
	// Kind - тип вложения.
	Kind MediaKind

	// URL - адрес контента.
	URL string

	// Description - описание для подписи.
	Description string
}

// QuizQuestion - один вопрос квиза урока.
type QuizQuestion struct {
	// Text - текст вопроса.
	Text string

	// Options - варианты ответа.
	Options []string

	// Correct - индекс правильного варианта.
	Correct int
}

// Lesson - лист дерева контента. Несёт награду XP и необязательные
// ссылки на квиз и практическое задание.
type Lesson struct {
	// ID - идентификатор урока внутри модуля. Не обязан быть
	// последовательным: обход идёт по отсортированным ID.
	ID int

	// Title - заголовок урока.
	Title string

	// Content - текст урока (движок его не рендерит, только хранит).
	Content string

	// XPReward - награда за первое прохождение.
	XPReward int

	// Quiz - вопросы квиза (пусто, если квиза нет).
	Quiz []QuizQuestion

	// Practical - описание практического задания (пусто, если нет).
	Practical string

	// Media - мультимедийные вложения.
	Media []Media
}

// HasQuiz возвращает true, если к уроку привязан квиз.
func (l *Lesson) HasQuiz() bool {
	return len(l.Quiz) > 0
}

// Module - модуль курса: упорядоченный набор уроков.
type Module struct {
	// ID - идентификатор модуля внутри курса.
	ID int

	// Title - название модуля.
	Title string

	lessons   map[int]*Lesson
	lessonIDs []int // отсортированы по возрастанию
}

// LessonIDs возвращает отсортированные идентификаторы уроков.
func (m *Module) LessonIDs() []int {
	ids := make([]int, len(m.lessonIDs))
	copy(ids, m.lessonIDs)
	return ids
}

// Lesson возвращает урок по ID.
func (m *Module) Lesson(id int) (*Lesson, bool) {
	l, ok := m.lessons[id]
	return l, ok
}

// FirstLesson возвращает урок с наименьшим ID.
func (m *Module) FirstLesson() *Lesson {
	if len(m.lessonIDs) == 0 {
		return nil
	}
	return m.lessons[m.lessonIDs[0]]
}

// Course - курс: упорядоченный набор модулей.
type Course struct {
	// ID - идентификатор курса.
	ID int

	// Title - название курса.
	Title string

	// Description - описание курса.
	Description string

	modules   map[int]*Module
	moduleIDs []int // отсортированы по возрастанию
}

// ModuleIDs возвращает отсортированные идентификаторы модулей.
func (c *Course) ModuleIDs() []int {
	ids := make([]int, len(c.moduleIDs))
	copy(ids, c.moduleIDs)
	return ids
}

// Module возвращает модуль по ID.
func (c *Course) Module(id int) (*Module, bool) {
	m, ok := c.modules[id]
	return m, ok
}

// FirstModule возвращает модуль с наименьшим ID.
func (c *Course) FirstModule() *Module {
	if len(c.moduleIDs) == 0 {
		return nil
	}
	return c.modules[c.moduleIDs[0]]
}

// ══════════════════════════════════════════════════════════════════════════════
// GRAPH
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotFound - узел не найден в графе.
	ErrNotFound = errors.New("content node not found")

	// ErrEmptyGraph - граф без единого урока.
	ErrEmptyGraph = errors.New("content graph has no lessons")
)

// Graph - неизменяемый граф контента с O(1) поиском по идентификаторам.
type Graph struct {
	courses   map[int]*Course
	courseIDs []int // отсортированы по возрастанию
}

// CourseIDs возвращает отсортированные идентификаторы курсов.
func (g *Graph) CourseIDs() []int {
	ids := make([]int, len(g.courseIDs))
	copy(ids, g.courseIDs)
	return ids
}

// Course возвращает курс по ID.
func (g *Graph) Course(id int) (*Course, bool) {
	c, ok := g.courses[id]
	return c, ok
}

// CourseCount возвращает число курсов.
func (g *Graph) CourseCount() int {
	return len(g.courseIDs)
}

// LessonCount возвращает общее число уроков во всех курсах.
func (g *Graph) LessonCount() int {
	n := 0
	for _, course := range g.courses {
		for _, module := range course.modules {
			n += len(module.lessons)
		}
	}
	return n
}

// Lookup возвращает урок по полному пути (курс, модуль, урок).
// Возвращает ErrNotFound, если любой уровень пути отсутствует.
func (g *Graph) Lookup(courseID, moduleID, lessonID int) (*Lesson, error) {
	course, ok := g.courses[courseID]
	if !ok {
		return nil, ErrNotFound
	}

	module, ok := course.modules[moduleID]
	if !ok {
		return nil, ErrNotFound
	}

	lesson, ok := module.lessons[lessonID]
	if !ok {
		return nil, ErrNotFound
	}

	return lesson, nil
}

// NextPointer вычисляет следующую позицию после урока (courseID, moduleID,
// lessonID). Порядок обхода:
//
//  1. следующий по отсортированному ID урок того же модуля;
//  2. иначе - первый урок следующего модуля того же курса;
//  3. иначе - первый урок первого модуля следующего курса;
//  4. иначе - терминал (ok == false): контент закончился.
//
// Идентификаторы могут быть разреженными: никакой арифметики "+1",
// только поиск соседа в отсортированном срезе.
func (g *Graph) NextPointer(courseID, moduleID, lessonID int) (learner.Position, bool) {
	course, ok := g.courses[courseID]
	if !ok {
		return learner.Position{}, false
	}

	module, ok := course.modules[moduleID]
	if !ok {
		return learner.Position{}, false
	}

	// Следующий урок в том же модуле.
	if nextLesson, ok := successor(module.lessonIDs, lessonID); ok {
		return learner.Position{CourseID: courseID, ModuleID: moduleID, LessonID: nextLesson}, true
	}

	// Первый урок следующего модуля того же курса.
	if nextModule, ok := successor(course.moduleIDs, moduleID); ok {
		first := course.modules[nextModule].FirstLesson()
		if first != nil {
			return learner.Position{CourseID: courseID, ModuleID: nextModule, LessonID: first.ID}, true
		}
	}

	// Первый урок первого модуля следующего курса.
	if nextCourse, ok := successor(g.courseIDs, courseID); ok {
		firstModule := g.courses[nextCourse].FirstModule()
		if firstModule != nil {
			if first := firstModule.FirstLesson(); first != nil {
				return learner.Position{CourseID: nextCourse, ModuleID: firstModule.ID, LessonID: first.ID}, true
			}
		}
	}

	return learner.Position{}, false
}

// StartPosition возвращает позицию самого первого урока графа.
func (g *Graph) StartPosition() (learner.Position, error) {
	if len(g.courseIDs) == 0 {
		return learner.Position{}, ErrEmptyGraph
	}

	course := g.courses[g.courseIDs[0]]
	module := course.FirstModule()
	if module == nil {
		return learner.Position{}, ErrEmptyGraph
	}

	lesson := module.FirstLesson()
	if lesson == nil {
		return learner.Position{}, ErrEmptyGraph
	}

	return learner.Position{CourseID: course.ID, ModuleID: module.ID, LessonID: lesson.ID}, nil
}

// successor возвращает наименьший элемент строго больше v.
// Срез отсортирован по возрастанию.
func successor(sorted []int, v int) (int, bool) {
	idx := sort.SearchInts(sorted, v+1)
	if idx >= len(sorted) {
		return 0, false
	}
	return sorted[idx], true
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// CourseDef, ModuleDef, LessonDef - декларативные определения для сборки
// графа (из каталога или сидера).
type CourseDef struct {
	ID          int
	Title       string
	Description string
	Modules     []ModuleDef
}

type ModuleDef struct {
	ID      int
	Title   string
	Lessons []LessonDef
}

type LessonDef struct {
	ID        int
	Title     string
	Content   string
	XPReward  int
	Quiz      []QuizQuestion
	Practical string
	Media     []Media
}

// NewGraph собирает граф из определений. Дубликаты ID внутри одного
// уровня схлопываются (последний выигрывает), идентификаторы
// индексируются в отсортированном порядке.
func NewGraph(defs []CourseDef) (*Graph, error) {
	g := &Graph{courses: make(map[int]*Course, len(defs))}

	for _, cd := range defs {
		course := &Course{
			ID:          cd.ID,
			Title:       cd.Title,
			Description: cd.Description,
			modules:     make(map[int]*Module, len(cd.Modules)),
		}

		for _, md := range cd.Modules {
			module := &Module{
				ID:      md.ID,
				Title:   md.Title,
				lessons: make(map[int]*Lesson, len(md.Lessons)),
			}

			for _, ld := range md.Lessons {
				lesson := &Lesson{
					ID:        ld.ID,
					Title:     ld.Title,
					Content:   ld.Content,
					XPReward:  ld.XPReward,
					Quiz:      ld.Quiz,
					Practical: ld.Practical,
					Media:     ld.Media,
				}
				if _, dup := module.lessons[ld.ID]; !dup {
					module.lessonIDs = append(module.lessonIDs, ld.ID)
				}
				module.lessons[ld.ID] = lesson
			}
			sort.Ints(module.lessonIDs)

			if _, dup := course.modules[md.ID]; !dup {
				course.moduleIDs = append(course.moduleIDs, md.ID)
			}
			course.modules[md.ID] = module
		}
		sort.Ints(course.moduleIDs)

		if _, dup := g.courses[cd.ID]; !dup {
			g.courseIDs = append(g.courseIDs, cd.ID)
		}
		g.courses[cd.ID] = course
	}
	sort.Ints(g.courseIDs)

	if _, err := g.StartPosition(); err != nil {
		return nil, err
	}

	return g, nil
}
