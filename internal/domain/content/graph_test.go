package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// testGraph builds a small graph with deliberately sparse IDs:
//
//	course 1: module 1 {lessons 1, 3}, module 4 {lesson 2}
//	course 5: module 1 {lesson 10}
func testGraph(t *testing.T) *Graph {
	t.Helper()

	g, err := NewGraph([]CourseDef{
		{
			ID:    1,
			Title: "Networking",
			Modules: []ModuleDef{
				{ID: 1, Title: "Basics", Lessons: []LessonDef{
					{ID: 1, Title: "Intro", XPReward: 50},
					{ID: 3, Title: "OSI Model", XPReward: 75, Quiz: []QuizQuestion{
						{Text: "Layers?", Options: []string{"5", "7"}, Correct: 1},
					}},
				}},
				{ID: 4, Title: "Routing", Lessons: []LessonDef{
					{ID: 2, Title: "IP Addressing", XPReward: 100},
				}},
			},
		},
		{
			ID:    5,
			Title: "Cryptography",
			Modules: []ModuleDef{
				{ID: 1, Title: "Classical", Lessons: []LessonDef{
					{ID: 10, Title: "Caesar Cipher", XPReward: 60},
				}},
			},
		},
	})
	require.NoError(t, err)
	return g
}

func TestGraph_Lookup(t *testing.T) {
	g := testGraph(t)

	lesson, err := g.Lookup(1, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "OSI Model", lesson.Title)
	assert.Equal(t, 75, lesson.XPReward)
	assert.True(t, lesson.HasQuiz())

	lesson, err = g.Lookup(5, 1, 10)
	require.NoError(t, err)
	assert.False(t, lesson.HasQuiz())
}

func TestGraph_Lookup_NotFound(t *testing.T) {
	g := testGraph(t)

	_, err := g.Lookup(99, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.Lookup(1, 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.Lookup(1, 1, 2)
	assert.ErrorIs(t, err, ErrNotFound, "lesson 2 lives in module 4, not module 1")
}

func TestGraph_NextPointer_WithinModule(t *testing.T) {
	g := testGraph(t)

	// Lesson IDs are sparse: successor of 1 is 3, not 2.
	next, ok := g.NextPointer(1, 1, 1)
	require.True(t, ok)
	assert.Equal(t, learner.Position{CourseID: 1, ModuleID: 1, LessonID: 3}, next)
}

func TestGraph_NextPointer_AcrossModules(t *testing.T) {
	g := testGraph(t)

	// Last lesson of module 1 jumps to the first lesson of module 4.
	next, ok := g.NextPointer(1, 1, 3)
	require.True(t, ok)
	assert.Equal(t, learner.Position{CourseID: 1, ModuleID: 4, LessonID: 2}, next)
}

func TestGraph_NextPointer_AcrossCourses(t *testing.T) {
	g := testGraph(t)

	// Last lesson of course 1 jumps to course 5.
	next, ok := g.NextPointer(1, 4, 2)
	require.True(t, ok)
	assert.Equal(t, learner.Position{CourseID: 5, ModuleID: 1, LessonID: 10}, next)
}

func TestGraph_NextPointer_Terminal(t *testing.T) {
	g := testGraph(t)

	_, ok := g.NextPointer(5, 1, 10)
	assert.False(t, ok, "the very last lesson has no successor")
}

func TestGraph_NextPointer_UnknownNode(t *testing.T) {
	g := testGraph(t)

	_, ok := g.NextPointer(99, 1, 1)
	assert.False(t, ok)

	_, ok = g.NextPointer(1, 99, 1)
	assert.False(t, ok)
}

func TestGraph_StartPosition(t *testing.T) {
	g := testGraph(t)

	start, err := g.StartPosition()
	require.NoError(t, err)
	assert.Equal(t, learner.Position{CourseID: 1, ModuleID: 1, LessonID: 1}, start)
}

func TestGraph_Counts(t *testing.T) {
	g := testGraph(t)

	assert.Equal(t, 2, g.CourseCount())
	assert.Equal(t, 4, g.LessonCount())
}

func TestNewGraph_RejectsEmpty(t *testing.T) {
	_, err := NewGraph(nil)
	assert.ErrorIs(t, err, ErrEmptyGraph)

	_, err = NewGraph([]CourseDef{{ID: 1, Title: "Empty"}})
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestNewGraph_DuplicateIDsLastWins(t *testing.T) {
	g, err := NewGraph([]CourseDef{
		{ID: 1, Modules: []ModuleDef{
			{ID: 1, Lessons: []LessonDef{
				{ID: 1, Title: "First"},
				{ID: 1, Title: "Second"},
			}},
		}},
	})
	require.NoError(t, err)

	lesson, err := g.Lookup(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Second", lesson.Title)
	assert.Equal(t, 1, g.LessonCount(), "duplicate IDs collapse into one node")
}

func TestDefaultCatalog_BuildsValidGraph(t *testing.T) {
	g, err := NewGraph(DefaultCatalog())
	require.NoError(t, err)

	start, err := g.StartPosition()
	require.NoError(t, err)

	// Walking from the start must visit every lesson exactly once and
	// terminate: the next-pointer chain covers the whole graph.
	visited := map[learner.Position]bool{}
	pos := start
	for {
		require.False(t, visited[pos], "cycle detected at %s", pos)
		visited[pos] = true

		_, err := g.Lookup(pos.CourseID, pos.ModuleID, pos.LessonID)
		require.NoError(t, err, "walk reached a missing node %s", pos)

		next, ok := g.NextPointer(pos.CourseID, pos.ModuleID, pos.LessonID)
		if !ok {
			break
		}
		pos = next
	}

	assert.Equal(t, g.LessonCount(), len(visited))
}
