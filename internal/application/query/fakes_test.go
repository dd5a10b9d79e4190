package query

import (
	"context"
	"errors"

	"github.com/cyber-academy/academy-engine/internal/domain/achievement"
	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
)

// errUnused trips tests that reach repository methods a read path
// should never touch.
var errUnused = errors.New("unexpected repository call")

// ─── learner.Repository ───

type fakeLearnerRepo struct {
	learners map[learner.ID]*learner.Learner
	stats    map[learner.ID]*learner.Stats
	top      []learner.LeaderboardEntry
	topCalls int
}

func newFakeLearnerRepo() *fakeLearnerRepo {
	return &fakeLearnerRepo{
		learners: make(map[learner.ID]*learner.Learner),
		stats:    make(map[learner.ID]*learner.Stats),
	}
}

func (r *fakeLearnerRepo) GetByID(ctx context.Context, id learner.ID) (*learner.Learner, error) {
	l, ok := r.learners[id]
	if !ok {
		return nil, learner.ErrNotFound
	}
	return l, nil
}

func (r *fakeLearnerRepo) GetStats(ctx context.Context, id learner.ID) (*learner.Stats, error) {
	if s, ok := r.stats[id]; ok {
		return s, nil
	}
	return &learner.Stats{}, nil
}

func (r *fakeLearnerRepo) TopByXP(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	r.topCalls++
	if limit > len(r.top) {
		limit = len(r.top)
	}
	return r.top[:limit], nil
}

func (r *fakeLearnerRepo) Upsert(ctx context.Context, l *learner.Learner) (*learner.UpsertResult, error) {
	return nil, errUnused
}

func (r *fakeLearnerRepo) AddXP(ctx context.Context, id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	return nil, errUnused
}

func (r *fakeLearnerRepo) AddXPQuiet(ctx context.Context, id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	return nil, errUnused
}

func (r *fakeLearnerRepo) CompleteLesson(ctx context.Context, id learner.ID, courseID, moduleID, lessonID, xpReward int, next learner.Position, terminal bool) (*learner.CompletionResult, error) {
	return nil, errUnused
}

func (r *fakeLearnerRepo) SetPosition(ctx context.Context, id learner.ID, pos learner.Position) error {
	return errUnused
}

func (r *fakeLearnerRepo) RecordQuizAttempt(ctx context.Context, attempt *learner.QuizAttempt) error {
	return errUnused
}

// ─── achievement.Repository ───

type fakeAchievementRepo struct {
	awarded map[learner.ID][]achievement.Awarded
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{awarded: make(map[learner.ID][]achievement.Awarded)}
}

func (r *fakeAchievementRepo) ListAwarded(ctx context.Context, learnerID learner.ID) ([]achievement.Awarded, error) {
	return r.awarded[learnerID], nil
}

func (r *fakeAchievementRepo) Award(ctx context.Context, learnerID learner.ID, rule achievement.Rule) (*achievement.Awarded, error) {
	return nil, errUnused
}

func (r *fakeAchievementRepo) IsAwarded(ctx context.Context, learnerID learner.ID, ruleID string) (bool, error) {
	return false, errUnused
}

// ─── ctf.Repository ───

type fakeCTFRepo struct {
	challenges map[int64]*ctf.Challenge
	solves     map[learner.ID][]ctf.SolveRecord
	rows       []ctf.LeaderboardRow
	rowCalls   int
}

func newFakeCTFRepo() *fakeCTFRepo {
	return &fakeCTFRepo{
		challenges: make(map[int64]*ctf.Challenge),
		solves:     make(map[learner.ID][]ctf.SolveRecord),
	}
}

func (r *fakeCTFRepo) GetChallenge(ctx context.Context, id int64) (*ctf.Challenge, error) {
	ch, ok := r.challenges[id]
	if !ok {
		return nil, shared.ErrChallengeNotFound
	}
	return ch, nil
}

func (r *fakeCTFRepo) ListChallenges(ctx context.Context) ([]*ctf.Challenge, error) {
	var out []*ctf.Challenge
	for id := int64(1); id <= int64(len(r.challenges)); id++ {
		if ch, ok := r.challenges[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (r *fakeCTFRepo) AddChallenge(ctx context.Context, ch *ctf.Challenge) (int64, error) {
	id := int64(len(r.challenges) + 1)
	ch.ID = id
	r.challenges[id] = ch
	return id, nil
}

func (r *fakeCTFRepo) RecordSubmission(ctx context.Context, sub *ctf.Submission) (*ctf.SubmissionOutcome, error) {
	return nil, errUnused
}

func (r *fakeCTFRepo) CountSolves(ctx context.Context, learnerID learner.ID) (int, error) {
	return len(r.solves[learnerID]), nil
}

func (r *fakeCTFRepo) ListSolves(ctx context.Context, learnerID learner.ID) ([]ctf.SolveRecord, error) {
	return r.solves[learnerID], nil
}

func (r *fakeCTFRepo) Leaderboard(ctx context.Context, limit int) ([]ctf.LeaderboardRow, error) {
	r.rowCalls++
	if limit > len(r.rows) {
		limit = len(r.rows)
	}
	return r.rows[:limit], nil
}

// ─── leaderboard caches ───

type fakeXPBoardCache struct {
	entries []learner.LeaderboardEntry // served on hit; nil means miss
	topErr  error

	rebuiltWith  []learner.LeaderboardEntry
	rebuiltLimit int
	rebuilds     int
}

func (c *fakeXPBoardCache) TopXP(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	if c.topErr != nil {
		return nil, c.topErr
	}
	if c.entries == nil {
		return nil, redis.ErrLeaderboardEmpty
	}
	return c.entries, nil
}

func (c *fakeXPBoardCache) RebuildXP(ctx context.Context, entries []learner.LeaderboardEntry, buildLimit int) error {
	c.rebuiltWith = entries
	c.rebuiltLimit = buildLimit
	c.rebuilds++
	return nil
}

type fakeCTFBoardCache struct {
	rows []ctf.LeaderboardRow // served on hit; nil means miss

	rebuiltWith  []ctf.LeaderboardRow
	rebuiltLimit int
}

func (c *fakeCTFBoardCache) TopCTF(ctx context.Context, limit int) ([]ctf.LeaderboardRow, error) {
	if c.rows == nil {
		return nil, redis.ErrLeaderboardEmpty
	}
	return c.rows, nil
}

func (c *fakeCTFBoardCache) RebuildCTF(ctx context.Context, rows []ctf.LeaderboardRow, buildLimit int) error {
	c.rebuiltWith = rows
	c.rebuiltLimit = buildLimit
	return nil
}

// ─── session.Repository ───

type fakeSessionRepo struct {
	sessions []*session.Session
}

func (r *fakeSessionRepo) Save(ctx context.Context, s *session.Session) error {
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeSessionRepo) Load(ctx context.Context, learnerID learner.ID, kind session.Kind) (*session.Session, error) {
	for _, s := range r.sessions {
		if s.LearnerID == learnerID && s.Kind == kind {
			return s, nil
		}
	}
	return nil, shared.ErrSessionNotFound
}

func (r *fakeSessionRepo) Delete(ctx context.Context, learnerID learner.ID, kind session.Kind) error {
	return errUnused
}

func (r *fakeSessionRepo) DeleteAll(ctx context.Context, learnerID learner.ID) (int, error) {
	return 0, errUnused
}

func (r *fakeSessionRepo) List(ctx context.Context, learnerID learner.ID) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range r.sessions {
		if s.LearnerID == learnerID {
			out = append(out, s)
		}
	}
	return out, nil
}

// ─── helpers ───

func mustLearner(id, name string, xp int) *learner.Learner {
	l, err := learner.NewLearner(learner.NewLearnerParams{ID: learner.ID(id), DisplayName: name})
	if err != nil {
		panic(err)
	}
	l.XP = learner.XP(xp)
	return l
}
