package command

import (
	"context"
	"fmt"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/domain/learner"
	"github.com/cyber-academy/academy-engine/internal/domain/session"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST DOUBLES
// In-memory repositories mirroring the transactional semantics of the
// postgres implementations: idempotent upserts, first-completion-only
// credit, first-solve-only points.
// ══════════════════════════════════════════════════════════════════════════════

type capturePublisher struct {
	events []shared.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) types() []shared.EventType {
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *capturePublisher) has(t shared.EventType) bool {
	for _, e := range p.events {
		if e.EventType() == t {
			return true
		}
	}
	return false
}

// --- learner repository ---

type fakeLearnerRepo struct {
	learners    map[learner.ID]*learner.Learner
	completions map[string]bool
	attempts    []*learner.QuizAttempt
	xpReasons   []string
	quietCalls  int
	stats       map[learner.ID]*learner.Stats
	top         []learner.LeaderboardEntry

	failNext error
}

func newFakeLearnerRepo() *fakeLearnerRepo {
	return &fakeLearnerRepo{
		learners:    make(map[learner.ID]*learner.Learner),
		completions: make(map[string]bool),
		stats:       make(map[learner.ID]*learner.Stats),
	}
}

func (r *fakeLearnerRepo) add(l *learner.Learner) {
	r.learners[l.ID] = l.Clone()
}

func (r *fakeLearnerRepo) takeErr() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *fakeLearnerRepo) Upsert(ctx context.Context, l *learner.Learner) (*learner.UpsertResult, error) {
	if err := r.takeErr(); err != nil {
		return nil, err
	}

	if existing, ok := r.learners[l.ID]; ok {
		existing.DisplayName = l.DisplayName
		existing.UpdatedAt = time.Now().UTC()
		return &learner.UpsertResult{Created: false, Learner: existing.Clone()}, nil
	}

	r.learners[l.ID] = l.Clone()
	return &learner.UpsertResult{Created: true, Learner: l.Clone()}, nil
}

func (r *fakeLearnerRepo) GetByID(ctx context.Context, id learner.ID) (*learner.Learner, error) {
	if err := r.takeErr(); err != nil {
		return nil, err
	}

	l, ok := r.learners[id]
	if !ok {
		return nil, learner.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *fakeLearnerRepo) addXP(id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	if amount < 0 {
		return nil, learner.ErrNegativeAmount
	}

	l, ok := r.learners[id]
	if !ok {
		return nil, learner.ErrNotFound
	}

	res := &learner.XPResult{
		OldXP:    int(l.XP),
		OldLevel: int(l.Level()),
	}
	l.XP = l.XP.Add(learner.XP(amount))
	res.NewXP = int(l.XP)
	res.NewLevel = int(l.Level())

	r.xpReasons = append(r.xpReasons, reason)
	return res, nil
}

func (r *fakeLearnerRepo) AddXP(ctx context.Context, id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	if err := r.takeErr(); err != nil {
		return nil, err
	}
	return r.addXP(id, amount, reason)
}

func (r *fakeLearnerRepo) AddXPQuiet(ctx context.Context, id learner.ID, amount int, reason string) (*learner.XPResult, error) {
	if err := r.takeErr(); err != nil {
		return nil, err
	}
	r.quietCalls++
	return r.addXP(id, amount, reason)
}

func (r *fakeLearnerRepo) CompleteLesson(ctx context.Context, id learner.ID, courseID, moduleID, lessonID, xpReward int, next learner.Position, terminal bool) (*learner.CompletionResult, error) {
	if err := r.takeErr(); err != nil {
		return nil, err
	}

	l, ok := r.learners[id]
	if !ok {
		return nil, learner.ErrNotFound
	}

	key := fmt.Sprintf("%s|%d.%d.%d", id, courseID, moduleID, lessonID)
	first := !r.completions[key]
	r.completions[key] = true

	res := &learner.CompletionResult{
		FirstCompletion: first,
		NextPosition:    next,
		Terminal:        terminal,
	}

	if first {
		xp, err := r.addXP(id, xpReward, fmt.Sprintf("lesson_completed:%d.%d.%d", courseID, moduleID, lessonID))
		if err != nil {
			return nil, err
		}
		res.XPAwarded = xpReward
		res.NewXP = xp.NewXP
		res.NewLevel = xp.NewLevel
		res.LevelledUp = xp.LevelledUp()
	} else {
		res.NewXP = int(l.XP)
		res.NewLevel = int(l.Level())
	}

	if terminal {
		l.MarkContentDone()
	} else {
		l.AdvanceTo(next)
	}

	return res, nil
}

func (r *fakeLearnerRepo) SetPosition(ctx context.Context, id learner.ID, pos learner.Position) error {
	l, ok := r.learners[id]
	if !ok {
		return learner.ErrNotFound
	}
	l.AdvanceTo(pos)
	return nil
}

func (r *fakeLearnerRepo) RecordQuizAttempt(ctx context.Context, attempt *learner.QuizAttempt) error {
	if err := r.takeErr(); err != nil {
		return err
	}
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeLearnerRepo) GetStats(ctx context.Context, id learner.ID) (*learner.Stats, error) {
	if s, ok := r.stats[id]; ok {
		return s, nil
	}

	l, ok := r.learners[id]
	if !ok {
		return nil, learner.ErrNotFound
	}
	return &learner.Stats{XP: int(l.XP), Level: int(l.Level())}, nil
}

func (r *fakeLearnerRepo) TopByXP(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	if limit < len(r.top) {
		return r.top[:limit], nil
	}
	return r.top, nil
}

// --- ctf repository ---

type fakeCTFRepo struct {
	learners    *fakeLearnerRepo
	challenges  map[int64]*ctf.Challenge
	submissions []*ctf.Submission
	solved      map[string]map[int64]bool
	rows        []ctf.LeaderboardRow

	failNext error
}

func newFakeCTFRepo(learners *fakeLearnerRepo) *fakeCTFRepo {
	return &fakeCTFRepo{
		learners:   learners,
		challenges: make(map[int64]*ctf.Challenge),
		solved:     make(map[string]map[int64]bool),
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
	out := make([]*ctf.Challenge, 0, len(r.challenges))
	for _, ch := range r.challenges {
		out = append(out, ch)
	}
	return out, nil
}

func (r *fakeCTFRepo) AddChallenge(ctx context.Context, ch *ctf.Challenge) (int64, error) {
	id := int64(len(r.challenges) + 1)
	ch.ID = id
	r.challenges[id] = ch
	return id, nil
}

// RecordSubmission mirrors the postgres transaction: the solve row, the
// journal entry and the XP credit land together or not at all.
func (r *fakeCTFRepo) RecordSubmission(ctx context.Context, sub *ctf.Submission) (*ctf.SubmissionOutcome, error) {
	if err := r.failNext; err != nil {
		r.failNext = nil
		return nil, err
	}

	r.submissions = append(r.submissions, sub)

	if !sub.Correct {
		return &ctf.SubmissionOutcome{}, nil
	}

	byLearner := r.solved[string(sub.LearnerID)]
	if byLearner == nil {
		byLearner = make(map[int64]bool)
		r.solved[string(sub.LearnerID)] = byLearner
	}

	if byLearner[sub.ChallengeID] {
		sub.PointsAwarded = 0
		return &ctf.SubmissionOutcome{}, nil
	}

	byLearner[sub.ChallengeID] = true

	outcome := &ctf.SubmissionOutcome{FirstSolve: true}
	if sub.PointsAwarded > 0 {
		xp, err := r.learners.addXP(sub.LearnerID, sub.PointsAwarded, fmt.Sprintf("ctf_solve:%d", sub.ChallengeID))
		if err != nil {
			return nil, err
		}
		outcome.XP = xp
	}
	return outcome, nil
}

func (r *fakeCTFRepo) CountSolves(ctx context.Context, learnerID learner.ID) (int, error) {
	return len(r.solved[string(learnerID)]), nil
}

func (r *fakeCTFRepo) ListSolves(ctx context.Context, learnerID learner.ID) ([]ctf.SolveRecord, error) {
	var out []ctf.SolveRecord
	for id := range r.solved[string(learnerID)] {
		ch := r.challenges[id]
		out = append(out, ctf.SolveRecord{
			ChallengeID: id,
			Name:        ch.Name,
			Points:      ch.Points,
		})
	}
	return out, nil
}

func (r *fakeCTFRepo) Leaderboard(ctx context.Context, limit int) ([]ctf.LeaderboardRow, error) {
	if limit < len(r.rows) {
		return r.rows[:limit], nil
	}
	return r.rows, nil
}

// --- session repository ---

type fakeSessionRepo struct {
	sessions map[string]*session.Session // learnerID|kind
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*session.Session)}
}

func sessionKey(learnerID learner.ID, kind session.Kind) string {
	return string(learnerID) + "|" + string(kind)
}

func (r *fakeSessionRepo) Save(ctx context.Context, s *session.Session) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.sessions[sessionKey(s.LearnerID, s.Kind)] = s
	return nil
}

func (r *fakeSessionRepo) Load(ctx context.Context, learnerID learner.ID, kind session.Kind) (*session.Session, error) {
	s, ok := r.sessions[sessionKey(learnerID, kind)]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, learnerID learner.ID, kind session.Kind) error {
	delete(r.sessions, sessionKey(learnerID, kind))
	return nil
}

func (r *fakeSessionRepo) DeleteAll(ctx context.Context, learnerID learner.ID) (int, error) {
	n := 0
	for _, kind := range session.Kinds() {
		key := sessionKey(learnerID, kind)
		if _, ok := r.sessions[key]; ok {
			delete(r.sessions, key)
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) List(ctx context.Context, learnerID learner.ID) ([]*session.Session, error) {
	var out []*session.Session
	for _, kind := range session.Kinds() {
		if s, ok := r.sessions[sessionKey(learnerID, kind)]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- helpers ---

func mustLearner(id, name string, xp int) *learner.Learner {
	l, err := learner.NewLearner(learner.NewLearnerParams{ID: learner.ID(id), DisplayName: name})
	if err != nil {
		panic(err)
	}
	l.XP = learner.XP(xp)
	return l
}
