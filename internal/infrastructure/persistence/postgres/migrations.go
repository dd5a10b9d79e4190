// Package postgres implements the PostgreSQL persistence layer of the
// academy engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: LEARNERS & PROGRESSION LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learners, completion records and quiz attempts
-- Version: 001

-- Main learners table. The id is an opaque external identifier owned by
-- the calling platform. Level is NOT stored: it is always derived as
-- floor(xp / 1000) + 1, so xp is the only source of truth.
CREATE TABLE IF NOT EXISTS learners (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    xp INTEGER NOT NULL DEFAULT 0,
    course_id INTEGER NOT NULL DEFAULT 1,
    module_id INTEGER NOT NULL DEFAULT 1,
    lesson_id INTEGER NOT NULL DEFAULT 1,
    content_done BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (xp >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learners_xp ON learners(xp DESC, joined_at ASC, id ASC);

-- Lesson completion records. Unique per (learner, lesson path): a repeat
-- completion updates the row instead of inserting a duplicate, which is
-- what makes XP credit exactly-once.
CREATE TABLE IF NOT EXISTS completion_records (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    course_id INTEGER NOT NULL,
    module_id INTEGER NOT NULL,
    lesson_id INTEGER NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT TRUE,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(learner_id, course_id, module_id, lesson_id)
);

CREATE INDEX IF NOT EXISTS idx_completion_records_learner ON completion_records(learner_id);

-- Quiz attempt journal, append-only.
CREATE TABLE IF NOT EXISTS quiz_attempts (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    course_id INTEGER NOT NULL,
    module_id INTEGER NOT NULL,
    lesson_id INTEGER NOT NULL,
    score INTEGER NOT NULL,
    total INTEGER NOT NULL,
    attempted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_score CHECK (score >= 0 AND score <= total),
    CONSTRAINT valid_total CHECK (total > 0)
);

CREATE INDEX IF NOT EXISTS idx_quiz_attempts_learner ON quiz_attempts(learner_id);
CREATE INDEX IF NOT EXISTS idx_quiz_attempts_perfect ON quiz_attempts(learner_id) WHERE score = total;

-- XP ledger for auditing every credit.
CREATE TABLE IF NOT EXISTS xp_history (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    old_xp INTEGER NOT NULL,
    new_xp INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    reason VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_xp_history_learner ON xp_history(learner_id, created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS xp_history;
DROP TABLE IF EXISTS quiz_attempts;
DROP TABLE IF EXISTS completion_records;
DROP TABLE IF EXISTS learners;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create awarded achievements
-- Version: 002

-- Awarded achievements, append-only. The UNIQUE(learner_id, rule_id)
-- constraint is the exactly-once guarantee: concurrent evaluators both
-- try the insert, one wins, the other sees a conflict and backs off.
CREATE TABLE IF NOT EXISTS awarded_achievements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    rule_id VARCHAR(100) NOT NULL,
    name VARCHAR(200) NOT NULL,
    xp_bonus INTEGER NOT NULL DEFAULT 0,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(learner_id, rule_id)
);

CREATE INDEX IF NOT EXISTS idx_awarded_achievements_learner ON awarded_achievements(learner_id, awarded_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS awarded_achievements;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CTF
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create CTF challenges, solves and submission journal
-- Version: 003

CREATE TABLE IF NOT EXISTS ctf_challenges (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL UNIQUE,
    category VARCHAR(30) NOT NULL,
    difficulty VARCHAR(20) NOT NULL,
    points INTEGER NOT NULL,
    description TEXT NOT NULL,
    flag_hash TEXT NOT NULL,
    hints TEXT NOT NULL DEFAULT '',
    required_xp INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_points CHECK (points > 0),
    CONSTRAINT valid_required_xp CHECK (required_xp >= 0)
);

CREATE INDEX IF NOT EXISTS idx_ctf_challenges_required_xp ON ctf_challenges(required_xp ASC, id ASC);

-- One row per solved challenge per learner. The UNIQUE constraint makes
-- scoring first-correct-only: a repeat correct submission fails the
-- insert and earns nothing.
CREATE TABLE IF NOT EXISTS ctf_solves (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    challenge_id BIGINT NOT NULL REFERENCES ctf_challenges(id) ON DELETE CASCADE,
    points INTEGER NOT NULL,
    solved_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(learner_id, challenge_id)
);

CREATE INDEX IF NOT EXISTS idx_ctf_solves_learner ON ctf_solves(learner_id, solved_at DESC);

-- Full submission journal, correct and incorrect alike.
CREATE TABLE IF NOT EXISTS ctf_submissions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    challenge_id BIGINT NOT NULL REFERENCES ctf_challenges(id) ON DELETE CASCADE,
    correct BOOLEAN NOT NULL,
    points_awarded INTEGER NOT NULL DEFAULT 0,
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ctf_submissions_learner ON ctf_submissions(learner_id, submitted_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS ctf_submissions;
DROP TABLE IF EXISTS ctf_solves;
DROP TABLE IF EXISTS ctf_challenges;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create saved sessions
-- Version: 004

-- Saved resume points. At most one session per (learner, kind): saving
-- again overwrites payload and timestamp in place.
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    kind VARCHAR(20) NOT NULL,
    payload JSONB NOT NULL,
    saved_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(learner_id, kind),
    CONSTRAINT valid_kind CHECK (kind IN ('lesson', 'quiz', 'ctf', 'mission', 'multimedia'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_learner_saved ON sessions(learner_id, saved_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS sessions;
`

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_learners_and_ledger", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_awarded_achievements", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_ctf", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_sessions", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}
