// Package ctf содержит доменную модель CTF-заданий: задания с эталонными
// флагами, журнал попыток и таблицу лидеров по очкам. Очки начисляются
// ровно один раз - за первое верное решение каждого задания.
package ctf

import (
	"strings"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORIES & DIFFICULTY
// ══════════════════════════════════════════════════════════════════════════════

// Category - категория задания.
type Category string

const (
	CategoryWeb     Category = "web"
	CategoryCrypto  Category = "crypto"
	CategoryForens  Category = "forensics"
	CategoryReverse Category = "reverse"
	CategoryPwn     Category = "pwn"
	CategoryOSINT   Category = "osint"
	CategoryStego   Category = "steganography"
	CategoryNetwork Category = "network"
)

// Difficulty - сложность задания.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	DifficultyExpert Difficulty = "Expert"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE
// ══════════════════════════════════════════════════════════════════════════════

// Challenge - CTF-задание. Эталонный флаг хранится только как bcrypt-хеш:
// утечка базы не раскрывает флаги.
type Challenge struct {
	// ID - идентификатор задания.
	ID int64

	// Name - название.
	Name string

	// Category - категория.
	Category Category

	// Difficulty - сложность.
	Difficulty Difficulty

	// Points - очки за первое верное решение.
	Points int

	// Description - условие задания.
	Description string

	// FlagHash - bcrypt-хеш нормализованного эталонного флага.
	FlagHash string

	// Hints - подсказка.
	Hints string

	// RequiredXP - минимальный XP для доступа к заданию.
	RequiredXP int

	// CreatedAt - время добавления.
	CreatedAt time.Time
}

// AvailableFor проверяет, открыто ли задание для ученика с данным XP.
func (c *Challenge) AvailableFor(xp int) bool {
	return xp >= c.RequiredXP
}

// NormalizeFlag приводит присланный флаг к каноническому виду перед
// сравнением: обрезаются только крайние пробелы, регистр сохраняется.
func NormalizeFlag(flag string) string {
	return strings.TrimSpace(flag)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

// Submission - одна попытка сдачи флага. Журнал попыток append-only:
// хранятся и верные, и неверные попытки.
type Submission struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// LearnerID - кто сдавал.
	LearnerID learner.ID

	// ChallengeID - какое задание.
	ChallengeID int64

	// Correct - верна ли попытка.
	Correct bool

	// PointsAwarded - начисленные очки (> 0 только у первой верной
	// попытки по заданию).
	PointsAwarded int

	// SubmittedAt - время попытки.
	SubmittedAt time.Time
}

// SubmissionResult - результат операции сдачи флага.
type SubmissionResult struct {
	// Correct - совпал ли флаг с эталоном.
	Correct bool

	// FirstSolve - true, если это первое верное решение задания
	// этим учеником. Только тогда начисляются очки и XP.
	FirstSolve bool

	// PointsAwarded - начисленные очки (0, если не FirstSolve).
	PointsAwarded int

	// TotalSolves - сколько заданий ученик решил после этой попытки.
	TotalSolves int
}

// SolveRecord - решённое задание в выдаче прогресса ученика.
type SolveRecord struct {
	ChallengeID int64
	Name        string
	Category    Category
	Points      int
	SolvedAt    time.Time
}

// Progress - прогресс ученика по CTF: решённые и доступные задания.
type Progress struct {
	// Solved - решённые задания, свежие первыми.
	Solved []SolveRecord

	// TotalPoints - сумма очков за решённые задания.
	TotalPoints int

	// Available - открытые, но ещё не решённые задания.
	Available []*Challenge

	// Locked - задания, до которых не хватает XP.
	Locked []*Challenge
}

// LeaderboardRow - строка таблицы лидеров CTF.
// Порядок детерминирован: points DESC, solves DESC, learner_id ASC.
type LeaderboardRow struct {
	Rank        int
	LearnerID   learner.ID
	DisplayName string
	Points      int
	Solves      int
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT CHALLENGE SET
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeDef - декларативное определение задания для сидера.
// Flag хранится открытым текстом только здесь: сидер хеширует его
// перед записью в базу.
type ChallengeDef struct {
	Name        string
	Category    Category
	Difficulty  Difficulty
	Points      int
	Description string
	Flag        string
	Hints       string
	RequiredXP  int
}

// DefaultChallenges возвращает встроенный набор заданий академии.
func DefaultChallenges() []ChallengeDef {
	return []ChallengeDef{
		{
			Name:        "Basic Base64",
			Category:    CategoryCrypto,
			Difficulty:  DifficultyEasy,
			Points:      100,
			Description: "Decode this Base64 string: `Q3liZXJTZWN1cml0eUJvdA==`",
			Flag:        "CyberSecurityBot",
			Hints:       "Base64 is a common encoding method. Try using an online decoder or command line tools.",
			RequiredXP:  500,
		},
		{
			Name:        "Caesar's Secret",
			Category:    CategoryCrypto,
			Difficulty:  DifficultyEasy,
			Points:      150,
			Description: "Julius Caesar used this cipher: `FBOHU{FDHVDU_FLSKHU_LV_HDV}`",
			Flag:        "CYBER{CAESAR_CIPHER_IS_EAS}",
			Hints:       "Caesar cipher shifts letters by a fixed number. Try different shift values.",
			RequiredXP:  750,
		},
		{
			Name:        "Hidden in Plain Sight",
			Category:    CategoryStego,
			Difficulty:  DifficultyMedium,
			Points:      200,
			Description: "Look carefully at this text: `The flag is hidden in Every Very Easy Riddle You Tackle Here In New Games`",
			Flag:        "EVERYTHING",
			Hints:       "Sometimes the answer is in the first letter of each word.",
			RequiredXP:  1000,
		},
		{
			Name:        "SQL Injection Basics",
			Category:    CategoryWeb,
			Difficulty:  DifficultyMedium,
			Points:      250,
			Description: "What SQL injection payload would bypass this login? `SELECT * FROM users WHERE username='$input' AND password='$pass'`",
			Flag:        "' OR '1'='1",
			Hints:       "Think about how to make the WHERE clause always true.",
			RequiredXP:  1200,
		},
		{
			Name:        "Network Detective",
			Category:    CategoryNetwork,
			Difficulty:  DifficultyMedium,
			Points:      300,
			Description: "What port is commonly used for HTTPS traffic?",
			Flag:        "443",
			Hints:       "HTTP uses port 80, but what about its secure version?",
			RequiredXP:  800,
		},
		{
			Name:        "Hash Cracker",
			Category:    CategoryCrypto,
			Difficulty:  DifficultyHard,
			Points:      400,
			Description: "Crack this MD5 hash: `5d41402abc4b2a76b9719d911017c592`",
			Flag:        "hello",
			Hints:       "This is a common word. Try a dictionary attack or online hash crackers.",
			RequiredXP:  1500,
		},
		{
			Name:        "OSINT Investigation",
			Category:    CategoryOSINT,
			Difficulty:  DifficultyHard,
			Points:      500,
			Description: "What is the most common password used in data breaches according to security reports?",
			Flag:        "123456",
			Hints:       "Look up recent security reports about the most common passwords.",
			RequiredXP:  2000,
		},
		{
			Name:        "Binary Puzzle",
			Category:    CategoryReverse,
			Difficulty:  DifficultyExpert,
			Points:      600,
			Description: "Convert this binary to ASCII: `01000011 01011001 01000010 01000101 01010010`",
			Flag:        "CYBER",
			Hints:       "Each 8-bit binary number represents one ASCII character.",
			RequiredXP:  2500,
		},
	}
}
