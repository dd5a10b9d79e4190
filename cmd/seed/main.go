// Package main - сидер базы данных Cyber Academy.
//
// Проверяет целостность встроенного каталога курсов и загружает набор
// CTF-заданий в PostgreSQL. Флаги хранятся в коде открытым текстом и
// хешируются bcrypt непосредственно перед записью: в базу попадает
// только хеш нормализованного флага.
//
// Сидер идемпотентен: имя задания уникально, повторный запуск не
// трогает уже загруженные записи.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cyber-academy/academy-engine/config"
	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/ctf"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/postgres"
	"github.com/cyber-academy/academy-engine/pkg/logger"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Default().With(logger.String("component", "seed"))

	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПРОВЕРКА КАТАЛОГА КУРСОВ
	// ─────────────────────────────────────────────────────────────────────────
	// Каталог живёт в коде и в базу не пишется; сидер лишь убеждается,
	// что граф собирается без дыр.
	graph, err := content.NewGraph(content.DefaultCatalog())
	if err != nil {
		return fmt.Errorf("content catalog is broken: %w", err)
	}
	log.Info("content catalog validated",
		logger.Int("courses", graph.CourseCount()),
		logger.Int("lessons", graph.LessonCount()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ И МИГРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАГРУЗКА CTF-ЗАДАНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	ctfRepo := postgres.NewCTFRepository(dbConn)

	seeded := 0
	for _, def := range ctf.DefaultChallenges() {
		hash, err := bcrypt.GenerateFromPassword(
			[]byte(ctf.NormalizeFlag(def.Flag)),
			bcrypt.DefaultCost,
		)
		if err != nil {
			return fmt.Errorf("failed to hash flag for %q: %w", def.Name, err)
		}

		challenge := &ctf.Challenge{
			Name:        def.Name,
			Category:    def.Category,
			Difficulty:  def.Difficulty,
			Points:      def.Points,
			Description: def.Description,
			FlagHash:    string(hash),
			Hints:       def.Hints,
			RequiredXP:  def.RequiredXP,
		}

		id, err := ctfRepo.AddChallenge(ctx, challenge)
		if err != nil {
			return fmt.Errorf("failed to seed challenge %q: %w", def.Name, err)
		}

		log.Info("challenge seeded",
			logger.Int64("id", id),
			logger.String("name", def.Name),
			logger.String("category", string(def.Category)),
			logger.Int("points", def.Points),
		)
		seeded++
	}

	log.Info("seed completed", logger.Int("challenges", seeded))
	return nil
}
