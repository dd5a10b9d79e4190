// Package main - точка входа движка Cyber Academy.
//
// Движок ведёт прогресс учеников академии: XP и уровни, достижения,
// CTF-задания и точки паузы (session resume). Чат-слой (бот сообщества)
// живёт отдельно и обращается к движку через команды и запросы
// application-слоя.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: PostgreSQL, Redis, event bus, планировщик
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Application layer
	"github.com/cyber-academy/academy-engine/internal/application"
	"github.com/cyber-academy/academy-engine/internal/application/eventhandler"
	"github.com/cyber-academy/academy-engine/internal/application/query"
	"github.com/cyber-academy/academy-engine/internal/application/saga"

	// Domain layer
	"github.com/cyber-academy/academy-engine/internal/domain/content"
	"github.com/cyber-academy/academy-engine/internal/domain/shared"

	// Infrastructure layer
	"github.com/cyber-academy/academy-engine/internal/infrastructure/messaging"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/postgres"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/persistence/redis"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/scheduler"
	"github.com/cyber-academy/academy-engine/internal/infrastructure/scheduler/jobs"

	// Packages
	"github.com/cyber-academy/academy-engine/config"
	"github.com/cyber-academy/academy-engine/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Cyber Academy engine",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.MigrateOnStart {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			log.Warn("failed to get migration status", "error", err)
		} else {
			appliedCount := 0
			for _, m := range status {
				if m.IsApplied {
					appliedCount++
				}
			}
			log.Info("migrations completed", "applied", appliedCount, "total", len(status))
		}
	} else {
		log.Info("migrations skipped", "reason", "DB_MIGRATE_ON_START=false")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var learnerCache *redis.LearnerCache
	var leaderboardCache *redis.LeaderboardCache
	var cacheBreaker *circuitbreaker.CircuitBreaker

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Движок полностью работоспособен без Redis: все чтения
			// уходят напрямую в PostgreSQL.
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer func() {
				log.Info("closing Redis connection...")
				_ = redisCache.Close()
			}()
			learnerCache = redis.NewLearnerCache(redisCache)
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			cacheBreaker = circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			})
			log.Info("Redis connection established")
		}
	} else {
		log.Info("Redis disabled, reading straight from PostgreSQL")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ЗАГРУЗКА ГРАФА КОНТЕНТА
	// ─────────────────────────────────────────────────────────────────────────
	graph, err := content.NewGraph(content.DefaultCatalog())
	if err != nil {
		return fmt.Errorf("failed to build content graph: %w", err)
	}
	log.Info("content graph loaded",
		"courses", graph.CourseCount(),
		"lessons", graph.LessonCount(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	ctfRepo := postgres.NewCTFRepository(dbConn)
	sessionRepo := postgres.NewSessionRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = cfg.EventBus.AsyncMode
	eventBusConfig.WorkerPoolSize = cfg.EventBus.WorkerPoolSize
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.HandlerTimeout = cfg.EventBus.HandlerTimeout
	dispatcherConfig.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherConfig)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	achievementEngine := saga.NewAchievementEngine(learnerRepo, achievementRepo, eventBus, log)

	// Фасад для чат-слоя: бот сообщества получает Engine и транслирует
	// команды пользователей в вызовы движка.
	engine := application.NewEngine(application.Deps{
		Learners:     learnerRepo,
		Achievements: achievementRepo,
		CTF:          ctfRepo,
		Sessions:     sessionRepo,

		Graph:     graph,
		Publisher: eventBus,

		LearnerCache:     learnerCache,
		LeaderboardCache: leaderboardCache,
		CacheBreaker:     cacheBreaker,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 10. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	evaluator := eventhandler.NewAchievementEvaluator(achievementEngine)
	for _, eventType := range evaluator.EventTypes() {
		if err := dispatcher.Register(eventType, evaluator); err != nil {
			return fmt.Errorf("failed to register achievement evaluator: %w", err)
		}
	}

	if learnerCache != nil || leaderboardCache != nil {
		invalidator := eventhandler.NewCacheInvalidator(learnerCache, leaderboardCache, log)
		for _, eventType := range invalidator.EventTypes() {
			if err := dispatcher.Register(eventType, invalidator); err != nil {
				return fmt.Errorf("failed to register cache invalidator: %w", err)
			}
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ИНИЦИАЛИЗАЦИЯ ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler

	if cfg.Scheduler.Enabled && leaderboardCache != nil {
		log.Info("initializing scheduler...")

		schedConfig := scheduler.DefaultConfig()
		schedConfig.Logger = log
		sched = scheduler.New(schedConfig)

		rebuildConfig := jobs.DefaultRebuildLeaderboardConfig()
		rebuildConfig.Timeout = cfg.Scheduler.JobTimeout
		rebuildJob := jobs.NewRebuildLeaderboardJob(
			learnerRepo,
			ctfRepo,
			leaderboardCache,
			eventBus,
			log,
			rebuildConfig,
		)

		schedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)
		if err := sched.Register(rebuildJob, schedule); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started",
			"job", rebuildJob.Name(),
			"interval", schedule.String(),
		)
	} else {
		log.Info("scheduler disabled",
			"enabled", cfg.Scheduler.Enabled,
			"leaderboard_cache", leaderboardCache != nil,
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ПРОГРЕВ КЭША
	// ─────────────────────────────────────────────────────────────────────────
	// Первый запрос чат-слоя не должен упираться в холодный снапшот:
	// прогоняем оба лидерборда через фасад, промах сам перестроит кэш.
	if leaderboardCache != nil {
		if _, err := engine.Leaderboard.Handle(ctx, query.GetLeaderboardQuery{}); err != nil {
			log.Warn("xp leaderboard warmup failed", "error", err)
		}
		if _, err := engine.CTFLeaderboard.Handle(ctx, query.GetCTFLeaderboardQuery{}); err != nil {
			log.Warn("ctf leaderboard warmup failed", "error", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Cyber Academy engine is running")

	// Ожидаем сигнал завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("root context cancelled")
	}

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if sched != nil {
		log.Info("stopping scheduler...")
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler gracefully", "error", err)
		}
	}

	// Event bus и база данных закроются через defer

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// Убеждаемся на этапе компиляции, что bus реализует интерфейс publisher.
var _ shared.EventPublisher = (*messaging.InMemoryEventBus)(nil)
