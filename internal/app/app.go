// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, движки, HTTP API,
// бота операторов и планировщик сброса.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/api"
	"serotonyl.ru/boostly/internal/bot"
	"serotonyl.ru/boostly/internal/config"
	"serotonyl.ru/boostly/internal/db/migrations"
	"serotonyl.ru/boostly/internal/db/postgres"
	"serotonyl.ru/boostly/internal/features/admin"
	"serotonyl.ru/boostly/internal/features/endorsement"
	"serotonyl.ru/boostly/internal/features/leaderboard"
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/monthlyreset"
	"serotonyl.ru/boostly/internal/features/quota"
	"serotonyl.ru/boostly/internal/features/recognition"
	"serotonyl.ru/boostly/internal/features/redemption"
	"serotonyl.ru/boostly/internal/features/students"
	"serotonyl.ru/boostly/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	cfg *config.Config

	DB    *pgxpool.Pool
	Redis *redis.Client // nil, если кэш выключен

	Students *students.Service
	Reset    *monthlyreset.Service

	Server    *api.Server     // nil, если HTTP выключен
	Bot       *bot.Bot        // nil, если бот выключен
	Scheduler *jobs.Scheduler // nil, если планировщик выключен
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := Migrate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, DB: pool}

	// === 2. Кэш рейтинга ===
	var cache leaderboard.Cache
	if cfg.RedisAddr != "" {
		rdb, err := leaderboard.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		cache = leaderboard.NewRedisCache(rdb, cfg.LeaderboardCacheTTL)
		log.WithField("addr", cfg.RedisAddr).Info("Кэш рейтинга: Redis")
	} else {
		log.Info("REDIS_ADDR не задан, рейтинг без кэша")
	}

	// === 3. Репозитории ===
	ledgerRepo := ledger.NewRepository(pool)
	quotaRepo := quota.NewRepository(pool)
	studentRepo := students.NewRepository(pool)
	recognitionRepo := recognition.NewRepository(pool)

	// === 4. Движки ===
	tracker := quota.NewTracker(quotaRepo, ledgerRepo)
	leaderboardService := leaderboard.NewService(leaderboard.NewRepository(pool), cache)
	a.Students = students.NewService(studentRepo, ledgerRepo, quotaRepo)
	recognitionService := recognition.NewService(pool, recognitionRepo, studentRepo, tracker, quotaRepo, ledgerRepo,
		recognition.WithCacheInvalidator(leaderboardService))
	endorsementService := endorsement.NewService(pool, endorsement.NewRepository(pool), recognitionRepo, studentRepo,
		leaderboardService)
	redemptionService := redemption.NewService(pool, redemption.NewRepository(pool), studentRepo, ledgerRepo)
	a.Reset = monthlyreset.NewService(pool, studentRepo, tracker, quotaRepo, ledgerRepo)

	// === 5. HTTP API ===
	if cfg.FeatureHTTPEnabled {
		router := api.NewRouter(cfg, pool,
			students.NewHandler(a.Students),
			recognition.NewHandler(recognitionService),
			endorsement.NewHandler(endorsementService),
			redemption.NewHandler(redemptionService),
			leaderboard.NewHandler(leaderboardService),
		)
		a.Server = api.NewServer(cfg, router)
	}

	// === 6. Бот операторов ===
	if cfg.BotEnabled() {
		botAPI, err := bot.NewAPI(cfg.TelegramBotToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
		}
		access := admin.NewService(admin.NewRepository(pool), cfg)
		commands := bot.NewCommands(leaderboardService, a.Students, access, a.Reset)
		a.Bot = bot.New(botAPI, cfg, commands)
	}

	// === 7. Планировщик сброса ===
	if cfg.FeatureSchedulerEnabled {
		a.Scheduler, err = jobs.NewScheduler(cfg, a.Reset, a.notifyAdmins)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// Migrate подключается к БД и применяет миграции. Пул остаётся открытым.
func Migrate(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool, migrations.All); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}
	return pool, nil
}

// Run запускает HTTP API, бота и планировщик и блокируется до отмены ctx.
// После отмены дожидается активных запросов в пределах HTTP_SHUTDOWN_TIMEOUT.
func (a *App) Run(ctx context.Context) error {
	var httpErr <-chan error
	if a.Server != nil {
		httpErr = a.Server.Start()
	}

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(ctx); err != nil {
			return err
		}
	}

	botDone := make(chan error, 1)
	if a.Bot != nil {
		go func() { botDone <- a.Bot.Start(ctx) }()
	} else {
		log.Info("Бот операторов выключен")
	}

	log.Info("=== Boostly готов к работе ===")

	var runErr error
wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case err, ok := <-httpErr:
			// Без HTTP API сервис бесполезен: останавливаемся и возвращаем ошибку
			if ok {
				runErr = fmt.Errorf("HTTP API: %w", err)
			}
			break wait
		case err := <-botDone:
			// Бот завершился сам: API и планировщик продолжают работать
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("Бот остановился с ошибкой")
			}
			botDone = nil
		}
	}

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Server != nil && runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("остановка HTTP API: %w", err)
		}
	}
	return runErr
}

// Close освобождает соединения с БД и Redis.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// notifyAdmins отправляет итог сброса админам, если бот включён.
func (a *App) notifyAdmins(text string) {
	if a.Bot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.Bot.NotifyAdmins(ctx, text)
}
