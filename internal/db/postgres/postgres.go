// Package postgres управляет подключением к базе данных PostgreSQL.
// Используется пул соединений pgxpool для эффективной работы
// с несколькими горутинами одновременно.
//
// Пул автоматически управляет открытием/закрытием соединений,
// переподключается при обрыве и ограничивает максимальное число соединений.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/config"
)

// Settings — параметры пула и сессии.
type Settings struct {
	MaxConns int32
	MinConns int32
	// lock_timeout для каждой сессии; 0 — ждать без ограничения
	LockTimeout time.Duration
	// search_path для каждой сессии; пусто — по умолчанию сервера
	SearchPath string
}

// NewPool создаёт новый пул соединений к PostgreSQL по конфигурации приложения.
//
// Пример:
//
//	pool, err := postgres.NewPool(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return Connect(ctx, cfg.DatabaseDSN(), Settings{
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		LockTimeout: cfg.DBLockTimeout,
	})
}

// Connect создаёт пул по DSN и проверяет, что база доступна.
func Connect(ctx context.Context, dsn string, s Settings) (*pgxpool.Pool, error) {
	// Парсим строку подключения и настраиваем пул
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройки пула соединений
	if s.MaxConns > 0 {
		poolConfig.MaxConns = s.MaxConns // Максимум соединений
	}
	poolConfig.MinConns = s.MinConns              // Минимум (держать открытыми)
	poolConfig.MaxConnLifetime = 1 * time.Hour    // Время жизни одного соединения
	poolConfig.MaxConnIdleTime = 30 * time.Minute // Время простоя до закрытия
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// Ожидание блокировок строк (квоты) ограничено: вместо вечного ожидания
	// транзакция получает ошибку 55P03 и откатывается
	if s.LockTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["lock_timeout"] = strconv.FormatInt(s.LockTimeout.Milliseconds(), 10)
	}
	if s.SearchPath != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = s.SearchPath
	}

	// Создаём пул с заданной конфигурацией
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	// Проверяем, что база доступна
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.WithFields(log.Fields{
		"max_conns":    poolConfig.MaxConns,
		"lock_timeout": s.LockTimeout,
	}).Info("Подключение к PostgreSQL установлено")
	return pool, nil
}

// Migration — одна версия схемы.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// RunMigrations создаёт таблицу schema_migrations и применяет миграции по порядку.
// Уже применённые версии пропускаются, каждая версия — в своей транзакции.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		applied, err := ExecMigrationSQL(ctx, pool, m.Version, m.SQL)
		if err != nil {
			return fmt.Errorf("миграция %d (%s): %w", m.Version, m.Name, err)
		}
		if applied {
			log.WithFields(log.Fields{"version": m.Version, "name": m.Name}).Info("Миграция применена")
		}
	}
	return nil
}
