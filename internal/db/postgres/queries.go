// Package postgres — queries.go содержит общие утилиты для выполнения запросов:
// интерфейс Querier, транзакционную обёртку и разбор ошибок PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE-коды, которые мы различаем.
const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
)

// Querier — то общее, что есть у *pgxpool.Pool и pgx.Tx.
// Репозитории принимают его, чтобы одни и те же запросы работали
// и внутри транзакции движка, и как самостоятельное чтение.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// WithTx выполняет fn в транзакции. Если fn вернула ошибку — транзакция откатывается.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так (после Commit это no-op)
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// IsUniqueViolation — ошибка нарушения уникального ограничения.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsLockTimeout — истёк lock_timeout при ожидании блокировки.
func IsLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeLockNotAvailable
}

// ExecMigrationSQL выполняет один SQL-запрос миграции в транзакции.
// Если запрос упадёт — транзакция откатится автоматически.
// Возвращает true, если миграция была применена сейчас.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (bool, error) {
	applied := false
	err := WithTx(ctx, pool, func(tx pgx.Tx) error {
		// Проверяем, не была ли эта миграция уже применена
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("ошибка проверки миграции: %w", err)
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
		}

		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)", version,
		); err != nil {
			return fmt.Errorf("ошибка записи версии миграции: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}
