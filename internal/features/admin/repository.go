// Package admin — repository.go работает с таблицами admin_sessions и admin_login_attempts.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository работает с админ-таблицами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession создаёт сессию. Предыдущие сессии пользователя гасятся в той же транзакции.
func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE admin_sessions SET is_active = FALSE WHERE telegram_user_id = $1 AND is_active`, s.UserID)
	if err != nil {
		return fmt.Errorf("ошибка закрытия старых сессий: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO admin_sessions (telegram_user_id, session_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, authenticated_at, last_activity
	`, s.UserID, s.Token, s.ExpiresAt).Scan(&s.ID, &s.AuthenticatedAt, &s.LastActivity)
	if err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}

	return tx.Commit(ctx)
}

// ActiveSession возвращает действующую на момент now сессию. Нет — (nil, nil).
func (r *Repository) ActiveSession(ctx context.Context, userID int64, now time.Time) (*Session, error) {
	query := `
		SELECT id, telegram_user_id, session_token, authenticated_at, expires_at, last_activity
		FROM admin_sessions
		WHERE telegram_user_id = $1 AND is_active AND expires_at > $2
		ORDER BY authenticated_at DESC
		LIMIT 1
	`
	var s Session
	err := r.db.QueryRow(ctx, query, userID, now).Scan(
		&s.ID, &s.UserID, &s.Token, &s.AuthenticatedAt, &s.ExpiresAt, &s.LastActivity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сессии: %w", err)
	}
	return &s, nil
}

// DeactivateSessions закрывает все сессии пользователя.
func (r *Repository) DeactivateSessions(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_sessions SET is_active = FALSE WHERE telegram_user_id = $1 AND is_active`, userID)
	if err != nil {
		return fmt.Errorf("ошибка закрытия сессии: %w", err)
	}
	return nil
}

// TouchSession обновляет время последней активности.
func (r *Repository) TouchSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_sessions SET last_activity = NOW() WHERE telegram_user_id = $1 AND is_active`, userID)
	return err
}

// LogAttempt записывает попытку входа.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	_, err := r.db.Exec(ctx, `INSERT INTO admin_login_attempts (telegram_user_id, success) VALUES ($1, $2)`, userID, success)
	if err != nil {
		return fmt.Errorf("ошибка записи попытки входа: %w", err)
	}
	return nil
}

// FailedAttemptsSince возвращает число неудачных попыток начиная с since.
func (r *Repository) FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE telegram_user_id = $1 AND NOT success AND attempt_time >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта попыток входа: %w", err)
	}
	return count, nil
}
