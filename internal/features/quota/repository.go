// Package quota — repository.go работает с таблицей monthly_quota.
// Все методы записи вызываются внутри транзакции движка и блокируют строку
// квоты, чтобы параллельные отправки одного студента шли по очереди.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/boostly/internal/db/postgres"
)

const quotaColumns = `id, student_id, month_bucket, credits_sent, send_limit,
	carry_forward_applied, carry_forward_credits, reset_at, created_at, updated_at`

// Repository предоставляет методы для работы с квотами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий квот.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrCreate возвращает строку квоты, заблокированную FOR UPDATE.
// Если строки нет — создаёт. Параллельные первые обращения не создают дубликат:
// INSERT ... ON CONFLICT DO NOTHING, затем блокирующий SELECT.
func (r *Repository) GetOrCreate(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, bucket time.Time) (*Quota, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO monthly_quota (student_id, month_bucket, send_limit)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, month_bucket) DO NOTHING
	`, studentID, bucket, SendLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания квоты: %w", err)
	}

	row := tx.QueryRow(ctx, `
		SELECT `+quotaColumns+`
		FROM monthly_quota
		WHERE student_id = $1 AND month_bucket = $2
		FOR UPDATE
	`, studentID, bucket)
	q, err := scanQuota(row)
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки квоты: %w", err)
	}
	return q, nil
}

// TryLock блокирует строку квоты без ожидания (SKIP LOCKED).
// Если строку держит другая транзакция — ErrLockContended.
// Если строки нет — создаёт её (новая строка заблокирована нашей вставкой).
// Незакоммиченная вставка той же строки другой транзакцией заставит подождать
// её завершения (в пределах lock_timeout), после чего вернётся ErrLockContended.
func (r *Repository) TryLock(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, bucket time.Time) (*Quota, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+quotaColumns+`
		FROM monthly_quota
		WHERE student_id = $1 AND month_bucket = $2
		FOR UPDATE SKIP LOCKED
	`, studentID, bucket)
	q, err := scanQuota(row)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ошибка блокировки квоты: %w", err)
	}

	// Пусто: либо строки нет, либо она занята
	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM monthly_quota WHERE student_id = $1 AND month_bucket = $2)
	`, studentID, bucket).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки квоты: %w", err)
	}
	if exists {
		return nil, ErrLockContended
	}

	row = tx.QueryRow(ctx, `
		INSERT INTO monthly_quota (student_id, month_bucket, send_limit)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, month_bucket) DO NOTHING
		RETURNING `+quotaColumns,
		studentID, bucket, SendLimit)
	q, err = scanQuota(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Кто-то успел создать строку между проверкой и вставкой
		return nil, ErrLockContended
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка создания квоты: %w", err)
	}
	return q, nil
}

// Get возвращает квоту без блокировки. Нет строки — (nil, nil).
func (r *Repository) Get(ctx context.Context, q postgres.Querier, studentID uuid.UUID, bucket time.Time) (*Quota, error) {
	row := q.QueryRow(ctx, `
		SELECT `+quotaColumns+`
		FROM monthly_quota
		WHERE student_id = $1 AND month_bucket = $2
	`, studentID, bucket)
	quota, err := scanQuota(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения квоты: %w", err)
	}
	return quota, nil
}

// AddSent увеличивает credits_sent. Строка должна быть уже заблокирована.
func (r *Repository) AddSent(ctx context.Context, tx pgx.Tx, quotaID int64, credits int) error {
	_, err := tx.Exec(ctx, `
		UPDATE monthly_quota
		SET credits_sent = credits_sent + $2, updated_at = NOW()
		WHERE id = $1
	`, quotaID, credits)
	if err != nil {
		return fmt.Errorf("ошибка обновления квоты: %w", err)
	}
	return nil
}

// MarkCarryForwardApplied помечает квоту прошлого месяца как обработанную сбросом.
// Занятая строка пропускается (SKIP LOCKED). Возвращает true, если строка обновлена.
func (r *Repository) MarkCarryForwardApplied(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, bucket time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE monthly_quota
		SET carry_forward_applied = TRUE, updated_at = NOW()
		WHERE id = (
			SELECT id FROM monthly_quota
			WHERE student_id = $1 AND month_bucket = $2
			FOR UPDATE SKIP LOCKED
		)
	`, studentID, bucket)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки переноса: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyReset записывает в квоту текущего месяца результат сброса.
// Лимит отправки начинается заново: credits_sent обнуляется.
func (r *Repository) ApplyReset(ctx context.Context, tx pgx.Tx, quotaID int64, carry int, resetAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE monthly_quota
		SET send_limit = $2,
		    credits_sent = 0,
		    carry_forward_credits = $3,
		    carry_forward_applied = $4,
		    reset_at = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, quotaID, SendLimit, carry, carry > 0, resetAt)
	if err != nil {
		return fmt.Errorf("ошибка применения сброса к квоте: %w", err)
	}
	return nil
}

func scanQuota(row pgx.Row) (*Quota, error) {
	var q Quota
	err := row.Scan(
		&q.ID, &q.StudentID, &q.MonthBucket, &q.CreditsSent, &q.SendLimit,
		&q.CarryForwardApplied, &q.CarryForwardCredits, &q.ResetAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
