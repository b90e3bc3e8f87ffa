// Package ledger — repository.go выполняет все операции с таблицей credit_ledger.
// Методы записи принимают транзакцию движка: запись в журнал всегда
// происходит вместе с изменением квоты/благодарности/обмена.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/boostly/internal/db/postgres"
)

// Repository предоставляет методы для работы с журналом кредитов.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий журнала.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись в журнал. Знак дельты проверяется до обращения к базе.
// Заполняет entry.ID и entry.CreatedAt.
func (r *Repository) Append(ctx context.Context, q postgres.Querier, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO credit_ledger
			(student_id, related_recognition, related_redemption, event_type, credits_delta, month_bucket)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ledger_entry_id, created_at
	`
	err := q.QueryRow(ctx, query,
		entry.StudentID, entry.RelatedRecognition, entry.RelatedRedemption,
		string(entry.EventType), entry.CreditsDelta, entry.MonthBucket,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал (%s): %w", entry.EventType, err)
	}
	return nil
}

// BalanceOf возвращает сумму дельт студента. Если типы не заданы — по всем событиям.
// Нет записей — 0.
func (r *Repository) BalanceOf(ctx context.Context, q postgres.Querier, studentID uuid.UUID, kinds ...EventType) (int, error) {
	query := `
		SELECT COALESCE(SUM(credits_delta), 0)
		FROM credit_ledger
		WHERE student_id = $1
		  AND ($2::text[] IS NULL OR event_type = ANY($2))
	`
	var sum int
	if err := q.QueryRow(ctx, query, studentID, kindStrings(kinds)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта баланса: %w", err)
	}
	return sum, nil
}

// SumForMonth — то же, что BalanceOf, но только по одной месячной корзине.
func (r *Repository) SumForMonth(ctx context.Context, q postgres.Querier, studentID uuid.UUID, bucket time.Time, kinds ...EventType) (int, error) {
	query := `
		SELECT COALESCE(SUM(credits_delta), 0)
		FROM credit_ledger
		WHERE student_id = $1
		  AND month_bucket = $2
		  AND ($3::text[] IS NULL OR event_type = ANY($3))
	`
	var sum int
	if err := q.QueryRow(ctx, query, studentID, bucket, kindStrings(kinds)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта суммы за месяц: %w", err)
	}
	return sum, nil
}

// HasEntry проверяет, есть ли у студента запись данного типа в корзине.
func (r *Repository) HasEntry(ctx context.Context, q postgres.Querier, studentID uuid.UUID, bucket time.Time, kind EventType) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM credit_ledger
			WHERE student_id = $1 AND month_bucket = $2 AND event_type = $3
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, studentID, bucket, string(kind)).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки записи журнала: %w", err)
	}
	return exists, nil
}

// Balances возвращает общий и доступный к обмену балансы (чтение вне транзакции).
func (r *Repository) Balances(ctx context.Context, studentID uuid.UUID) (*Balances, error) {
	total, err := r.BalanceOf(ctx, r.db, studentID)
	if err != nil {
		return nil, err
	}
	redeemable, err := r.BalanceOf(ctx, r.db, studentID, RedeemableEvents...)
	if err != nil {
		return nil, err
	}
	return &Balances{Total: total, Redeemable: redeemable}, nil
}

// History возвращает последние limit записей студента, новые первыми.
func (r *Repository) History(ctx context.Context, studentID uuid.UUID, limit int) ([]*Entry, error) {
	query := `
		SELECT ledger_entry_id, student_id, related_recognition, related_redemption,
		       event_type, credits_delta, month_bucket, created_at
		FROM credit_ledger
		WHERE student_id = $1
		ORDER BY created_at DESC, ledger_entry_id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var kind string
		err := rows.Scan(
			&e.ID, &e.StudentID, &e.RelatedRecognition, &e.RelatedRedemption,
			&kind, &e.CreditsDelta, &e.MonthBucket, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		e.EventType = EventType(kind)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// kindStrings превращает типы в []string; пустой список — nil (в SQL это NULL, «без фильтра»).
func kindStrings(kinds []EventType) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
