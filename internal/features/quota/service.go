// Package quota — service.go содержит Tracker: единственное место, где
// «открывается» месяц для студента. Его вызывают и движок благодарностей
// (с ожиданием блокировки), и ежемесячный сброс (без ожидания).
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/features/ledger"
)

// Tracker управляет квотами и начальным пополнением месяца.
type Tracker struct {
	repo   *Repository        // Квоты
	ledger *ledger.Repository // Журнал (для записи MONTHLY_RESET)
}

// NewTracker создаёт трекер квот.
func NewTracker(repo *Repository, ledgerRepo *ledger.Repository) *Tracker {
	return &Tracker{repo: repo, ledger: ledgerRepo}
}

// EnsureMonth гарантирует, что у студента есть заблокированная строка квоты
// за bucket и запись MONTHLY_RESET в журнале за этот месяц.
//
// Политика блокировки:
//   - LockWait: ждём, пока другая транзакция отпустит строку
//   - LockSkip: не ждём, возвращаем ErrLockContended
func (t *Tracker) EnsureMonth(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, bucket time.Time, policy LockPolicy) (*Quota, error) {
	var (
		q   *Quota
		err error
	)
	if policy == LockSkip {
		q, err = t.repo.TryLock(ctx, tx, studentID, bucket)
	} else {
		q, err = t.repo.GetOrCreate(ctx, tx, studentID, bucket)
	}
	if err != nil {
		return nil, err
	}

	if _, err := t.EnsureMonthlyResetEntrySeeded(ctx, tx, studentID, bucket); err != nil {
		return nil, err
	}
	return q, nil
}

// EnsureMonthlyResetEntrySeeded добавляет MONTHLY_RESET +100 за bucket, если его ещё нет.
// Вызывать под блокировкой строки квоты: она сериализует проверку и вставку.
// Возвращает true, если запись была добавлена сейчас.
func (t *Tracker) EnsureMonthlyResetEntrySeeded(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, bucket time.Time) (bool, error) {
	has, err := t.ledger.HasEntry(ctx, tx, studentID, bucket, ledger.EventMonthlyReset)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	entry := &ledger.Entry{
		StudentID:    studentID,
		EventType:    ledger.EventMonthlyReset,
		CreditsDelta: ledger.MonthlyResetCredits,
		MonthBucket:  bucket,
	}
	if err := t.ledger.Append(ctx, tx, entry); err != nil {
		return false, fmt.Errorf("ошибка месячного пополнения: %w", err)
	}

	log.WithFields(log.Fields{
		"student_id": studentID,
		"month":      bucket.Format("2006-01"),
	}).Debug("Месячное пополнение записано")
	return true, nil
}
