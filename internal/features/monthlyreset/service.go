// Package monthlyreset выполняет ежемесячный сброс квот с переносом остатка.
//
// Каждый студент обрабатывается в своей транзакции:
//  1. Квота текущего месяца блокируется без ожидания (занята — студент пропускается)
//  2. Если сброс за этот месяц уже был — пропуск
//  3. Неиспользованный остаток прошлого месяца = пополнение + перенос − отправленное (не меньше 0)
//  4. Перенос = min(остаток, 50), остальное сгорает
//  5. Квота прошлого месяца помечается, текущая получает новый лимит
//  6. В журнал: MONTHLY_RESET +100 (если нет), CARRY_FORWARD_EXPIRED −остаток, CARRY_FORWARD +перенос
//
// Ошибка одного студента откатывает только его транзакцию.
package monthlyreset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/db/postgres"
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/quota"
	"serotonyl.ru/boostly/internal/features/students"
)

// Summary — итоги одного прогона.
type Summary struct {
	Month             time.Time `json:"month"`
	StudentsProcessed int       `json:"students_processed"`
	CarryForwardTotal int       `json:"carry_forward_total"`
	ExpiredTotal      int       `json:"expired_total"`
	AlreadyReset      int       `json:"already_reset"` // Сброс за месяц уже был
	Skipped           int       `json:"skipped"`       // Строка квоты занята, повторим позже
	Failed            int       `json:"failed"`
}

// String форматирует итоги для логов и сообщений админам.
func (s *Summary) String() string {
	text := fmt.Sprintf("Сброс за %s: обработано %d %s, перенесено %s, сгорело %s.",
		common.FormatMonth(s.Month),
		s.StudentsProcessed, common.PluralizeStudents(s.StudentsProcessed),
		common.FormatCredits(s.CarryForwardTotal),
		common.FormatCredits(s.ExpiredTotal))
	if s.AlreadyReset > 0 {
		text += fmt.Sprintf(" Уже сброшены ранее: %d.", s.AlreadyReset)
	}
	if s.Skipped > 0 {
		text += fmt.Sprintf(" Пропущено (заняты): %d.", s.Skipped)
	}
	if s.Failed > 0 {
		text += fmt.Sprintf(" Ошибок: %d.", s.Failed)
	}
	return text
}

// outcome — результат для одного студента.
type outcome struct {
	alreadyReset bool
	carry        int
	expired      int
}

// Service — ежемесячный сброс.
type Service struct {
	db       *pgxpool.Pool
	students *students.Repository
	tracker  *quota.Tracker
	quotas   *quota.Repository
	ledger   *ledger.Repository
}

// NewService создаёт сервис сброса.
func NewService(db *pgxpool.Pool, studentRepo *students.Repository, tracker *quota.Tracker,
	quotaRepo *quota.Repository, ledgerRepo *ledger.Repository) *Service {
	return &Service{
		db:       db,
		students: studentRepo,
		tracker:  tracker,
		quotas:   quotaRepo,
		ledger:   ledgerRepo,
	}
}

// Run выполняет сброс для месяца, в который попадает now.
// Повторный запуск в том же месяце ничего не меняет.
// Ошибки отдельных студентов собираются и возвращаются вместе после обхода.
func (s *Service) Run(ctx context.Context, now time.Time) (*Summary, error) {
	now = now.UTC()
	bucket := common.MonthBucket(now)
	summary := &Summary{Month: bucket}

	ids, err := s.students.ListIDs(ctx)
	if err != nil {
		return summary, err
	}

	log.WithFields(log.Fields{
		"month":    common.FormatMonth(bucket),
		"students": len(ids),
	}).Info("Запуск ежемесячного сброса")

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var res outcome
		err := postgres.WithTx(ctx, s.db, func(tx pgx.Tx) error {
			var err error
			res, err = s.resetStudent(ctx, tx, id, bucket, now)
			return err
		})

		switch {
		case errors.Is(err, quota.ErrLockContended):
			summary.Skipped++
			log.WithField("student_id", id).Debug("Квота занята, студент пропущен")
		case err != nil:
			summary.Failed++
			errs = append(errs, fmt.Errorf("студент %s: %w", id, err))
			log.WithError(err).WithField("student_id", id).Error("Ошибка сброса студента")
		case res.alreadyReset:
			summary.AlreadyReset++
		default:
			summary.StudentsProcessed++
			summary.CarryForwardTotal += res.carry
			summary.ExpiredTotal += res.expired
		}
	}

	log.WithFields(log.Fields{
		"month":     common.FormatMonth(bucket),
		"processed": summary.StudentsProcessed,
		"carry":     summary.CarryForwardTotal,
		"expired":   summary.ExpiredTotal,
		"already":   summary.AlreadyReset,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Ежемесячный сброс завершён")

	return summary, errors.Join(errs...)
}

func (s *Service) resetStudent(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, bucket, now time.Time) (outcome, error) {
	// Шаг 1: квота текущего месяца без ожидания блокировки
	q, err := s.tracker.EnsureMonth(ctx, tx, studentID, bucket, quota.LockSkip)
	if err != nil {
		return outcome{}, err
	}

	// Шаг 2: идемпотентность
	if q.ResetDone(bucket) {
		return outcome{alreadyReset: true}, nil
	}

	// Шаг 3: неиспользованный остаток прошлого месяца
	prev := common.PreviousMonthBucket(bucket)
	unused, err := s.ledger.SumForMonth(ctx, tx, studentID, prev, ledger.UnusedAllowanceEvents...)
	if err != nil {
		return outcome{}, err
	}
	if unused < 0 {
		unused = 0
	}
	carry, expired := quota.CarryForward(unused)

	// Шаг 4: квоты
	if _, err := s.quotas.MarkCarryForwardApplied(ctx, tx, studentID, prev); err != nil {
		return outcome{}, err
	}
	if err := s.quotas.ApplyReset(ctx, tx, q.ID, carry, now); err != nil {
		return outcome{}, err
	}

	// Шаг 5: журнал. Сначала списывается весь остаток, потом возвращается перенос.
	if unused > 0 {
		err := s.ledger.Append(ctx, tx, &ledger.Entry{
			StudentID:    studentID,
			EventType:    ledger.EventCarryForwardExpired,
			CreditsDelta: -unused,
			MonthBucket:  bucket,
		})
		if err != nil {
			return outcome{}, err
		}
	}
	if carry > 0 {
		err := s.ledger.Append(ctx, tx, &ledger.Entry{
			StudentID:    studentID,
			EventType:    ledger.EventCarryForward,
			CreditsDelta: carry,
			MonthBucket:  bucket,
		})
		if err != nil {
			return outcome{}, err
		}
	}

	return outcome{carry: carry, expired: expired}, nil
}
