// Package redemption — service.go содержит движок обменов.
package redemption

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/db/postgres"
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/students"
)

// MaxListLimit — максимальный размер страницы истории обменов.
const MaxListLimit = 100

// Service — движок обменов.
type Service struct {
	db       *pgxpool.Pool
	repo     *Repository
	students *students.Repository
	ledger   *ledger.Repository
	now      func() time.Time
}

// NewService создаёт движок обменов.
func NewService(db *pgxpool.Pool, repo *Repository, studentRepo *students.Repository, ledgerRepo *ledger.Repository) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		students: studentRepo,
		ledger:   ledgerRepo,
		now:      time.Now,
	}
}

// SetClock подменяет часы (для тестов).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Redeem обменивает кредиты на ваучер.
//
// Строка студента блокируется до конца транзакции, поэтому два параллельных
// обмена одного студента не могут оба пройти проверку баланса.
func (s *Service) Redeem(ctx context.Context, in RedeemInput) (*Receipt, error) {
	if err := CheckCredits(in.CreditsRedeemed); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	receipt := &Receipt{}
	err := postgres.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		// Шаг 1: студент существует, очередь обменов
		if _, err := s.students.LockForUpdate(ctx, tx, in.StudentID); err != nil {
			return err
		}

		// Шаг 2: баланс к обмену
		redeemable, err := s.ledger.BalanceOf(ctx, tx, in.StudentID, ledger.RedeemableEvents...)
		if err != nil {
			return err
		}
		if err := CheckRedeemable(redeemable, in.CreditsRedeemed); err != nil {
			return err
		}

		// Шаг 3: обмен и списание
		code := referenceCode(now)
		receipt.Redemption = Redemption{
			ID:              uuid.New(),
			StudentID:       in.StudentID,
			CreditsRedeemed: in.CreditsRedeemed,
			Status:          StatusIssued,
			ReferenceCode:   &code,
			FulfilledAt:     &now,
		}
		if err := s.repo.Insert(ctx, tx, &receipt.Redemption); err != nil {
			return err
		}

		entry := &ledger.Entry{
			StudentID:         in.StudentID,
			RelatedRedemption: &receipt.ID,
			EventType:         ledger.EventRedemption,
			CreditsDelta:      -in.CreditsRedeemed,
			MonthBucket:       common.MonthBucket(now),
		}
		if err := s.ledger.Append(ctx, tx, entry); err != nil {
			return err
		}

		receipt.AvailableBalance = redeemable - in.CreditsRedeemed
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"student_id": in.StudentID,
		"credits":    in.CreditsRedeemed,
		"voucher":    receipt.VoucherValue,
		"left":       receipt.AvailableBalance,
	}).Info("Кредиты обменяны на ваучер")
	return receipt, nil
}

// History возвращает обмены студента.
func (s *Service) History(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*Redemption, error) {
	if limit < 1 || limit > MaxListLimit || offset < 0 {
		return nil, common.RuleViolation(common.CodeInvalidPagination,
			"limit должен быть от 1 до %d, offset не может быть отрицательным.", MaxListLimit)
	}
	if _, err := s.students.Require(ctx, s.db, studentID); err != nil {
		return nil, err
	}
	return s.repo.ListByStudent(ctx, studentID, limit, offset)
}

// referenceCode — короткий код ваучера вида BST-202603-1A2B3C4D.
func referenceCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BST-%s-%s", now.Format("200601"), suffix)
}
