// Package recognition — service.go содержит движок благодарностей.
//
// Одна благодарность = одна транзакция:
//  1. Проверка входных данных (самому себе, диапазон кредитов, длина сообщения)
//  2. Проверка, что оба студента существуют
//  3. Открытие месяца для обоих (блокировка квот в порядке возрастания ID)
//  4. Проверка месячного лимита отправителя
//  5. Проверка баланса отправителя
//  6. Запись благодарности и двух записей журнала, обновление квоты
//
// Все проверки идут до записей, любая ошибка откатывает транзакцию целиком.
package recognition

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/quota"
	"serotonyl.ru/boostly/internal/features/students"
)

// CacheInvalidator сбрасывает кэши, зависящие от благодарностей (лидерборд).
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service — движок благодарностей.
type Service struct {
	db       *pgxpool.Pool
	repo     *Repository
	students *students.Repository
	tracker  *quota.Tracker
	quotas   *quota.Repository
	ledger   *ledger.Repository
	cache    CacheInvalidator // может быть nil
	now      func() time.Time
}

// Option настраивает сервис.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCacheInvalidator подключает сброс кэша после успешной благодарности.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

// NewService создаёт движок благодарностей.
func NewService(
	db *pgxpool.Pool,
	repo *Repository,
	studentRepo *students.Repository,
	tracker *quota.Tracker,
	quotaRepo *quota.Repository,
	ledgerRepo *ledger.Repository,
	opts ...Option,
) *Service {
	s := &Service{
		db:       db,
		repo:     repo,
		students: studentRepo,
		tracker:  tracker,
		quotas:   quotaRepo,
		ledger:   ledgerRepo,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create создаёт благодарность и переводит кредиты.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Recognition, error) {
	// Шаг 1: входные данные
	message, err := ValidateInput(in)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Шаг 2: оба участника существуют
	if _, err := s.students.Require(ctx, tx, in.SenderID); err != nil {
		return nil, err
	}
	if _, err := s.students.Require(ctx, tx, in.ReceiverID); err != nil {
		return nil, err
	}

	// Шаг 3: открываем месяц для обоих. Порядок блокировок фиксирован,
	// иначе встречные благодарности A→B и B→A могут взаимно заблокироваться
	bucket := common.MonthBucket(s.now())
	var senderQuota *quota.Quota
	for _, id := range lockOrder(in.SenderID, in.ReceiverID) {
		q, err := s.tracker.EnsureMonth(ctx, tx, id, bucket, quota.LockWait)
		if err != nil {
			return nil, err
		}
		if id == in.SenderID {
			senderQuota = q
		}
	}

	// Шаг 4: месячный лимит
	if err := CheckAllowance(senderQuota, in.Credits); err != nil {
		return nil, err
	}

	// Шаг 5: баланс (по всему журналу, без фильтра по типам)
	balance, err := s.ledger.BalanceOf(ctx, tx, in.SenderID)
	if err != nil {
		return nil, err
	}
	if err := CheckBalance(balance, in.Credits); err != nil {
		return nil, err
	}

	// Шаг 6: записи
	rec := &Recognition{
		ID:                 uuid.New(),
		SenderID:           in.SenderID,
		ReceiverID:         in.ReceiverID,
		CreditsTransferred: in.Credits,
		Message:            message,
		MonthBucket:        bucket,
	}
	if err := s.repo.Insert(ctx, tx, rec); err != nil {
		return nil, err
	}

	entries := []*ledger.Entry{
		{
			StudentID:          in.SenderID,
			RelatedRecognition: &rec.ID,
			EventType:          ledger.EventRecognitionSent,
			CreditsDelta:       -in.Credits,
			MonthBucket:        bucket,
		},
		{
			StudentID:          in.ReceiverID,
			RelatedRecognition: &rec.ID,
			EventType:          ledger.EventRecognitionReceived,
			CreditsDelta:       in.Credits,
			MonthBucket:        bucket,
		},
	}
	for _, e := range entries {
		if err := s.ledger.Append(ctx, tx, e); err != nil {
			return nil, err
		}
	}

	if err := s.quotas.AddSent(ctx, tx, senderQuota.ID, in.Credits); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации благодарности: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	log.WithFields(log.Fields{
		"recognition_id": rec.ID,
		"sender_id":      rec.SenderID,
		"receiver_id":    rec.ReceiverID,
		"credits":        rec.CreditsTransferred,
	}).Info("Благодарность создана")
	return rec, nil
}

// List возвращает благодарности по фильтру.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Recognition, error) {
	if f.Limit < 1 || f.Limit > MaxListLimit || f.Offset < 0 {
		return nil, common.RuleViolation(common.CodeInvalidPagination,
			"limit должен быть от 1 до %d, offset не может быть отрицательным.", MaxListLimit)
	}
	return s.repo.List(ctx, f)
}

// ValidateInput проверяет запрос и возвращает очищенное сообщение (nil, если пустое).
func ValidateInput(in CreateInput) (*string, error) {
	if in.SenderID == in.ReceiverID {
		return nil, common.RuleViolation(common.CodeSelfRecognition, "Студенты не могут отправлять благодарность самим себе.")
	}
	if in.Credits < MinCredits || in.Credits > MaxCredits {
		return nil, common.RuleViolation(common.CodeInvalidCredits,
			"Количество кредитов должно быть от %d до %d.", MinCredits, MaxCredits)
	}
	if in.Message == nil {
		return nil, nil
	}

	msg := common.SanitizeText(*in.Message)
	if utf8.RuneCountInString(msg) > MaxMessageLength {
		return nil, common.RuleViolation(common.CodeMessageTooLong,
			"Сообщение не может быть длиннее %d символов.", MaxMessageLength)
	}
	if msg == "" {
		return nil, nil
	}
	return &msg, nil
}

// CheckAllowance проверяет, что отправка credits не превысит месячный лимит.
func CheckAllowance(q *quota.Quota, credits int) error {
	if q.CreditsSent+credits > q.SendLimit {
		remaining := q.Remaining()
		return common.RuleViolation(common.CodeMonthlyLimitExceeded,
			"Превышен месячный лимит отправки. Осталось на этот месяц: %s.", common.FormatCredits(remaining))
	}
	return nil
}

// CheckBalance проверяет, что у отправителя хватает кредитов.
func CheckBalance(balance, credits int) error {
	if balance < credits {
		return common.RuleViolation(common.CodeInsufficientBalance,
			"Недостаточно кредитов для отправки: баланс %s.", common.FormatCredits(balance))
	}
	return nil
}

// lockOrder возвращает ID в порядке возрастания байтов (тот же порядок, что у uuid в PostgreSQL).
func lockOrder(a, b uuid.UUID) []uuid.UUID {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}
