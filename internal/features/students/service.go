// Package students — service.go содержит бизнес-логику студентов:
// регистрацию, поиск и сводку баланса.
package students

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/quota"
)

// Service управляет студентами.
type Service struct {
	repo   *Repository        // Студенты
	ledger *ledger.Repository // Журнал (балансы)
	quotas *quota.Repository  // Квоты (сводка месяца)
	now    func() time.Time
}

// NewService создаёт сервис студентов.
func NewService(repo *Repository, ledgerRepo *ledger.Repository, quotaRepo *quota.Repository) *Service {
	return &Service{repo: repo, ledger: ledgerRepo, quotas: quotaRepo, now: time.Now}
}

// Enroll регистрирует нового студента.
func (s *Service) Enroll(ctx context.Context, in EnrollInput) (*Student, error) {
	in, err := NormalizeEnrollInput(in)
	if err != nil {
		return nil, err
	}

	st := &Student{
		ID:          uuid.New(),
		CampusUID:   in.CampusUID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Status:      StatusActive,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"student_id": st.ID,
		"campus_uid": st.CampusUID,
	}).Info("Студент зарегистрирован")
	return st, nil
}

// Get возвращает студента по ID или ошибку «не найдено».
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Student, error) {
	return s.repo.Require(ctx, s.repo.db, id)
}

// GetByCampusUID возвращает студента по номеру студенческого или ошибку «не найдено».
func (s *Service) GetByCampusUID(ctx context.Context, campusUID string) (*Student, error) {
	st, err := s.repo.GetByCampusUID(ctx, strings.TrimSpace(campusUID))
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, common.NotFound(common.CodeStudentNotFound, "Студент %s не найден", campusUID)
	}
	return st, nil
}

// Balance собирает сводку: общий и доступный к обмену балансы плюс квота месяца.
// Только чтение: строку квоты не создаёт.
func (s *Service) Balance(ctx context.Context, id uuid.UUID) (*BalanceView, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	balances, err := s.ledger.Balances(ctx, id)
	if err != nil {
		return nil, err
	}

	q, err := s.quotas.Get(ctx, s.repo.db, id, common.MonthBucket(s.now()))
	if err != nil {
		return nil, err
	}

	view := &BalanceView{
		Student:            st.Summary(),
		Balances:           *balances,
		Quota:              q,
		RemainingAllowance: quota.SendLimit,
	}
	if q != nil {
		view.RemainingAllowance = q.Remaining()
	}
	return view, nil
}

// NormalizeEnrollInput обрезает пробелы и проверяет поля регистрации.
func NormalizeEnrollInput(in EnrollInput) (EnrollInput, error) {
	in.CampusUID = strings.TrimSpace(in.CampusUID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = common.SanitizeText(in.DisplayName)

	switch {
	case in.CampusUID == "" || utf8.RuneCountInString(in.CampusUID) > 64:
		return in, common.RuleViolation(common.CodeInvalidInput, "campus_uid должен содержать от 1 до 64 символов.")
	case !strings.Contains(in.Email, "@") || utf8.RuneCountInString(in.Email) > 255:
		return in, common.RuleViolation(common.CodeInvalidInput, "Некорректный email.")
	case in.DisplayName == "" || utf8.RuneCountInString(in.DisplayName) > MaxDisplayNameLength:
		return in, common.RuleViolation(common.CodeInvalidInput,
			"Имя должно содержать от 1 до %d символов.", MaxDisplayNameLength)
	}
	return in, nil
}
