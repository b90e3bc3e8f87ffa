// Package admin — service.go: вход оператора, проверка сессии и ожидание пароля.
package admin

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/config"
)

// Store хранит сессии и попытки входа.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	ActiveSession(ctx context.Context, userID int64, now time.Time) (*Session, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	TouchSession(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	FailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Service управляет доступом операторов.
type Service struct {
	store Store
	cfg   *config.Config
	now   func() time.Time

	prompts   map[int64]time.Time // Кто должен прислать пароль следующим сообщением
	promptsMu sync.Mutex
}

// NewService создаёт сервис доступа.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		prompts: make(map[int64]time.Time),
	}
}

// Login проверяет пароль и открывает сессию на 24 часа.
// 3 неудачные попытки за час блокируют вход до истечения окна.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	now := s.now()
	failed, err := s.store.FailedAttemptsSince(ctx, userID, now.Add(-LockoutWindow))
	if err != nil {
		return err
	}
	if failed >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match, err := VerifyPassword(password, s.cfg.AdminPasswordHash)
	if err != nil {
		log.WithError(err).Error("ADMIN_PASSWORD_HASH не разбирается")
		return err
	}
	if err := s.store.LogAttempt(ctx, userID, match); err != nil {
		return err
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль оператора")
		return common.ErrWrongPassword
	}

	token, err := newSessionToken()
	if err != nil {
		return err
	}
	session := &Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Оператор вошёл")
	return nil
}

// Authorize проверяет, что пользователь — админ с живой сессией.
func (s *Service) Authorize(ctx context.Context, userID int64) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	session, err := s.store.ActiveSession(ctx, userID, s.now())
	if err != nil {
		return err
	}
	if session == nil {
		return common.ErrSessionExpired
	}
	if err := s.store.TouchSession(ctx, userID); err != nil {
		log.WithError(err).Debug("Не удалось обновить активность сессии")
	}
	return nil
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearPrompt(userID)
	return s.store.DeactivateSessions(ctx, userID)
}

// IsAdmin — пользователь в списке ADMIN_IDS.
func (s *Service) IsAdmin(userID int64) bool {
	return s.cfg.IsAdmin(userID)
}

// PromptPassword запоминает, что следующее сообщение пользователя — пароль.
func (s *Service) PromptPassword(userID int64) {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()
	s.prompts[userID] = s.now().Add(PromptTTL)
}

// TakePrompt возвращает true, если от пользователя ждали пароль, и сбрасывает ожидание.
func (s *Service) TakePrompt(userID int64) bool {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()

	until, ok := s.prompts[userID]
	if !ok {
		return false
	}
	delete(s.prompts, userID)
	return s.now().Before(until)
}

// ClearPrompt сбрасывает ожидание пароля.
func (s *Service) ClearPrompt(userID int64) {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()
	delete(s.prompts, userID)
}
