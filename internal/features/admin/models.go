// Package admin реализует вход операторов в Telegram-бот по паролю.
// models.go описывает сессии и ограничения на попытки входа.
package admin

import "time"

// Ограничения входа.
const (
	MaxFailedAttempts = 3               // Неудачных попыток до блокировки
	LockoutWindow     = time.Hour       // Окно подсчёта неудачных попыток
	SessionTTL        = 24 * time.Hour  // Срок жизни сессии
	PromptTTL         = 5 * time.Minute // Сколько ждём пароль после /login без аргумента
)

// Session — активная сессия оператора.
type Session struct {
	ID              int64
	UserID          int64 // Telegram user ID
	Token           string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
}
