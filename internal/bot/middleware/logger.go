// Package middleware содержит промежуточные обработчики бота: логирование
// входящих сообщений и восстановление после паники.
package middleware

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// LogMessage логирует входящее сообщение.
// Пароли не пишем: после /login логируется только команда.
func LogMessage(message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}

	log.WithFields(log.Fields{
		"user_id":  message.From.ID,
		"chat_id":  message.Chat.ID,
		"username": message.From.Username,
		"text":     Redact(message.Text),
	}).Debug("Входящее сообщение")
}

// Redact оставляет от текста только команду, остальное заменяет звёздочками.
// Обычный текст (это может быть пароль после /login) скрывается целиком.
func Redact(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	if runes[0] != '/' && runes[0] != '!' {
		return "***"
	}
	for i, r := range runes {
		if r == ' ' {
			return string(runes[:i]) + " ***"
		}
	}
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return text
}
