// Package filters отсекает апдейты, на которые бот не отвечает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// CheckAccess пропускает сообщения живых пользователей из лички и групп.
// Каналы, сервисные сообщения и другие боты игнорируются.
func CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})

	if message.From == nil {
		logger.Debug("deny: nil message.From (service/channel message?)")
		return false
	}
	if message.From.IsBot {
		logger.WithField("user_id", message.From.ID).Debug("deny: bot sender")
		return false
	}

	switch message.Chat.Type {
	case telego.ChatTypePrivate, telego.ChatTypeGroup, telego.ChatTypeSupergroup:
		return true
	}
	logger.Debug("deny: unsupported chat type")
	return false
}
