// Package bot содержит Telegram-бот операторов: рейтинг, балансы, ручной сброс
// и рассылку итогов ежемесячного сброса админам.
// bot.go отвечает за long polling, параллелизм и отправку сообщений.
package bot

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/bot/filters"
	"serotonyl.ru/boostly/internal/bot/middleware"
	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/config"
)

// Bot — главная структура бота.
type Bot struct {
	api      *telego.Bot
	cfg      *config.Config
	commands *Commands
	limiter  *common.KeyedLimiter[int64]

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// NewAPI создаёт клиента Telegram с логами через logrus.
func NewAPI(token string) (*telego.Bot, error) {
	return telego.NewBot(token, telego.WithLogger(log.StandardLogger()))
}

// New создаёт бота.
func New(api *telego.Bot, cfg *config.Config, commands *Commands) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	return &Bot{
		api:      api,
		cfg:      cfg,
		commands: commands,
		limiter:  common.NewKeyedLimiter[int64](cfg.RateLimitRequests, cfg.RateLimitWindow),
		inflight: make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil || message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if !filters.CheckAccess(message) {
		return
	}

	if !b.limiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	reply, ok := b.commands.Handle(ctx, Incoming{
		UserID:  message.From.ID,
		ChatID:  message.Chat.ID,
		Private: message.Chat.Type == telego.ChatTypePrivate,
		Text:    message.Text,
	})
	if !ok {
		return
	}
	b.sendMessage(ctx, message.Chat.ID, reply)
}

// NotifyAdmins рассылает текст всем из ADMIN_IDS (итоги сброса).
func (b *Bot) NotifyAdmins(ctx context.Context, text string) {
	for _, id := range b.cfg.AdminIDs {
		b.sendMessage(ctx, id, text)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
