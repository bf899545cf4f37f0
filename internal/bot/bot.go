// Package bot sends inquiry notifications to the shop's Telegram admins and
// answers their admin commands.
package bot

import (
	"context"
	"fmt"
	"slices"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ph-studio/internal/config"
	"ph-studio/internal/storage"
)

type Bot struct {
	api    API
	store  storage.InquiryStore
	cfg    config.AdminConfig
	logger *zap.Logger
	now    func() time.Time
}

func New(tg config.TelegramConfig, admin config.AdminConfig, store storage.InquiryStore, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(tg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = tg.Debug

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	return NewWithAPI(botAPI, admin, store, logger), nil
}

func NewWithAPI(api API, admin config.AdminConfig, store storage.InquiryStore, logger *zap.Logger) *Bot {
	return &Bot{
		api:    api,
		store:  store,
		cfg:    admin,
		logger: logger,
		now:    time.Now,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Shutting down bot")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.processMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.processCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if !msg.IsCommand() || !b.isAdmin(senderID(msg.From, chatID)) {
		return
	}
	b.handleAdminCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("data", callback.Data))

	if !b.isAdmin(senderID(callback.From, chatID)) {
		b.answerCallback(callback.ID, "Нямате права")
		return
	}

	id, status, ok := parseStatusCallback(callback.Data)
	if !ok {
		b.answerCallback(callback.ID, "Непозната команда")
		return
	}

	in, err := b.updateStatus(ctx, chatID, id, status)
	if err != nil {
		b.answerCallback(callback.ID, "Грешка")
		return
	}
	b.answerCallback(callback.ID, "Статус: "+in.Status.Label())
}

func senderID(u *tgbotapi.User, fallback int64) int64 {
	if u != nil {
		return u.ID
	}
	return fallback
}

func (b *Bot) isAdmin(id int64) bool {
	if id == 0 {
		return false
	}
	return id == b.cfg.ChatID || slices.Contains(b.cfg.IDs, id)
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
		return err
	}
	return nil
}

func (b *Bot) sendError(chatID int64, text string) {
	_ = b.sendMessage(tgbotapi.NewMessage(chatID, "❌ "+text))
}
