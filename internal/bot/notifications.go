package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ph-studio/internal/storage"
)

// recipients returns the admin chats, main chat first, without duplicates.
func (b *Bot) recipients() []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, id := range append([]int64{b.cfg.ChatID}, b.cfg.IDs...) {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// NotifyInquiry sends the full inquiry with status buttons to every admin
// and a short note to the channel when one is configured.
func (b *Bot) NotifyInquiry(ctx context.Context, in storage.Inquiry) error {
	var errs []error

	for _, chatID := range b.recipients() {
		if err := b.sendAdminNotification(chatID, in); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}

	if b.cfg.ChannelID != 0 {
		if err := b.NotifyChannel(ctx, in); err != nil {
			errs = append(errs, fmt.Errorf("channel: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) sendAdminNotification(chatID int64, in storage.Inquiry) error {
	msg := tgbotapi.NewMessage(chatID, FormatInquiryNotification(in))
	if in.ID != "" {
		msg.ReplyMarkup = statusKeyboard(in.ID)
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send admin notification",
			zap.String("inquiry_id", in.ID),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return err
	}
	return nil
}

func (b *Bot) NotifyChannel(ctx context.Context, in storage.Inquiry) error {
	if b.cfg.ChannelID == 0 {
		b.logger.Warn("Channel notifications disabled - no channel ID configured")
		return nil
	}

	msg := tgbotapi.NewMessage(b.cfg.ChannelID, FormatChannelNotification(in))
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send channel notification",
			zap.String("inquiry_id", in.ID),
			zap.Error(err))
		return err
	}
	return nil
}
