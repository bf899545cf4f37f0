package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ph-studio/internal/report"
	"ph-studio/internal/storage"
)

func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, cmd string, rawArgs string) {
	args := strings.Fields(rawArgs)

	switch cmd {
	case CommandStart, CommandHelp:
		_ = b.sendMessage(tgbotapi.NewMessage(chatID, helpText))
	case CommandExport:
		var status storage.InquiryStatus
		if len(args) > 0 {
			status = storage.InquiryStatus(args[0])
			if !status.Valid() {
				b.sendError(chatID, "Недопустим статус. Допустими: new, processing, completed, cancelled")
				return
			}
		}
		b.handleExport(ctx, chatID, status)
	case CommandStats:
		b.handleStats(ctx, chatID)
	case CommandStatus:
		if len(args) < 2 {
			b.sendError(chatID, "Използване: /status <ID> <статус>")
			return
		}
		_, _ = b.updateStatus(ctx, chatID, args[0], storage.InquiryStatus(args[1]))
	default:
		b.sendError(chatID, "Непозната команда. /help за списък")
	}
}

// updateStatus changes the status and reports the outcome to chatID.
func (b *Bot) updateStatus(ctx context.Context, chatID int64, id string, status storage.InquiryStatus) (storage.Inquiry, error) {
	if !status.Valid() {
		b.sendError(chatID, "Недопустим статус. Допустими: new, processing, completed, cancelled")
		return storage.Inquiry{}, storage.ErrInvalidStatus
	}

	in, err := b.store.UpdateInquiryStatus(ctx, id, status)
	if err != nil {
		b.logger.Error("Failed to update inquiry status",
			zap.String("inquiry_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		b.sendError(chatID, "Грешка при смяна на статуса")
		return storage.Inquiry{}, err
	}

	_ = b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Статусът на запитване #%s е сменен на: %s", id, status.Label())))
	return in, nil
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	stats, err := b.store.InquiryStatistics(ctx, b.now())
	if err != nil {
		b.logger.Error("Failed to get inquiry statistics", zap.Error(err))
		b.sendError(chatID, "Грешка при извличане на статистиката")
		return
	}
	_ = b.sendMessage(tgbotapi.NewMessage(chatID, FormatStats(stats)))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, status storage.InquiryStatus) {
	items, err := b.store.ListInquiries(ctx, status)
	if err != nil {
		b.logger.Error("Failed to list inquiries", zap.Error(err))
		b.sendError(chatID, "Грешка при експорта")
		return
	}

	data, err := report.InquiriesWorkbook(items)
	if err != nil {
		b.logger.Error("Failed to export inquiries", zap.Error(err))
		b.sendError(chatID, "Грешка при експорта")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("zapitvania_%s.xlsx", b.now().Format("20060102")),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("📊 Запитвания: %d", len(items))

	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file", zap.Error(err))
		b.sendError(chatID, "Грешка при изпращане на файла")
	}
}
