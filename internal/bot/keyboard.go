package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ph-studio/internal/storage"
)

func statusCallbackData(id string, status storage.InquiryStatus) string {
	return fmt.Sprintf("%s:%s:%s", statusCallbackPrefix, id, status)
}

// parseStatusCallback splits "status:<id>:<status>".
func parseStatusCallback(data string) (string, storage.InquiryStatus, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != statusCallbackPrefix || parts[1] == "" {
		return "", "", false
	}
	return parts[1], storage.InquiryStatus(parts[2]), true
}

func statusKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 В обработка", statusCallbackData(id, storage.StatusProcessing)),
			tgbotapi.NewInlineKeyboardButtonData("✅ Завършено", statusCallbackData(id, storage.StatusCompleted)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отказано", statusCallbackData(id, storage.StatusCancelled)),
		),
	)
}
