package bot

import (
	"fmt"
	"strings"

	"ph-studio/internal/cart"
	"ph-studio/internal/inquiry"
	"ph-studio/internal/storage"
)

const dateLayout = "02.01.2006 15:04"

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func FormatInquiryNotification(in storage.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Ново запитване #%s\n\n", in.ID)
	fmt.Fprintf(&b, "Име: %s\n", in.Name)
	fmt.Fprintf(&b, "Имейл: %s\n", in.Email)
	fmt.Fprintf(&b, "Телефон: %s\n", orDash(inquiry.FormatPhone(in.Phone)))
	fmt.Fprintf(&b, "Услуга: %s\n", in.Service)
	fmt.Fprintf(&b, "Размери: %s\n", orDash(in.Dimensions))
	b.WriteString("──────────────────\n")
	b.WriteString(in.Message)
	b.WriteString("\n")
	if in.CartSummary != "" {
		b.WriteString("──────────────────\n")
		b.WriteString(in.CartSummary)
		b.WriteString("\n")
	}
	if in.AttachmentName != "" {
		fmt.Fprintf(&b, "Файл: %s\n", in.AttachmentName)
	}
	b.WriteString("──────────────────\n")
	fmt.Fprintf(&b, "Статус: %s\n", in.Status.Label())
	fmt.Fprintf(&b, "Дата: %s", in.CreatedAt.Local().Format(dateLayout))
	return b.String()
}

// FormatChannelNotification is the short public-channel variant without
// contact details.
func FormatChannelNotification(in storage.Inquiry) string {
	text := fmt.Sprintf("📦 Ново запитване: %s", in.Service)
	if in.CartTotal > 0 {
		text += "\nСума: " + cart.FormatMoney(in.CartTotal)
	}
	return text
}

func FormatStats(stats storage.InquiryStats) string {
	return fmt.Sprintf(
		"📊 Статистика на запитванията\n\n"+
			"📌 Общо: %d\n"+
			"💰 Обща сума по кошници: %s\n"+
			"📅 Днес: %d\n"+
			"📅 Последните 7 дни: %d\n"+
			"📅 Последните 30 дни: %d\n\n"+
			"📌 По статус:\n"+
			"🆕 %s: %d\n"+
			"🔄 %s: %d\n"+
			"✅ %s: %d\n"+
			"❌ %s: %d",
		stats.Total,
		cart.FormatMoney(stats.TotalValue),
		stats.Today,
		stats.Week,
		stats.Month,
		storage.StatusNew.Label(), stats.StatusCounts[storage.StatusNew],
		storage.StatusProcessing.Label(), stats.StatusCounts[storage.StatusProcessing],
		storage.StatusCompleted.Label(), stats.StatusCounts[storage.StatusCompleted],
		storage.StatusCancelled.Label(), stats.StatusCounts[storage.StatusCancelled],
	)
}
