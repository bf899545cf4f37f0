package cart

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ph-studio/internal/quote"
)

const MailSubject = "Запитване/Поръчка – 3D печат и лазерно гравиране"

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// FormatMoney renders an amount the Bulgarian way: "1234,50 лв.".
func FormatMoney(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(2), ".", ",", 1) + " лв."
}

func plainMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func num(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Describe renders line n (1-based) as a single order line.
func Describe(n int, l Line, cat *quote.Catalog) string {
	switch l.Type {
	case LinePrint:
		if l.Print == nil {
			break
		}
		name := l.Print.Printer
		if p, err := cat.Printer(l.Print.Printer); err == nil {
			name = p.Name
		}
		d := l.Print.Dimensions
		return fmt.Sprintf("#%d 3D ПЕЧАТ | Принтер: %s | Размери: %s×%s×%s mm | Брой: %d | Цена: %s лв.",
			n, name, num(d.X), num(d.Y), num(d.Z), l.Quantity, plainMoney(l.Total))

	case LineEngrave:
		if l.Engrave == nil {
			break
		}
		name := l.Engrave.Surface
		if s, err := cat.Surface(l.Engrave.Surface); err == nil {
			name = s.Name
		}
		text := l.Engrave.Text
		if text == "" {
			text = "-"
		}
		return fmt.Sprintf("#%d ГРАВИРАНЕ | Повърхност: %s | Площ: %s cm2 | Сложност: %d/10 | Текст: %s | Брой: %d | Цена: %s лв.",
			n, name, num(l.Engrave.AreaCm2), l.Engrave.Complexity, text, l.Quantity, plainMoney(l.Total))

	case LineCatalog:
		if l.Catalog == nil {
			break
		}
		return fmt.Sprintf("#%d КАТАЛОГ | %s | Цена: %s лв. | Брой: %d",
			n, l.Catalog.Title, plainMoney(l.Total), l.Quantity)
	}

	return fmt.Sprintf("#%d ? | Брой: %d | Цена: %s лв.", n, l.Quantity, plainMoney(l.Total))
}

func SummaryLines(c Cart, cat *quote.Catalog) []string {
	lines := make([]string, 0, len(c.Lines))
	for i, l := range c.Lines {
		lines = append(lines, Describe(i+1, l, cat))
	}
	return lines
}

// Summary is the plain-text order block sent with inquiries.
func Summary(c Cart, cat *quote.Catalog) string {
	if c.Empty() {
		return ""
	}
	lines := SummaryLines(c, cat)
	lines = append(lines, "Общо: "+FormatMoney(c.Total()))
	return strings.Join(lines, "\n")
}

func (ct Contact) Lines() []string {
	return []string{
		"Име: " + ct.Name,
		"Имейл: " + ct.Email,
		"Телефон: " + ct.Phone,
		"Забележки: " + ct.Notes,
	}
}

// MailtoLink builds a mailto: URL carrying the cart and the contact block.
func MailtoLink(to string, c Cart, ct Contact, cat *quote.Catalog) string {
	body := strings.Join(SummaryLines(c, cat), "\r\n") + "\r\n\r\n" + strings.Join(ct.Lines(), "\r\n")
	return "mailto:" + to + "?subject=" + mailtoEscape(MailSubject) + "&body=" + mailtoEscape(body)
}

// mailtoEscape percent-encodes like encodeURIComponent; mail clients do
// not decode '+' as a space.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Offer is the downloadable calculation.
type Offer struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone string  `json:"phone"`
	Notes string  `json:"notes"`
	Cart  []Line  `json:"cart"`
	Total float64 `json:"total"`
}

func NewOffer(c Cart, ct Contact) Offer {
	lines := c.Lines
	if lines == nil {
		lines = []Line{}
	}
	return Offer{
		Name:  ct.Name,
		Email: ct.Email,
		Phone: ct.Phone,
		Notes: ct.Notes,
		Cart:  lines,
		Total: c.Total(),
	}
}

func OfferFilename(now time.Time, ext string) string {
	return fmt.Sprintf("kalkulacia-%d.%s", now.UnixMilli(), ext)
}
