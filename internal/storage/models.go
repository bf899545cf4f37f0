package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const DefaultCurrency = "лв"

type Product struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Slug         string    `db:"slug" json:"slug"`
	Desc         string    `db:"description" json:"desc"`
	Dimensions   string    `db:"dimensions" json:"dimensions,omitempty"`
	Price        float64   `db:"price" json:"price"`
	Currency     string    `db:"currency" json:"currency"`
	PromoPercent float64   `db:"promo_percent" json:"promoPercent,omitempty"`
	PromoUntil   string    `db:"promo_until" json:"promoUntil,omitempty"`
	BuyURL       string    `db:"buy_url" json:"buyUrl,omitempty"`
	Image        string    `db:"image" json:"image,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Slug) == "" || p.Price <= 0 {
		return fmt.Errorf("%w: title, slug and a positive price are required", ErrInvalidProduct)
	}
	if p.PromoPercent < 0 || p.PromoPercent >= 100 {
		return fmt.Errorf("%w: promo percent out of range", ErrInvalidProduct)
	}
	return nil
}

// HasPromo reports whether the promotion is still running on day now.
// PromoUntil is an inclusive YYYY-MM-DD date; an unparseable date counts as
// running so the admin sees the label and can fix it.
func (p Product) HasPromo(now time.Time) bool {
	if p.PromoPercent <= 0 || p.PromoUntil == "" {
		return false
	}
	until, err := time.ParseInLocation(time.DateOnly, p.PromoUntil, now.Location())
	if err != nil {
		return true
	}
	return !now.After(until.Add(24*time.Hour - time.Nanosecond))
}

type ProductPatch struct {
	Title        *string  `json:"title"`
	Slug         *string  `json:"slug"`
	Desc         *string  `json:"desc"`
	Dimensions   *string  `json:"dimensions"`
	Price        *float64 `json:"price"`
	Currency     *string  `json:"currency"`
	PromoPercent *float64 `json:"promoPercent"`
	PromoUntil   *string  `json:"promoUntil"`
	BuyURL       *string  `json:"buyUrl"`
	Active       *bool    `json:"active"`
}

func (p ProductPatch) Apply(dst *Product) {
	setIf(&dst.Title, p.Title)
	setIf(&dst.Slug, p.Slug)
	setIf(&dst.Desc, p.Desc)
	setIf(&dst.Dimensions, p.Dimensions)
	setIf(&dst.Price, p.Price)
	setIf(&dst.Currency, p.Currency)
	setIf(&dst.PromoPercent, p.PromoPercent)
	setIf(&dst.PromoUntil, p.PromoUntil)
	setIf(&dst.BuyURL, p.BuyURL)
	setIf(&dst.Active, p.Active)
}

type HomeImage struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title,omitempty"`
	Src       string    `db:"src" json:"src"`
	Order     int       `db:"sort_order" json:"order"`
	Active    bool      `db:"active" json:"active"`
	IsHero    bool      `db:"is_hero" json:"isHero"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type HomeImagePatch struct {
	Title  *string `json:"title"`
	Active *bool   `json:"active"`
	Order  *int    `json:"order"`
	IsHero *bool   `json:"isHero"`
}

func (p HomeImagePatch) Apply(dst *HomeImage) {
	setIf(&dst.Title, p.Title)
	setIf(&dst.Active, p.Active)
	setIf(&dst.Order, p.Order)
	setIf(&dst.IsHero, p.IsHero)
}

type InquiryStatus string

const (
	StatusNew        InquiryStatus = "new"
	StatusProcessing InquiryStatus = "processing"
	StatusCompleted  InquiryStatus = "completed"
	StatusCancelled  InquiryStatus = "cancelled"
)

var statusLabels = map[InquiryStatus]string{
	StatusNew:        "Ново",
	StatusProcessing: "В обработка",
	StatusCompleted:  "Завършено",
	StatusCancelled:  "Отказано",
}

func (s InquiryStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s InquiryStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func Statuses() []InquiryStatus {
	return []InquiryStatus{StatusNew, StatusProcessing, StatusCompleted, StatusCancelled}
}

type Inquiry struct {
	ID             string        `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	Email          string        `db:"email" json:"email"`
	Phone          string        `db:"phone" json:"phone,omitempty"`
	Service        string        `db:"service" json:"service"`
	Dimensions     string        `db:"dimensions" json:"dimensions,omitempty"`
	Message        string        `db:"message" json:"message"`
	CartSummary    string        `db:"cart_summary" json:"cartSummary,omitempty"`
	CartTotal      float64       `db:"cart_total" json:"cartTotal"`
	AttachmentName string        `db:"attachment_name" json:"attachmentName,omitempty"`
	Status         InquiryStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

type InquiryStats struct {
	Total        int                   `json:"total"`
	TotalValue   float64               `json:"totalValue"`
	Today        int                   `json:"today"`
	Week         int                   `json:"week"`
	Month        int                   `json:"month"`
	StatusCounts map[InquiryStatus]int `json:"statusCounts"`
}

// statsWindows returns the start of today, and now minus 7 and 30 days.
func statsWindows(now time.Time) (day, week, month time.Time) {
	y, m, d := now.Date()
	day = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return day, now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)
}

func newID() string {
	return ulid.Make().String()
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
