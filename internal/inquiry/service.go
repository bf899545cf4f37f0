// Package inquiry takes customer inquiries from the site, relays them by
// e-mail and records them for the admin.
package inquiry

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"ph-studio/internal/cart"
	"ph-studio/internal/config"
	"ph-studio/internal/media"
	"ph-studio/internal/quote"
	"ph-studio/internal/storage"
	"ph-studio/pkg/resend"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrInvalidPhone  = errors.New("invalid phone")
	ErrNoReceiver    = errors.New("receiver address is not configured")
)

const notifyTimeout = 10 * time.Second

// UserMessage maps intake errors to the text shown on the form.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "Липсват задължителни полета."
	case errors.Is(err, ErrInvalidEmail):
		return "Невалиден имейл адрес."
	case errors.Is(err, ErrInvalidPhone):
		return "Невалиден телефонен номер."
	case errors.Is(err, media.ErrTooLarge):
		return fmt.Sprintf("Файлът е над %dMB.", media.MaxAttachmentBytes>>20)
	case errors.Is(err, media.ErrUnsupportedType):
		return "Неподдържан тип файл."
	}
	return "Възникна грешка при изпращането. Опитайте отново."
}

// IsValidation reports whether err is the customer's fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidPhone) ||
		errors.Is(err, media.ErrTooLarge) ||
		errors.Is(err, media.ErrUnsupportedType)
}

type Form struct {
	Name       string
	Email      string
	Phone      string
	Service    string
	Dimensions string
	Message    string
	Cart       cart.Cart
	Attachment *media.Attachment
}

// Normalize trims the fields and validates them.
func (f *Form) Normalize() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Service = strings.TrimSpace(f.Service)
	f.Dimensions = strings.TrimSpace(f.Dimensions)
	f.Message = strings.TrimSpace(f.Message)

	if f.Name == "" || f.Email == "" || f.Service == "" || f.Message == "" {
		return ErrMissingFields
	}

	addr, err := mail.ParseAddress(f.Email)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	f.Email = addr.Address

	if f.Phone != "" {
		if !ValidPhone(f.Phone) {
			return ErrInvalidPhone
		}
		f.Phone = NormalizePhone(f.Phone)
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, e resend.Email) (string, error)
}

// Notifier is told about every accepted inquiry. Failures are logged only.
type Notifier interface {
	NotifyInquiry(ctx context.Context, in storage.Inquiry) error
}

type Service struct {
	mailer    Mailer
	store     storage.InquiryStore
	catalog   *quote.Catalog
	notifiers []Notifier
	receiver  string
	sender    string
	logger    *zap.Logger
}

func NewService(
	cfg config.MailConfig,
	mailer Mailer,
	store storage.InquiryStore,
	catalog *quote.Catalog,
	logger *zap.Logger,
	notifiers ...Notifier,
) *Service {
	return &Service{
		mailer:    mailer,
		store:     store,
		catalog:   catalog,
		notifiers: notifiers,
		receiver:  cfg.Receiver,
		sender:    cfg.Sender,
		logger:    logger,
	}
}

// Submit validates f, mails it to the shop and records it. A failure to
// record or notify after the mail went out is logged and not returned.
func (s *Service) Submit(ctx context.Context, f Form) (storage.Inquiry, error) {
	const operation = "inquiry.Submit"

	if err := f.Normalize(); err != nil {
		return storage.Inquiry{}, fmt.Errorf("%s: %w", operation, err)
	}
	if s.receiver == "" {
		return storage.Inquiry{}, fmt.Errorf("%s: %w", operation, ErrNoReceiver)
	}

	in := storage.Inquiry{
		Name:       f.Name,
		Email:      f.Email,
		Phone:      f.Phone,
		Service:    f.Service,
		Dimensions: f.Dimensions,
		Message:    f.Message,
	}
	if !f.Cart.Empty() {
		in.CartSummary = cart.Summary(f.Cart, s.catalog)
		in.CartTotal = f.Cart.Total()
	}
	if f.Attachment != nil {
		in.AttachmentName = f.Attachment.Filename
	}

	email, err := s.compose(f)
	if err != nil {
		return storage.Inquiry{}, fmt.Errorf("%s: %w", operation, err)
	}

	id, err := s.mailer.Send(ctx, email)
	if err != nil {
		return storage.Inquiry{}, fmt.Errorf("%s: send: %w", operation, err)
	}

	log := s.logger.With(zap.String("email_id", id), zap.String("service", f.Service))

	saved, err := s.store.SaveInquiry(ctx, in)
	if err != nil {
		log.Error("Failed to record inquiry", zap.Error(err))
		saved = in
		saved.Status = storage.StatusNew
		saved.CreatedAt = time.Now().UTC()
	} else {
		log.Info("Inquiry accepted", zap.String("inquiry_id", saved.ID))
	}

	s.notify(ctx, saved)
	return saved, nil
}

func (s *Service) compose(f Form) (resend.Email, error) {
	v := view{
		Name:       f.Name,
		Email:      f.Email,
		Phone:      FormatPhone(f.Phone),
		Service:    f.Service,
		Dimensions: f.Dimensions,
		Message:    f.Message,
		Attached:   f.Attachment != nil,
	}
	if !f.Cart.Empty() {
		v.Cart = cart.SummaryLines(f.Cart, s.catalog)
		v.CartTotal = cart.FormatMoney(f.Cart.Total())
	}

	html, text, err := render(v)
	if err != nil {
		return resend.Email{}, err
	}

	e := resend.Email{
		From:    s.sender,
		To:      s.receiver,
		Subject: Subject(f.Service),
		HTML:    html,
		Text:    text,
		ReplyTo: f.Email,
	}
	if a := f.Attachment; a != nil {
		e.Attachments = []resend.Attachment{resend.NewAttachment(a.Filename, a.ContentType, a.Data)}
	}
	return e, nil
}

func (s *Service) notify(ctx context.Context, in storage.Inquiry) {
	for _, n := range s.notifiers {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		if err := n.NotifyInquiry(nctx, in); err != nil {
			s.logger.Warn("Inquiry notification failed",
				zap.String("notifier", fmt.Sprintf("%T", n)),
				zap.String("inquiry_id", in.ID),
				zap.Error(err))
		}
		cancel()
	}
}
