package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ph-studio/internal/cart"
	"ph-studio/internal/inquiry"
	"ph-studio/internal/media"
	"ph-studio/internal/metrics"
	"ph-studio/pkg/logger"
)

// readInquiry parses a multipart or urlencoded inquiry form. The visitor's
// cart is attached when there is one.
func (s *Server) readInquiry(c *gin.Context) (inquiry.Form, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return inquiry.Form{}, media.ErrTooLarge
		}
		return inquiry.Form{}, fmt.Errorf("%w: %v", inquiry.ErrMissingFields, err)
	}

	f := inquiry.Form{
		Name:       c.PostForm("name"),
		Email:      c.PostForm("email"),
		Phone:      c.PostForm("phone"),
		Service:    c.PostForm("service"),
		Dimensions: c.PostForm("dimensions"),
		Message:    c.PostForm("message"),
		Cart:       s.loadCart(c),
	}

	a, err := media.ReadAttachment(formFile(c.Request, "file"))
	if err != nil {
		return inquiry.Form{}, err
	}
	f.Attachment = a

	return f, nil
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil
	}
	return r.MultipartForm.File[field][0]
}

// submit runs the intake and records the outcome. On success the cart that
// went out with the inquiry is emptied.
func (s *Server) submit(c *gin.Context) error {
	f, err := s.readInquiry(c)
	if err == nil {
		_, err = s.inquiries.Submit(c.Request.Context(), f)
	}

	switch {
	case err == nil:
		s.metrics.Inquiry(metrics.OutcomeOK)
		if !f.Cart.Empty() {
			_ = s.saveCart(c, cart.Cart{})
		}
	case inquiry.IsValidation(err):
		s.metrics.Inquiry(metrics.OutcomeRejected)
	default:
		s.metrics.Inquiry(metrics.OutcomeFailed)
	}
	return err
}

func inquiryStatus(err error) int {
	if inquiry.IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) apiSendInquiry(c *gin.Context) {
	if err := s.submit(c); err != nil {
		AbortWithError(c, &clientError{status: inquiryStatus(err), message: inquiry.UserMessage(err), err: err})
		return
	}
	c.JSON(http.StatusOK, response{OK: true})
}

type inquiryView struct {
	Services []string
	Error    string
	Sent     bool
	Form     map[string]string
	Cart     []string
	Total    float64
}

var services = []string{"3D печат", "Лазерно гравиране", "Дизайн/моделиране", "Друго"}

func (s *Server) newInquiryView(c *gin.Context) inquiryView {
	v := inquiryView{Services: services, Form: map[string]string{}}
	ct := s.loadCart(c)
	if !ct.Empty() {
		v.Cart = cart.SummaryLines(ct, s.catalog)
		v.Total = ct.Total()
	}
	return v
}

func (s *Server) inquiryPage(c *gin.Context) {
	s.render(c, http.StatusOK, "inquiry.html", "Запитване", s.newInquiryView(c))
}

func (s *Server) submitInquiryPage(c *gin.Context) {
	err := s.submit(c)
	if err == nil {
		v := inquiryView{Services: services, Sent: true}
		c.HTML(http.StatusOK, "inquiry.html", pageData{Title: "Запитване", Body: v})
		return
	}

	if !inquiry.IsValidation(err) {
		logger.Get(c.Request.Context()).Error("Inquiry failed", zap.Error(err))
	}
	v := s.newInquiryView(c)
	v.Error = inquiry.UserMessage(err)
	for _, k := range []string{"name", "email", "phone", "service", "dimensions", "message"} {
		v.Form[k] = c.PostForm(k)
	}
	s.render(c, inquiryStatus(err), "inquiry.html", "Запитване", v)
}
