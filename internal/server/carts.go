package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ph-studio/internal/cart"
	"ph-studio/internal/quote"
	"ph-studio/internal/report"
	"ph-studio/internal/storage"
	"ph-studio/pkg/logger"
)

const (
	cartCookie = "ph_cart"
	cartMaxAge = 30 * 24 * time.Hour

	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// productPricer resolves catalog lines against the live product list.
func (s *Server) productPricer(ctx context.Context) cart.ProductPricer {
	return func(id string) (string, float64, bool) {
		p, err := s.store.GetProduct(ctx, id)
		if err != nil || !p.Active {
			return "", 0, false
		}
		return p.Title, p.Price, true
	}
}

// loadCart decodes the cart cookie and reprices it. A cookie that cannot be
// decoded is an empty cart.
func (s *Server) loadCart(c *gin.Context) cart.Cart {
	raw, err := c.Cookie(cartCookie)
	if err != nil || raw == "" {
		return cart.Cart{}
	}

	ctx := c.Request.Context()
	decoded, err := cart.Decode(raw)
	if err != nil {
		logger.Get(ctx).Debug("Discarding unreadable cart cookie", zap.Error(err))
		return cart.Cart{}
	}

	fresh, dropped := cart.Reprice(decoded, s.catalog, s.productPricer(ctx))
	if dropped > 0 {
		logger.Get(ctx).Info("Dropped stale cart lines", zap.Int("dropped", dropped))
	}
	return fresh
}

func (s *Server) saveCart(c *gin.Context, ct cart.Cart) error {
	c.SetSameSite(http.SameSiteLaxMode)
	if ct.Empty() {
		c.SetCookie(cartCookie, "", -1, "/", "", s.admin.CookieSecure, true)
		return nil
	}

	v, err := ct.Encode()
	if err != nil {
		return err
	}
	c.SetCookie(cartCookie, v, int(cartMaxAge.Seconds()), "/", "", s.admin.CookieSecure, true)
	return nil
}

// addToCart stores l and sends the visitor to the cart page.
func (s *Server) addToCart(c *gin.Context, l cart.Line) {
	ct := s.loadCart(c)
	err := ct.Add(l)
	if err == nil {
		err = s.saveCart(c, ct)
	}
	switch {
	case errors.Is(err, cart.ErrCartFull):
		s.renderError(c, http.StatusBadRequest, "Кошницата е пълна.")
	case err != nil:
		s.pageFailed(c, err, "Артикулът не беше добавен.")
	default:
		c.Redirect(http.StatusSeeOther, "/koshnica")
	}
}

type cartRow struct {
	Index int
	Text  string
	Total float64
}

type cartView struct {
	Rows   []cartRow
	Total  float64
	Mailto string
}

func (s *Server) cartPage(c *gin.Context) {
	ct := s.loadCart(c)

	v := cartView{Total: ct.Total()}
	for i, l := range ct.Lines {
		v.Rows = append(v.Rows, cartRow{Index: i, Text: cart.Describe(i+1, l, s.catalog), Total: l.Total})
	}
	if !ct.Empty() && s.receiver != "" {
		v.Mailto = cart.MailtoLink(s.receiver, ct, cart.Contact{}, s.catalog)
	}

	s.render(c, http.StatusOK, "cart.html", "Кошница", v)
}

func (s *Server) removeCartLine(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, "Невалиден ред.")
		return
	}

	ct := s.loadCart(c)
	if err := ct.Remove(i); err != nil {
		s.renderError(c, http.StatusNotFound, "Няма такъв ред в кошницата.")
		return
	}
	if err := s.saveCart(c, ct); err != nil {
		s.pageFailed(c, err, "Кошницата не беше обновена.")
		return
	}
	c.Redirect(http.StatusSeeOther, "/koshnica")
}

func (s *Server) clearCart(c *gin.Context) {
	_ = s.saveCart(c, cart.Cart{})
	c.Redirect(http.StatusSeeOther, "/koshnica")
}

func contactFromQuery(c *gin.Context) cart.Contact {
	return cart.Contact{
		Name:  c.Query("name"),
		Email: c.Query("email"),
		Phone: c.Query("phone"),
		Notes: c.Query("notes"),
	}
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (s *Server) offerText(c *gin.Context) {
	offer := cart.NewOffer(s.loadCart(c), contactFromQuery(c))

	b, err := json.MarshalIndent(offer, "", "  ")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	attachment(c, cart.OfferFilename(s.now(), "txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", b)
}

func (s *Server) offerWorkbook(c *gin.Context) {
	b, err := report.OfferWorkbook(s.loadCart(c), contactFromQuery(c), s.catalog)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	attachment(c, cart.OfferFilename(s.now(), "xlsx"))
	c.Data(http.StatusOK, mimeXLSX, b)
}

func (s *Server) buyProduct(c *gin.Context) {
	p, err := s.store.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.pageFailed(c, err, "Продуктът не може да бъде зареден.")
		return
	}
	if err != nil || !p.Active {
		s.renderError(c, http.StatusNotFound, "Продуктът не е намерен.")
		return
	}

	line, err := cart.FromProduct(p.ID, p.Title, p.Price, quote.ParseQuantity(c.PostForm("qty")))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, quoteMessage(err))
		return
	}
	s.addToCart(c, line)
}
