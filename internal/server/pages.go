package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ph-studio/internal/storage"
	"ph-studio/pkg/logger"
)

// pageData is what every page template receives.
type pageData struct {
	Title     string
	CartCount int
	Body      any
}

func (s *Server) render(c *gin.Context, status int, name, title string, body any) {
	c.HTML(status, name, pageData{
		Title:     title,
		CartCount: len(s.loadCart(c).Lines),
		Body:      body,
	})
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	s.render(c, status, "error.html", "Грешка", message)
}

func (s *Server) pageFailed(c *gin.Context, err error, message string) {
	logger.Get(c.Request.Context()).Error("Page failed", zap.String("route", c.FullPath()), zap.Error(err))
	s.renderError(c, http.StatusInternalServerError, message)
}

type homeView struct {
	Hero    *storage.HomeImage
	Gallery []storage.HomeImage
}

func (s *Server) homePage(c *gin.Context) {
	images, err := s.store.ListHomeImages(c.Request.Context(), true)
	if err != nil {
		s.pageFailed(c, err, "Страницата не може да бъде заредена.")
		return
	}

	hero, gallery := storage.Hero(images)
	s.render(c, http.StatusOK, "home.html", "PH Print · Laser", homeView{Hero: hero, Gallery: gallery})
}

type productView struct {
	storage.Product
	PriceText string
	Promo     string
}

func (s *Server) productsPage(c *gin.Context) {
	products, err := s.store.ListProducts(c.Request.Context(), true)
	if err != nil {
		s.pageFailed(c, err, "Продуктите не могат да бъдат заредени.")
		return
	}

	now := s.now()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		currency := p.Currency
		if currency == "" {
			currency = storage.DefaultCurrency
		}
		v := productView{
			Product:   p,
			PriceText: strconv.FormatFloat(p.Price, 'f', -1, 64) + " " + currency,
		}
		if p.HasPromo(now) {
			v.Promo = fmt.Sprintf("-%s%% до %s", strconv.FormatFloat(p.PromoPercent, 'f', -1, 64), p.PromoUntil)
		}
		views = append(views, v)
	}

	s.render(c, http.StatusOK, "products.html", "Продукти", views)
}

func (s *Server) adminPage(c *gin.Context) {
	s.render(c, http.StatusOK, "admin.html", "Админ", gin.H{"LoggedIn": s.validAdminCookie(c)})
}
