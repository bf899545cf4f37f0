// Package server is the storefront HTTP surface: server-rendered pages, the
// calculator JSON API and the admin API.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ph-studio/internal/cart"
	"ph-studio/internal/config"
	"ph-studio/internal/inquiry"
	"ph-studio/internal/media"
	"ph-studio/internal/metrics"
	"ph-studio/internal/quote"
	"ph-studio/internal/storage"
)

var (
	//go:embed templates/*.html
	templatesFS embed.FS

	//go:embed static
	staticFS embed.FS
)

// multipart bodies above this are rejected before parsing
const maxUploadBytes = media.MaxAttachmentBytes + 1<<20

type InquirySubmitter interface {
	Submit(ctx context.Context, f inquiry.Form) (storage.Inquiry, error)
}

type Options struct {
	HTTP      config.HTTPConfig
	Admin     config.AdminConfig
	Receiver  string
	Catalog   *quote.Catalog
	Store     storage.Storage
	Inquiries InquirySubmitter
	// Limiter is optional; without it nothing is rate limited.
	Limiter Limiter
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Server struct {
	engine    *gin.Engine
	http      config.HTTPConfig
	admin     config.AdminConfig
	receiver  string
	catalog   *quote.Catalog
	store     storage.Storage
	media     *media.Store
	inquiries InquirySubmitter
	limiter   Limiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func New(opts Options) (*Server, error) {
	const operation = "server.New"

	if opts.Catalog == nil || opts.Store == nil || opts.Inquiries == nil {
		return nil, fmt.Errorf("%s: catalog, store and inquiry service are required", operation)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": cart.FormatMoney,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: parse templates: %w", operation, err)
	}

	s := &Server{
		http:      opts.HTTP,
		admin:     opts.Admin,
		receiver:  opts.Receiver,
		catalog:   opts.Catalog,
		store:     opts.Store,
		media:     media.NewStore(opts.HTTP.PublicDir),
		inquiries: opts.Inquiries,
		limiter:   opts.Limiter,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       time.Now,
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.Use(Observe(s.metrics))
	r.Use(ErrorHandlingMiddleware())
	s.engine = r
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	r.StaticFileFS("/static/admin.js", "static/admin.js", http.FS(staticFS))
	r.Static(media.ProductFiles.URLPrefix, filepath.Join(s.http.PublicDir, media.ProductFiles.Dir))
	r.Static(media.HomeImages.URLPrefix, filepath.Join(s.http.PublicDir, media.HomeImages.Dir))

	limitInquiry := s.rateLimit("inquiry", s.http.InquiryRateLimit, s.http.InquiryRateWindow)

	// pages
	r.GET("/", s.homePage)
	r.GET("/produkti", s.productsPage)
	r.POST("/produkti/:id/kupi", s.buyProduct)
	r.GET("/kalkulator", s.calculatorPage)
	r.POST("/kalkulator/print", s.addPrintQuote)
	r.POST("/kalkulator/engrave", s.addEngraveQuote)
	r.GET("/koshnica", s.cartPage)
	r.POST("/koshnica/remove/:index", s.removeCartLine)
	r.POST("/koshnica/clear", s.clearCart)
	r.GET("/koshnica/oferta", s.offerText)
	r.GET("/koshnica/oferta.xlsx", s.offerWorkbook)
	r.GET("/zapitvane", s.inquiryPage)
	r.POST("/zapitvane", limitInquiry, s.submitInquiryPage)
	r.GET("/admin", s.adminPage)

	api := r.Group("/api")
	{
		q := api.Group("/quote")
		q.GET("/catalog", s.apiCatalog)
		q.POST("/print", s.apiQuotePrint)
		q.POST("/engrave", s.apiQuoteEngrave)
		q.GET("/selftest", s.apiSelfTest)

		api.POST("/send-inquiry", limitInquiry, s.apiSendInquiry)

		admin := api.Group("/admin")
		admin.POST("/login", s.rateLimit("admin_login", s.admin.LoginRateLimit, s.admin.LoginWindow), s.login)
		admin.POST("/logout", s.logout)

		authed := admin.Group("", s.AuthRequired())
		authed.GET("/products", s.listProducts)
		authed.POST("/products", s.upsertProduct)
		authed.PUT("/products", s.editProduct)
		authed.PATCH("/products", s.toggleProduct)
		authed.DELETE("/products", s.deleteProduct)

		authed.GET("/home", s.listHomeImages)
		authed.POST("/home", s.uploadHomeImage)
		authed.PATCH("/home", s.updateHomeImage)
		authed.DELETE("/home", s.deleteHomeImage)

		authed.GET("/inquiries", s.listInquiries)
		authed.GET("/inquiries/export", s.exportInquiries)
		authed.GET("/inquiries/stats", s.inquiryStats)
		authed.PATCH("/inquiries/:id", s.updateInquiryStatus)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	const operation = "server.Run"

	srv := &http.Server{
		Addr:         s.http.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.http.ReadTimeout,
		WriteTimeout: s.http.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", operation, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.http.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", operation, err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
