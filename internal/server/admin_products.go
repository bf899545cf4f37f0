package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"ph-studio/internal/media"
	"ph-studio/internal/storage"
	"ph-studio/pkg/logger"
)

func (s *Server) listProducts(c *gin.Context) {
	items, err := s.store.ListProducts(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

func formFloat(c *gin.Context, key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm(key)), 64)
	if err != nil {
		return 0
	}
	return v
}

// upsertProduct creates a product, or replaces the one with the same slug,
// from a multipart form with an optional image.
func (s *Server) upsertProduct(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		AbortWithError(c, badRequest(msgMissingFields, err))
		return
	}

	p := storage.Product{
		Title:        strings.TrimSpace(c.PostForm("title")),
		Slug:         strings.TrimSpace(c.PostForm("slug")),
		Desc:         c.PostForm("desc"),
		Dimensions:   c.PostForm("dimensions"),
		Price:        formFloat(c, "price"),
		Currency:     c.DefaultPostForm("currency", storage.DefaultCurrency),
		PromoPercent: formFloat(c, "promoPercent"),
		PromoUntil:   c.PostForm("promoUntil"),
		BuyURL:       c.PostForm("buyUrl"),
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	if p.Title == "" || p.Slug == "" || p.Price <= 0 {
		AbortWithError(c, badRequest(msgMissingFields, nil))
		return
	}
	if err := p.Validate(); err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	var replaced string
	if fh := formFile(c.Request, "image"); fh != nil && fh.Size > 0 {
		prev, err := s.store.GetProductBySlug(ctx, p.Slug)
		switch {
		case err == nil:
			replaced = prev.Image
		case !errors.Is(err, storage.ErrNotFound):
			AbortWithError(c, err)
			return
		}

		src, err := s.media.SaveProductFile(fh, p.Slug)
		if err != nil {
			if errors.Is(err, media.ErrUnsupportedType) {
				AbortWithError(c, badRequest(msgBadFileType, err))
				return
			}
			AbortWithError(c, err)
			return
		}
		p.Image = src
	}

	saved, err := s.store.UpsertProduct(ctx, p)
	if err != nil {
		s.discard(c, p.Image)
		AbortWithError(c, err)
		return
	}
	if replaced != "" && replaced != saved.Image {
		s.discard(c, replaced)
	}

	logger.Get(ctx).Info("Product saved", zap.String("product_id", saved.ID), zap.String("slug", saved.Slug))
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": saved})
}

type productEdit struct {
	ID string `json:"id"`
	storage.ProductPatch
}

// editProduct applies a JSON patch; the image is only replaced by upsert.
func (s *Server) editProduct(c *gin.Context) {
	var req productEdit
	_ = c.ShouldBindJSON(&req)
	if req.ID == "" {
		AbortWithError(c, ErrInvalidID)
		return
	}

	item, err := s.store.UpdateProduct(c.Request.Context(), req.ID, req.ProductPatch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item})
}

type productToggle struct {
	ID     string `json:"id"`
	Active *bool  `json:"active"`
}

func (s *Server) toggleProduct(c *gin.Context) {
	var req productToggle
	_ = c.ShouldBindJSON(&req)
	if req.ID == "" {
		AbortWithError(c, ErrInvalidID)
		return
	}
	if req.Active == nil {
		AbortWithError(c, ErrInvalid)
		return
	}

	item, err := s.store.UpdateProduct(c.Request.Context(), req.ID, storage.ProductPatch{Active: req.Active})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item})
}

func (s *Server) deleteProduct(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		AbortWithError(c, ErrInvalidID)
		return
	}

	removed, err := s.store.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.discard(c, removed.Image)
	c.JSON(http.StatusOK, response{OK: true})
}

// discard removes an uploaded file that is no longer referenced.
func (s *Server) discard(c *gin.Context, src string) {
	if src == "" {
		return
	}
	if err := s.media.Remove(src); err != nil {
		logger.Get(c.Request.Context()).Warn("Failed to remove upload", zap.String("src", src), zap.Error(err))
	}
}
