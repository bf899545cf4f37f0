package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ph-studio/internal/media"
	"ph-studio/internal/storage"
)

func (s *Server) listHomeImages(c *gin.Context) {
	items, err := s.store.ListHomeImages(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

func (s *Server) uploadHomeImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		AbortWithError(c, badRequest("missing_file", err))
		return
	}

	id, src, err := s.media.SaveHomeImage(formFile(c.Request, "image"))
	switch {
	case errors.Is(err, media.ErrMissingFile):
		AbortWithError(c, badRequest("missing_file", err))
		return
	case errors.Is(err, media.ErrUnsupportedType):
		AbortWithError(c, badRequest("bad_type", err))
		return
	case err != nil:
		AbortWithError(c, err)
		return
	}

	order, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("order")))
	item, err := s.store.CreateHomeImage(c.Request.Context(), storage.HomeImage{
		ID:     id,
		Title:  strings.TrimSpace(c.PostForm("title")),
		Src:    src,
		Order:  order,
		Active: true,
	})
	if err != nil {
		s.discard(c, src)
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item})
}

type homeImageEdit struct {
	ID string `json:"id"`
	storage.HomeImagePatch
}

func (s *Server) updateHomeImage(c *gin.Context) {
	var req homeImageEdit
	_ = c.ShouldBindJSON(&req)
	if req.ID == "" {
		AbortWithError(c, ErrInvalidID)
		return
	}

	item, err := s.store.UpdateHomeImage(c.Request.Context(), req.ID, req.HomeImagePatch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item})
}

func (s *Server) deleteHomeImage(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		AbortWithError(c, ErrInvalidID)
		return
	}

	removed, err := s.store.DeleteHomeImage(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.discard(c, removed.Src)
	c.JSON(http.StatusOK, response{OK: true})
}
