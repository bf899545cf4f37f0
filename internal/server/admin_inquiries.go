package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ph-studio/internal/report"
	"ph-studio/internal/storage"
)

// statusFilter reads ?status=; empty means every status.
func statusFilter(c *gin.Context) (storage.InquiryStatus, error) {
	status := storage.InquiryStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return "", ErrInvalid
	}
	return status, nil
}

func (s *Server) listInquiries(c *gin.Context) {
	status, err := statusFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.store.ListInquiries(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items})
}

type statusUpdate struct {
	Status storage.InquiryStatus `json:"status"`
}

func (s *Server) updateInquiryStatus(c *gin.Context) {
	var req statusUpdate
	_ = c.ShouldBindJSON(&req)
	if !req.Status.Valid() {
		AbortWithError(c, ErrInvalid)
		return
	}

	item, err := s.store.UpdateInquiryStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "item": item})
}

func (s *Server) exportInquiries(c *gin.Context) {
	status, err := statusFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.store.ListInquiries(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	b, err := report.InquiriesWorkbook(items)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	attachment(c, "zapitvania_"+s.now().Format("20060102")+".xlsx")
	c.Data(http.StatusOK, mimeXLSX, b)
}

func (s *Server) inquiryStats(c *gin.Context) {
	stats, err := s.store.InquiryStatistics(c.Request.Context(), s.now())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": stats})
}
