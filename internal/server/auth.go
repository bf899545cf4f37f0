package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ph-studio/pkg/logger"
)

const adminCookie = "ph_admin"

// adminToken derives the session cookie value from the shared password, so
// changing the password logs every session out.
func adminToken(password string) string {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte(adminCookie))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) validAdminCookie(c *gin.Context) bool {
	if s.admin.Password == "" {
		return false
	}
	v, err := c.Cookie(adminCookie)
	if err != nil || v == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v), []byte(adminToken(s.admin.Password))) == 1
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.validAdminCookie(c) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBindJSON(&req)

	expected := strings.TrimSpace(s.admin.Password)
	if expected == "" {
		AbortWithError(c, &clientError{status: http.StatusInternalServerError, message: "ADMIN_PASSWORD not set"})
		return
	}

	input := strings.TrimSpace(req.Password)
	if subtle.ConstantTimeCompare([]byte(input), []byte(expected)) != 1 {
		logger.Get(c.Request.Context()).Warn("Admin login rejected", zap.String("client_ip", c.ClientIP()))
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookie, adminToken(s.admin.Password), int(s.admin.SessionTTL.Seconds()), "/", "", s.admin.CookieSecure, true)
	c.JSON(http.StatusOK, response{OK: true})
}

func (s *Server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookie, "", -1, "/", "", s.admin.CookieSecure, true)
	c.JSON(http.StatusOK, response{OK: true})
}
