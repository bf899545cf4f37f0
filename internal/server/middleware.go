package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ph-studio/internal/metrics"
	"ph-studio/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// Limiter is a fixed-window counter keyed by caller.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// RequestLogger puts a request-scoped logger carrying the request id into the
// request context and writes an access log line once the handler finishes.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		ctx := logger.WithLogger(c.Request.Context(), base.With(zap.String("request_id", requestID)))
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		logger.Get(ctx).Info("Access log",
			zap.Int("status_code", c.Writer.Status()),
			zap.Float64("latency", time.Since(start).Seconds()),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("url", c.Request.URL.String()),
			zap.String("referer", c.Request.Referer()),
			zap.String("method", c.Request.Method),
		)
	}
}

// Observe records request count and latency per matched route.
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// rateLimit allows limit requests per client IP and window. A limiter error
// lets the request through.
func (s *Server) rateLimit(name string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ok, err := s.limiter.Allow(ctx, name+":"+c.ClientIP(), limit, window)
		if err != nil {
			logger.Get(ctx).Warn("Rate limiter unavailable", zap.String("limit", name), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			s.metrics.RateLimited(name)
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
