package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ph-studio/internal/quote"
	"ph-studio/internal/storage"
	"ph-studio/pkg/logger"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not_found")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalid       = errors.New("invalid")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate_limited")
	ErrInternal      = errors.New("internal")
	ErrNotConfigured = errors.New("not_configured")
)

const (
	msgMissingFields = "Липсват задължителни полета."
	msgBadFileType   = "Неподдържан тип файл."
	msgRateLimited   = "Твърде много опити. Опитайте по-късно."
)

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// clientError carries the status and the exact text returned to the caller.
type clientError struct {
	status  int
	message string
	err     error
}

func (e *clientError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *clientError) Unwrap() error { return e.err }

func badRequest(message string, cause error) error {
	return &clientError{status: http.StatusBadRequest, message: message, err: cause}
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		if status >= http.StatusInternalServerError {
			logger.Get(c.Request.Context()).Error("Request failed",
				zap.String("route", c.FullPath()),
				zap.Error(lastErr.Err))
		}
		c.AbortWithStatusJSON(status, response{OK: false, Error: message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	var ce *clientError
	if errors.As(err, &ce) {
		return ce.status, ce.message
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, ""
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest, ErrInvalidID.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrConflict), errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, ErrConflict.Error()
	case errors.Is(err, ErrInvalid),
		errors.Is(err, storage.ErrInvalidProduct),
		errors.Is(err, storage.ErrInvalidStatus):
		return http.StatusBadRequest, ErrInvalid.Error()
	case errors.Is(err, quote.ErrUnknownPrinter),
		errors.Is(err, quote.ErrUnknownMaterial),
		errors.Is(err, quote.ErrUnknownSurface),
		errors.Is(err, quote.ErrInvalidQuantity),
		errors.Is(err, quote.ErrOutOfRange):
		return http.StatusBadRequest, quoteMessage(err)
	case errors.Is(err, ErrNotConfigured):
		return http.StatusInternalServerError, ErrNotConfigured.Error()
	}

	return http.StatusInternalServerError, ErrInternal.Error()
}

// quoteMessage is the Bulgarian text for calculator input errors.
func quoteMessage(err error) string {
	switch {
	case errors.Is(err, quote.ErrUnknownPrinter):
		return "Непознат принтер."
	case errors.Is(err, quote.ErrUnknownMaterial):
		return "Непознат материал."
	case errors.Is(err, quote.ErrUnknownSurface):
		return "Непозната повърхност."
	case errors.Is(err, quote.ErrInvalidQuantity):
		return "Бройката трябва да е поне 1."
	case errors.Is(err, quote.ErrOutOfRange):
		return "Стойностите са извън допустимия обхват."
	}
	return "Невалидни данни."
}
