package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Error   string            `json:"error,omitempty"`
	Stack   string            `json:"stack,omitempty"`
}

// StatusFor maps an error onto its HTTP status by kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders the last error attached with c.Error as an ErrorResponse.
// Server errors are logged and answered with a generic message; in development
// the response also carries the error text.
func ErrorHandler(logger *slog.Logger, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := StatusFor(err)
		resp := ErrorResponse{Message: err.Error()}

		var verr *services.ValidationError
		if errors.As(err, &verr) {
			resp.Message = "Validation failed"
			resp.Fields = verr.Fields
		}

		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", status,
				"request_id", c.GetString(RequestIDKey),
				"error", err,
			)
			resp.Message = serverMessage(status)
			if dev {
				resp.Error = err.Error()
			}
		}

		c.AbortWithStatusJSON(status, resp)
	}
}

// Recovery turns a panic into a 500 response. The stack is logged, and
// included in the response in development.
func Recovery(logger *slog.Logger, dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			stack := string(debug.Stack())
			logger.ErrorContext(c.Request.Context(), "panic recovered",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", c.GetString(RequestIDKey),
				"panic", rec,
				"stack", stack,
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			resp := ErrorResponse{Message: serverMessage(http.StatusInternalServerError)}
			if dev {
				resp.Error = fmt.Sprint(rec)
				resp.Stack = stack
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
		}()

		c.Next()
	}
}

func serverMessage(status int) string {
	if status == http.StatusServiceUnavailable {
		return "Service temporarily unavailable"
	}
	return "Internal server error"
}
