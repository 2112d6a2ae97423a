package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/models"
)

// EnsureDatabase initialises the gateway on the first request(s) when the process
// was not initialised at startup. Concurrent first requests share one attempt;
// after a failure the next request tries again.
func EnsureDatabase(gw *models.Gateway, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gw.Initialized() {
			if err := gw.EnsureInitialized(c.Request.Context()); err != nil {
				logger.ErrorContext(c.Request.Context(), "database initialization failed",
					"request_id", c.GetString(RequestIDKey), "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Database initialization failed",
				})
				return
			}
		}
		c.Next()
	}
}
