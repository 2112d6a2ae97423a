package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout bounds the request context, so database calls made with it fail
// once d has elapsed. Routes listed in exempt, as "METHOD /full/path", keep
// the caller's context.
func Timeout(d time.Duration, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(exempt))
	for _, route := range exempt {
		skip[route] = true
	}

	return func(c *gin.Context) {
		if d <= 0 || skip[c.Request.Method+" "+c.FullPath()] {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
