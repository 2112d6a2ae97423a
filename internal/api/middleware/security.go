package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	contentSecurityPolicy = "default-src 'self'; img-src 'self' data: blob:; media-src 'self' blob:; " +
		"style-src 'self' 'unsafe-inline'; font-src 'self' data:; object-src 'none'; " +
		"base-uri 'self'; form-action 'self'; frame-ancestors 'self'"
	permissionsPolicy = "accelerometer=(), camera=(), geolocation=(), gyroscope=(), " +
		"magnetometer=(), microphone=(), payment=(), usb=()"
	hstsValue = "max-age=31536000; includeSubDomains"
)

// SecurityHeaders sets the standard hardening headers on every response.
// HSTS is only sent outside development and only over HTTPS.
func SecurityHeaders(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", permissionsPolicy)
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		// same-site lets the admin client on another port of the same host load media
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		h.Set("X-DNS-Prefetch-Control", "off")

		if !dev && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		c.Next()
	}
}

func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
