package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
)

var (
	errMissingAuth = services.NewError(services.ErrUnauthorized, "authorization header required")
	errBadAuth     = services.NewError(services.ErrUnauthorized, "invalid authorization header format")
)

func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, errMissingAuth)
			return
		}

		// Extract token from "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortWithError(c, errBadAuth)
			return
		}

		identity, err := authService.VerifyToken(token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, identity.UserID)

		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated caller holds one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			abortWithError(c, errMissingAuth)
			return
		}
		if !identity.HasRole(roles...) {
			abortWithError(c, services.ErrInsufficientRole)
			return
		}

		c.Next()
	}
}

// CurrentIdentity returns the caller set by AuthMiddleware, or nil.
func CurrentIdentity(c *gin.Context) *services.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*services.Identity)
	return identity
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
