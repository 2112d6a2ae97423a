package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cms-panel/internal/config"
)

// CORS allows the configured admin client origins. A single "*" allows any
// origin without credentials.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}

	switch {
	case len(origins) == 1 && origins[0] == "*":
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	case len(origins) == 0:
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	default:
		corsCfg.AllowOrigins = origins
	}

	return cors.New(corsCfg)
}
