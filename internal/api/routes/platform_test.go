package routes

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

func TestPlatformRoutes(t *testing.T) {
	env := setupTestDB(t)
	require.NoError(t, os.MkdirAll(env.cfg.Server.FrontendDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.Server.FrontendDir, "index.html"),
		[]byte("<!doctype html><div id=app></div>"), 0644))
	router := setupTestRouter(env)

	t.Run("GET /api/health - No token required", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/health", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.Equal(t, "ok", response["status"])
		assert.Equal(t, "up", response["database"])
	})

	t.Run("GET /api/health - Security headers and request id", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/health", "", nil)

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
		assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("GET /api/unknown - JSON 404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/unknown", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "API endpoint not found", decode(t, w)["message"])
	})

	t.Run("GET /posts/42 - SPA fallback", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/posts/42", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<div id=app>`)
	})

	t.Run("OPTIONS /api/blog - CORS preflight from allowed origin", func(t *testing.T) {
		req := newRequest(http.MethodOptions, "/api/blog")
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := serve(router, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("GET /api/health - CORS rejects unknown origin", func(t *testing.T) {
		req := newRequest(http.MethodGet, "/api/health")
		req.Header.Set("Origin", "https://evil.example")
		w := serve(router, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestPlatformRoutesWithoutFrontend(t *testing.T) {
	env := setupTestDB(t)
	router := setupTestRouter(env)

	w := doJSON(router, http.MethodGet, "/dashboard", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	env := setupTestDB(t)
	env.cfg.Security.RateLimit.Enabled = true
	env.cfg.Security.RateLimit.RequestsPerMinute = 2
	router := setupTestRouter(env)

	login := map[string]interface{}{"email": env.cfg.DefaultUser.Email, "password": "wrong"}
	for i := 0; i < 2; i++ {
		w := doJSON(router, http.MethodPost, "/api/auth/login", "", login)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := doJSON(router, http.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// other routes are not limited
	w = doJSON(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerlessLazyInitialization(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Serverless = true
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := models.NewGateway(cfg, logger)
	t.Cleanup(func() { _ = gw.Close() })

	router := NewEngine(cfg, gw, logger)
	auth := services.NewAuthService(gw, cfg)
	token, _, err := auth.IssueToken(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	t.Run("GET /api/health - Does not initialize", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/health", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not_initialized", decode(t, w)["database"])
		assert.False(t, gw.Initialized())
	})

	t.Run("Concurrent first requests share one initialization", func(t *testing.T) {
		const n = 10
		codes := make([]int, n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				codes[i] = doJSON(router, http.MethodGet, "/api/blog", token, nil).Code
			}(i)
		}
		wg.Wait()

		for _, code := range codes {
			assert.Equal(t, http.StatusOK, code)
		}
		assert.True(t, gw.Initialized())
		assert.EqualValues(t, 1, gw.Initializations())
	})

	t.Run("POST /api/auth/login - Default admin was seeded", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email":    cfg.DefaultUser.Email,
			"password": cfg.DefaultUser.Password,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, gw.Initializations())
	})
}

func TestServerlessInitializationFailureIsRetried(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Serverless = true
	dataDir := filepath.Join(t.TempDir(), "not-yet")
	cfg.Database.SQLite.Path = filepath.Join(dataDir, "cms.db")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := models.NewGateway(cfg, logger)
	t.Cleanup(func() { _ = gw.Close() })
	router := NewEngine(cfg, gw, logger)

	login := map[string]interface{}{"email": cfg.DefaultUser.Email, "password": cfg.DefaultUser.Password}

	w := doJSON(router, http.MethodPost, "/api/auth/login", "", login)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Database initialization failed", decode(t, w)["message"])
	assert.False(t, gw.Initialized())

	require.NoError(t, os.MkdirAll(dataDir, 0755))

	w = doJSON(router, http.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, gw.Initialized())
}
