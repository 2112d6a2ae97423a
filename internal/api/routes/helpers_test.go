package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cms-panel/internal/config"
	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

type testEnv struct {
	cfg    *config.Config
	gw     *models.Gateway
	auth   *services.AuthService
	logger *slog.Logger
}

// testConfig returns a configuration pointing at fresh temp storage
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.Server.Env = "test"
	cfg.Server.FrontendDir = filepath.Join(dir, "web")
	cfg.Database.SQLite.Path = filepath.Join(dir, "cms_test.db")
	cfg.JWT.Secret = "test-secret-key-for-testing-only"
	cfg.JWT.Issuer = "cms-panel-test"
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.Security.RateLimit.Enabled = false
	cfg.Uploads.Dir = filepath.Join(dir, "uploads")
	require.NoError(t, cfg.EnsureDirs())
	return cfg
}

// setupTestDB initializes a test database seeded with the default admin
func setupTestDB(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := models.NewGateway(cfg, logger)
	auth := services.NewAuthService(gw, cfg)
	gw.OnInit(auth.CreateDefaultUser)

	require.NoError(t, gw.EnsureInitialized(context.Background()))
	t.Cleanup(func() { _ = gw.Close() })

	return &testEnv{cfg: cfg, gw: gw, auth: auth, logger: logger}
}

// createTestUser creates a test user and returns it
func createTestUser(t *testing.T, env *testEnv, email, role string) *models.User {
	t.Helper()
	users := services.NewUserService(env.gw, env.auth)
	user, err := users.CreateUser(context.Background(), services.CreateUserInput{
		Name:     "Test " + role,
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

// createTestToken issues a bearer token for user
func createTestToken(t *testing.T, env *testEnv, user *models.User) string {
	t.Helper()
	token, _, err := env.auth.IssueToken(user)
	require.NoError(t, err)
	return token
}

// setupTestRouter creates a test router with routes
func setupTestRouter(env *testEnv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewEngine(env.cfg, env.gw, env.logger)
}

// doJSON performs a request with an optional bearer token and JSON body
func doJSON(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the response body into a generic map
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

// object returns response[key] as a JSON object
func object(t *testing.T, response map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	obj, ok := response[key].(map[string]interface{})
	require.True(t, ok, "response has no %q object: %v", key, response)
	return obj
}

// idOf returns the numeric id of a decoded JSON object as a path segment
func idOf(obj map[string]interface{}) string {
	f, _ := obj["id"].(float64)
	return strconv.FormatUint(uint64(f), 10)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) defaultAdmin(t *testing.T) *models.User {
	t.Helper()
	db, err := env.gw.DB(context.Background())
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("email = ?", env.cfg.DefaultUser.Email).First(&user).Error)
	return &user
}
