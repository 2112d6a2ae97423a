package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cms-panel/internal/config"
	"cms-panel/internal/models"
)

type testEnv struct {
	cfg    *config.Config
	gw     *models.Gateway
	auth   *AuthService
	logger *slog.Logger
}

// setupTestDB returns services backed by a fresh SQLite database seeded with the default admin
func setupTestDB(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "cms_test.db")
	cfg.JWT.Secret = "test-secret-key-for-testing-only"
	cfg.JWT.Issuer = "cms-panel-test"
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.Uploads.Dir = filepath.Join(t.TempDir(), "uploads")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := models.NewGateway(cfg, logger)
	auth := NewAuthService(gw, cfg)
	gw.OnInit(auth.CreateDefaultUser)

	require.NoError(t, gw.EnsureInitialized(context.Background()))
	t.Cleanup(func() { _ = gw.Close() })

	return &testEnv{cfg: cfg, gw: gw, auth: auth, logger: logger}
}

// createTestUser creates a user with the given role
func createTestUser(t *testing.T, env *testEnv, email, role string) *models.User {
	t.Helper()
	users := NewUserService(env.gw, env.auth)
	user, err := users.CreateUser(context.Background(), CreateUserInput{
		Name:     "Test " + role,
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (env *testEnv) defaultAdmin(t *testing.T) *models.User {
	t.Helper()
	db, err := env.gw.DB(context.Background())
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.Where("email = ?", env.cfg.DefaultUser.Email).First(&user).Error)
	return &user
}

func ptr[T any](v T) *T {
	return &v
}
