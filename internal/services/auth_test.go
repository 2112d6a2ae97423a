package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-panel/internal/models"
)

func TestAuthService(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	t.Run("CreateDefaultUser seeds one admin", func(t *testing.T) {
		admin := env.defaultAdmin(t)
		assert.Equal(t, models.RoleAdmin, admin.Role)

		// A second run must not add another user.
		db, err := env.gw.DB(ctx)
		require.NoError(t, err)
		require.NoError(t, env.auth.CreateDefaultUser(ctx, db))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Login - round trip", func(t *testing.T) {
		result, err := env.auth.Login(ctx, "  ADMIN@example.com ", "admin123")
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)
		assert.Equal(t, "admin@example.com", result.User.Email)
		require.NotNil(t, result.User.LastLogin)

		identity, err := env.auth.VerifyToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, identity.UserID)
		assert.Equal(t, models.RoleAdmin, identity.Role)
		assert.WithinDuration(t, result.ExpiresAt, identity.ExpiresAt, time.Second)
	})

	t.Run("Login - invalid credentials issue no token", func(t *testing.T) {
		cases := []struct {
			name     string
			email    string
			password string
		}{
			{"wrong password", "admin@example.com", "nope"},
			{"unknown email", "ghost@example.com", "admin123"},
			{"empty", "", ""},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				result, err := env.auth.Login(ctx, tc.email, tc.password)
				assert.Nil(t, result)
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.ErrorIs(t, err, ErrUnauthorized)
			})
		}
	})

	t.Run("VerifyToken - rejects tampered, foreign and expired tokens", func(t *testing.T) {
		admin := env.defaultAdmin(t)
		token, _, err := env.auth.IssueToken(admin)
		require.NoError(t, err)

		_, err = env.auth.VerifyToken(token + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)

		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID: admin.ID,
			Role:   models.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    env.cfg.JWT.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("another-secret"))
		require.NoError(t, err)
		_, err = env.auth.VerifyToken(foreign)
		assert.ErrorIs(t, err, ErrInvalidToken)

		expired := NewAuthService(env.gw, env.cfg)
		expired.now = func() time.Time { return time.Now().Add(-2 * env.cfg.JWT.ExpiresIn) }
		old, _, err := expired.IssueToken(admin)
		require.NoError(t, err)
		_, err = env.auth.VerifyToken(old)
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = env.auth.VerifyToken("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("RequireRole", func(t *testing.T) {
		editor := &Identity{UserID: 2, Role: models.RoleEditor}

		assert.NoError(t, env.auth.RequireRole(editor, models.RoleAdmin, models.RoleEditor))
		assert.ErrorIs(t, env.auth.RequireRole(editor, models.RoleAdmin), ErrForbidden)
		assert.ErrorIs(t, env.auth.RequireRole(nil, models.RoleAdmin), ErrUnauthorized)
	})

	t.Run("ChangePassword", func(t *testing.T) {
		user := createTestUser(t, env, "changer@example.com", models.RoleEditor)

		err := env.auth.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "newsecret"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "current_password")

		err = env.auth.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "123"})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "new_password")

		require.NoError(t, env.auth.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "newsecret"}))

		_, err = env.auth.Login(ctx, "changer@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = env.auth.Login(ctx, "changer@example.com", "newsecret")
		assert.NoError(t, err)
	})

	t.Run("CurrentUser - removed account", func(t *testing.T) {
		_, err := env.auth.CurrentUser(ctx, &Identity{UserID: 9999, Role: models.RoleAdmin})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
