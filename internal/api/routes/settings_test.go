package routes

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

func TestSettingsRoutes(t *testing.T) {
	env := setupTestDB(t)
	router := setupTestRouter(env)

	adminToken := createTestToken(t, env, env.defaultAdmin(t))
	editorToken := createTestToken(t, env, createTestUser(t, env, "editor@example.com", models.RoleEditor))

	t.Run("GET /api/settings - Defaults when never saved", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/settings", editorToken, nil)

		require.Equal(t, http.StatusOK, w.Code)
		settings := object(t, decode(t, w), "settings")
		assert.Equal(t, "My Site", settings["site_name"])
		assert.Equal(t, "#00BFA6", settings["primary_color"])
	})

	t.Run("PUT /api/settings - Forbidden (editor)", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/settings", editorToken, map[string]interface{}{
			"site_name": "Editor Site",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("PUT /api/settings - Invalid color", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/settings", adminToken, map[string]interface{}{
			"primary_color": "teal",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, object(t, decode(t, w), "fields"), "primary_color")
	})

	t.Run("PUT /api/settings - Partial upsert", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/settings", adminToken, map[string]interface{}{
			"site_name":     "Acme Blog",
			"primary_color": "#abcdef",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(router, http.MethodGet, "/api/settings", editorToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		settings := object(t, decode(t, w), "settings")
		assert.Equal(t, "Acme Blog", settings["site_name"])
		assert.Equal(t, "#ABCDEF", settings["primary_color"])
		assert.Equal(t, "#FF6B6B", settings["secondary_color"])
	})
}

func TestDashboardRoutes(t *testing.T) {
	env := setupTestDB(t)
	router := setupTestRouter(env)

	admin := env.defaultAdmin(t)
	viewerToken := createTestToken(t, env, createTestUser(t, env, "viewer@example.com", models.RoleViewer))

	posts := services.NewPostService(env.gw)
	for title, status := range map[string]string{
		"Launch":   models.StatusPublished,
		"Idea one": models.StatusDraft,
		"Idea two": models.StatusDraft,
	} {
		_, err := posts.CreatePost(context.Background(), admin.ID, services.CreatePostInput{Title: title, Status: status})
		require.NoError(t, err)
	}

	for _, path := range []string{"/api/dashboard", "/api/dashboard/stats"} {
		t.Run("GET "+path+" - Success", func(t *testing.T) {
			w := doJSON(router, http.MethodGet, path, viewerToken, nil)

			require.Equal(t, http.StatusOK, w.Code)
			stats := object(t, decode(t, w), "stats")
			assert.EqualValues(t, 1, stats["publishedPosts"])
			assert.EqualValues(t, 2, stats["draftPosts"])
			assert.EqualValues(t, 3, stats["totalPosts"])
			assert.EqualValues(t, 2, stats["totalUsers"])
			assert.Len(t, stats["recentPosts"], 3)
		})
	}

	t.Run("GET /api/dashboard - Unauthorized (no token)", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/dashboard", "", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
