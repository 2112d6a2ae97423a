package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-panel/internal/models"
)

func TestClientsRoutes(t *testing.T) {
	env := setupTestDB(t)
	router := setupTestRouter(env)

	editorUser := createTestUser(t, env, "editor@example.com", models.RoleEditor)
	viewerUser := createTestUser(t, env, "viewer@example.com", models.RoleViewer)
	editorToken := createTestToken(t, env, editorUser)
	viewerToken := createTestToken(t, env, viewerUser)

	var clientID string

	t.Run("POST /api/clients - Success (editor)", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/clients", editorToken, map[string]interface{}{
			"name":    "Acme Corp",
			"email":   "Contact@Acme.test",
			"company": "Acme",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		client := object(t, decode(t, w), "client")
		assert.Equal(t, "contact@acme.test", client["email"])
		clientID = idOf(client)
	})

	t.Run("POST /api/clients - Forbidden (viewer)", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/clients", viewerToken, map[string]interface{}{
			"name":  "Other",
			"email": "other@acme.test",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("POST /api/clients - Validation error", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/clients", editorToken, map[string]interface{}{
			"email": "not-an-email",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decode(t, w)
		assert.Equal(t, "Validation failed", response["message"])
		fields := object(t, response, "fields")
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "email")
	})

	t.Run("POST /api/clients - Conflict (duplicate email)", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/clients", editorToken, map[string]interface{}{
			"name":  "Acme Again",
			"email": "contact@acme.test",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("POST /api/clients - Malformed JSON", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/clients", editorToken, "just a string")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GET /api/clients - Success with viewer", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/clients?q=acme", viewerToken, nil)

		require.Equal(t, http.StatusOK, w.Code)
		response := decode(t, w)
		assert.Contains(t, response, "clients")
		assert.EqualValues(t, 1, response["total"])
	})

	t.Run("GET /api/clients - Unauthorized (no token)", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/clients", "", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, decode(t, w)["message"])
	})

	t.Run("GET /api/clients - Unauthorized (malformed token)", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/clients", "not.a.jwt", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GET /api/clients/:id - Success", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/clients/"+clientID, viewerToken, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Acme Corp", object(t, decode(t, w), "client")["name"])
	})

	t.Run("GET /api/clients/:id - Not Found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/clients/99999", viewerToken, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "client not found", decode(t, w)["message"])
	})

	t.Run("GET /api/clients/:id - Invalid ID", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/clients/invalid", viewerToken, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("PUT /api/clients/:id - Partial update keeps other fields", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/clients/"+clientID, editorToken, map[string]interface{}{
			"phone": "+1 555 0100",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		client := object(t, decode(t, w), "client")
		assert.Equal(t, "+1 555 0100", client["phone"])
		assert.Equal(t, "Acme Corp", client["name"])
	})

	t.Run("DELETE /api/clients/:id - Forbidden (viewer)", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/clients/"+clientID, viewerToken, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DELETE /api/clients/:id - Success", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/clients/"+clientID, editorToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodDelete, "/api/clients/"+clientID, editorToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
