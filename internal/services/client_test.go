package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	clients := NewClientService(env.gw)

	client, err := clients.CreateClient(ctx, CreateClientInput{
		Name:    "Acme",
		Email:   "hello@acme.test",
		Phone:   "555-0100",
		Company: "Acme Corp",
	})
	require.NoError(t, err)

	t.Run("UpdateClient - phone alone leaves other fields unchanged", func(t *testing.T) {
		updated, err := clients.UpdateClient(ctx, client.ID, UpdateClientInput{Phone: ptr("555-0199")})
		require.NoError(t, err)

		assert.Equal(t, "555-0199", updated.Phone)
		assert.Equal(t, "Acme", updated.Name)
		assert.Equal(t, "hello@acme.test", updated.Email)
		assert.Equal(t, "Acme Corp", updated.Company)
	})

	t.Run("UpdateClient - clearing a field", func(t *testing.T) {
		updated, err := clients.UpdateClient(ctx, client.ID, UpdateClientInput{Company: ptr("")})
		require.NoError(t, err)
		assert.Empty(t, updated.Company)
		assert.Equal(t, "555-0199", updated.Phone)
	})

	t.Run("CreateClient - duplicate email", func(t *testing.T) {
		_, err := clients.CreateClient(ctx, CreateClientInput{Name: "Acme 2", Email: "HELLO@acme.test"})
		assert.ErrorIs(t, err, ErrClientExists)
	})

	t.Run("CreateClient - validation", func(t *testing.T) {
		_, err := clients.CreateClient(ctx, CreateClientInput{Email: "nope"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "is required", verr.Fields["name"])
		assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	})

	t.Run("UpdateClient - empty name rejected", func(t *testing.T) {
		_, err := clients.UpdateClient(ctx, client.ID, UpdateClientInput{Name: ptr("  ")})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("GetClients - search", func(t *testing.T) {
		_, err := clients.CreateClient(ctx, CreateClientInput{Name: "Globex", Email: "info@globex.test"})
		require.NoError(t, err)

		found, total, err := clients.GetClients(ctx, ListOptions{Query: "glob"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Globex", found[0].Name)
	})

	t.Run("GetClients - page far past the end is empty", func(t *testing.T) {
		found, total, err := clients.GetClients(ctx, ListOptions{Page: math.MaxInt, PerPage: 10})
		require.NoError(t, err)
		assert.Empty(t, found)
		assert.Positive(t, total)
	})

	t.Run("DeleteClient", func(t *testing.T) {
		require.NoError(t, clients.DeleteClient(ctx, client.ID))
		_, err := clients.GetClient(ctx, client.ID)
		assert.ErrorIs(t, err, ErrClientNotFound)
	})
}
