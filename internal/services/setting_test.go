package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-panel/internal/models"
)

func TestSettingService(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	settings := NewSettingService(env.gw)

	countRows := func(t *testing.T) int64 {
		db, err := env.gw.DB(ctx)
		require.NoError(t, err)
		var n int64
		require.NoError(t, db.Model(&models.Setting{}).Count(&n).Error)
		return n
	}

	t.Run("GetSettings - defaults before first write", func(t *testing.T) {
		s, err := settings.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, "My Site", s.SiteName)
		assert.Equal(t, "#00BFA6", s.PrimaryColor)
		assert.Equal(t, "#FF6B6B", s.SecondaryColor)
		assert.Zero(t, countRows(t))
	})

	t.Run("UpdateSettings - partial upsert keeps one row", func(t *testing.T) {
		s, err := settings.UpdateSettings(ctx, UpdateSettingsInput{SiteName: ptr("Acme Blog")})
		require.NoError(t, err)
		assert.Equal(t, "Acme Blog", s.SiteName)
		assert.Equal(t, "#00BFA6", s.PrimaryColor)

		s, err = settings.UpdateSettings(ctx, UpdateSettingsInput{PrimaryColor: ptr("#123abc")})
		require.NoError(t, err)
		assert.Equal(t, "Acme Blog", s.SiteName)
		assert.Equal(t, "#123ABC", s.PrimaryColor)

		assert.Equal(t, int64(1), countRows(t))
	})

	t.Run("UpdateSettings - concurrent writers keep one row", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = settings.UpdateSettings(ctx, UpdateSettingsInput{SiteDescription: ptr("busy")})
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(1), countRows(t))
	})

	t.Run("UpdateSettings - invalid color", func(t *testing.T) {
		_, err := settings.UpdateSettings(ctx, UpdateSettingsInput{SecondaryColor: ptr("red")})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "secondary_color")
	})
}

func TestDashboardService(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	posts := NewPostService(env.gw)
	author := env.defaultAdmin(t)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := posts.CreatePost(ctx, author.ID, CreatePostInput{Title: title, Status: models.StatusPublished})
		require.NoError(t, err)
	}
	for _, title := range []string{"Draft A", "Draft B"} {
		_, err := posts.CreatePost(ctx, author.ID, CreatePostInput{Title: title})
		require.NoError(t, err)
	}
	_, err := NewClientService(env.gw).CreateClient(ctx, CreateClientInput{Name: "C", Email: "c@example.com"})
	require.NoError(t, err)

	stats, err := NewDashboardService(env.gw).GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.PublishedPosts)
	assert.Equal(t, int64(2), stats.DraftPosts)
	assert.Equal(t, int64(5), stats.TotalPosts)
	assert.Equal(t, int64(0), stats.TotalPages)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalClients)
	assert.Len(t, stats.RecentPosts, recentLimit)
	assert.Len(t, stats.RecentUsers, 1)
	assert.Equal(t, author.Name, stats.RecentPosts[0].AuthorName)
}
