package services

import (
	"context"

	"cms-panel/internal/models"
)

const recentLimit = 5

// DashboardStats is the read-only overview shown on the admin home page.
type DashboardStats struct {
	PublishedPosts int64             `json:"publishedPosts"`
	DraftPosts     int64             `json:"draftPosts"`
	TotalPosts     int64             `json:"totalPosts"`
	TotalPages     int64             `json:"totalPages"`
	TotalUsers     int64             `json:"totalUsers"`
	TotalMedia     int64             `json:"totalMedia"`
	TotalClients   int64             `json:"totalClients"`
	RecentPosts    []models.BlogPost `json:"recentPosts"`
	RecentUsers    []models.User     `json:"recentUsers"`
}

type DashboardService struct {
	gw *models.Gateway
}

func NewDashboardService(gw *models.Gateway) *DashboardService {
	return &DashboardService{gw: gw}
}

// GetStats returns content counts and the most recent posts and users
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		RecentPosts: []models.BlogPost{},
		RecentUsers: []models.User{},
	}

	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dst   *int64
	}{
		{&models.BlogPost{}, "status = ?", []interface{}{models.StatusPublished}, &stats.PublishedPosts},
		{&models.BlogPost{}, "status = ?", []interface{}{models.StatusDraft}, &stats.DraftPosts},
		{&models.BlogPost{}, "", nil, &stats.TotalPosts},
		{&models.Page{}, "", nil, &stats.TotalPages},
		{&models.User{}, "", nil, &stats.TotalUsers},
		{&models.MediaAsset{}, "", nil, &stats.TotalMedia},
		{&models.Client{}, "", nil, &stats.TotalClients},
	}
	for _, c := range counts {
		query := db.Model(c.model)
		if c.where != "" {
			query = query.Where(c.where, c.args...)
		}
		if err := query.Count(c.dst).Error; err != nil {
			return nil, models.Classify(err)
		}
	}

	if err := db.Preload("Author").Order("created_at DESC, id DESC").Limit(recentLimit).Find(&stats.RecentPosts).Error; err != nil {
		return nil, models.Classify(err)
	}
	if err := db.Order("created_at DESC, id DESC").Limit(recentLimit).Find(&stats.RecentUsers).Error; err != nil {
		return nil, models.Classify(err)
	}

	return stats, nil
}
