package services

import (
	"context"
	"log/slog"

	"cms-panel/internal/models"
)

// Audit actions.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionUpload         = "upload"
	ActionPasswordChange = "password_change"
)

type AuditService struct {
	gw     *models.Gateway
	logger *slog.Logger
}

func NewAuditService(gw *models.Gateway, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{gw: gw, logger: logger}
}

type AuditFilter struct {
	ListOptions
	UserID   uint
	Resource string
}

// Record stores an audit entry. Failures are logged, not returned.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	db, err := s.gw.DB(ctx)
	if err == nil {
		err = db.Create(&entry).Error
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record audit entry",
			"action", entry.Action, "resource", entry.Resource, "user_id", entry.UserID, "error", err)
	}
}

// GetLogs returns audit entries, newest first
func (s *AuditService) GetLogs(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := filter.searchColumns(db.Model(&models.AuditLog{}), "action", "details")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Resource != "" {
		query = query.Where("resource = ?", filter.Resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.Classify(err)
	}

	logs := []models.AuditLog{}
	if err := filter.paginate(query).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, 0, models.Classify(err)
	}
	return logs, total, nil
}
