package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"cms-panel/internal/config"
	"cms-panel/internal/models"
)

// tempPrefix marks in-progress uploads inside the upload directory.
const tempPrefix = ".upload-"

type MediaService struct {
	gw     *models.Gateway
	cfg    config.UploadsConfig
	logger *slog.Logger
}

func NewMediaService(gw *models.Gateway, cfg config.UploadsConfig, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{gw: gw, cfg: cfg, logger: logger.With("component", "media")}
}

type MediaFilter struct {
	ListOptions
	// MimePrefix filters by type, e.g. "image/" or "application/pdf".
	MimePrefix string
}

// GetMedia returns media matching filter, newest first
func (s *MediaService) GetMedia(ctx context.Context, filter MediaFilter) ([]models.MediaAsset, int64, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := filter.searchColumns(db.Model(&models.MediaAsset{}), "original_name")
	if filter.MimePrefix != "" {
		query = query.Where("mime_type LIKE ? ESCAPE '!'", escapeLike(strings.ToLower(filter.MimePrefix))+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.Classify(err)
	}

	media := []models.MediaAsset{}
	if err := filter.paginate(query).Order("created_at DESC, id DESC").Find(&media).Error; err != nil {
		return nil, 0, models.Classify(err)
	}
	return media, total, nil
}

// GetMediaAsset returns a specific media asset by ID
func (s *MediaService) GetMediaAsset(ctx context.Context, id uint) (*models.MediaAsset, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}

	var asset models.MediaAsset
	if err := db.First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, models.Classify(err)
	}
	return &asset, nil
}

// Upload stores the content of r and records it. The type is detected from
// the content, not from the client's name or header, and must be allowed.
// On any failure no file and no record remain.
func (s *MediaService) Upload(ctx context.Context, userID uint, originalName string, r io.Reader) (*models.MediaAsset, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.cfg.Dir, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	size, err := io.Copy(tmp, io.LimitReader(r, s.cfg.MaxSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if size == 0 {
		return nil, NewValidationError("file", "is empty")
	}
	if size > s.cfg.MaxSize {
		return nil, NewValidationError("file", fmt.Sprintf("exceeds the maximum size of %d bytes", s.cfg.MaxSize))
	}

	mtype, err := mimetype.DetectFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	mimeType, ok := s.allowedType(mtype)
	if !ok {
		return nil, NewValidationError("file", fmt.Sprintf("file type %s is not allowed", mtype.String()))
	}

	filename := uuid.NewString() + mtype.Extension()
	finalPath := filepath.Join(s.cfg.Dir, filename)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	keep = true

	asset := &models.MediaAsset{
		Filename:     filename,
		OriginalName: sanitizeFilename(originalName),
		Path:         path.Join(s.cfg.URLPrefix, filename),
		MimeType:     mimeType,
		Size:         size,
		UploadedBy:   userID,
	}

	db, err := s.gw.DB(ctx)
	if err == nil {
		err = models.Classify(db.Create(asset).Error)
	}
	if err != nil {
		if rmErr := os.Remove(finalPath); rmErr != nil {
			s.logger.Warn("failed to remove upload after failed insert", "file", filename, "error", rmErr)
		}
		return nil, err
	}

	return asset, nil
}

// allowedType matches the detected type, or one of its aliases, against the allow-list.
// Parent types are not considered: text/html must not pass as text/plain.
func (s *MediaService) allowedType(mtype *mimetype.MIME) (string, bool) {
	for _, allowed := range s.cfg.AllowedTypes {
		if mtype.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}

// DeleteMedia removes the record, clears references to its path and then
// removes the file. A file that cannot be removed is left for PruneOrphans.
func (s *MediaService) DeleteMedia(ctx context.Context, id uint) error {
	var asset models.MediaAsset
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMediaNotFound
			}
			return err
		}

		if err := tx.Model(&models.BlogPost{}).Where("featured_image = ?", asset.Path).
			Update("featured_image", "").Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Setting{}).Where("site_logo = ?", asset.Path).
			Update("site_logo", "").Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("avatar = ?", asset.Path).
			Update("avatar", "").Error; err != nil {
			return err
		}

		return tx.Delete(&asset).Error
	})
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.cfg.Dir, asset.Filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove media file", "id", id, "file", asset.Filename, "error", err)
	}
	return nil
}

// PruneOrphans removes files older than minAge that no media record references,
// including abandoned in-progress uploads. It returns the number removed.
func (s *MediaService) PruneOrphans(ctx context.Context, minAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return 0, err
	}

	var names []string
	if err := db.Model(&models.MediaAsset{}).Pluck("filename", &names).Error; err != nil {
		return 0, models.Classify(err)
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	cutoff := time.Now().Add(-minAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || known[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.Dir, entry.Name())); err != nil {
			s.logger.Warn("failed to prune orphan upload", "file", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("pruned orphan uploads", "count", removed)
	}
	return removed, nil
}

func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	filename = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, filename)
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == "." || filename == "/" {
		return "file"
	}
	if utf8.RuneCountInString(filename) > 255 {
		filename = string([]rune(filename)[:255])
	}
	return filename
}
