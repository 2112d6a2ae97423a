package services

import (
	"errors"

	"gorm.io/gorm"

	"cms-panel/internal/models"
	"cms-panel/internal/util"
)

// resolveSlug normalises an explicit slug, or derives one from title when slug is empty.
func resolveSlug(slug, title string) (string, error) {
	source := slug
	if source == "" {
		source = title
	}
	resolved := util.Slugify(source)
	if !util.IsValidSlug(resolved) {
		return "", NewValidationError("slug", "is required")
	}
	return resolved, nil
}

// ensureSlugFree fails with ErrSlugExists when another row of model's table
// already uses slug. The unique index remains the final guard against races.
func ensureSlugFree(db *gorm.DB, model interface{}, slug string, excludeID uint) error {
	query := db.Model(model).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return models.Classify(err)
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}

// slugConflict maps a unique-index violation on write to ErrSlugExists.
func slugConflict(err error) error {
	err = models.Classify(err)
	if errors.Is(err, ErrConflict) && !errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrSlugExists
	}
	return err
}
