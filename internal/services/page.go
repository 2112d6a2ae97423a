package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"cms-panel/internal/models"
)

type PageService struct {
	gw *models.Gateway
}

func NewPageService(gw *models.Gateway) *PageService {
	return &PageService{gw: gw}
}

type PageFilter struct {
	ListOptions
	Status string
}

type CreatePageInput struct {
	Title           string `json:"title" validate:"required,max=255"`
	Slug            string `json:"slug" validate:"max=255"`
	Content         string `json:"content"`
	MetaDescription string `json:"meta_description" validate:"max=500"`
	Status          string `json:"status" validate:"omitempty,status"`
}

type UpdatePageInput struct {
	Title           *string `json:"title" validate:"omitnil,min=1,max=255"`
	Slug            *string `json:"slug" validate:"omitnil,max=255"`
	Content         *string `json:"content"`
	MetaDescription *string `json:"meta_description" validate:"omitnil,max=500"`
	Status          *string `json:"status" validate:"omitnil,status"`
}

// GetPages returns pages matching filter, newest first
func (s *PageService) GetPages(ctx context.Context, filter PageFilter) ([]models.Page, int64, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := filter.searchColumns(db.Model(&models.Page{}), "title", "slug")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.Classify(err)
	}

	pages := []models.Page{}
	if err := filter.paginate(query).Order("created_at DESC, id DESC").Find(&pages).Error; err != nil {
		return nil, 0, models.Classify(err)
	}
	return pages, total, nil
}

// GetPage returns a specific page by ID
func (s *PageService) GetPage(ctx context.Context, id uint) (*models.Page, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	return findPage(db, id)
}

func findPage(db *gorm.DB, id uint) (*models.Page, error) {
	var page models.Page
	if err := db.First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, models.Classify(err)
	}
	return &page, nil
}

// CreatePage creates a new page
func (s *PageService) CreatePage(ctx context.Context, input CreatePageInput) (*models.Page, error) {
	input.Title = strings.TrimSpace(input.Title)
	slug, slugErr := resolveSlug(input.Slug, input.Title)
	if err := joinValidation(validateStruct(input), slugErr); err != nil {
		return nil, err
	}

	page := &models.Page{
		Title:           input.Title,
		Slug:            slug,
		Content:         sanitizeHTML(input.Content),
		MetaDescription: strings.TrimSpace(input.MetaDescription),
		Status:          models.StatusDraft,
	}
	if input.Status != "" {
		page.Status = input.Status
	}
	if page.Status == models.StatusPublished {
		now := time.Now().UTC()
		page.PublishedAt = &now
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureSlugFree(db, &models.Page{}, slug, 0); err != nil {
		return nil, err
	}
	if err := db.Create(page).Error; err != nil {
		return nil, slugConflict(err)
	}
	return page, nil
}

// UpdatePage applies the non-nil fields of input
func (s *PageService) UpdatePage(ctx context.Context, id uint, input UpdatePageInput) (*models.Page, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var page *models.Page
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := findPage(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		title := current.Title
		if input.Title != nil {
			title = strings.TrimSpace(*input.Title)
			if title == "" {
				return NewValidationError("title", "is required")
			}
			updates["title"] = title
		}
		if input.Slug != nil {
			slug, err := resolveSlug(*input.Slug, title)
			if err != nil {
				return err
			}
			if slug != current.Slug {
				if err := ensureSlugFree(tx, &models.Page{}, slug, id); err != nil {
					return err
				}
				updates["slug"] = slug
			}
		}
		if input.Content != nil {
			updates["content"] = sanitizeHTML(*input.Content)
		}
		if input.MetaDescription != nil {
			updates["meta_description"] = strings.TrimSpace(*input.MetaDescription)
		}
		if input.Status != nil {
			updates["status"] = *input.Status
			if *input.Status == models.StatusPublished && current.PublishedAt == nil {
				updates["published_at"] = time.Now().UTC()
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return slugConflict(err)
			}
		}

		page, err = findPage(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// DeletePage deletes a page
func (s *PageService) DeletePage(ctx context.Context, id uint) error {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&models.Page{}, id)
	if result.Error != nil {
		return models.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}
