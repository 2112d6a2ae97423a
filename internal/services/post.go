package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cms-panel/internal/models"
)

type PostService struct {
	gw *models.Gateway
}

func NewPostService(gw *models.Gateway) *PostService {
	return &PostService{gw: gw}
}

type PostFilter struct {
	ListOptions
	Status   string
	AuthorID uint
	Tag      string
}

type CreatePostInput struct {
	Title         string   `json:"title" validate:"required,max=255"`
	Slug          string   `json:"slug" validate:"max=255"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt" validate:"max=1000"`
	FeaturedImage string   `json:"featured_image" validate:"max=500"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=50"`
	Status        string   `json:"status" validate:"omitempty,status"`
}

// UpdatePostInput is a partial update: nil fields are left unchanged.
type UpdatePostInput struct {
	Title         *string   `json:"title" validate:"omitnil,min=1,max=255"`
	Slug          *string   `json:"slug" validate:"omitnil,max=255"`
	Content       *string   `json:"content"`
	Excerpt       *string   `json:"excerpt" validate:"omitnil,max=1000"`
	FeaturedImage *string   `json:"featured_image" validate:"omitnil,max=500"`
	Tags          *[]string `json:"tags" validate:"omitnil,max=20,dive,max=50"`
	Status        *string   `json:"status" validate:"omitnil,status"`
}

// GetPosts returns posts matching filter, newest first, and the total match count
func (s *PostService) GetPosts(ctx context.Context, filter PostFilter) ([]models.BlogPost, int64, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := filter.searchColumns(db.Model(&models.BlogPost{}), "title", "excerpt")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		// tags are stored as a JSON array, so match the encoded element
		query = query.Where("tags LIKE ? ESCAPE '!'", "%"+escapeLike(models.StringArrayElement(tag))+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.Classify(err)
	}

	posts := []models.BlogPost{}
	err = filter.paginate(query).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.Classify(err)
	}
	return posts, total, nil
}

// GetPost returns a specific post by ID with its author
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.BlogPost, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	return findPost(db, id)
}

func findPost(db *gorm.DB, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := db.Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, models.Classify(err)
	}
	return &post, nil
}

// CreatePost creates a post authored by authorID
func (s *PostService) CreatePost(ctx context.Context, authorID uint, input CreatePostInput) (*models.BlogPost, error) {
	input.Title = strings.TrimSpace(input.Title)
	slug, slugErr := resolveSlug(input.Slug, input.Title)
	if err := joinValidation(validateStruct(input), slugErr); err != nil {
		return nil, err
	}

	content := sanitizeHTML(input.Content)
	excerpt := strings.TrimSpace(input.Excerpt)
	if excerpt == "" {
		excerpt = excerptFrom(content)
	}

	post := &models.BlogPost{
		Title:         input.Title,
		Slug:          slug,
		Content:       content,
		Excerpt:       excerpt,
		FeaturedImage: strings.TrimSpace(input.FeaturedImage),
		Tags:          normalizeTags(input.Tags),
		Status:        models.StatusDraft,
		AuthorID:      authorID,
	}
	if input.Status != "" {
		post.Status = input.Status
	}
	if post.Status == models.StatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureSlugFree(db, &models.BlogPost{}, slug, 0); err != nil {
		return nil, err
	}
	if err := db.Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, slugConflict(err)
	}

	return findPost(db, post.ID)
}

// UpdatePost applies the non-nil fields of input
func (s *PostService) UpdatePost(ctx context.Context, id uint, input UpdatePostInput) (*models.BlogPost, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var post *models.BlogPost
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := findPost(tx, id)
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
				if err := ensureSlugFree(tx, &models.BlogPost{}, slug, id); err != nil {
					return err
				}
				updates["slug"] = slug
			}
		}

		content := current.Content
		if input.Content != nil {
			content = sanitizeHTML(*input.Content)
			updates["content"] = content
		}
		switch {
		case input.Excerpt != nil:
			excerpt := strings.TrimSpace(*input.Excerpt)
			if excerpt == "" {
				excerpt = excerptFrom(content)
			}
			updates["excerpt"] = excerpt
		case input.Content != nil && current.Excerpt == "":
			updates["excerpt"] = excerptFrom(content)
		}

		if input.FeaturedImage != nil {
			updates["featured_image"] = strings.TrimSpace(*input.FeaturedImage)
		}
		if input.Tags != nil {
			updates["tags"] = models.StringArray(normalizeTags(*input.Tags))
		}
		if input.Status != nil {
			updates["status"] = *input.Status
			if *input.Status == models.StatusPublished && current.PublishedAt == nil {
				updates["published_at"] = time.Now().UTC()
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.BlogPost{ID: id}).Updates(updates).Error; err != nil {
				return slugConflict(err)
			}
		}

		post, err = findPost(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost deletes a post
func (s *PostService) DeletePost(ctx context.Context, id uint) error {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&models.BlogPost{}, id)
	if result.Error != nil {
		return models.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
