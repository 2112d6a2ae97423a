package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"cms-panel/internal/models"
)

type ClientService struct {
	gw *models.Gateway
}

func NewClientService(gw *models.Gateway) *ClientService {
	return &ClientService{gw: gw}
}

type CreateClientInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=50"`
	Company string `json:"company" validate:"max=255"`
	Address string `json:"address" validate:"max=500"`
	Notes   string `json:"notes"`
}

// UpdateClientInput is a partial update: nil fields are left unchanged.
type UpdateClientInput struct {
	Name    *string `json:"name" validate:"omitnil,min=1,max=255"`
	Email   *string `json:"email" validate:"omitnil,email,max=255"`
	Phone   *string `json:"phone" validate:"omitnil,max=50"`
	Company *string `json:"company" validate:"omitnil,max=255"`
	Address *string `json:"address" validate:"omitnil,max=500"`
	Notes   *string `json:"notes"`
}

// GetClients returns clients matching opts ordered by name
func (s *ClientService) GetClients(ctx context.Context, opts ListOptions) ([]models.Client, int64, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := opts.searchColumns(db.Model(&models.Client{}), "name", "email", "company")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.Classify(err)
	}

	clients := []models.Client{}
	if err := opts.paginate(query).Order("name ASC, id ASC").Find(&clients).Error; err != nil {
		return nil, 0, models.Classify(err)
	}
	return clients, total, nil
}

// GetClient returns a specific client by ID
func (s *ClientService) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	return findClient(db, id)
}

func findClient(db *gorm.DB, id uint) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, models.Classify(err)
	}
	return &client, nil
}

// CreateClient creates a new client
func (s *ClientService) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}

	// Check if email already exists
	if err := ensureClientEmailFree(db, input.Email, 0); err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   strings.TrimSpace(input.Phone),
		Company: strings.TrimSpace(input.Company),
		Address: strings.TrimSpace(input.Address),
		Notes:   input.Notes,
	}
	if err := db.Create(client).Error; err != nil {
		return nil, clientConflict(err)
	}
	return client, nil
}

// UpdateClient applies the non-nil fields of input
func (s *ClientService) UpdateClient(ctx context.Context, id uint, input UpdateClientInput) (*models.Client, error) {
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var client *models.Client
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := findClient(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return NewValidationError("name", "is required")
			}
			updates["name"] = name
		}
		if input.Email != nil && *input.Email != current.Email {
			if err := ensureClientEmailFree(tx, *input.Email, id); err != nil {
				return err
			}
			updates["email"] = *input.Email
		}
		if input.Phone != nil {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}
		if input.Company != nil {
			updates["company"] = strings.TrimSpace(*input.Company)
		}
		if input.Address != nil {
			updates["address"] = strings.TrimSpace(*input.Address)
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}

		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return clientConflict(err)
			}
		}

		client, err = findClient(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// DeleteClient deletes a client
func (s *ClientService) DeleteClient(ctx context.Context, id uint) error {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&models.Client{}, id)
	if result.Error != nil {
		return models.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

func ensureClientEmailFree(db *gorm.DB, email string, excludeID uint) error {
	query := db.Model(&models.Client{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return models.Classify(err)
	}
	if count > 0 {
		return ErrClientExists
	}
	return nil
}

func clientConflict(err error) error {
	err = models.Classify(err)
	if errors.Is(err, ErrConflict) {
		return ErrClientExists
	}
	return err
}
