package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cms-panel/internal/models"
)

type SettingService struct {
	gw *models.Gateway
}

func NewSettingService(gw *models.Gateway) *SettingService {
	return &SettingService{gw: gw}
}

// UpdateSettingsInput is a partial update: nil fields keep their stored or default value.
type UpdateSettingsInput struct {
	SiteName        *string `json:"site_name" validate:"omitnil,max=255"`
	SiteDescription *string `json:"site_description"`
	SiteLogo        *string `json:"site_logo" validate:"omitnil,max=500"`
	PrimaryColor    *string `json:"primary_color" validate:"omitnil,hexcolor"`
	SecondaryColor  *string `json:"secondary_color" validate:"omitnil,hexcolor"`
}

// GetSettings returns the stored settings, or the defaults if none were saved
func (s *SettingService) GetSettings(ctx context.Context) (*models.Setting, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	return loadSettings(db)
}

func loadSettings(db *gorm.DB) (*models.Setting, error) {
	var setting models.Setting
	if err := db.First(&setting, models.SettingsID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def := models.DefaultSetting()
			return &def, nil
		}
		return nil, models.Classify(err)
	}
	return &setting, nil
}

// UpdateSettings merges input into the current settings and writes the single row
func (s *SettingService) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.Setting, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var setting *models.Setting
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := loadSettings(tx)
		if err != nil {
			return err
		}

		if input.SiteName != nil {
			current.SiteName = strings.TrimSpace(*input.SiteName)
		}
		if input.SiteDescription != nil {
			current.SiteDescription = strings.TrimSpace(*input.SiteDescription)
		}
		if input.SiteLogo != nil {
			current.SiteLogo = strings.TrimSpace(*input.SiteLogo)
		}
		if input.PrimaryColor != nil {
			current.PrimaryColor = strings.ToUpper(*input.PrimaryColor)
		}
		if input.SecondaryColor != nil {
			current.SecondaryColor = strings.ToUpper(*input.SecondaryColor)
		}
		current.ID = models.SettingsID

		// Upsert keyed on the fixed id keeps the table at one row even under concurrent writers.
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(current).Error
		if err != nil {
			return err
		}

		setting, err = loadSettings(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return setting, nil
}
