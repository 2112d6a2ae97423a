package models

import (
	"time"
)

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// Setting holds site-wide presentation settings. Exactly one row exists once written.
type Setting struct {
	ID              uint      `json:"-" gorm:"primaryKey;autoIncrement:false"`
	SiteName        string    `json:"site_name" gorm:"type:varchar(255)"`
	SiteDescription string    `json:"site_description" gorm:"type:text"`
	SiteLogo        string    `json:"site_logo" gorm:"type:varchar(500)"`
	PrimaryColor    string    `json:"primary_color" gorm:"type:varchar(20)"`
	SecondaryColor  string    `json:"secondary_color" gorm:"type:varchar(20)"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSetting returns the values reported before settings are first saved.
func DefaultSetting() Setting {
	return Setting{
		ID:             SettingsID,
		SiteName:       "My Site",
		PrimaryColor:   "#00BFA6",
		SecondaryColor: "#FF6B6B",
	}
}
