package models

import (
	"time"
)

// Client is a CRM contact.
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone     string    `json:"phone" gorm:"type:varchar(50)"`
	Company   string    `json:"company" gorm:"type:varchar(255)"`
	Address   string    `json:"address" gorm:"type:varchar(500)"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
