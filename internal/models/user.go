package models

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Roles lists the accepted role names.
var Roles = []string{RoleAdmin, RoleEditor, RoleViewer}

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"type:varchar(255);not null"`
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	Role         string     `json:"role" gorm:"type:varchar(50);default:'viewer';index"`
	Avatar       string     `json:"avatar" gorm:"type:varchar(500)"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AuditLog records who changed what. It has no foreign key to users so that
// history survives account removal.
type AuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index"`
	Action     string    `json:"action" gorm:"type:varchar(50);not null"` // login, logout, create, update, delete, upload
	Resource   string    `json:"resource" gorm:"type:varchar(100)"`       // user, post, page, media, client, settings
	ResourceID string    `json:"resource_id" gorm:"type:varchar(255)"`
	Details    string    `json:"details" gorm:"type:text"`
	IPAddress  string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent  string    `json:"user_agent" gorm:"type:varchar(500)"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
