package models

import (
	"time"
)

// MediaAsset is an uploaded file. Path is the public URL path the file is served under.
type MediaAsset struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Filename     string    `json:"filename" gorm:"type:varchar(255);uniqueIndex;not null"`
	OriginalName string    `json:"original_name" gorm:"type:varchar(255)"`
	Path         string    `json:"path" gorm:"type:varchar(500);not null"`
	MimeType     string    `json:"mime_type" gorm:"type:varchar(100);index"`
	Size         int64     `json:"size"`
	UploadedBy   uint      `json:"uploaded_by" gorm:"not null;index"`
	Uploader     *User     `json:"-" gorm:"foreignKey:UploadedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	CreatedAt    time.Time `json:"created_at"`
}
