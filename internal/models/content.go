package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Statuses lists the accepted publication states.
var Statuses = []string{StatusDraft, StatusPublished}

type BlogPost struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	Title         string      `json:"title" gorm:"type:varchar(255);not null"`
	Slug          string      `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Content       string      `json:"content" gorm:"type:text"`
	Excerpt       string      `json:"excerpt" gorm:"type:text"`
	FeaturedImage string      `json:"featured_image" gorm:"type:varchar(500)"`
	Tags          StringArray `json:"tags" gorm:"type:text"`
	Status        string      `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	PublishedAt   *time.Time  `json:"published_at"`
	AuthorID      uint        `json:"author_id" gorm:"not null;index"`
	Author        *User       `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	AuthorName    string      `json:"author_name" gorm:"-"`
	AuthorAvatar  string      `json:"author_avatar" gorm:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// AfterFind copies the preloaded author's display fields.
func (p *BlogPost) AfterFind(tx *gorm.DB) error {
	if p.Author != nil {
		p.AuthorName = p.Author.Name
		p.AuthorAvatar = p.Author.Avatar
	}
	return nil
}

type Page struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Title           string     `json:"title" gorm:"type:varchar(255);not null"`
	Slug            string     `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Content         string     `json:"content" gorm:"type:text"`
	MetaDescription string     `json:"meta_description" gorm:"type:varchar(500)"`
	Status          string     `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	PublishedAt     *time.Time `json:"published_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StringArray is a custom type for JSON array storage
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := marshalJSON([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// StringArrayElement returns s encoded exactly as it appears inside a stored
// StringArray, quotes included.
func StringArrayElement(s string) string {
	b, _ := marshalJSON(s)
	return string(b)
}

// marshalJSON encodes v without HTML escaping so that & < > are stored as is.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported StringArray source %T", value)
	}

	if len(bytes) == 0 {
		*a = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}
