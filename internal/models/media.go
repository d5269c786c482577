package models

import (
	"time"

	"gorm.io/datatypes"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "IMAGE"
	MediaKindVideo MediaKind = "VIDEO"
)

type Media struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Title        string            `gorm:"not null" json:"title"`
	Description  string            `gorm:"type:text" json:"description"`
	Kind         MediaKind         `gorm:"type:varchar(8);not null;index" json:"kind"`
	URL          string            `gorm:"not null" json:"url"`
	StorageKey   string            `gorm:"not null" json:"-"`
	ContentType  string            `json:"contentType"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	UploadedByID uint              `json:"uploadedBy"`
	Tags         []Tag             `gorm:"many2many:media_tags;constraint:OnDelete:CASCADE" json:"tags"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bookmark marks a media item as saved by a user.
type Bookmark struct {
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	MediaID   uint      `gorm:"primaryKey" json:"mediaId"`
	Media     *Media    `gorm:"constraint:OnDelete:CASCADE" json:"media,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Collection is a named, user-owned group of media items.
type Collection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Items       []Media   `gorm:"many2many:collection_media;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Media) TableName() string {
	return "media"
}
