package store

import (
	"time"
)

// User is a signed-in creator account. AccountID is the identifier the
// session registry and the login flow key on; the rest is the identity
// extracted from the creator page after sign-in.
type User struct {
	AccountID  string `gorm:"primaryKey"`
	ExternalID string `gorm:"index:idx_external_id"`
	Nickname   string `gorm:"not null;default:''"`
	AvatarURL  string `gorm:"default:''"`
	Phone      string `gorm:"index:idx_phone"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Post is a published (or attempted) image post.
type Post struct {
	ID         uint     `gorm:"primaryKey"`
	AccountID  string   `gorm:"not null;index:idx_post_account"`
	Title      string   `gorm:"default:''"`
	Content    string   `gorm:"default:''"`
	Images     []string `gorm:"serializer:json"`
	CoverImage string   `gorm:"default:''"`
	Status     string   `gorm:"not null;default:'published';check:status IN ('published','failed')"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Post statuses.
const (
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)
