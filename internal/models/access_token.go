package models

import (
	"time"
)

// AccessToken records an issued access token. AccessToken holds the token
// identifier (the JWT "jti"), not the signed token itself.
type AccessToken struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"index"`
	ClientID    string    `gorm:"not null;index"`
	AccessToken string    `gorm:"uniqueIndex;not null"`
	Scopes      []string  `gorm:"serializer:json"`
	ExpiresAt   time.Time `gorm:"not null"`
	Revoked     bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (AccessToken) TableName() string {
	return "access_tokens"
}

// IsValid reports whether the token is not revoked and expires after now.
func (t *AccessToken) IsValid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
