package models

import (
	"time"
)

// AuthCode is a single-use authorization code. Once exchanged it is marked
// revoked and can never be used again.
type AuthCode struct {
	Code        string `gorm:"primaryKey"`
	UserID      string `gorm:"not null;index"`
	ClientID    string `gorm:"not null;index"`
	RedirectURI string
	Scopes      []string  `gorm:"serializer:json"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	Revoked     bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

func (AuthCode) TableName() string {
	return "auth_codes"
}

// IsActive reports whether the code can still be exchanged at now.
func (a *AuthCode) IsActive(now time.Time) bool {
	return !a.Revoked && a.ExpiresAt.After(now)
}
