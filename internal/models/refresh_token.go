package models

import (
	"time"
)

type RefreshToken struct {
	ID            uint      `gorm:"primaryKey"`
	RefreshToken  string    `gorm:"uniqueIndex;not null"`
	AccessTokenID string    `gorm:"index"` // jti of the access token issued alongside
	UserID        string    `gorm:"index"`
	ClientID      string    `gorm:"not null;index"`
	Scopes        []string  `gorm:"serializer:json"`
	ExpiresAt     time.Time `gorm:"not null"`
	Revoked       bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
