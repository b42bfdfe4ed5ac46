package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// OAuthClient is a registered relying application. A client is confidential
// when it holds a secret; public clients skip secret verification.
type OAuthClient struct {
	ID                string `gorm:"primaryKey;size:36"`
	Name              string `gorm:"not null"`
	RedirectURI       string
	Secret            string // bcrypt hash, empty for public clients
	AllowedGrantTypes string `gorm:"default:'authorization_code'"` // Comma-separated: "authorization_code,refresh_token"
	Scopes            string // Space-separated list of scopes the client may request
	UserID            uint   // Owner, for admin management
	Revoked           bool   `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// IsConfidential reports whether the client must authenticate with a secret.
func (c *OAuthClient) IsConfidential() bool {
	return c.Secret != ""
}

// GrantTypeList splits the comma-separated allow-list, dropping blanks.
func (c *OAuthClient) GrantTypeList() []string {
	var grants []string
	for _, g := range strings.Split(c.AllowedGrantTypes, ",") {
		if g = strings.TrimSpace(g); g != "" {
			grants = append(grants, g)
		}
	}
	return grants
}

// AllowsGrant reports whether grantType is in the client's allow-list.
func (c *OAuthClient) AllowsGrant(grantType string) bool {
	for _, g := range c.GrantTypeList() {
		if g == grantType {
			return true
		}
	}
	return false
}

// The methods below satisfy oauth2.ClientInfo so the client can be handed to
// the go-oauth2 token generators.

func (c *OAuthClient) GetID() string {
	return c.ID
}

func (c *OAuthClient) GetSecret() string {
	return c.Secret
}

func (c *OAuthClient) GetDomain() string {
	return c.RedirectURI
}

func (c *OAuthClient) IsPublic() bool {
	return !c.IsConfidential()
}

func (c *OAuthClient) GetUserID() string {
	if c.UserID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(c.UserID), 10)
}
