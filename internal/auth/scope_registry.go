package auth

import (
	"context"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"gorm.io/gorm"
)

// ScopeRegistry resolves scope identifiers against the scopes table. Scopes
// are flat: an identifier either exists or it does not.
type ScopeRegistry struct {
	db       *gorm.DB
	defaults []string
}

// NewScopeRegistry creates a registry; defaults are granted when a request
// names no scope at all.
func NewScopeRegistry(db *gorm.DB, defaults []string) *ScopeRegistry {
	return &ScopeRegistry{db: db, defaults: defaults}
}

func (r *ScopeRegistry) GetScope(ctx context.Context, identifier string) (*models.Scope, error) {
	var scope models.Scope
	if err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&scope).Error; err != nil {
		return nil, notFound(err)
	}
	return &scope, nil
}

// FinalizeScopes returns the scopes a token for this grant, client and user
// will carry. Every identifier must be registered and, when the client has a
// scope allow-list, listed there.
func (r *ScopeRegistry) FinalizeScopes(ctx context.Context, requested []string, grant GrantType, client *models.OAuthClient, userID string) ([]string, error) {
	if len(requested) == 0 {
		requested = r.defaults
	}
	finalized := dedupe(requested)
	if len(finalized) == 0 {
		return []string{}, nil
	}

	var known []models.Scope
	if err := r.db.WithContext(ctx).Where("identifier IN ?", finalized).Find(&known).Error; err != nil {
		return nil, internalError(err)
	}
	registered := make(map[string]bool, len(known))
	for _, s := range known {
		registered[s.Identifier] = true
	}

	allowed := ParseScopes(client.Scopes)
	for _, scope := range finalized {
		if !registered[scope] {
			return nil, newError(ErrInvalidScope, "unknown scope "+scope)
		}
		if len(allowed) > 0 && !contains(allowed, scope) {
			return nil, newError(ErrInvalidScope, "scope "+scope+" is not allowed for this client")
		}
	}
	return finalized, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
