package services

import (
	"context"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultScopes are registered at startup.
var DefaultScopes = []models.Scope{
	{Identifier: "profile", Description: "Name, nickname and subject identifier"},
	{Identifier: "email", Description: "Work email address"},
}

type ScopeService interface {
	// EnsureScopes registers scopes that do not exist yet and leaves existing
	// ones untouched.
	EnsureScopes(ctx context.Context, scopes []models.Scope) error
	ListScopes(ctx context.Context) ([]models.Scope, error)
}

type scopeService struct {
	db *gorm.DB
}

func NewScopeService(db *gorm.DB) ScopeService {
	return &scopeService{db: db}
}

func (s *scopeService) EnsureScopes(ctx context.Context, scopes []models.Scope) error {
	if len(scopes) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&scopes).Error
}

func (s *scopeService) ListScopes(ctx context.Context) ([]models.Scope, error) {
	var scopes []models.Scope
	if err := s.db.WithContext(ctx).Order("identifier").Find(&scopes).Error; err != nil {
		return nil, err
	}
	return scopes, nil
}
