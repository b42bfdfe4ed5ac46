package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/security"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound    = errors.New("client_not_found")
	ErrInvalidClientData = errors.New("invalid_client_data")
)

// ClientInput is the admin-editable part of a client.
type ClientInput struct {
	Name              string
	RedirectURI       string
	AllowedGrantTypes []string
	Scopes            []string
	Confidential      bool
}

// ClientService manages registered OAuth clients. Clients are revoked, never
// deleted, so issued tokens keep a valid foreign key.
type ClientService interface {
	// CreateClient registers a client with a generated id and, for
	// confidential clients, a generated secret. The plain secret is returned
	// once and only its bcrypt hash is stored.
	CreateClient(ctx context.Context, ownerID uint, input ClientInput) (*models.OAuthClient, string, error)
	GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	UpdateClient(ctx context.Context, id string, input ClientInput) (*models.OAuthClient, error)
	// RegenerateSecret replaces the secret of a confidential client.
	RegenerateSecret(ctx context.Context, id string) (string, error)
	// RevokeClient disables the client and every token issued to it.
	RevokeClient(ctx context.Context, id string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(ctx context.Context, ownerID uint, input ClientInput) (*models.OAuthClient, string, error) {
	grants, err := normalizeClientInput(&input)
	if err != nil {
		return nil, "", err
	}

	client := &models.OAuthClient{
		ID:                uuid.NewString(),
		Name:              input.Name,
		RedirectURI:       input.RedirectURI,
		AllowedGrantTypes: grants,
		Scopes:            strings.Join(input.Scopes, " "),
		UserID:            ownerID,
	}

	var secret string
	if input.Confidential {
		secret, client.Secret, err = newClientSecret()
		if err != nil {
			return nil, "", err
		}
	}

	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, "", err
	}
	return client, secret, nil
}

func (s *clientService) GetClientsByUserID(ctx context.Context, userID uint) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *clientService) UpdateClient(ctx context.Context, id string, input ClientInput) (*models.OAuthClient, error) {
	grants, err := normalizeClientInput(&input)
	if err != nil {
		return nil, err
	}
	client, err := s.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = input.Name
	client.RedirectURI = input.RedirectURI
	client.AllowedGrantTypes = grants
	client.Scopes = strings.Join(input.Scopes, " ")
	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) RegenerateSecret(ctx context.Context, id string) (string, error) {
	client, err := s.GetClientByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !client.IsConfidential() {
		return "", fmt.Errorf("%w: public clients have no secret", ErrInvalidClientData)
	}

	secret, hash, err := newClientSecret()
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Model(client).Update("secret", hash).Error; err != nil {
		return "", err
	}
	return secret, nil
}

func (s *clientService) RevokeClient(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OAuthClient{}).Where("id = ?", id).Update("revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrClientNotFound
		}
		for _, model := range []any{&models.AuthCode{}, &models.AccessToken{}, &models.RefreshToken{}} {
			if err := tx.Model(model).Where("client_id = ? AND revoked = ?", id, false).Update("revoked", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// normalizeClientInput validates the input and returns the comma-separated
// grant list as stored.
func normalizeClientInput(input *ClientInput) (string, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidClientData)
	}
	u, err := url.Parse(input.RedirectURI)
	if input.RedirectURI == "" || err != nil || u.Scheme == "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: redirect_uri must be an absolute URI without a fragment", ErrInvalidClientData)
	}

	if len(input.AllowedGrantTypes) == 0 {
		input.AllowedGrantTypes = []string{auth.GrantAuthorizationCode.String()}
	}
	grants := make([]string, 0, len(input.AllowedGrantTypes))
	for _, g := range input.AllowedGrantTypes {
		grant, err := auth.ParseGrantType(strings.TrimSpace(g))
		if err != nil {
			return "", fmt.Errorf("%w: unsupported grant type %q", ErrInvalidClientData, g)
		}
		grants = append(grants, grant.String())
	}
	return strings.Join(grants, ","), nil
}

func newClientSecret() (plain, hash string, err error) {
	plain, err = security.GenerateKey()
	if err != nil {
		return "", "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash client secret: %w", err)
	}
	return plain, string(hashed), nil
}
