package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"gorm.io/gorm"
)

// GormStore is the credential store: the only persistence boundary for
// clients, authorization codes, access tokens and refresh tokens. It holds no
// state of its own, so every read reflects the database at call time.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transaction runs fn against a store bound to a single database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx *GormStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) GetClient(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

func (s *GormStore) CreateClient(ctx context.Context, client *models.OAuthClient) error {
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return fmt.Errorf("failed to persist client: %w", err)
	}
	return nil
}

func (s *GormStore) CreateAuthCode(ctx context.Context, code *models.AuthCode) error {
	if err := s.db.WithContext(ctx).Create(code).Error; err != nil {
		return fmt.Errorf("failed to persist authorization code: %w", err)
	}
	return nil
}

func (s *GormStore) GetAuthCode(ctx context.Context, code string) (*models.AuthCode, error) {
	var authCode models.AuthCode
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&authCode).Error; err != nil {
		return nil, notFound(err)
	}
	return &authCode, nil
}

// ClaimAuthCode marks an active code revoked with a single conditional
// update. Exactly one concurrent caller can win; everyone else, and any
// caller presenting a revoked or expired code, gets ErrAlreadyClaimed.
func (s *GormStore) ClaimAuthCode(ctx context.Context, code string, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.AuthCode{}).
		Where("code = ? AND revoked = ? AND expires_at > ?", code, false, now).
		Update("revoked", true)
	if res.Error != nil {
		return fmt.Errorf("failed to claim authorization code: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrAlreadyClaimed
	}
	return nil
}

func (s *GormStore) RevokeAuthCode(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Model(&models.AuthCode{}).
		Where("code = ?", code).
		Update("revoked", true).Error
}

func (s *GormStore) CreateAccessToken(ctx context.Context, token *models.AccessToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	return nil
}

// GetAccessToken looks a token up by its identifier (the JWT jti).
func (s *GormStore) GetAccessToken(ctx context.Context, tokenID string) (*models.AccessToken, error) {
	var token models.AccessToken
	if err := s.db.WithContext(ctx).Where("access_token = ?", tokenID).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (s *GormStore) RevokeAccessToken(ctx context.Context, tokenID string) error {
	return s.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("access_token = ?", tokenID).
		Update("revoked", true).Error
}

// IsAccessTokenRevoked treats unknown identifiers as revoked: every token this
// server signs is persisted before it is handed out.
func (s *GormStore) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	token, err := s.GetAccessToken(ctx, tokenID)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return token.Revoked, nil
}

func (s *GormStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return nil
}

func (s *GormStore) GetRefreshToken(ctx context.Context, refreshToken string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// ClaimRefreshToken is the refresh token counterpart of ClaimAuthCode.
func (s *GormStore) ClaimRefreshToken(ctx context.Context, refreshToken string, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("refresh_token = ? AND revoked = ? AND expires_at > ?", refreshToken, false, now).
		Update("revoked", true)
	if res.Error != nil {
		return fmt.Errorf("failed to claim refresh token: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrAlreadyClaimed
	}
	return nil
}

func (s *GormStore) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("refresh_token = ?", refreshToken).
		Update("revoked", true).Error
}

// RevokeTokensForUser revokes every access and refresh token of a user.
func (s *GormStore) RevokeTokensForUser(ctx context.Context, userID string) error {
	return s.Transaction(ctx, func(tx *GormStore) error {
		if err := tx.db.Model(&models.AccessToken{}).
			Where("user_id = ? AND revoked = ?", userID, false).
			Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.db.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked = ?", userID, false).
			Update("revoked", true).Error
	})
}

// DeleteExpired removes codes and tokens that expired before now. Expiry is
// always evaluated at validation time, so this only reclaims space.
func (s *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := s.Transaction(ctx, func(tx *GormStore) error {
		for _, model := range []any{&models.AuthCode{}, &models.AccessToken{}, &models.RefreshToken{}} {
			res := tx.db.Where("expires_at <= ?", now).Delete(model)
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		return nil
	})
	return total, err
}
