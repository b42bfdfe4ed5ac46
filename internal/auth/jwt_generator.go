package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/generates"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims of a signed access token. ID (jti) is the
// key of the access_tokens row used for revocation checks.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes"`
}

// ClientID returns the client the token was issued to (the audience).
func (c *AccessTokenClaims) ClientID() string {
	if len(c.Audience) == 0 {
		return ""
	}
	return c.Audience[0]
}

// TokenIssuer mints access tokens as RS256 JWTs and persists the matching
// access and refresh token rows. Only the authorization server holds one; the
// private key never leaves it.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	keyID      string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	ids        *generates.AccessGenerate
}

func NewTokenIssuer(privateKey *rsa.PrivateKey, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		privateKey: privateKey,
		keyID:      KeyID(&privateKey.PublicKey),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		ids:        generates.NewAccessGenerate(),
	}
}

// Issue creates an access token for userID and, when withRefresh is set, a
// refresh token bound to the same client, user and scopes. Both rows are
// written through store, so callers control the transaction.
func (i *TokenIssuer) Issue(ctx context.Context, store *GormStore, client *models.OAuthClient, userID string, scopes []string, withRefresh bool, now time.Time) (*TokenResult, error) {
	tokenID, refresh, err := i.ids.Token(ctx, &oauth2.GenerateBasic{
		Client:   client,
		UserID:   userID,
		CreateAt: now,
	}, withRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token identifiers: %w", err)
	}

	expiresAt := now.Add(i.accessTTL)
	signed, err := i.sign(tokenID, client.ID, userID, scopes, now, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := store.CreateAccessToken(ctx, &models.AccessToken{
		UserID:      userID,
		ClientID:    client.ID,
		AccessToken: tokenID,
		Scopes:      scopes,
		ExpiresAt:   expiresAt,
	}); err != nil {
		return nil, err
	}

	result := &TokenResult{
		AccessToken:   signed,
		AccessTokenID: tokenID,
		ExpiresAt:     expiresAt,
		UserID:        userID,
		Scopes:        scopes,
	}

	if withRefresh {
		if err := store.CreateRefreshToken(ctx, &models.RefreshToken{
			RefreshToken:  refresh,
			AccessTokenID: tokenID,
			UserID:        userID,
			ClientID:      client.ID,
			Scopes:        scopes,
			ExpiresAt:     now.Add(i.refreshTTL),
		}); err != nil {
			return nil, err
		}
		result.RefreshToken = refresh
	}
	return result, nil
}

func (i *TokenIssuer) sign(tokenID, clientID, userID string, scopes []string, now, expiresAt time.Time) (string, error) {
	if scopes == nil {
		scopes = []string{}
	}
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    i.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scopes: scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.keyID
	signed, err := token.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
