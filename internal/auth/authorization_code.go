package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/generates"
)

// GrantHandler turns a validated token request into tokens for one grant type.
// The client has already been authenticated and checked against its grant
// allow-list when Handle is called.
type GrantHandler interface {
	Grant() GrantType
	Handle(ctx context.Context, req *TokenRequest, client *models.OAuthClient, now time.Time) (*TokenResult, error)
}

type authorizationCodeGrant struct {
	store  *GormStore
	issuer *TokenIssuer
	codes  *generates.AuthorizeGenerate
	ttl    time.Duration
}

func newAuthorizationCodeGrant(store *GormStore, issuer *TokenIssuer, ttl time.Duration) *authorizationCodeGrant {
	return &authorizationCodeGrant{
		store:  store,
		issuer: issuer,
		codes:  generates.NewAuthorizeGenerate(),
		ttl:    ttl,
	}
}

func (g *authorizationCodeGrant) Grant() GrantType {
	return GrantAuthorizationCode
}

// issueCode mints and persists a code for an approved authorization request.
func (g *authorizationCodeGrant) issueCode(ctx context.Context, client *models.OAuthClient, userID, redirectURI string, scopes []string, now time.Time) (*models.AuthCode, error) {
	value, err := g.codes.Token(ctx, &oauth2.GenerateBasic{
		Client:   client,
		UserID:   userID,
		CreateAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate authorization code: %w", err)
	}

	code := &models.AuthCode{
		Code:        value,
		UserID:      userID,
		ClientID:    client.ID,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		ExpiresAt:   now.Add(g.ttl),
	}
	if err := g.store.CreateAuthCode(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// Handle exchanges a code for an access and refresh token pair. The code is
// claimed with a conditional update inside the same transaction that writes
// the tokens, so a replayed or concurrent exchange cannot succeed twice.
func (g *authorizationCodeGrant) Handle(ctx context.Context, req *TokenRequest, client *models.OAuthClient, now time.Time) (*TokenResult, error) {
	if req.Code == "" {
		return nil, newError(ErrInvalidRequest, "code is required")
	}

	var result *TokenResult
	err := g.store.Transaction(ctx, func(tx *GormStore) error {
		code, err := tx.GetAuthCode(ctx, req.Code)
		if errors.Is(err, ErrNotFound) {
			return newError(ErrInvalidGrant, "authorization code is invalid")
		}
		if err != nil {
			return internalError(err)
		}

		if code.ClientID != client.ID {
			return newError(ErrInvalidGrant, "authorization code was not issued to this client")
		}
		if req.RedirectURI != "" && req.RedirectURI != code.RedirectURI {
			return newError(ErrInvalidGrant, "redirect_uri does not match the authorization request")
		}

		if err := tx.ClaimAuthCode(ctx, code.Code, now); err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				return newError(ErrInvalidGrant, "authorization code has expired or was already used")
			}
			return internalError(err)
		}

		result, err = g.issuer.Issue(ctx, tx, client, code.UserID, code.Scopes, true, now)
		if err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
