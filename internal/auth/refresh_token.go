package auth

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
)

type refreshTokenGrant struct {
	store  *GormStore
	issuer *TokenIssuer
	rotate bool
}

func (g *refreshTokenGrant) Grant() GrantType {
	return GrantRefreshToken
}

// Handle issues a new access token for the refresh token's user. With
// rotation enabled the presented refresh token and its access token are
// revoked and a new refresh token is returned; otherwise the same refresh
// token stays valid until it expires.
func (g *refreshTokenGrant) Handle(ctx context.Context, req *TokenRequest, client *models.OAuthClient, now time.Time) (*TokenResult, error) {
	if req.RefreshToken == "" {
		return nil, newError(ErrInvalidRequest, "refresh_token is required")
	}

	var result *TokenResult
	err := g.store.Transaction(ctx, func(tx *GormStore) error {
		token, err := tx.GetRefreshToken(ctx, req.RefreshToken)
		if errors.Is(err, ErrNotFound) {
			return newError(ErrInvalidGrant, "refresh token is invalid")
		}
		if err != nil {
			return internalError(err)
		}
		if token.ClientID != client.ID {
			return newError(ErrInvalidGrant, "refresh token was not issued to this client")
		}
		if !token.IsValid(now) {
			return newError(ErrInvalidGrant, "refresh token has expired or was revoked")
		}

		scopes, oerr := narrowScopes(token.Scopes, ParseScopes(req.Scope))
		if oerr != nil {
			return oerr
		}

		if !g.rotate {
			result, err = g.issuer.Issue(ctx, tx, client, token.UserID, scopes, false, now)
			if err != nil {
				return internalError(err)
			}
			result.RefreshToken = token.RefreshToken
			return nil
		}

		if err := tx.ClaimRefreshToken(ctx, token.RefreshToken, now); err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				return newError(ErrInvalidGrant, "refresh token has expired or was revoked")
			}
			return internalError(err)
		}
		if err := tx.RevokeAccessToken(ctx, token.AccessTokenID); err != nil {
			return internalError(err)
		}

		result, err = g.issuer.Issue(ctx, tx, client, token.UserID, scopes, true, now)
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

// narrowScopes lets a refresh request ask for a subset of the original grant.
func narrowScopes(granted, requested []string) ([]string, *OAuthError) {
	if len(requested) == 0 {
		return granted, nil
	}
	requested = dedupe(requested)
	for _, s := range requested {
		if !contains(granted, s) {
			return nil, newError(ErrInvalidScope, "scope "+s+" exceeds the original grant")
		}
	}
	return requested, nil
}
