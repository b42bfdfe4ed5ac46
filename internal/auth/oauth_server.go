package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/metrics"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServerConfig carries the key material and policy of the authorization
// server. Nothing is read from the environment after construction.
type ServerConfig struct {
	PrivateKey           *rsa.PrivateKey
	Issuer               string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	AuthCodeTTL          time.Duration
	RefreshTokenRotation bool
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// AuthorizationServer orchestrates authorization and token requests: it
// authenticates the client, dispatches to the grant handler and converts
// every failure into an *OAuthError.
type AuthorizationServer struct {
	store     *GormStore
	validator *ClientValidator
	scopes    *ScopeRegistry
	publicKey *rsa.PublicKey
	log       logrus.FieldLogger
	now       func() time.Time

	authCode *authorizationCodeGrant
	password *passwordGrant
	refresh  *refreshTokenGrant
}

func NewAuthorizationServer(db *gorm.DB, users UserRepository, scopes *ScopeRegistry, cfg ServerConfig, log logrus.FieldLogger) (*AuthorizationServer, error) {
	if cfg.PrivateKey == nil {
		return nil, errors.New("authorization server requires a private key")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 || cfg.AuthCodeTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	store := NewGormStore(db)
	issuer := NewTokenIssuer(cfg.PrivateKey, cfg.Issuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	return &AuthorizationServer{
		store:     store,
		validator: NewClientValidator(store, log),
		scopes:    scopes,
		publicKey: &cfg.PrivateKey.PublicKey,
		log:       log,
		now:       cfg.Now,
		authCode:  newAuthorizationCodeGrant(store, issuer, cfg.AuthCodeTTL),
		password:  &passwordGrant{store: store, issuer: issuer, scopes: scopes, users: users},
		refresh:   &refreshTokenGrant{store: store, issuer: issuer, rotate: cfg.RefreshTokenRotation},
	}, nil
}

// Store exposes the credential store backing this server.
func (s *AuthorizationServer) Store() *GormStore {
	return s.store
}

// ValidateAuthorizationRequest checks everything about an authorization
// request that does not depend on the user, starting with the client and its
// redirect URI. It is run before the consent page is shown, so a bad request
// never reaches the login form. Only invalid_client and invalid_request
// errors mean the redirect URI could not be trusted.
func (s *AuthorizationServer) ValidateAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) (*models.OAuthClient, []string, error) {
	client, err := s.store.GetClient(ctx, req.ClientID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, newError(ErrInvalidClient, "")
	}
	if err != nil {
		return nil, nil, internalError(err)
	}
	if client.Revoked {
		return nil, nil, newError(ErrInvalidClient, "")
	}

	if req.RedirectURI == "" {
		return nil, nil, newError(ErrInvalidRequest, "redirect_uri is required")
	}
	// Exact string match, no normalization.
	if req.RedirectURI != client.RedirectURI {
		return nil, nil, newError(ErrInvalidRequest, "redirect_uri does not match the registered redirect URI")
	}

	// From here on the redirect URI is trusted, so errors may be sent back to it.
	switch req.ResponseType {
	case "", "code":
	default:
		return nil, nil, newError(ErrUnsupportedResponseType, "")
	}

	if !client.AllowsGrant(GrantAuthorizationCode.String()) {
		return nil, nil, newError(ErrUnauthorizedClient, "")
	}

	scopes, err := s.scopes.FinalizeScopes(ctx, ParseScopes(req.Scope), GrantAuthorizationCode, client, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	return client, scopes, nil
}

// HandleAuthorizationRequest validates the request and, for an authenticated
// user, issues an authorization code bound to the client, redirect URI and
// scopes.
func (s *AuthorizationServer) HandleAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) (*AuthorizationResponse, error) {
	resp, err := s.handleAuthorizationRequest(ctx, req)
	if err != nil {
		oerr := s.observe(err, "authorize")
		return nil, oerr
	}
	metrics.AuthorizationCodesIssued.Inc()
	return resp, nil
}

func (s *AuthorizationServer) handleAuthorizationRequest(ctx context.Context, req *AuthorizationRequest) (*AuthorizationResponse, error) {
	client, scopes, err := s.ValidateAuthorizationRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, newError(ErrAccessDenied, "user is not authenticated")
	}

	code, err := s.authCode.issueCode(ctx, client, req.UserID, req.RedirectURI, scopes, s.now())
	if err != nil {
		return nil, internalError(err)
	}

	s.log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"user_id":   req.UserID,
		"scopes":    scopes,
	}).Info("Authorization code issued")

	return &AuthorizationResponse{
		Code:        code.Code,
		State:       req.State,
		RedirectURI: code.RedirectURI,
		ExpiresAt:   code.ExpiresAt,
	}, nil
}

// HandleTokenRequest authenticates the client for the requested grant and
// dispatches to the grant handler.
func (s *AuthorizationServer) HandleTokenRequest(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	grant, err := ParseGrantType(req.GrantType)
	if err != nil {
		return nil, s.observe(err, req.GrantType)
	}

	client, err := s.validator.AuthenticateForGrant(ctx, req.ClientID, req.ClientSecret, grant)
	if err != nil {
		return nil, s.observe(err, grant.String())
	}

	now := s.now()
	result, err := s.handlerFor(grant).Handle(ctx, req, client, now)
	if err != nil {
		return nil, s.observe(err, grant.String())
	}

	metrics.TokensIssued.WithLabelValues(grant.String()).Inc()
	s.log.WithFields(logrus.Fields{
		"client_id":  client.ID,
		"user_id":    result.UserID,
		"grant_type": grant.String(),
	}).Info("Access token issued")

	return result.response(now), nil
}

func (s *AuthorizationServer) handlerFor(grant GrantType) GrantHandler {
	switch grant {
	case GrantAuthorizationCode:
		return s.authCode
	case GrantPassword:
		return s.password
	case GrantRefreshToken:
		return s.refresh
	default:
		panic("unhandled grant type " + grant.String())
	}
}

// RevokeToken revokes an access or refresh token held by the authenticated
// client. Tokens that are unknown or belong to another client are ignored,
// as RFC 7009 asks.
func (s *AuthorizationServer) RevokeToken(ctx context.Context, clientID, clientSecret, token, hint string) error {
	client, err := s.validator.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return s.observe(err, "revoke")
	}
	if token == "" {
		return newError(ErrInvalidRequest, "token is required")
	}

	err = s.store.Transaction(ctx, func(tx *GormStore) error {
		if hint != "access_token" {
			revoked, err := revokeRefreshToken(ctx, tx, client.ID, token)
			if err != nil || revoked {
				return err
			}
		}
		return revokeAccessToken(ctx, tx, s.publicKey, client.ID, token)
	})
	if err != nil {
		return s.observe(internalError(err), "revoke")
	}
	return nil
}

func revokeRefreshToken(ctx context.Context, tx *GormStore, clientID, token string) (bool, error) {
	refresh, err := tx.GetRefreshToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if refresh.ClientID != clientID {
		return true, nil
	}
	if err := tx.RevokeRefreshToken(ctx, refresh.RefreshToken); err != nil {
		return false, err
	}
	return true, tx.RevokeAccessToken(ctx, refresh.AccessTokenID)
}

func revokeAccessToken(ctx context.Context, tx *GormStore, key *rsa.PublicKey, clientID, token string) error {
	// Expired tokens can still be revoked, so only the signature is checked.
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || claims.ClientID() != clientID {
		return nil
	}
	return tx.RevokeAccessToken(ctx, claims.ID)
}

// RevokeUserTokens revokes every token of a user, used on logout.
func (s *AuthorizationServer) RevokeUserTokens(ctx context.Context, userID string) error {
	if err := s.store.RevokeTokensForUser(ctx, userID); err != nil {
		return s.observe(internalError(err), "logout")
	}
	return nil
}

// PurgeExpired deletes expired codes and tokens.
func (s *AuthorizationServer) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

// observe normalizes err, logs internal failures with their cause and counts
// the rejection.
func (s *AuthorizationServer) observe(err error, operation string) *OAuthError {
	oerr := AsOAuthError(err)
	if errors.Is(oerr, ErrInternal) {
		s.log.WithError(oerr.Cause).WithField("operation", operation).Error("OAuth request failed")
	} else {
		s.log.WithFields(logrus.Fields{
			"operation": operation,
			"error":     oerr.Code(),
		}).Debug("OAuth request rejected")
	}
	metrics.TokenErrors.WithLabelValues(oerr.Code()).Inc()
	return oerr
}
