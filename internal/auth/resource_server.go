package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ResourceServerConfig carries what bearer validation needs. Only the public
// key is held here.
type ResourceServerConfig struct {
	PublicKey *rsa.PublicKey
	// Issuer, when set, must match the iss claim.
	Issuer string
	Now    func() time.Time
}

// ResourceServer validates bearer tokens on every call: signature and expiry
// from the JWT, revocation and expiry from the credential store. Nothing is
// cached between requests.
type ResourceServer struct {
	store  *GormStore
	users  UserRepository
	key    *rsa.PublicKey
	issuer string
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewResourceServer(db *gorm.DB, users UserRepository, cfg ResourceServerConfig, log logrus.FieldLogger) (*ResourceServer, error) {
	if cfg.PublicKey == nil {
		return nil, errors.New("resource server requires a public key")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ResourceServer{
		store:  NewGormStore(db),
		users:  users,
		key:    cfg.PublicKey,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		log:    log,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ValidateAuthorization checks the bearer token in an Authorization header
// and returns its claims. Every rejection is the same unauthorized_token
// error; store failures are internal_error.
func (s *ResourceServer) ValidateAuthorization(ctx context.Context, header string) (*AccessTokenClaims, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return nil, newError(ErrUnauthorizedToken, "")
	}
	return s.ValidateToken(ctx, raw)
}

// ValidateToken is ValidateAuthorization for a bare token.
func (s *ResourceServer) ValidateToken(ctx context.Context, raw string) (*AccessTokenClaims, error) {
	now := s.now()
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &AccessTokenClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...); err != nil {
		s.log.WithError(err).Debug("Bearer token rejected")
		return nil, newError(ErrUnauthorizedToken, "")
	}
	if claims.ID == "" {
		return nil, newError(ErrUnauthorizedToken, "")
	}

	token, err := s.store.GetAccessToken(ctx, claims.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(ErrUnauthorizedToken, "")
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to load access token")
		return nil, internalError(err)
	}
	if !token.IsValid(now) || token.ClientID != claims.ClientID() {
		return nil, newError(ErrUnauthorizedToken, "")
	}
	return claims, nil
}

// Authenticate validates the bearer token and loads the user it was issued
// for.
func (s *ResourceServer) Authenticate(ctx context.Context, header string) (*AccessTokenClaims, *models.User, error) {
	claims, err := s.ValidateAuthorization(ctx, header)
	if err != nil {
		return nil, nil, err
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil, newError(ErrUnauthorizedToken, "")
	}
	user, err := s.users.GetUserByID(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, newError(ErrUnauthorizedToken, "")
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to load token user")
		return nil, nil, internalError(err)
	}
	return claims, user, nil
}

// UserInfo resolves the identity behind a bearer token.
func (s *ResourceServer) UserInfo(ctx context.Context, header string) (*UserInfo, error) {
	_, user, err := s.Authenticate(ctx, header)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		Sub:       user.Subject(),
		Nickname:  user.Nickname,
		GivenName: user.Name,
		Email:     user.Email,
	}, nil
}
