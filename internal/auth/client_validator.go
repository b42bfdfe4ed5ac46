package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ClientValidator authenticates clients. It never tells the caller why a
// client was rejected.
type ClientValidator struct {
	store *GormStore
	log   logrus.FieldLogger
}

func NewClientValidator(store *GormStore, log logrus.FieldLogger) *ClientValidator {
	return &ClientValidator{store: store, log: log}
}

// ValidateClient reports whether the client exists, presented the right
// secret (confidential clients only) and may use grantType.
func (v *ClientValidator) ValidateClient(ctx context.Context, clientID, secret, grantType string) bool {
	client, err := v.Authenticate(ctx, clientID, secret)
	if err != nil {
		return false
	}
	return client.AllowsGrant(grantType)
}

// Authenticate returns the client when clientID and secret check out. Every
// rejection is the same invalid_client error.
func (v *ClientValidator) Authenticate(ctx context.Context, clientID, secret string) (*models.OAuthClient, error) {
	if clientID == "" {
		return nil, newError(ErrInvalidClient, "")
	}

	client, err := v.store.GetClient(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		v.log.WithField("client_id", clientID).Debug("Unknown client")
		return nil, newError(ErrInvalidClient, "")
	}
	if err != nil {
		return nil, internalError(err)
	}

	if client.Revoked {
		v.log.WithField("client_id", clientID).Debug("Revoked client")
		return nil, newError(ErrInvalidClient, "")
	}
	if client.IsConfidential() && !secretMatches(client.Secret, secret) {
		v.log.WithField("client_id", clientID).Debug("Client secret mismatch")
		return nil, newError(ErrInvalidClient, "")
	}
	return client, nil
}

// AuthenticateForGrant is Authenticate plus the allow-list check.
func (v *ClientValidator) AuthenticateForGrant(ctx context.Context, clientID, secret string, grant GrantType) (*models.OAuthClient, error) {
	client, err := v.Authenticate(ctx, clientID, secret)
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrant(grant.String()) {
		v.log.WithFields(logrus.Fields{"client_id": clientID, "grant_type": grant.String()}).Debug("Grant type not allowed for client")
		return nil, newError(ErrInvalidClient, "")
	}
	return client, nil
}

// secretMatches accepts bcrypt hashes and, for legacy rows, plain secrets.
// Both comparisons are constant time.
func secretMatches(stored, supplied string) bool {
	if supplied == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
