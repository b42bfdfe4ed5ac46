package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRepository is the read side of the user records the password grant and
// the resource server need. Lookups return gorm.ErrRecordNotFound for unknown
// users.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// dummyHash is compared against when the user does not exist, so unknown
// users cost the same bcrypt work as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return hash
})

type passwordGrant struct {
	store  *GormStore
	issuer *TokenIssuer
	scopes *ScopeRegistry
	users  UserRepository
}

func (g *passwordGrant) Grant() GrantType {
	return GrantPassword
}

func (g *passwordGrant) Handle(ctx context.Context, req *TokenRequest, client *models.OAuthClient, now time.Time) (*TokenResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, newError(ErrInvalidRequest, "username and password are required")
	}

	user, err := g.users.GetUserByEmail(ctx, req.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internalError(err)
	}

	hash := dummyHash()
	if user != nil {
		hash = []byte(user.Password)
	}
	match := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) == nil
	if user == nil || !match {
		return nil, newError(ErrInvalidCredentials, "")
	}

	scopes, err := g.scopes.FinalizeScopes(ctx, ParseScopes(req.Scope), GrantPassword, client, user.Identifier())
	if err != nil {
		return nil, err
	}

	var result *TokenResult
	err = g.store.Transaction(ctx, func(tx *GormStore) error {
		issued, ierr := g.issuer.Issue(ctx, tx, client, user.Identifier(), scopes, true, now)
		result = issued
		return ierr
	})
	if err != nil {
		return nil, internalError(err)
	}
	return result, nil
}
