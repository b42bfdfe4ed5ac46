package auth

import (
	"context"
	"crypto/rsa"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testRedirectURI  = "https://app/cb"
	testClientSecret = "c1-secret"
	testPassword     = "correct horse"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := GenerateKeyPair(2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache database, so every pooled connection sees the same data
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(&models.User{}, &models.Scope{}, &models.OAuthClient{},
		&models.AuthCode{}, &models.AccessToken{}, &models.RefreshToken{})
	require.NoError(t, err)
	return db
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testClock is a settable time source shared by both servers.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUsers) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func hashSecret(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// fixture is a migrated database with one employee, the scopes profile and
// email, and three clients:
//
//	c1      confidential, authorization_code only
//	webapp  confidential, authorization_code and refresh_token
//	mobile  public, password and refresh_token
type fixture struct {
	db       *gorm.DB
	clock    *testClock
	user     *models.User
	users    *gormUsers
	server   *AuthorizationServer
	resource *ResourceServer
}

type fixtureOption func(*ServerConfig)

func withoutRotation() fixtureOption {
	return func(c *ServerConfig) { c.RefreshTokenRotation = false }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db := setupTestDB(t)
	clock := newTestClock()

	user := &models.User{
		Email:    "alice@example.com",
		Name:     "Alice",
		Nickname: "ali",
		Sub:      "emp-0001",
		Password: testPassword,
		Role:     models.RoleEmployee,
	}
	require.NoError(t, user.HashPassword())
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, db.Create(&[]models.Scope{
		{Identifier: "profile", Description: "Basic profile"},
		{Identifier: "email", Description: "Email address"},
	}).Error)

	secret := hashSecret(t, testClientSecret)
	require.NoError(t, db.Create(&[]models.OAuthClient{
		{ID: "c1", Name: "Timesheets", RedirectURI: testRedirectURI, Secret: secret, AllowedGrantTypes: "authorization_code"},
		{ID: "webapp", Name: "Payroll", RedirectURI: "https://payroll/cb", Secret: secret, AllowedGrantTypes: "authorization_code,refresh_token", Scopes: "profile"},
		{ID: "mobile", Name: "Mobile", RedirectURI: "app://cb", AllowedGrantTypes: "password,refresh_token"},
	}).Error)

	cfg := ServerConfig{
		PrivateKey:           signingKey(t),
		Issuer:               "https://hr.test",
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      30 * 24 * time.Hour,
		AuthCodeTTL:          10 * time.Minute,
		RefreshTokenRotation: true,
		Now:                  clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	users := &gormUsers{db: db}
	scopes := NewScopeRegistry(db, []string{"profile"})
	server, err := NewAuthorizationServer(db, users, scopes, cfg, testLogger())
	require.NoError(t, err)

	resource, err := NewResourceServer(db, users, ResourceServerConfig{
		PublicKey: &signingKey(t).PublicKey,
		Issuer:    "https://hr.test",
		Now:       clock.Now,
	}, testLogger())
	require.NoError(t, err)

	return &fixture{db: db, clock: clock, user: user, users: users, server: server, resource: resource}
}

// authorize issues a code for the fixture user.
func (f *fixture) authorize(t *testing.T, clientID, redirectURI string) string {
	t.Helper()
	resp, err := f.server.HandleAuthorizationRequest(context.Background(), &AuthorizationRequest{
		ResponseType: "code",
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		State:        "xyz",
		UserID:       f.user.Identifier(),
	})
	require.NoError(t, err)
	return resp.Code
}

func (f *fixture) exchange(clientID, code string) (*TokenResponse, error) {
	return f.server.HandleTokenRequest(context.Background(), &TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     clientID,
		ClientSecret: testClientSecret,
		Code:         code,
	})
}

func (f *fixture) passwordToken(t *testing.T) *TokenResponse {
	t.Helper()
	resp, err := f.server.HandleTokenRequest(context.Background(), &TokenRequest{
		GrantType: "password",
		ClientID:  "mobile",
		Username:  "alice@example.com",
		Password:  testPassword,
		Scope:     "profile email",
	})
	require.NoError(t, err)
	return resp
}

func requireOAuthError(t *testing.T, err error, kind error) *OAuthError {
	t.Helper()
	require.Error(t, err)
	oerr := AsOAuthError(err)
	require.ErrorIs(t, oerr, kind, "got %s", oerr.Code())
	return oerr
}
