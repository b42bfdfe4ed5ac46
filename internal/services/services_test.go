package services

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Scope{}, &models.OAuthClient{},
		&models.AuthCode{}, &models.AccessToken{}, &models.RefreshToken{}))
	return db
}

func TestUserService(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db)
	ctx := context.Background()

	user := &models.User{Email: "  Alice@Example.com ", Name: "Alice", Password: "hunter22"}
	require.NoError(t, service.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.NotEqual(t, "hunter22", user.Password, "password must be stored hashed")

	err := service.CreateUser(ctx, &models.User{Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	byEmail, err := service.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := service.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)

	_, err = service.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	t.Run("authenticate", func(t *testing.T) {
		authenticated, err := service.Authenticate(ctx, "alice@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, user.ID, authenticated.ID)

		_, err = service.Authenticate(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = service.Authenticate(ctx, "nobody@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestClientServiceCreate(t *testing.T) {
	db := setupTestDB(t)
	service := NewClientService(db)
	ctx := context.Background()

	client, secret, err := service.CreateClient(ctx, 7, ClientInput{
		Name:              "Timesheets",
		RedirectURI:       "https://timesheets.example.com/callback",
		AllowedGrantTypes: []string{"authorization_code", "refresh_token"},
		Scopes:            []string{"profile", "email"},
		Confidential:      true,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(client.ID)
	assert.NoError(t, err, "client ids are UUIDs")
	assert.NotEmpty(t, secret)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(client.Secret), []byte(secret)))
	assert.Equal(t, "authorization_code,refresh_token", client.AllowedGrantTypes)
	assert.Equal(t, "profile email", client.Scopes)
	assert.Equal(t, uint(7), client.UserID)

	public, secret, err := service.CreateClient(ctx, 7, ClientInput{Name: "Mobile", RedirectURI: "hrapp://callback"})
	require.NoError(t, err)
	assert.Empty(t, secret)
	assert.True(t, public.IsPublic())
	assert.Equal(t, "authorization_code", public.AllowedGrantTypes)

	clients, err := service.GetClientsByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}

func TestClientServiceValidation(t *testing.T) {
	service := NewClientService(setupTestDB(t))
	ctx := context.Background()

	testCases := []struct {
		name  string
		input ClientInput
	}{
		{"missing name", ClientInput{RedirectURI: "https://app/cb"}},
		{"missing redirect", ClientInput{Name: "app"}},
		{"relative redirect", ClientInput{Name: "app", RedirectURI: "/cb"}},
		{"fragment in redirect", ClientInput{Name: "app", RedirectURI: "https://app/cb#x"}},
		{"unsupported grant", ClientInput{Name: "app", RedirectURI: "https://app/cb", AllowedGrantTypes: []string{"implicit"}}},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := service.CreateClient(ctx, 1, tt.input)
			assert.ErrorIs(t, err, ErrInvalidClientData)
		})
	}
}

func TestClientServiceUpdateAndSecret(t *testing.T) {
	service := NewClientService(setupTestDB(t))
	ctx := context.Background()

	client, oldSecret, err := service.CreateClient(ctx, 1, ClientInput{Name: "Payroll", RedirectURI: "https://payroll/cb", Confidential: true})
	require.NoError(t, err)

	updated, err := service.UpdateClient(ctx, client.ID, ClientInput{
		Name:              "Payroll v2",
		RedirectURI:       "https://payroll/v2/cb",
		AllowedGrantTypes: []string{"password"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Payroll v2", updated.Name)
	assert.Equal(t, "password", updated.AllowedGrantTypes)
	assert.Equal(t, client.Secret, updated.Secret, "update keeps the secret")

	newSecret, err := service.RegenerateSecret(ctx, client.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldSecret, newSecret)

	reloaded, err := service.GetClientByID(ctx, client.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reloaded.Secret), []byte(newSecret)))

	_, err = service.UpdateClient(ctx, "missing", ClientInput{Name: "x", RedirectURI: "https://x/cb"})
	assert.ErrorIs(t, err, ErrClientNotFound)

	public, _, err := service.CreateClient(ctx, 1, ClientInput{Name: "Mobile", RedirectURI: "hrapp://cb"})
	require.NoError(t, err)
	_, err = service.RegenerateSecret(ctx, public.ID)
	assert.ErrorIs(t, err, ErrInvalidClientData)
}

func TestClientServiceRevoke(t *testing.T) {
	db := setupTestDB(t)
	service := NewClientService(db)
	ctx := context.Background()

	client, _, err := service.CreateClient(ctx, 1, ClientInput{Name: "Payroll", RedirectURI: "https://payroll/cb"})
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour)
	require.NoError(t, db.Create(&models.AccessToken{UserID: "1", ClientID: client.ID, AccessToken: "a1", ExpiresAt: expires}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{RefreshToken: "r1", AccessTokenID: "a1", UserID: "1", ClientID: client.ID, ExpiresAt: expires}).Error)

	require.NoError(t, service.RevokeClient(ctx, client.ID))

	reloaded, err := service.GetClientByID(ctx, client.ID)
	require.NoError(t, err, "revoked clients are kept")
	assert.True(t, reloaded.Revoked)

	var access models.AccessToken
	require.NoError(t, db.First(&access, "access_token = ?", "a1").Error)
	assert.True(t, access.Revoked)

	var refresh models.RefreshToken
	require.NoError(t, db.First(&refresh, "refresh_token = ?", "r1").Error)
	assert.True(t, refresh.Revoked)

	assert.ErrorIs(t, service.RevokeClient(ctx, "missing"), ErrClientNotFound)
}

func TestScopeService(t *testing.T) {
	service := NewScopeService(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, service.EnsureScopes(ctx, DefaultScopes))
	require.NoError(t, service.EnsureScopes(ctx, []models.Scope{{Identifier: "profile", Description: "changed"}, {Identifier: "payroll:read"}}))

	scopes, err := service.ListScopes(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 3)
	assert.Equal(t, "email", scopes[0].Identifier)
	assert.Equal(t, "payroll:read", scopes[1].Identifier)
	assert.Equal(t, "profile", scopes[2].Identifier)
	assert.NotEqual(t, "changed", scopes[2].Description, "existing scopes are not overwritten")
}
