package controllers

import (
	"context"
	"crypto/rsa"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/middleware"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/security"
	"github.com/franciscosanchezn/gin-hr-identity/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	payrollRedirect = "https://payroll.example.com/cb"
	employeeEmail   = "alice@example.com"
	employeePass    = "correct horse"
	adminEmail      = "admin@example.com"
	adminPass       = "admin password"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		key, err := auth.GenerateKeyPair(2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

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

// testApp wires the OAuth endpoints and the admin API the same way the
// server binary does, on top of an in-memory database holding:
//
//	alice   employee
//	admin   admin
//	payroll confidential, authorization_code and refresh_token
//	mobile  public, password and refresh_token
type testApp struct {
	router        *gin.Engine
	server        *auth.AuthorizationServer
	resource      *auth.ResourceServer
	payrollID     string
	payrollSecret string
	mobileID      string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	ctx := context.Background()

	log := logrus.New()
	log.SetOutput(io.Discard)

	userService := services.NewUserService(db)
	require.NoError(t, userService.CreateUser(ctx, &models.User{
		Email: employeeEmail, Password: employeePass, Name: "Alice", Nickname: "ali", Sub: "emp-0001",
	}))
	require.NoError(t, userService.CreateUser(ctx, &models.User{
		Email: adminEmail, Password: adminPass, Name: "Admin", Role: models.RoleAdmin,
	}))

	scopeService := services.NewScopeService(db)
	require.NoError(t, scopeService.EnsureScopes(ctx, services.DefaultScopes))

	clientService := services.NewClientService(db)
	payroll, payrollSecret, err := clientService.CreateClient(ctx, 0, services.ClientInput{
		Name:              "Payroll",
		RedirectURI:       payrollRedirect,
		AllowedGrantTypes: []string{"authorization_code", "refresh_token"},
		Confidential:      true,
	})
	require.NoError(t, err)
	mobile, _, err := clientService.CreateClient(ctx, 0, services.ClientInput{
		Name:              "Mobile",
		RedirectURI:       "hr-mobile://callback",
		AllowedGrantTypes: []string{"password", "refresh_token"},
	})
	require.NoError(t, err)

	server, err := auth.NewAuthorizationServer(db, userService, auth.NewScopeRegistry(db, []string{"profile"}), auth.ServerConfig{
		PrivateKey:           signingKey(t),
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      24 * time.Hour,
		AuthCodeTTL:          10 * time.Minute,
		RefreshTokenRotation: true,
	}, log)
	require.NoError(t, err)
	resource, err := auth.NewResourceServer(db, userService, auth.ResourceServerConfig{
		PublicKey: &signingKey(t).PublicKey,
	}, log)
	require.NoError(t, err)

	encrypter, err := security.NewEncrypter("controller-test-key")
	require.NoError(t, err)
	sessions := middleware.NewSessionManager(encrypter, time.Hour, false, log)

	oauthController := NewOAuthController(server, resource, userService, sessions, log)
	authController := NewAuthController(userService, server, sessions, log)
	clientController := NewClientController(clientService, scopeService, log)

	router := gin.New()
	oauth := router.Group("/oauth", sessions.Middleware())
	{
		oauth.GET("/authorize", oauthController.Authorize)
		oauth.POST("/allow", oauthController.Allow)
		oauth.POST("/token", oauthController.Token)
		oauth.POST("/revoke", oauthController.Revoke)
		oauth.POST("/logout", authController.Logout)
	}
	router.GET("/userinfo", oauthController.UserInfo)

	admin := router.Group("/api/v1/protected/admin", middleware.BearerAuth(resource), middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/users", authController.Register)
		admin.GET("/scopes", clientController.ListScopes)
		admin.POST("/clients", clientController.CreateClient)
		admin.GET("/clients", clientController.ListClients)
		admin.GET("/clients/:id", clientController.GetClient)
		admin.PUT("/clients/:id", clientController.UpdateClient)
		admin.POST("/clients/:id/secret", clientController.RegenerateSecret)
		admin.DELETE("/clients/:id", clientController.RevokeClient)
	}

	return &testApp{
		router:        router,
		server:        server,
		resource:      resource,
		payrollID:     payroll.ID,
		payrollSecret: payrollSecret,
		mobileID:      mobile.ID,
	}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return a.do(req)
}

func (a *testApp) postForm(path string, form url.Values, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return a.do(req)
}

func (a *testApp) sendJSON(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return a.do(req)
}

// passwordToken signs a user in through the mobile client.
func (a *testApp) passwordToken(t *testing.T, email, password string) *auth.TokenResponse {
	t.Helper()
	resp, err := a.server.HandleTokenRequest(context.Background(), &auth.TokenRequest{
		GrantType: "password",
		ClientID:  a.mobileID,
		Username:  email,
		Password:  password,
		Scope:     "profile email",
	})
	require.NoError(t, err)
	return resp
}

func (a *testApp) authorizeQuery(scope, state string) url.Values {
	return url.Values{
		"response_type": {"code"},
		"client_id":     {a.payrollID},
		"redirect_uri":  {payrollRedirect},
		"scope":         {scope},
		"state":         {state},
	}
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// redirectQuery parses the Location header of a redirect response.
func redirectQuery(t *testing.T, w *httptest.ResponseRecorder) (*url.URL, url.Values) {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return location, location.Query()
}
