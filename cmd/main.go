package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/gin-hr-identity/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-hr-identity/internal/auth"
	"github.com/franciscosanchezn/gin-hr-identity/internal/config"
	"github.com/franciscosanchezn/gin-hr-identity/internal/controllers"
	"github.com/franciscosanchezn/gin-hr-identity/internal/database"
	"github.com/franciscosanchezn/gin-hr-identity/internal/metrics"
	"github.com/franciscosanchezn/gin-hr-identity/internal/middleware"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/security"
	"github.com/franciscosanchezn/gin-hr-identity/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var (
	db               *gorm.DB
	configuration    *config.Config
	resourceServer   *auth.ResourceServer
	sessions         *middleware.SessionManager
	oauthController  *controllers.OAuthController
	authController   *controllers.AuthController
	clientController *controllers.ClientController
)

// @title HR Identity API
// @version 1.0
// @description OAuth2 authorization server and identity API for the HR applications
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Initialize OAuth servers, services and controllers
	setupServices(configuration)

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	level := config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development"))
	if override, err := log.ParseLevel(config.GetEnvWithDefault("LOG_LEVEL", "")); err == nil {
		level = override
	}
	log.SetLevel(level)
	database.SetLogLevel(level)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	if conf.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return conf
}

// setupDatabase opens the configured database, migrates the schema and seeds
// the scope registry
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(database.FromConfig(conf))
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))

	ctx := context.Background()
	checkPanicErr(services.NewScopeService(db).EnsureScopes(ctx, services.DefaultScopes))
	return db
}

// loadKeys reads the RSA key pair. Outside production a missing private key
// is replaced by an ephemeral one, so tokens do not survive a restart.
func loadKeys(conf *config.Config) (*rsa.PrivateKey, *rsa.PublicKey) {
	if conf.PrivateKeyPEM == "" && conf.PrivateKeyPath == "" {
		log.Warn("No OAuth private key configured, generating an ephemeral key pair")
		key, err := auth.GenerateKeyPair(2048)
		checkPanicErr(err)
		return key, &key.PublicKey
	}

	privateKey, err := auth.LoadPrivateKey(conf.PrivateKeyPEM, conf.PrivateKeyPath)
	checkPanicErr(err)
	if conf.PublicKeyPEM == "" && conf.PublicKeyPath == "" {
		return privateKey, &privateKey.PublicKey
	}
	publicKey, err := auth.LoadPublicKey(conf.PublicKeyPEM, conf.PublicKeyPath)
	checkPanicErr(err)
	if !publicKey.Equal(&privateKey.PublicKey) {
		panic("OAuth public key does not match the private key")
	}
	return privateKey, publicKey
}

// loadEncrypter builds the session encrypter. Outside production a missing
// key is replaced by an ephemeral one, which logs everyone out on restart.
func loadEncrypter(conf *config.Config) *security.Encrypter {
	key := conf.EncryptionKey
	if key == "" {
		log.Warn("No OAUTH_ENCRYPTION_KEY configured, generating an ephemeral key")
		var err error
		key, err = security.GenerateKey()
		checkPanicErr(err)
	}
	encrypter, err := security.NewEncrypter(key)
	checkPanicErr(err)
	return encrypter
}

func setupServices(conf *config.Config) {
	logger := log.StandardLogger()
	privateKey, publicKey := loadKeys(conf)
	log.WithField("kid", auth.KeyID(publicKey)).Info("OAuth signing key loaded")

	userService := services.NewUserService(db)
	clientService := services.NewClientService(db)
	scopeService := services.NewScopeService(db)

	defaultScopes := conf.DefaultScopes
	if len(defaultScopes) == 0 {
		defaultScopes = []string{"profile"}
	}

	authServer, err := auth.NewAuthorizationServer(db, userService, auth.NewScopeRegistry(db, defaultScopes), auth.ServerConfig{
		PrivateKey:           privateKey,
		Issuer:               conf.Issuer,
		AccessTokenTTL:       conf.AccessTokenTTL,
		RefreshTokenTTL:      conf.RefreshTokenTTL,
		AuthCodeTTL:          conf.AuthCodeTTL,
		RefreshTokenRotation: conf.RefreshTokenRotation,
	}, logger)
	checkPanicErr(err)

	resourceServer, err = auth.NewResourceServer(db, userService, auth.ResourceServerConfig{
		PublicKey: publicKey,
		Issuer:    conf.Issuer,
	}, logger)
	checkPanicErr(err)

	purged, err := authServer.PurgeExpired(context.Background())
	if err != nil {
		log.WithError(err).Warn("Failed to purge expired tokens")
	} else {
		log.WithField("rows", purged).Info("Purged expired codes and tokens")
	}

	sessions = middleware.NewSessionManager(loadEncrypter(conf), conf.SessionTTL, conf.Environment == "production", logger)
	oauthController = controllers.NewOAuthController(authServer, resourceServer, userService, sessions, logger)
	authController = controllers.NewAuthController(userService, authServer, sessions, logger)
	clientController = controllers.NewClientController(clientService, scopeService, logger)
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(log.StandardLogger()))

	// Define routes
	setupRoutes(router)

	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// Prometheus metrics
	router.GET("/metrics", metrics.Handler())

	limiter := middleware.RateLimit(configuration.RateLimitPerMinute)

	// OAuth2 endpoints, with the login session for the authorization page
	oauth := router.Group("/oauth")
	oauth.Use(limiter, sessions.Middleware())
	{
		oauth.GET("/authorize", oauthController.Authorize)
		oauth.POST("/allow", oauthController.Allow)
		oauth.POST("/token", oauthController.Token)
		oauth.POST("/revoke", oauthController.Revoke)
		oauth.POST("/logout", authController.Logout)
	}
	router.GET("/userinfo", limiter, oauthController.UserInfo)

	v1 := router.Group("/api/v1")
	{
		// Protected routes (requires a valid access token)
		protectedApi := v1.Group("/protected")
		protectedApi.Use(middleware.BearerAuth(resourceServer))
		{
			protectedApi.GET("/me", meHandler)

			adminApi := protectedApi.Group("/admin")
			adminApi.Use(middleware.RequireRole(models.RoleAdmin))
			{
				adminApi.POST("/users", authController.Register)
				adminApi.GET("/scopes", clientController.ListScopes)
				adminApi.POST("/clients", clientController.CreateClient)
				adminApi.GET("/clients", clientController.ListClients)
				adminApi.GET("/clients/:id", clientController.GetClient)
				adminApi.PUT("/clients/:id", clientController.UpdateClient)
				adminApi.POST("/clients/:id/secret", clientController.RegenerateSecret)
				adminApi.DELETE("/clients/:id", clientController.RevokeClient)
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	status := http.StatusOK
	state := "healthy"
	if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-hr-identity",
	})
}

// meHandler returns the token's user, client and scopes
// @Summary Token introspection for the caller
// @Description Returns the user, client and scopes of the bearer token
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/v1/protected/me [get]
func meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":   c.GetUint(middleware.ContextUserID),
		"role":      c.GetString(middleware.ContextUserRole),
		"client_id": c.GetString(middleware.ContextClientID),
		"scopes":    c.GetStringSlice(middleware.ContextScopes),
	})
}
