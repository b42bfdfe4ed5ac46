package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnvironment(GetEnvWithDefault("APP_ENV", "development")))
}

// LevelForEnvironment maps APP_ENV to the log level used by every package logger
func LevelForEnvironment(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		// Default to info level for other environments
		return logrus.InfoLevel
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port        int    `json:"port"`
	Host        string `json:"host"`
	Environment string `json:"environment"`
	BaseURL     string `json:"base_url"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// OAuth2 key material. PEM blocks take precedence over file paths.
	PrivateKeyPEM  string `json:"-"`
	PrivateKeyPath string `json:"private_key_path"`
	PublicKeyPEM   string `json:"-"`
	PublicKeyPath  string `json:"public_key_path"`
	EncryptionKey  string `json:"-"`
	Issuer         string `json:"issuer"`

	// OAuth2 lifetimes and policy
	AccessTokenTTL       time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL      time.Duration `json:"refresh_token_ttl"`
	AuthCodeTTL          time.Duration `json:"auth_code_ttl"`
	RefreshTokenRotation bool          `json:"refresh_token_rotation"`
	DefaultScopes        []string      `json:"default_scopes"`
	SessionTTL           time.Duration `json:"session_ttl"`

	// Rate limiting for the public OAuth endpoints
	RateLimitPerMinute int `json:"rate_limit_per_minute"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, Environment: %s, BaseURL: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, PrivateKey: %s, PublicKey: %s, EncryptionKey: [REDACTED], AccessTokenTTL: %s, RefreshTokenTTL: %s, AuthCodeTTL: %s, RefreshTokenRotation: %t}",
		c.Port, c.Host, c.Environment, c.BaseURL, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.LogLevel,
		maskKeySource(c.PrivateKeyPEM, c.PrivateKeyPath), maskKeySource(c.PublicKeyPEM, c.PublicKeyPath),
		c.AccessTokenTTL, c.RefreshTokenTTL, c.AuthCodeTTL, c.RefreshTokenRotation)
}

// maskKeySource never prints key material, only where it came from
func maskKeySource(pem, path string) string {
	switch {
	case pem != "":
		return "[INLINE]"
	case path != "":
		return path
	default:
		return "[GENERATED]"
	}
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any environment variable is present but malformed
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	durations := map[string]time.Duration{
		"ACCESS_TOKEN_TTL":  time.Hour,
		"REFRESH_TOKEN_TTL": 30 * 24 * time.Hour,
		"AUTH_CODE_TTL":     10 * time.Minute,
		"SESSION_TTL":       8 * time.Hour,
	}
	for key, def := range durations {
		d, err := parseDuration(key, def)
		if err != nil {
			return nil, err
		}
		durations[key] = d
	}

	rateLimit, err := strconv.Atoi(GetEnvWithDefault("RATE_LIMIT_PER_MINUTE", "60"))
	if err != nil || rateLimit < 0 {
		return nil, errors.New("RATE_LIMIT_PER_MINUTE must be a non-negative integer")
	}

	host := GetEnvWithDefault("APP_HOST", "localhost")
	config := &Config{
		Port:                 port,
		Host:                 host,
		Environment:          GetEnvWithDefault("APP_ENV", "development"),
		BaseURL:              strings.TrimRight(GetEnvWithDefault("APP_URL", fmt.Sprintf("http://%s:%d", host, port)), "/"),
		DBDriver:             GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBPath:               GetEnvWithDefault("DB_PATH", "hr-identity.sqlite"),
		DBHost:               GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:               GetEnvWithDefault("DB_PORT", "5432"),
		DBName:               GetEnvWithDefault("DB_NAME", "hr_identity"),
		DBUser:               GetEnvWithDefault("DB_USER", "user"),
		DBPassword:           GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:            GetEnvWithDefault("DB_SSLMODE", "disable"),
		LogLevel:             GetEnvWithDefault("LOG_LEVEL", "info"),
		PrivateKeyPEM:        expandNewlines(os.Getenv("OAUTH_PRIVATE_KEY")),
		PrivateKeyPath:       os.Getenv("OAUTH_PRIVATE_KEY_PATH"),
		PublicKeyPEM:         expandNewlines(os.Getenv("OAUTH_PUBLIC_KEY")),
		PublicKeyPath:        os.Getenv("OAUTH_PUBLIC_KEY_PATH"),
		EncryptionKey:        os.Getenv("OAUTH_ENCRYPTION_KEY"),
		AccessTokenTTL:       durations["ACCESS_TOKEN_TTL"],
		RefreshTokenTTL:      durations["REFRESH_TOKEN_TTL"],
		AuthCodeTTL:          durations["AUTH_CODE_TTL"],
		SessionTTL:           durations["SESSION_TTL"],
		RefreshTokenRotation: GetEnvAsType("REFRESH_TOKEN_ROTATION", true),
		DefaultScopes:        strings.Fields(GetEnvWithDefault("DEFAULT_SCOPES", "")),
		RateLimitPerMinute:   rateLimit,
	}
	config.Issuer = GetEnvWithDefault("OAUTH_ISSUER", config.BaseURL)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Validate checks cross-field rules that single variables cannot express
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.PrivateKeyPEM == "" && c.PrivateKeyPath == "" {
			return errors.New("OAUTH_PRIVATE_KEY or OAUTH_PRIVATE_KEY_PATH is required in production")
		}
		if c.EncryptionKey == "" {
			return errors.New("OAUTH_ENCRYPTION_KEY is required in production")
		}
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.AuthCodeTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// expandNewlines turns literal "\n" sequences into line breaks, which is how
// PEM blocks survive single-line environment variables
func expandNewlines(value string) string {
	return strings.ReplaceAll(value, `\n`, "\n")
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return any(d).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
