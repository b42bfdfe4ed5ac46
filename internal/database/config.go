package database

import (
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-hr-identity/internal/config"
)

// DatabaseConfig is the connection part of the application configuration.
// Host through SSLMode apply to PostgreSQL, Path to SQLite.
type DatabaseConfig struct {
	Driver string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	Path string
}

// FromConfig extracts the database section of the application configuration
func FromConfig(c *config.Config) DatabaseConfig {
	return DatabaseConfig{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}

func (c *DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.Driver, c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN builds the driver-specific data source name. Sessions run in UTC so
// token expiry comparisons never depend on the server time zone, and SQLite
// transactions take the write lock up front so two concurrent claims of the
// same code cannot deadlock.
func (c *DatabaseConfig) DSN() string {
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.Host, c.User, quoteValue(c.Password), c.Name, c.Port, c.SSLMode)
	case "sqlite", "":
		if c.Path == ":memory:" || strings.Contains(c.Path, "?") {
			return c.Path
		}
		return c.Path + "?_txlock=immediate"
	default:
		return ""
	}
}

// quoteValue quotes a libpq keyword value when it contains spaces or quotes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	return "'" + strings.ReplaceAll(v, `'`, `\'`) + "'"
}
