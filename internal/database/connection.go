package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logrus.New()

// retryDelays is the backoff schedule between connection attempts
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// SetLogLevel aligns the package logger with the application level
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// gormLogger routes slow queries and errors through logrus. Missing rows are
// expected on every token lookup and are not logged.
func gormLogger() logger.Interface {
	return logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func dialector(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
	}
}

// InitDatabase opens the credential store. Connection failures are retried
// with exponential backoff, since the database container may still be
// starting.
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"db_driver": dial.Name(),
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	for attempt := 1; ; attempt++ {
		db, err := open(dial, cfg)
		if err == nil {
			log.WithFields(logrus.Fields{
				"db_driver": dial.Name(),
				"attempt":   attempt,
			}).Info("Database initialized successfully")
			return db, nil
		}

		log.WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": len(retryDelays) + 1,
		}).WithError(err).Warn("Database connection attempt failed")

		if attempt > len(retryDelays) {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
		}
		delay := retryDelays[attempt-1]
		log.WithField("delay", delay).Info("Retrying database connection")
		time.Sleep(delay)
	}
}

func open(dial gorm.Dialector, cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dial, &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	configureConnectionPool(sqlDB, dial.Name())

	if dial.Name() == "sqlite" {
		// Concurrent code and refresh token claims must not fail with SQLITE_BUSY
		for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}
	return db, nil
}

// configureConnectionPool sizes the pool. SQLite allows a single writer, so
// it gets one long-lived connection and every transaction is serialized.
func configureConnectionPool(sqlDB *sql.DB, driver string) {
	maxOpen, maxIdle, lifetime := 25, 5, 5*time.Minute
	if driver == "sqlite" {
		maxOpen, maxIdle, lifetime = 1, 1, 0
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	log.WithFields(logrus.Fields{
		"max_open_conns":    maxOpen,
		"max_idle_conns":    maxIdle,
		"conn_max_lifetime": lifetime.String(),
	}).Debug("Connection pool configured")
}

// Migrate creates or updates the credential store schema
func Migrate(db *gorm.DB) error {
	log.Info("Running schema migrations")
	return db.AutoMigrate(
		&models.User{},
		&models.Scope{},
		&models.OAuthClient{},
		&models.AuthCode{},
		&models.AccessToken{},
		&models.RefreshToken{},
	)
}
