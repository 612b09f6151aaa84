package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donorhub/internal/adapters/persistence/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
	healthTimeout   = 2 * time.Second
)

// DB is the global database instance
var DB *gorm.DB

// ErrDatabaseNotInitialized is returned by HealthCheck before ConnectDatabase succeeds
var ErrDatabaseNotInitialized = errors.New("database not initialized")

// ConnectDatabase opens the MySQL pool, retrying while the server comes up
func ConnectDatabase(cfg *Config, log zerolog.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Error)
	if cfg.IsDev() {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := openDatabase(cfg.Database, gormLogger)
		if err == nil {
			DB = db
			log.Info().
				Str("host", cfg.Database.Host).
				Str("database", cfg.Database.DBName).
				Int("attempt", attempt).
				Msg("database connected")
			return db, nil
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("database not reachable")
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * connectBackoff)
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

func openDatabase(d DatabaseConfig, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(buildDSN(d)), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the auth tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// buildDSN returns the MySQL DSN. Times are stored and scanned as UTC.
func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// CloseDatabase closes the global pool if one is open
func CloseDatabase() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the global pool with a short timeout
func HealthCheck() error {
	if DB == nil {
		return ErrDatabaseNotInitialized
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
