package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSecret is returned when JWT_SECRET_KEY is not configured
var ErrMissingSecret = errors.New("JWT_SECRET_KEY is required")

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	LogLevel string
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	Admin    AdminConfig
	Cookie   CookieConfig

	// VerificationReminderCron is the reminder schedule; empty disables the job
	VerificationReminderCron string

	allowedOrigins string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is "mysql" or "memory". The memory store keeps nothing across restarts.
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret           string
	AccessTokenMins  int
	RefreshTokenDays int
}

// EmailConfig holds Mailjet configuration
type EmailConfig struct {
	APIKey      string
	APISecret   string
	FromEmail   string
	FromName    string
	FrontendURL string
}

// CookieConfig holds auth cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// AdminConfig holds the optional bootstrap admin account
type AdminConfig struct {
	Email    string
	Password string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	jwtConfig, err := loadJWTConfig()
	if err != nil {
		return nil, err
	}

	database := loadDatabaseConfig()
	if database.Driver != "mysql" && database.Driver != "memory" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'memory')", database.Driver)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: database,
		JWT:      jwtConfig,
		Email:    loadEmailConfig(),
		Admin: AdminConfig{
			Email:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		allowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
	}

	cookie, err := loadCookieConfig(appMode)
	if err != nil {
		return nil, err
	}
	config.Cookie = cookie

	// An explicitly empty value disables the reminder
	if spec, ok := os.LookupEnv("VERIFICATION_REMINDER_CRON"); ok {
		config.VerificationReminderCron = strings.TrimSpace(spec)
	} else {
		config.VerificationReminderCron = "0 9 * * *"
	}

	return config, nil
}

// loadDatabaseConfig loads MySQL connection settings
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:   strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql"))),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		User:     getEnv("DB_USER", "root"),
		Password: getEnv("DB_PASS", ""),
		DBName:   getEnv("DB_NAME", "donorhub"),
	}
}

// loadJWTConfig loads the signing secret and token lifetimes
func loadJWTConfig() (JWTConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET_KEY"))
	if secret == "" {
		return JWTConfig{}, ErrMissingSecret
	}

	accessMins, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return JWTConfig{}, err
	}
	refreshDays, err := getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)
	if err != nil {
		return JWTConfig{}, err
	}

	return JWTConfig{
		Secret:           secret,
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}, nil
}

// loadEmailConfig loads outbound email settings
func loadEmailConfig() EmailConfig {
	return EmailConfig{
		APIKey:      os.Getenv("MAILJET_API_KEY"),
		APISecret:   os.Getenv("MAILJET_API_SECRET"),
		FromEmail:   getEnv("FROM_EMAIL", "noreply@donorhub.local"),
		FromName:    getEnv("FROM_NAME", "DonorHub"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
	}
}

// loadCookieConfig loads cookie config; cookies are Secure by default in prod
func loadCookieConfig(mode string) (CookieConfig, error) {
	defaultSecure := "false"
	if mode == "prod" {
		defaultSecure = "true"
	}
	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", defaultSecure))
	if err != nil {
		return CookieConfig{}, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "Lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses a positive integer variable
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: '%s' (must be a positive integer)", key, raw)
	}
	return n, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// AccessTTL returns the access token lifetime
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenMins) * time.Minute
}

// RefreshTTL returns the refresh token lifetime
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenDays) * 24 * time.Hour
}

// EmailEnabled reports whether Mailjet credentials are configured
func (c *Config) EmailEnabled() bool {
	return c.Email.APIKey != "" && c.Email.APISecret != ""
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.allowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.Email.FrontendURL
	}
	return c.allowedOrigins
}
