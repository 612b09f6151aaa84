package config

import (
	"errors"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_MODE", "dev")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.AccessTTL() != 30*time.Minute {
		t.Errorf("AccessTTL() = %v", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 7*24*time.Hour {
		t.Errorf("RefreshTTL() = %v", cfg.RefreshTTL())
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.VerificationReminderCron != "0 9 * * *" {
		t.Errorf("VerificationReminderCron = %q", cfg.VerificationReminderCron)
	}
	if cfg.GetAllowedOrigins() != "*" {
		t.Errorf("GetAllowedOrigins() = %q in dev", cfg.GetAllowedOrigins())
	}
}

func TestFromEnvMissingSecret(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := FromEnv(); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("FromEnv() error = %v, want ErrMissingSecret", err)
	}
}

func TestFromEnvInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ACCESS_TOKEN_EXPIRE_MINUTES": "soon",
		"REFRESH_TOKEN_EXPIRE_DAYS":   "-1",
		"APP_MODE":                    "staging",
		"DB_DRIVER":                   "postgres",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("FromEnv() accepted %s=%q", key, value)
			}
		})
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "1")
	t.Setenv("VERIFICATION_REMINDER_CRON", "")
	t.Setenv("ADMIN_EMAIL", " Root@X.com ")
	t.Setenv("APP_MODE", "prod")
	t.Setenv("FRONTEND_URL", "https://donorhub.example/")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.AccessTTL() != 5*time.Minute || cfg.RefreshTTL() != 24*time.Hour {
		t.Errorf("TTLs = %v / %v", cfg.AccessTTL(), cfg.RefreshTTL())
	}
	if cfg.VerificationReminderCron != "" {
		t.Errorf("reminder should be disabled, got %q", cfg.VerificationReminderCron)
	}
	if cfg.Admin.Email != "root@x.com" {
		t.Errorf("Admin.Email = %q", cfg.Admin.Email)
	}
	if cfg.GetAllowedOrigins() != "https://donorhub.example" {
		t.Errorf("GetAllowedOrigins() = %q", cfg.GetAllowedOrigins())
	}
}

func TestBuildDSN(t *testing.T) {
	got := buildDSN(DatabaseConfig{User: "app", Password: "pw", Host: "db", Port: "3306", DBName: "donorhub"})
	want := "app:pw@tcp(db:3306)/donorhub?charset=utf8mb4&parseTime=True&loc=UTC"
	if got != want {
		t.Errorf("buildDSN() = %q, want %q", got, want)
	}
}

func TestHealthCheckBeforeConnect(t *testing.T) {
	saved := DB
	DB = nil
	t.Cleanup(func() { DB = saved })

	if err := HealthCheck(); !errors.Is(err, ErrDatabaseNotInitialized) {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
