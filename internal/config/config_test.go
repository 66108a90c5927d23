package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"BR_ADDR", "BR_DB", "BR_UPLOAD_DIR", "BR_BASE_URL", "BR_JWT_SECRET",
		"BR_SESSION_TTL_HOURS", "BR_DEV_MODE", "BR_CORS_ORIGINS", "BR_REDIS_ADDR", "EMAIL_HOST", "EMAIL_PORT"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q, want :3000", cfg.Addr)
	}
	if cfg.DBPath != "./data/bienesraices.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.SMTP.Port != "587" {
		t.Errorf("SMTP.Port = %q, want 587", cfg.SMTP.Port)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.SMTP.IsConfigured() {
		t.Error("expected SMTP to be unconfigured without EMAIL_HOST")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without a JWT secret")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BR_ADDR", ":8081")
	t.Setenv("BR_BASE_URL", "https://casas.example.com/")
	t.Setenv("BR_SESSION_TTL_HOURS", "2")
	t.Setenv("BR_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("BR_REDIS_DB", "3")
	t.Setenv("BR_JWT_SECRET", "s3cret")
	t.Setenv("EMAIL_HOST", "smtp.example.com")

	cfg := FromEnv()

	if cfg.Addr != ":8081" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.BaseURL != "https://casas.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d", cfg.RedisDB)
	}
	if !cfg.SMTP.IsConfigured() {
		t.Error("expected SMTP configured")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromEnvDevModeSecret(t *testing.T) {
	t.Setenv("BR_JWT_SECRET", "")
	t.Setenv("BR_DEV_MODE", "true")

	cfg := FromEnv()
	if cfg.JWTSecret != DevJWTSecret {
		t.Errorf("JWTSecret = %q, want dev secret", cfg.JWTSecret)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("BR_SESSION_TTL_HOURS", "many")
	if got := envInt("BR_SESSION_TTL_HOURS", 24); got != 24 {
		t.Errorf("envInt = %d, want fallback 24", got)
	}
}
