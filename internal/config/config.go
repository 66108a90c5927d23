// Package config loads bienesraices runtime settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/evcraddock/bienesraices/internal/email"
)

// DevJWTSecret signs session tokens when BR_JWT_SECRET is unset.
// Only acceptable in dev mode.
const DevJWTSecret = "bienesraices-dev-secret"

// Config holds server configuration.
type Config struct {
	Addr           string
	DBPath         string
	UploadDir      string
	BaseURL        string // e.g. http://localhost:3000
	JWTSecret      string
	SessionTTL     time.Duration
	DevMode        bool
	AllowedOrigins []string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SMTP           email.SMTPConfig
}

// Load reads an optional .env file and builds a Config from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("loading .env", "err", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOrDefault("BR_ADDR", ":3000"),
		DBPath:         envOrDefault("BR_DB", "./data/bienesraices.db"),
		UploadDir:      envOrDefault("BR_UPLOAD_DIR", "./uploads"),
		BaseURL:        strings.TrimRight(envOrDefault("BR_BASE_URL", "http://localhost:3000"), "/"),
		JWTSecret:      os.Getenv("BR_JWT_SECRET"),
		SessionTTL:     time.Duration(envInt("BR_SESSION_TTL_HOURS", 24)) * time.Hour,
		DevMode:        envBool("BR_DEV_MODE", false),
		AllowedOrigins: splitList(envOrDefault("BR_CORS_ORIGINS", "*")),
		RedisAddr:      os.Getenv("BR_REDIS_ADDR"),
		RedisPassword:  os.Getenv("BR_REDIS_PASSWORD"),
		RedisDB:        envInt("BR_REDIS_DB", 0),
		SMTP: email.SMTPConfig{
			Host: os.Getenv("EMAIL_HOST"),
			Port: envOrDefault("EMAIL_PORT", "587"),
			User: os.Getenv("EMAIL_USER"),
			Pass: os.Getenv("EMAIL_PASS"),
			From: envOrDefault("EMAIL_FROM", "BienesRaices <no-reply@bienesraices.local>"),
		},
	}
	if cfg.JWTSecret == "" && cfg.DevMode {
		cfg.JWTSecret = DevJWTSecret
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("BR_JWT_SECRET is required outside dev mode")
	}
	if c.SessionTTL <= 0 {
		return errors.New("BR_SESSION_TTL_HOURS must be positive")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer setting", "key", key, "err", err)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean setting", "key", key, "err", err)
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
