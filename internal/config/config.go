// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gymdesk/internal/domain/supplement"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Env               string
	Addr              string
	DBPath            string
	UploadDir         string
	AdminEmail        string
	AdminPassword     string
	ResendKey         string
	ResendFrom        string
	ReplyTo           string
	CSRFKey           []byte // nil means generate one per process
	Location          *time.Location
	StockPolicy       string
	LowStockThreshold int
	ReconcileInterval time.Duration
	LogLevel          slog.Level
	SlowQueryMs       int
	SlowRequestMs     int
	GymName           string
	GymAddress        string
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads the given .env files (".env" when none are named) and then the
// process environment. Variables already set in the environment win over the
// files. A missing .env file is not an error.
// POST: returns a fully defaulted Config or the first invalid setting
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	c := Config{
		Env:           strings.ToLower(envOrDefault("GYM_ENV", EnvDevelopment)),
		Addr:          envOrDefault("GYM_ADDR", ":8080"),
		DBPath:        envOrDefault("GYM_DB_PATH", "gym.db"),
		UploadDir:     envOrDefault("GYM_UPLOAD_DIR", "uploads"),
		AdminEmail:    envOrDefault("GYM_ADMIN_EMAIL", "admin@gymdesk.local"),
		AdminPassword: os.Getenv("GYM_ADMIN_PASSWORD"),
		ResendKey:     os.Getenv("GYM_RESEND_KEY"),
		ResendFrom:    envOrDefault("GYM_RESEND_FROM", "Gym Desk <noreply@gymdesk.local>"),
		ReplyTo:       os.Getenv("GYM_REPLY_TO"),
		GymName:       envOrDefault("GYM_NAME", "Gym Desk"),
		GymAddress:    os.Getenv("GYM_ADDRESS"),
	}

	var err error
	if c.Location, err = time.LoadLocation(envOrDefault("GYM_TIMEZONE", "Asia/Kolkata")); err != nil {
		return Config{}, fmt.Errorf("GYM_TIMEZONE: %w", err)
	}

	c.StockPolicy = strings.ToLower(envOrDefault("GYM_STOCK_POLICY", supplement.PolicyClamp))
	if c.StockPolicy != supplement.PolicyClamp && c.StockPolicy != supplement.PolicyReject {
		return Config{}, fmt.Errorf("GYM_STOCK_POLICY must be %q or %q, got %q", supplement.PolicyClamp, supplement.PolicyReject, c.StockPolicy)
	}

	if c.LowStockThreshold, err = intEnv("GYM_LOW_STOCK_THRESHOLD", 5); err != nil {
		return Config{}, err
	}
	if c.SlowQueryMs, err = intEnv("GYM_SLOW_QUERY_MS", 50); err != nil {
		return Config{}, err
	}
	if c.SlowRequestMs, err = intEnv("GYM_SLOW_REQUEST_MS", 200); err != nil {
		return Config{}, err
	}

	interval := envOrDefault("GYM_RECONCILE_INTERVAL", "15m")
	if c.ReconcileInterval, err = time.ParseDuration(interval); err != nil || c.ReconcileInterval <= 0 {
		return Config{}, fmt.Errorf("GYM_RECONCILE_INTERVAL: invalid duration %q", interval)
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("GYM_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("GYM_LOG_LEVEL: %w", err)
	}

	if keyHex := os.Getenv("GYM_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return Config{}, errors.New("GYM_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		c.CSRFKey = key
	}

	if c.IsProduction() {
		if c.CSRFKey == nil {
			return Config{}, errors.New("GYM_CSRF_KEY is required in production")
		}
		if c.AdminPassword == "" {
			return Config{}, errors.New("GYM_ADMIN_PASSWORD is required in production")
		}
	}
	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}
