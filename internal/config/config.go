// Package config reads process settings from GYM_* environment variables,
// optionally seeded from a .env file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvProduction is the GYM_ENV value that turns on production checks.
const EnvProduction = "production"

var (
	ErrMissingCSRFKey  = errors.New("GYM_CSRF_KEY is required in production")
	ErrInvalidCSRFKey  = errors.New("GYM_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrInvalidRate     = errors.New("GYM_RATE_LIMIT must be a positive integer")
	ErrInvalidInterval = errors.New("GYM_AUTO_CHECKOUT_INTERVAL must be a duration such as 5m")
	ErrInvalidSlow     = errors.New("GYM_SLOW_REQUEST and GYM_SLOW_QUERY must be durations such as 250ms")
)

// Config holds everything the server and CLI commands need at startup.
type Config struct {
	Env    string
	Addr   string
	DBPath string

	CSRFKey []byte // nil outside production when unset
	BaseURL string

	AdminName     string
	AdminEmail    string
	AdminPassword string

	ResendKey  string
	ResendFrom string
	UploadDir  string

	RateLimit            int
	AutoCheckoutInterval time.Duration // zero leaves only the page-load sweep
	SlowRequest          time.Duration // zero uses the middleware default
	SlowQuery            time.Duration // zero uses the storage default
}

// Production reports whether GYM_ENV is production.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		slog.Info("config_event", "event", "dotenv_loaded", "path", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Load builds a Config from getenv (os.Getenv in production).
// POST: Every problem found is returned together; defaults fill unset values
func Load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Env:           env("GYM_ENV", "development"),
		Addr:          env("GYM_ADDR", ":8080"),
		DBPath:        env("GYM_DB_PATH", "gymhub.db"),
		BaseURL:       strings.TrimRight(env("GYM_BASE_URL", "http://localhost:8080"), "/"),
		AdminName:     env("GYM_ADMIN_NAME", "Super Admin"),
		AdminEmail:    env("GYM_ADMIN_EMAIL", ""),
		AdminPassword: getenv("GYM_ADMIN_PASSWORD"),
		ResendKey:     env("GYM_RESEND_KEY", ""),
		ResendFrom:    env("GYM_RESEND_FROM", "GymHub <noreply@gymhub.local>"),
		UploadDir:     env("GYM_UPLOAD_DIR", "uploads"),
		RateLimit:     10,
	}

	var errs []error
	if raw := env("GYM_CSRF_KEY", ""); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil || len(key) != 32 {
			errs = append(errs, ErrInvalidCSRFKey)
		} else {
			cfg.CSRFKey = key
		}
	} else if cfg.Production() {
		errs = append(errs, ErrMissingCSRFKey)
	}

	if raw := env("GYM_RATE_LIMIT", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, ErrInvalidRate)
		} else {
			cfg.RateLimit = n
		}
	}

	duration := func(key string, dst *time.Duration, invalid error) {
		raw := env(key, "")
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, invalid)
			return
		}
		*dst = d
	}
	duration("GYM_AUTO_CHECKOUT_INTERVAL", &cfg.AutoCheckoutInterval, ErrInvalidInterval)
	duration("GYM_SLOW_REQUEST", &cfg.SlowRequest, ErrInvalidSlow)
	duration("GYM_SLOW_QUERY", &cfg.SlowQuery, ErrInvalidSlow)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
