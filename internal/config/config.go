// Package config loads the application configuration from the environment.
//
// NO GLOBAL SETTINGS OBJECT:
// The whole configuration is one explicit struct, built exactly once in
// main() and handed to each component that needs it. Nothing reads an
// environment variable after startup, and no package holds ambient mutable
// state — if a component needs a setting, it appears in its constructor.
//
// TWO-STEP LOADING:
// 1. godotenv.Load() reads a local .env file into the process environment
//    (development convenience — missing file is not an error).
// 2. env.Parse() maps environment variables onto the struct via `env:` tags,
//    applying defaults and converting types in one declarative pass.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting for the server.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/dailybite.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Token signing. The secret must be set — there is no safe default.
	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"30m"`

	// Photo uploads.
	MaxUploadBytes    int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"` // 10 MiB
	AllowedImageTypes []string `env:"ALLOWED_IMAGE_TYPES" envDefault:"image/jpeg,image/png,image/heic"`
	UploadDir         string   `env:"UPLOAD_DIR" envDefault:"uploads"`

	// Image retention policy. AutoDeleteImages is the server-wide switch;
	// each user has their own preference and BOTH must be true for a photo
	// to be removed right after analysis. ImageRetention bounds how long
	// any kept photo survives before the sweep removes it.
	AutoDeleteImages bool          `env:"AUTO_DELETE_IMAGES" envDefault:"true"`
	ImageRetention   time.Duration `env:"IMAGE_RETENTION" envDefault:"24h"`

	// Timezone is the IANA zone used for day-boundary math in meal queries
	// and daily summaries. "What counts as today" depends entirely on this
	// setting — it is deliberately explicit, never the server's local zone
	// by accident.
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine — production sets real environment variables.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}

	return &cfg, nil
}

// Location resolves the configured timezone. A bad zone name is a startup
// error, not something to discover on the first summary request.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps the LOG_LEVEL string onto a slog.Level.
// Unknown values fall back to Info rather than failing startup.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
