// Package config loads collector settings from the environment, an optional
// .env file and an optional YAML region plan.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvAPIKey      = "PETFINDER_API_KEY"
	EnvSecret      = "PETFINDER_SECRET"
	EnvBaseURL     = "PETFINDER_BASE_URL"
	EnvMaxRPS      = "PETFINDER_MAX_RPS"
	EnvDatabaseURL = "DATABASE_URL"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogPretty   = "LOG_PRETTY"
)

// Defaults applied when a variable is unset.
const (
	DefaultBaseURL     = "https://api.petfinder.com/v2"
	DefaultDatabaseURL = "postgres://localhost:5432/shelter_data?sslmode=disable"
	DefaultLogLevel    = "info"
	DefaultMaxRPS      = 5.0
)

// Config holds runtime settings.
type Config struct {
	APIKey  string
	Secret  string
	BaseURL string

	// MaxRequestsPerSecond is the client-side request ceiling; 0 disables it.
	MaxRequestsPerSecond float64

	DatabaseURL string

	LogLevel  string
	LogPretty bool
}

// TokenURL returns the token-exchange endpoint under BaseURL.
func (c Config) TokenURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/oauth2/token"
}

// HasCredentials reports whether both API credentials are set.
func (c Config) HasCredentials() bool {
	return c.APIKey != "" && c.Secret != ""
}

// Validate checks values that would otherwise fail later in confusing ways.
// Missing credentials are not an error: authentication reports them.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", EnvBaseURL, c.BaseURL)
	}
	if c.MaxRequestsPerSecond < 0 {
		return fmt.Errorf("%s must not be negative (got %v)", EnvMaxRPS, c.MaxRequestsPerSecond)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("%s is required", EnvDatabaseURL)
	}
	return nil
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables already set, then builds a Config from the environment.
// An empty envFile skips the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		APIKey:               strings.TrimSpace(os.Getenv(EnvAPIKey)),
		Secret:               strings.TrimSpace(os.Getenv(EnvSecret)),
		BaseURL:              getEnv(EnvBaseURL, DefaultBaseURL),
		MaxRequestsPerSecond: DefaultMaxRPS,
		DatabaseURL:          getEnv(EnvDatabaseURL, DefaultDatabaseURL),
		LogLevel:             getEnv(EnvLogLevel, DefaultLogLevel),
	}

	if v := os.Getenv(EnvMaxRPS); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMaxRPS, err)
		}
		cfg.MaxRequestsPerSecond = rps
	}
	if v := os.Getenv(EnvLogPretty); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogPretty, err)
		}
		cfg.LogPretty = pretty
	}

	return cfg, cfg.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
