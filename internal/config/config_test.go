package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvSecret, EnvBaseURL, EnvMaxRPS, EnvDatabaseURL, EnvLogLevel, EnvLogPretty} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DatabaseURL != DefaultDatabaseURL {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.MaxRequestsPerSecond != DefaultMaxRPS {
		t.Errorf("MaxRequestsPerSecond = %v", cfg.MaxRequestsPerSecond)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Errorf("log settings = %q/%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.HasCredentials() {
		t.Error("HasCredentials() = true with empty environment")
	}
	if cfg.TokenURL() != "https://api.petfinder.com/v2/oauth2/token" {
		t.Errorf("TokenURL() = %q", cfg.TokenURL())
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvSecret, "secret")
	t.Setenv(EnvBaseURL, "http://localhost:9000/v2/")
	t.Setenv(EnvMaxRPS, "0")
	t.Setenv(EnvLogPretty, "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if !cfg.HasCredentials() {
		t.Error("HasCredentials() = false")
	}
	if cfg.MaxRequestsPerSecond != 0 {
		t.Errorf("MaxRequestsPerSecond = %v, want 0", cfg.MaxRequestsPerSecond)
	}
	if !cfg.LogPretty {
		t.Error("LogPretty = false")
	}
	if cfg.TokenURL() != "http://localhost:9000/v2/oauth2/token" {
		t.Errorf("TokenURL() = %q", cfg.TokenURL())
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric rps", key: EnvMaxRPS, value: "fast"},
		{name: "negative rps", key: EnvMaxRPS, value: "-1"},
		{name: "relative base url", key: EnvBaseURL, value: "api/v2"},
		{name: "bad pretty flag", key: EnvLogPretty, value: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvAPIKey)
	os.Unsetenv(EnvSecret)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PETFINDER_API_KEY=from-file\nPETFINDER_SECRET=s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvAPIKey)
		os.Unsetenv(EnvSecret)
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-file" || cfg.Secret != "s3cret" {
		t.Errorf("credentials = %q/%q", cfg.APIKey, cfg.Secret)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load() error = %v, want nil for a missing file", err)
	}
}
