package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/repchain/repchain/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	_ = os.Unsetenv("REPCHAIN_ADDR")
	_ = os.Unsetenv("REPCHAIN_JWT_SECRET")
	_ = os.Unsetenv("REPCHAIN_DATABASE_PATH")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabasePath != "repchain.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "repchain.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.TokenDuration != 7*24*time.Hour {
		t.Fatalf("unexpected TokenDuration: got %v want %v", cfg.TokenDuration, 7*24*time.Hour)
	}
	if cfg.Scheduler.Interval != time.Hour {
		t.Fatalf("unexpected Scheduler.Interval: got %v want %v", cfg.Scheduler.Interval, time.Hour)
	}
	if cfg.GitHub.BaseURL != "https://api.github.com" {
		t.Fatalf("unexpected GitHub.BaseURL: got %q", cfg.GitHub.BaseURL)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	content := []byte("addr: \":9090\"\njwt_secret: \"filekey\"\ntimeout: \"30s\"\ndatabase_path: \"test.db\"\nscheduler:\n  interval: \"15m\"\ngithub:\n  base_url: \"http://localhost:9999\"\n  timeout: \"3s\"\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.JWTSecret != "filekey" {
		t.Fatalf("unexpected JWTSecret: got %q want %q", cfg.JWTSecret, "filekey")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.Scheduler.Interval != 15*time.Minute {
		t.Fatalf("unexpected Scheduler.Interval: got %v", cfg.Scheduler.Interval)
	}
	if cfg.GitHub.BaseURL != "http://localhost:9999" {
		t.Fatalf("unexpected GitHub.BaseURL: got %q", cfg.GitHub.BaseURL)
	}
	if cfg.GitHub.Timeout != 3*time.Second {
		t.Fatalf("unexpected GitHub.Timeout: got %v", cfg.GitHub.Timeout)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	f, err := os.CreateTemp("", "bad-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := os.WriteFile(f.Name(), []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	os.Setenv("REPCHAIN_ENV", "production")
	defer os.Unsetenv("REPCHAIN_ENV")

	cfg := &config.Config{
		Addr:      ":8080",
		JWTSecret: "supersecretkey",
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	os.Setenv("REPCHAIN_ENV", "development")
	defer os.Unsetenv("REPCHAIN_ENV")

	cfg := &config.Config{
		Addr:      ":8080",
		JWTSecret: "supersecretkey",
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_DefaultsPopulated(t *testing.T) {
	os.Setenv("REPCHAIN_ENV", "development")
	defer os.Unsetenv("REPCHAIN_ENV")

	cfg := &config.Config{
		Addr:      ":8080",
		JWTSecret: "strongsecret",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed unexpectedly: %v", err)
	}

	if cfg.Scheduler.Interval <= 0 {
		t.Fatalf("expected Scheduler.Interval to be populated")
	}
	if cfg.GitHub.BaseURL == "" {
		t.Fatalf("expected GitHub.BaseURL to be populated, got empty")
	}
	if cfg.GitHub.Timeout <= 0 {
		t.Fatalf("expected GitHub.Timeout to be > 0")
	}
}
