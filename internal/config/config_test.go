package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uplug/einvoice-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.Endpoints.Login != "/open/api/user/login" {
		t.Errorf("unexpected login endpoint %q", cfg.Endpoints.Login)
	}
	if !cfg.TINAutoAdvance {
		t.Error("expected TIN auto-advance to default to true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("API_BASE_PATH", "/dev")
	t.Setenv("ENDPOINT_LOGIN", "/auth/login")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TIN_AUTO_ADVANCE", "false")

	cfg := config.Load()

	if cfg.APIBaseURL != "https://api.example.com" || cfg.APIBasePath != "/dev" {
		t.Errorf("unexpected base %q %q", cfg.APIBaseURL, cfg.APIBasePath)
	}
	if cfg.Endpoints.Login != "/auth/login" {
		t.Errorf("expected overridden login endpoint, got %q", cfg.Endpoints.Login)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.TINAutoAdvance {
		t.Error("expected TIN auto-advance disabled")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\nSESSION_BACKEND=\"memory\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SESSION_BACKEND", "")
	os.Unsetenv("SESSION_BACKEND")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "warn" {
		t.Errorf("expected existing env to win, got %q", got)
	}
	if got := os.Getenv("SESSION_BACKEND"); got != "memory" {
		t.Errorf("expected value from file, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}
