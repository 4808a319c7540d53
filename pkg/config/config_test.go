package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.NEPSE.BaseURL != "https://www.nepalstock.com.np" {
		t.Errorf("BaseURL = %q", cfg.NEPSE.BaseURL)
	}
	if cfg.NEPSE.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.NEPSE.Timeout)
	}
	if cfg.NEPSE.RequestInterval != 300*time.Millisecond {
		t.Errorf("RequestInterval = %v, want 300ms", cfg.NEPSE.RequestInterval)
	}
	if cfg.NEPSE.PageSize != 2000 {
		t.Errorf("PageSize = %d, want 2000", cfg.NEPSE.PageSize)
	}
	if !cfg.NEPSE.RetryAuthStatus {
		t.Error("RetryAuthStatus should default to true")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("NEPSE_BASE_URL", "https://example.com")
	t.Setenv("NEPSE_HTTP_TIMEOUT", "10s")
	t.Setenv("NEPSE_MAX_RETRIES", "5")
	t.Setenv("NEPSE_RETRY_AUTH_STATUS", "false")
	t.Setenv("NEPSE_PAGE_SIZE", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if cfg.NEPSE.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %q", cfg.NEPSE.BaseURL)
	}
	if cfg.NEPSE.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.NEPSE.Timeout)
	}
	if cfg.NEPSE.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.NEPSE.MaxRetries)
	}
	if cfg.NEPSE.RetryAuthStatus {
		t.Error("RetryAuthStatus should be false")
	}
	if cfg.NEPSE.PageSize != 500 {
		t.Errorf("PageSize = %d, want 500", cfg.NEPSE.PageSize)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "sandbox")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid ENV")
	}
}

func TestLoadRejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("NEPSE_PAGE_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for zero page size")
	}
}

func TestGetEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("NEPSE_MAX_RETRIES", "lots")
	t.Setenv("NEPSE_HTTP_TIMEOUT", "soon")
	t.Setenv("NEPSE_RETRY_AUTH_STATUS", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.NEPSE.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.NEPSE.MaxRetries)
	}
	if cfg.NEPSE.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", cfg.NEPSE.Timeout)
	}
	if !cfg.NEPSE.RetryAuthStatus {
		t.Error("RetryAuthStatus should fall back to default true")
	}
}
