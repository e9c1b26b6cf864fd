package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Outbox.PollInterval != 2*time.Second {
		t.Errorf("poll interval = %v, want 2s", cfg.Outbox.PollInterval)
	}
	if cfg.Outbox.MaxAttempts != 8 {
		t.Errorf("max attempts = %d, want 8", cfg.Outbox.MaxAttempts)
	}
	if cfg.Outbox.MaxBackoff != 5*time.Minute {
		t.Errorf("max backoff = %v, want 5m", cfg.Outbox.MaxBackoff)
	}
	if cfg.App.IdempotencyTTL != 10*time.Minute {
		t.Errorf("idempotency ttl = %v, want 10m", cfg.App.IdempotencyTTL)
	}
	if cfg.Storage.MaxImageDimension != 1600 {
		t.Errorf("max image dimension = %d, want 1600", cfg.Storage.MaxImageDimension)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("AUTH_PROVIDER", "firebase")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.edu, https://b.edu,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Outbox.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval = %v, want 500ms", cfg.Outbox.PollInterval)
	}
	origins := cfg.Security.CORSAllowedOrigins
	if len(origins) != 2 || origins[0] != "https://a.edu" || origins[1] != "https://b.edu" {
		t.Errorf("origins = %v", origins)
	}
}

func TestValidateRejectsMissingJWTSecret(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("AUTH_PROVIDER", "jwt")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT secret is missing")
	}
}

func TestValidateRejectsUnknownStorage(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORAGE_PROVIDER", "ftp")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown storage provider")
	}
}
