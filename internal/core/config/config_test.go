package config

import (
	"errors"
	"testing"
	"time"
)

func setCreds(t *testing.T) {
	t.Helper()
	t.Setenv("ClientID", "id")
	t.Setenv("ClientSecret", "secret")
}

func TestFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("ClientID", "")
	t.Setenv("ClientSecret", "")
	if _, err := FromEnv(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	t.Setenv("ClientID", "id")
	if _, err := FromEnv(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("secret still missing: expected ErrMissingCredentials, got %v", err)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setCreds(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SnapshotPath != "last_image.png" {
		t.Errorf("SnapshotPath = %q", cfg.SnapshotPath)
	}
	if cfg.CacheEnabled {
		t.Error("cache should be disabled by default")
	}
	if cfg.Invalidation.Enabled {
		t.Error("invalidation should be disabled by default")
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	setCreds(t)
	t.Setenv("ADDR", ":9999")
	t.Setenv("RENDER_CACHE_ENABLED", "true")
	t.Setenv("RENDER_CACHE_TTL", "1m")
	t.Setenv("CELL_RES", "22")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled should be true")
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.CellRes != 15 {
		t.Errorf("CellRes should clamp to 15, got %d", cfg.CellRes)
	}
}
