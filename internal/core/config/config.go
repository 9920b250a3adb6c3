// Package config loads the gateway configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	// Sentinel Hub credentials and endpoints. ClientID/ClientSecret are
	// required; startup fails without them.
	ClientID     string
	ClientSecret string
	ProviderURL  string
	TokenURL     string

	// Path of the last rendered snapshot, overwritten per render.
	SnapshotPath string

	// Optional render cache. Disabled by default: every render re-fetches
	// from the provider.
	CacheEnabled bool
	RedisAddr    string
	CacheTTL     time.Duration
	CacheLRUSize int
	CellRes      int

	Invalidation InvalidationCfg
}

// ErrMissingCredentials is returned when the provider client id/secret
// are absent from the environment.
var ErrMissingCredentials = errors.New("ClientID and ClientSecret must be set")

// FromEnv reads configuration from the environment. The credential
// variable names match the original deployment (ClientID, ClientSecret).
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:     getenv("ADDR", ":8000"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		ClientID:     os.Getenv("ClientID"),
		ClientSecret: os.Getenv("ClientSecret"),
		ProviderURL:  getenv("SH_BASE_URL", "https://services.sentinel-hub.com"),
		TokenURL:     getenv("SH_TOKEN_URL", "https://services.sentinel-hub.com/oauth/token"),

		SnapshotPath: getenv("SNAPSHOT_PATH", "last_image.png"),

		CacheEnabled: getbool("RENDER_CACHE_ENABLED", false),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:     getduration("RENDER_CACHE_TTL", 15*time.Minute),
		CacheLRUSize: getint("RENDER_CACHE_LRU_SIZE", 128),
		CellRes:      clampRes(getint("CELL_RES", 5)),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "acquisition-events"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "render-invalidator"),
		},
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, ErrMissingCredentials
	}
	return cfg, nil
}

func clampRes(res int) int {
	if res < 0 {
		return 0
	}
	if res > 15 {
		return 15
	}
	return res
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
