package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.FeedInterval() != 2*time.Second {
		t.Errorf("interval = %s", cfg.FeedInterval())
	}
	if cfg.ClearDelay() != time.Second {
		t.Errorf("clear delay = %s", cfg.ClearDelay())
	}
	if cfg.Feed.MaxAssetsPerTick != 3 || !cfg.Feed.AutoConnect {
		t.Errorf("unexpected feed defaults %+v", cfg.Feed)
	}
	if cfg.Server.Addr != ":8080" || cfg.Tape.Enabled || cfg.Mirror.RedisAddr != "" {
		t.Error("unexpected server/tape/mirror defaults")
	}
	if cfg.FeedMaxMove().String() != "0.005" {
		t.Errorf("max move = %s", cfg.FeedMaxMove())
	}
}

func TestLoadConfig_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
feed:
  interval_ms: 500
  seed: 42
ledger:
  cancel_superseded_clears: true
tape:
  enabled: true
logging:
  format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Feed.IntervalMS != 500 || cfg.Feed.Seed != 42 {
		t.Errorf("file values not applied: %+v", cfg.Feed)
	}
	if cfg.Feed.MaxAssetsPerTick != 3 {
		t.Error("keys absent from the file should keep their defaults")
	}
	if !cfg.Ledger.CancelSupersededClears || !cfg.Tape.Enabled {
		t.Error("boolean flags not applied")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("CRYPTO_DASH_ADDR", "127.0.0.1:7000")
	t.Setenv("CRYPTO_DASH_REDIS_ADDR", "localhost:6379")
	t.Setenv("CRYPTO_DASH_FEED_INTERVAL_MS", "250")
	t.Setenv("CRYPTO_DASH_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Mirror.RedisAddr != "localhost:6379" {
		t.Errorf("redis addr = %s", cfg.Mirror.RedisAddr)
	}
	if cfg.Feed.IntervalMS != 250 {
		t.Errorf("interval = %d", cfg.Feed.IntervalMS)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Setenv("CRYPTO_DASH_FEED_INTERVAL_MS", "fast")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected a parse error for a non-numeric interval")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "feed: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero interval", func(c *Config) { c.Feed.IntervalMS = 0 }, "interval_ms"},
		{"no assets per tick", func(c *Config) { c.Feed.MaxAssetsPerTick = 0 }, "max_assets_per_tick"},
		{"move too large", func(c *Config) { c.Feed.MaxMovePct = 1.5 }, "max_move_pct"},
		{"negative move", func(c *Config) { c.Feed.MaxMovePct = -0.1 }, "max_move_pct"},
		{"zero clear delay", func(c *Config) { c.Ledger.ClearDelayMS = 0 }, "clear_delay_ms"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"keep zero", func(c *Config) { c.Snapshot.Keep = 0 }, "snapshot.keep"},
		{"mirror ttl", func(c *Config) { c.Mirror.RedisAddr = "x:1"; c.Mirror.TTLSec = 0 }, "ttl_sec"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	orig := GetUserAgent()
	t.Cleanup(func() { SetUserAgent(orig) })

	if !strings.HasPrefix(orig, AppName+"/") {
		t.Errorf("unexpected default UA %q", orig)
	}
	SetUserAgent("crypto-dash/1.2.3")
	if GetUserAgent() != "crypto-dash/1.2.3" {
		t.Error("SetUserAgent did not apply")
	}
}
