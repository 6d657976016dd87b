package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	uaMu             sync.RWMutex
	currentUserAgent = fmt.Sprintf("%s/dev (%s; %s)", AppName, runtime.GOOS, runtime.GOARCH)
)

// GetUserAgent returns the User-Agent sent by outgoing websocket clients.
func GetUserAgent() string {
	uaMu.RLock()
	defer uaMu.RUnlock()
	return currentUserAgent
}

// SetUserAgent replaces the User-Agent, typically with the build version.
func SetUserAgent(ua string) {
	uaMu.Lock()
	defer uaMu.Unlock()
	currentUserAgent = ua
}

// Config holds every setting of the application.
// LoadConfig starts from DefaultConfig, overlays the YAML file and then the
// environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		IntervalMS       int     `yaml:"interval_ms"`
		MaxAssetsPerTick int     `yaml:"max_assets_per_tick"`
		MaxMovePct       float64 `yaml:"max_move_pct"`
		Seed             uint64  `yaml:"seed"` // 0 picks a random seed
		AutoConnect      bool    `yaml:"auto_connect"`
	} `yaml:"feed"`

	Ledger struct {
		ClearDelayMS           int    `yaml:"clear_delay_ms"`
		CancelSupersededClears bool   `yaml:"cancel_superseded_clears"`
		Seed                   uint64 `yaml:"seed"`
	} `yaml:"ledger"`

	Server struct {
		Addr           string  `yaml:"addr"`
		CommandsPerSec float64 `yaml:"commands_per_sec"`
		CommandBurst   int     `yaml:"command_burst"`
	} `yaml:"server"`

	Tape struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tape"`

	Snapshot struct {
		Keep int `yaml:"keep"`
	} `yaml:"snapshot"`

	Mirror struct {
		RedisAddr    string  `yaml:"redis_addr"` // empty disables the mirror
		Password     string  `yaml:"password"`
		DB           int     `yaml:"db"`
		KeyPrefix    string  `yaml:"key_prefix"`
		TTLSec       int     `yaml:"ttl_sec"`
		WritesPerSec float64 `yaml:"writes_per_sec"`
	} `yaml:"mirror"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = AppName
	cfg.App.Version = "dev"

	cfg.Feed.IntervalMS = 2000
	cfg.Feed.MaxAssetsPerTick = 3
	cfg.Feed.MaxMovePct = 0.005
	cfg.Feed.AutoConnect = true

	cfg.Ledger.ClearDelayMS = 1000

	cfg.Server.Addr = ":8080"
	cfg.Server.CommandsPerSec = 20
	cfg.Server.CommandBurst = 10

	cfg.Snapshot.Keep = 5

	cfg.Mirror.KeyPrefix = "crypto-dash"
	cfg.Mirror.TTLSec = 120
	cfg.Mirror.WritesPerSec = 50

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return &cfg
}

// LoadConfig reads the YAML file at path. A missing file is not an error:
// defaults and environment overrides still apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Feed.IntervalMS <= 0 {
		return fmt.Errorf("feed.interval_ms must be positive")
	}
	if c.Feed.MaxAssetsPerTick < 1 {
		return fmt.Errorf("feed.max_assets_per_tick must be at least 1")
	}
	if c.Feed.MaxMovePct <= 0 || c.Feed.MaxMovePct >= 1 {
		return fmt.Errorf("feed.max_move_pct must be in (0, 1), got %v", c.Feed.MaxMovePct)
	}
	if c.Ledger.ClearDelayMS <= 0 {
		return fmt.Errorf("ledger.clear_delay_ms must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.CommandsPerSec <= 0 || c.Server.CommandBurst < 1 {
		return fmt.Errorf("server command rate limit must be positive")
	}
	if c.Snapshot.Keep < 1 {
		return fmt.Errorf("snapshot.keep must be at least 1")
	}
	if c.Mirror.RedisAddr != "" {
		if c.Mirror.TTLSec <= 0 {
			return fmt.Errorf("mirror.ttl_sec must be positive")
		}
		if c.Mirror.WritesPerSec <= 0 {
			return fmt.Errorf("mirror.writes_per_sec must be positive")
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// FeedInterval returns the tick period.
func (c *Config) FeedInterval() time.Duration {
	return time.Duration(c.Feed.IntervalMS) * time.Millisecond
}

// FeedMaxMove returns the per-tick move bound as a fraction of price.
func (c *Config) FeedMaxMove() decimal.Decimal {
	return decimal.NewFromFloat(c.Feed.MaxMovePct)
}

// ClearDelay returns the isUpdating highlight window.
func (c *Config) ClearDelay() time.Duration {
	return time.Duration(c.Ledger.ClearDelayMS) * time.Millisecond
}

// MirrorTTL returns the expiry of mirrored keys.
func (c *Config) MirrorTTL() time.Duration {
	return time.Duration(c.Mirror.TTLSec) * time.Second
}

// overrideWithEnv lets the environment win over the file.
func overrideWithEnv(cfg *Config) error {
	if addr := os.Getenv("CRYPTO_DASH_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("CRYPTO_DASH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if addr := os.Getenv("CRYPTO_DASH_REDIS_ADDR"); addr != "" {
		cfg.Mirror.RedisAddr = addr
	}
	if pass := os.Getenv("CRYPTO_DASH_REDIS_PASSWORD"); pass != "" {
		cfg.Mirror.Password = pass
	}
	if v := os.Getenv("CRYPTO_DASH_FEED_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CRYPTO_DASH_FEED_INTERVAL_MS: %w", err)
		}
		cfg.Feed.IntervalMS = ms
	}
	return nil
}
