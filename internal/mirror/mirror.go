// Package mirror copies the latest value of every asset into Redis so that
// processes outside the dashboard can read prices without a websocket.
package mirror

import (
	"context"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"crypto_dash/internal/infra"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Hash fields written for every asset.
const (
	FieldPrice          = "price"
	FieldPriceChange24h = "priceChange24h"
	FieldVolume24h      = "volume24h"
	FieldIsUpdating     = "isUpdating"
	FieldVersion        = "version"
)

// ErrNotFound is returned by Latest when the asset has no live entry.
var ErrNotFound = errors.New("mirror: asset not found")

// Source is the ledger surface the mirror follows.
type Source interface {
	Snapshot() *domain.LedgerState
	Subscribe(fn func(engine.Change)) (unsubscribe func())
}

// Config controls keys, expiry and write pacing.
type Config struct {
	KeyPrefix    string
	TTL          time.Duration
	WritesPerSec float64
	QueueSize    int
}

func (c Config) withDefaults() Config {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "crypto-dash"
	}
	if c.TTL <= 0 {
		c.TTL = 2 * time.Minute
	}
	if c.WritesPerSec <= 0 {
		c.WritesPerSec = 50
	}
	if c.QueueSize < 1 {
		c.QueueSize = 64
	}
	return c
}

// Entry is the mirrored view of one asset.
type Entry struct {
	ID             string
	Price          decimal.Decimal
	PriceChange24h decimal.Decimal
	Volume24h      decimal.Decimal
	IsUpdating     bool
	Version        uint64
}

// Mirror follows ledger commits and writes each touched asset as a Redis
// hash. It never blocks the ledger: changed ids are queued without waiting
// and dropped when the queue is full. An id already queued is not queued
// twice; the worker always writes the latest record.
type Mirror struct {
	client  *redis.Client
	source  Source
	cfg     Config
	limiter *infra.RateLimiter
	breaker *infra.CircuitBreaker

	mu      sync.Mutex
	pending map[string]bool
	queue   chan string

	written atomic.Uint64
	dropped atomic.Uint64

	unsub  func()
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Dial connects to Redis and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// New creates a stopped mirror.
func New(client *redis.Client, source Source, cfg Config) *Mirror {
	cfg = cfg.withDefaults()
	return &Mirror{
		client:  client,
		source:  source,
		cfg:     cfg,
		limiter: infra.NewRateLimiter(int(cfg.WritesPerSec)+1, cfg.WritesPerSec),
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("mirror")),
		pending: make(map[string]bool),
		queue:   make(chan string, cfg.QueueSize),
	}
}

// Key returns the hash key of asset id.
func (m *Mirror) Key(id string) string {
	return m.cfg.KeyPrefix + ":asset:" + id
}

// Fields returns the hash fields for rec at ledger version.
func Fields(rec domain.AssetRecord, version uint64) map[string]any {
	return map[string]any{
		FieldPrice:          rec.Price.String(),
		FieldPriceChange24h: rec.PriceChange24h.String(),
		FieldVolume24h:      rec.Volume24h.String(),
		FieldIsUpdating:     strconv.FormatBool(rec.IsUpdating),
		FieldVersion:        strconv.FormatUint(version, 10),
	}
}

// Start seeds every asset, subscribes to the ledger and runs the writer
// until ctx is done or Stop is called.
func (m *Mirror) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	for _, id := range m.source.Snapshot().IDs() {
		m.enqueue(id)
	}
	m.unsub = m.source.Subscribe(func(c engine.Change) {
		if c.AssetID != "" {
			m.enqueue(c.AssetID)
		}
	})

	m.wg.Add(1)
	go m.run(ctx)
	slog.Info("🪞 Redis mirror started",
		slog.String("prefix", m.cfg.KeyPrefix),
		slog.Duration("ttl", m.cfg.TTL))
}

// Stop unsubscribes and waits for the writer to exit. Queued ids are
// discarded.
func (m *Mirror) Stop() {
	if m.unsub != nil {
		m.unsub()
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	slog.Info("🪞 Redis mirror stopped",
		slog.Uint64("written", m.written.Load()),
		slog.Uint64("dropped", m.dropped.Load()))
}

// Stats returns how many hashes were written and how many ids were dropped.
func (m *Mirror) Stats() (written, dropped uint64) {
	return m.written.Load(), m.dropped.Load()
}

// enqueue runs on the ledger's writer goroutine and must not block.
func (m *Mirror) enqueue(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending[id] {
		return
	}
	select {
	case m.queue <- id:
		m.pending[id] = true
	default:
		m.dropped.Add(1)
	}
}

func (m *Mirror) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-m.queue:
			m.mu.Lock()
			delete(m.pending, id)
			m.mu.Unlock()

			if err := m.limiter.Wait(ctx); err != nil {
				return
			}
			if !m.breaker.Allow() {
				m.dropped.Add(1)
				continue
			}
			if err := m.write(ctx, id); err != nil {
				m.breaker.RecordFailure()
				slog.Warn("⚠️ Mirror write failed", slog.String("id", id), slog.Any("error", err))
				continue
			}
			m.breaker.RecordSuccess()
			m.written.Add(1)
		}
	}
}

func (m *Mirror) write(ctx context.Context, id string) error {
	state := m.source.Snapshot()
	rec, ok := state.Asset(id)
	if !ok {
		return nil
	}

	key := m.Key(id)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, Fields(rec, state.Version))
		pipe.Expire(ctx, key, m.cfg.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Latest reads back the mirrored entry of asset id.
func (m *Mirror) Latest(ctx context.Context, id string) (Entry, error) {
	vals, err := m.client.HGetAll(ctx, m.Key(id)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("hgetall %s: %w", m.Key(id), err)
	}
	if len(vals) == 0 {
		return Entry{}, ErrNotFound
	}
	return parseEntry(id, vals)
}

func parseEntry(id string, vals map[string]string) (Entry, error) {
	e := Entry{ID: id}
	var err error
	if e.Price, err = decimal.NewFromString(vals[FieldPrice]); err != nil {
		return Entry{}, fmt.Errorf("field %s: %w", FieldPrice, err)
	}
	if e.PriceChange24h, err = decimal.NewFromString(vals[FieldPriceChange24h]); err != nil {
		return Entry{}, fmt.Errorf("field %s: %w", FieldPriceChange24h, err)
	}
	if e.Volume24h, err = decimal.NewFromString(vals[FieldVolume24h]); err != nil {
		return Entry{}, fmt.Errorf("field %s: %w", FieldVolume24h, err)
	}
	if e.IsUpdating, err = strconv.ParseBool(vals[FieldIsUpdating]); err != nil {
		return Entry{}, fmt.Errorf("field %s: %w", FieldIsUpdating, err)
	}
	if e.Version, err = strconv.ParseUint(vals[FieldVersion], 10, 64); err != nil {
		return Entry{}, fmt.Errorf("field %s: %w", FieldVersion, err)
	}
	return e, nil
}
