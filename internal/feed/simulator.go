// Package feed generates the synthetic market stream.
package feed

import (
	"context"
	"crypto_dash/internal/clock"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"crypto_dash/pkg/quant"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// State is the simulator connection state.
type State int32

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Source provides the asset set a tick picks from.
type Source interface {
	Snapshot() *domain.LedgerState
}

// Applier receives the generated price updates.
type Applier interface {
	ApplyPriceUpdate(id string, price decimal.Decimal)
}

// Config controls tick cadence and move size.
type Config struct {
	Interval         time.Duration
	MaxAssetsPerTick int
	MaxMove          decimal.Decimal // fraction of price, 0.005 = 0.5%
	Seed             uint64
}

// DefaultConfig ticks every 2s, moving up to 3 assets by at most 0.5%.
func DefaultConfig() Config {
	return Config{
		Interval:         2 * time.Second,
		MaxAssetsPerTick: 3,
		MaxMove:          decimal.RequireFromString("0.005"),
		Seed:             rand.Uint64(),
	}
}

// Simulator is a timer-driven price generator with two states. Connect and
// Disconnect are idempotent; after Disconnect returns no tick runs until the
// next Connect.
type Simulator struct {
	mu     sync.Mutex
	cfg    Config
	source Source
	sink   Applier
	clock  clock.Clock
	rng    *rand.Rand

	state atomic.Int32
	timer clock.Timer
	gen   uint64 // bumped on every transition; stale timer callbacks compare it
	stop  chan struct{}

	ticks     atomic.Uint64
	listeners engine.Broadcaster[State]
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock sets the clock driving ticks.
func WithClock(c clock.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// NewSimulator creates a disconnected simulator reading from source and
// writing to sink. Zero config fields take their defaults.
func NewSimulator(source Source, sink Applier, cfg Config, opts ...Option) *Simulator {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxAssetsPerTick < 1 {
		cfg.MaxAssetsPerTick = def.MaxAssetsPerTick
	}
	if !cfg.MaxMove.IsPositive() {
		cfg.MaxMove = def.MaxMove
	}

	s := &Simulator{
		cfg:    cfg,
		source: source,
		sink:   sink,
		clock:  clock.System{},
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5bd1e995)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// State returns the current connection state without blocking on a tick.
func (s *Simulator) State() State {
	return State(s.state.Load())
}

// Ticks returns how many ticks have run.
func (s *Simulator) Ticks() uint64 {
	return s.ticks.Load()
}

// Subscribe registers fn for state transitions.
func (s *Simulator) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.listeners.Subscribe(fn)
}

// Connect starts the recurring tick. The simulator disconnects itself when
// ctx is cancelled.
func (s *Simulator) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.State() == Connected {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.stop = make(chan struct{})
	stop := s.stop
	s.timer = s.clock.Every(s.cfg.Interval, func() { s.tick(gen) })
	s.state.Store(int32(Connected))
	s.listeners.Publish(Connected)
	s.mu.Unlock()

	slog.Info("🟢 Feed connected",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("max_assets", s.cfg.MaxAssetsPerTick))

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Disconnect()
			case <-stop:
			}
		}()
	}
	return nil
}

// Disconnect cancels the recurring tick. A tick in progress completes first.
func (s *Simulator) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == Disconnected {
		return
	}
	s.gen++
	s.timer.Stop()
	s.timer = nil
	close(s.stop)
	s.state.Store(int32(Disconnected))
	s.listeners.Publish(Disconnected)

	slog.Info("🔴 Feed disconnected", slog.Uint64("ticks", s.ticks.Load()))
}

func (s *Simulator) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Connected || gen != s.gen {
		return
	}
	s.ticks.Add(1)

	snap := s.source.Snapshot()
	for _, id := range s.selectIDs(snap.IDs()) {
		rec := snap.Assets[id]
		s.sink.ApplyPriceUpdate(id, s.nextPrice(rec.Price))
	}
}

// selectIDs picks between 1 and MaxAssetsPerTick distinct ids, never more
// than len(ids). Caller holds mu.
func (s *Simulator) selectIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	k := 1 + s.rng.IntN(s.cfg.MaxAssetsPerTick)
	if k > len(ids) {
		k = len(ids)
	}

	pool := make([]string, len(ids))
	copy(pool, ids)
	// partial Fisher-Yates: the first k slots end up a uniform sample
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// nextPrice moves price by a uniform fraction in [-MaxMove, MaxMove), rounds
// to cents and keeps the result positive. Caller holds mu.
func (s *Simulator) nextPrice(price decimal.Decimal) decimal.Decimal {
	move := quant.Uniform(s.rng, s.cfg.MaxMove)
	next := quant.RoundPrice(price.Add(price.Mul(move)))
	if next.LessThan(quant.MinPrice) {
		return quant.MinPrice
	}
	return next
}
