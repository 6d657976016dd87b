package app

import (
	"context"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"crypto_dash/internal/feed"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/mirror"
	"crypto_dash/internal/server"
	"crypto_dash/internal/storage"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Runtime is the wired server: ledger, portfolio, feed and their consumers.
type Runtime struct {
	Ledger    *engine.Ledger
	Portfolio *engine.Portfolio
	Sequencer *engine.Sequencer
	Feed      *feed.Simulator
	Hub       *server.Hub
	Mirror    *mirror.Mirror // nil when disabled or unreachable

	cfg       *infra.Config
	snapshots *storage.SnapshotManager
	redis     *redis.Client
}

// Build wires the runtime from the loaded configuration. OpenWorkspace must
// have been called.
func (b *Bootstrap) Build(ctx context.Context) (*Runtime, error) {
	cfg := b.Config

	ledgerOpts := []engine.LedgerOption{
		engine.WithClearDelay(cfg.ClearDelay()),
		engine.WithCancelSupersededClears(cfg.Ledger.CancelSupersededClears),
	}
	if cfg.Ledger.Seed != 0 {
		ledgerOpts = append(ledgerOpts, engine.WithSeed(cfg.Ledger.Seed))
	}
	ledger := engine.NewLedger(domain.SeedAssets(), ledgerOpts...)

	feedCfg := feed.Config{
		Interval:         cfg.FeedInterval(),
		MaxAssetsPerTick: cfg.Feed.MaxAssetsPerTick,
		MaxMove:          cfg.FeedMaxMove(),
		Seed:             cfg.Feed.Seed,
	}
	if feedCfg.Seed == 0 {
		feedCfg.Seed = rand.Uint64()
	}

	seqOpts := []engine.SequencerOption{
		engine.WithDumpPath(filepath.Join(b.WorkDir, "panic_dump.json")),
	}
	if cfg.Tape.Enabled {
		sess := storage.NewSession(ledger.Seed(), feedCfg.Seed, ledger.ClearDelay(), time.Now())
		if err := b.OpenTape(ctx, sess); err != nil {
			return nil, err
		}
		seqOpts = append(seqOpts, engine.WithTape(b.Tape))
	}
	seq := engine.NewSequencer(ledger, seqOpts...)

	sim := feed.NewSimulator(ledger, seq, feedCfg)
	portfolio := engine.NewPortfolio(domain.SeedHoldings())
	hub := server.NewHub(ledger, portfolio, sim, domain.SeedNews(), server.Options{
		CommandsPerSec: cfg.Server.CommandsPerSec,
		CommandBurst:   cfg.Server.CommandBurst,
	})

	rt := &Runtime{
		Ledger:    ledger,
		Portfolio: portfolio,
		Sequencer: seq,
		Feed:      sim,
		Hub:       hub,
		cfg:       cfg,
		snapshots: b.Snapshots,
	}

	if cfg.Mirror.RedisAddr != "" {
		client, err := mirror.Dial(ctx, cfg.Mirror.RedisAddr, cfg.Mirror.Password, cfg.Mirror.DB)
		if err != nil {
			slog.Warn("Redis connection failed, continuing without mirror", slog.Any("error", err))
		} else {
			rt.redis = client
			rt.Mirror = mirror.New(client, ledger, mirror.Config{
				KeyPrefix:    cfg.Mirror.KeyPrefix,
				TTL:          cfg.MirrorTTL(),
				WritesPerSec: cfg.Mirror.WritesPerSec,
			})
		}
	}

	slog.Info("✅ Runtime wired",
		slog.Uint64("ledger_seed", ledger.Seed()),
		slog.Uint64("feed_seed", feedCfg.Seed),
		slog.Int("assets", ledger.Snapshot().Len()))
	return rt, nil
}

// Handler serves the websocket and the JSON API.
func (r *Runtime) Handler() http.Handler {
	return r.Hub.Routes()
}

// Start runs the hub and the mirror, and connects the feed when configured
// to. Everything stops when ctx is done or Stop is called.
func (r *Runtime) Start(ctx context.Context) error {
	go r.Hub.Run(ctx)
	if r.Mirror != nil {
		r.Mirror.Start(ctx)
	}
	if r.cfg.Feed.AutoConnect {
		return r.Feed.Connect(ctx)
	}
	return nil
}

// Stop disconnects the feed, detaches consumers and writes a final ledger
// snapshot.
func (r *Runtime) Stop() {
	r.Feed.Disconnect()
	r.Hub.Close()
	if r.Mirror != nil {
		r.Mirror.Stop()
		r.redis.Close()
	}

	recorded, skipped := r.Sequencer.TapeStats()
	slog.Info("🛑 Runtime stopped",
		slog.Uint64("ticks", r.Feed.Ticks()),
		slog.Uint64("tape_recorded", recorded),
		slog.Uint64("tape_skipped", skipped))

	if r.snapshots == nil {
		return
	}
	if _, err := r.snapshots.Save(storage.CreateSnapshot(r.Ledger.Snapshot())); err != nil {
		slog.Error("❌ Final snapshot failed", slog.Any("error", err))
		return
	}
	if err := r.snapshots.Cleanup(r.cfg.Snapshot.Keep); err != nil {
		slog.Warn("Snapshot cleanup failed", slog.Any("error", err))
	}
}
