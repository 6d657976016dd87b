package app

import (
	"context"
	"crypto_dash/internal/event"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/storage"
	"fmt"
	"log/slog"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config    *infra.Config
	WorkDir   string // defaults to infra.GetWorkspaceDir()
	Tape      *storage.EventStore
	Snapshots *storage.SnapshotManager

	unlock func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the configuration and installs the process logger. An
// empty configPath is resolved with infra.ResolveConfigPath.
func (b *Bootstrap) Initialize(configPath string) error {
	if configPath == "" {
		configPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg
	slog.SetDefault(infra.NewLogger(cfg))

	slog.Info("🚀 Bootstrapping Crypto Dash...", slog.String("config", configPath))
	return nil
}

// OpenWorkspace creates the data and snapshot directories and takes the
// instance lock so two servers never share a tape.
func (b *Bootstrap) OpenWorkspace() error {
	event.Warmup(256)

	if b.WorkDir == "" {
		b.WorkDir = infra.GetWorkspaceDir()
	}
	for _, dir := range []string{infra.DataDir(b.WorkDir), infra.SnapshotDir(b.WorkDir)} {
		if err := infra.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	unlock, err := infra.CreateLockFile(b.WorkDir)
	if err != nil {
		return err
	}
	b.unlock = unlock
	b.Snapshots = storage.NewSnapshotManager(infra.SnapshotDir(b.WorkDir))

	slog.Info("✅ Workspace ready", slog.String("dir", b.WorkDir))
	return nil
}

// OpenTape opens the tape, discards the previous session and stamps sess.
func (b *Bootstrap) OpenTape(ctx context.Context, sess storage.Session) error {
	path := infra.TapePath(b.WorkDir)
	store, err := storage.NewEventStore(path)
	if err != nil {
		return err
	}
	if err := store.Reset(ctx); err != nil {
		store.Close()
		return err
	}
	if err := store.WriteSession(ctx, sess); err != nil {
		store.Close()
		return err
	}
	b.Tape = store

	slog.Info("✅ Tape initialized (WAL-mode)",
		slog.String("path", path),
		slog.String("session", sess.ID.String()))
	return nil
}

// Close releases the tape and the instance lock.
func (b *Bootstrap) Close() {
	if b.Tape != nil {
		if err := b.Tape.Close(); err != nil {
			slog.Warn("Failed to close tape", slog.Any("error", err))
		}
		b.Tape = nil
	}
	if b.unlock != nil {
		b.unlock()
		b.unlock = nil
	}
}
