// Package replay rebuilds a ledger from a recorded price tape.
package replay

import (
	"context"
	"crypto_dash/internal/clock"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"crypto_dash/internal/storage"
	"fmt"
	"log/slog"
)

// Result is the outcome of a replay.
type Result struct {
	Session storage.Session
	Applied int
	NextSeq uint64
	State   *domain.LedgerState
}

// Replayer reads a tape and feeds it into a fresh sequencer.
type Replayer struct {
	store *storage.EventStore
	owned bool
}

// NewReplayer opens the tape at dbPath.
func NewReplayer(dbPath string) (*Replayer, error) {
	store, err := storage.NewEventStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open tape %s: %w", dbPath, err)
	}
	return &Replayer{store: store, owned: true}, nil
}

// FromStore replays an already open tape. Close leaves it open.
func FromStore(store *storage.EventStore) *Replayer {
	return &Replayer{store: store}
}

// Close releases the tape if the replayer opened it.
func (r *Replayer) Close() error {
	if r.owned {
		return r.store.Close()
	}
	return nil
}

// Run rebuilds assets with the recorded ledger seed, re-applies every
// recorded update in sequence order, then lets every pending isUpdating clear
// fire. Replaying the same tape over the same assets always yields the same
// state.
func (r *Replayer) Run(ctx context.Context, assets []domain.AssetRecord) (*Result, error) {
	sess, err := r.store.ReadSession(ctx)
	if err != nil {
		return nil, err
	}

	clk := clock.NewManual(sess.StartedAt)
	ledger := engine.NewLedger(assets,
		engine.WithSeed(sess.LedgerSeed),
		engine.WithClock(clk),
		engine.WithClearDelay(sess.ClearDelay))
	seq := engine.NewSequencer(ledger)

	applied, err := seq.Recover(ctx, r.store)
	if err != nil {
		return nil, fmt.Errorf("replay failed after %d events: %w", applied, err)
	}
	clk.Advance(sess.ClearDelay)

	res := &Result{
		Session: sess,
		Applied: applied,
		NextSeq: seq.GetNextSeq(),
		State:   ledger.Snapshot(),
	}
	slog.Info("⏪ Replay finished",
		slog.String("session", sess.ID.String()),
		slog.Int("applied", applied),
		slog.Uint64("version", res.State.Version))
	return res, nil
}
