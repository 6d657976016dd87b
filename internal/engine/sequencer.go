package engine

import (
	"context"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/event"
	"crypto_dash/internal/infra"
	"crypto_dash/pkg/quant"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Tape receives every price update before the ledger applies it.
type Tape interface {
	SaveEvent(ctx context.Context, ev event.Event) error
}

// TapeSource yields recorded price updates in sequence order.
type TapeSource interface {
	LoadEvents(ctx context.Context, fromSeq uint64) ([]*event.PriceUpdateEvent, error)
}

// Sequencer is the single entry point for price updates. It numbers each
// update, writes it to the tape (when one is attached) and only then hands it
// to the ledger, so a tape is always a faithful prefix of what was applied.
type Sequencer struct {
	mu      sync.Mutex
	ledger  *Ledger
	nextSeq uint64
	source  string

	tape     Tape
	breaker  *infra.CircuitBreaker
	recorded atomic.Uint64
	skipped  atomic.Uint64

	dumpPath string
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithTape attaches a tape. Write failures are counted by a circuit breaker;
// while it is open updates are applied without being recorded.
func WithTape(tape Tape) SequencerOption {
	return func(s *Sequencer) { s.tape = tape }
}

// WithBreaker replaces the default tape circuit breaker.
func WithBreaker(cb *infra.CircuitBreaker) SequencerOption {
	return func(s *Sequencer) { s.breaker = cb }
}

// WithDumpPath sets where the ledger is dumped when processing panics.
func WithDumpPath(path string) SequencerOption {
	return func(s *Sequencer) { s.dumpPath = path }
}

// WithSource labels recorded events.
func WithSource(name string) SequencerOption {
	return func(s *Sequencer) { s.source = name }
}

// NewSequencer creates a sequencer in front of ledger.
func NewSequencer(ledger *Ledger, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		ledger:   ledger,
		nextSeq:  1,
		source:   "simulator",
		dumpPath: "panic_dump.json",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tape != nil && s.breaker == nil {
		s.breaker = infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("tape"))
	}
	return s
}

// Ledger returns the ledger the sequencer feeds.
func (s *Sequencer) Ledger() *Ledger {
	return s.ledger
}

// ApplyPriceUpdate records and applies one price update synchronously. When it
// returns the update is visible in the ledger snapshot.
func (s *Sequencer) ApplyPriceUpdate(id string, price decimal.Decimal) {
	ev := event.AcquirePriceUpdateEvent()
	defer event.ReleasePriceUpdateEvent(ev)

	ev.AssetID = id
	ev.Price = price
	ev.Source = s.source
	ev.Ts = quant.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ev.Seq = s.nextSeq
	s.process(ev)
}

// process runs one update. Caller holds mu.
func (s *Sequencer) process(ev *event.PriceUpdateEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.Uint64("seq", ev.Seq))
			s.DumpState(s.dumpPath)
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	// WAL-first: the tape never lags the ledger.
	s.record(ev)

	s.ledger.ApplyPriceUpdate(ev.AssetID, ev.Price)
	s.nextSeq++
}

func (s *Sequencer) record(ev *event.PriceUpdateEvent) {
	if s.tape == nil {
		return
	}
	if !s.breaker.Allow() {
		s.skipped.Add(1)
		return
	}
	if err := s.tape.SaveEvent(context.Background(), ev); err != nil {
		s.breaker.RecordFailure()
		s.skipped.Add(1)
		slog.Warn("Tape write failed",
			slog.Uint64("seq", ev.Seq),
			slog.String("id", ev.AssetID),
			slog.Any("error", err))
		return
	}
	s.breaker.RecordSuccess()
	s.recorded.Add(1)
}

// ValidateSequence checks a replayed sequence number against the next
// expected one. Duplicates are rejected. Gaps are accepted and fast-forward
// the sequence: they are expected where the tape breaker skipped writes.
func (s *Sequencer) ValidateSequence(evSeq uint64) bool {
	expected := s.nextSeq
	if evSeq == expected {
		return true
	}

	if evSeq < expected {
		slog.Warn("SEQUENCE_DUPLICATE_IGNORED", slog.Uint64("expected", expected), slog.Uint64("got", evSeq))
		return false
	}

	slog.Warn("SEQUENCE_GAP_TOLERATED",
		slog.Uint64("expected", expected),
		slog.Uint64("got", evSeq),
		slog.Uint64("gap", evSeq-expected))
	s.nextSeq = evSeq
	return true
}

// ReplayEvent applies a recorded event without writing it to the tape.
// It reports whether the event was applied.
func (s *Sequencer) ReplayEvent(ev *event.PriceUpdateEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ValidateSequence(ev.GetSeq()) {
		return false
	}
	s.ledger.ApplyPriceUpdate(ev.AssetID, ev.Price)
	s.nextSeq++
	return true
}

// Recover replays every event of src into the ledger.
func (s *Sequencer) Recover(ctx context.Context, src TapeSource) (int, error) {
	events, err := src.LoadEvents(ctx, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}
	if len(events) == 0 {
		slog.Info("Tape is empty, nothing to replay")
		return 0, nil
	}

	slog.Info("Replaying events from tape", slog.Int("count", len(events)))

	applied := 0
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if s.ReplayEvent(ev) {
			applied++
		}
	}

	slog.Info("Ledger rebuilt from tape",
		slog.Int("applied", applied),
		slog.Uint64("next_seq", s.GetNextSeq()))
	return applied, nil
}

// GetNextSeq returns the sequence number the next update will get.
func (s *Sequencer) GetNextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq
}

// TapeStats reports how many updates were recorded and how many were applied
// without being recorded.
func (s *Sequencer) TapeStats() (recorded, skipped uint64) {
	return s.recorded.Load(), s.skipped.Load()
}

// DumpState writes the ledger and sequence position to filename for
// post-mortem.
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64              `json:"next_seq"`
		State   *domain.LedgerState `json:"state"`
	}{
		NextSeq: s.nextSeq,
		State:   s.ledger.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
