package engine

import (
	"crypto_dash/internal/clock"
	"crypto_dash/internal/domain"
	"crypto_dash/pkg/quant"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultClearDelay is how long isUpdating stays set after a price update.
const DefaultClearDelay = time.Second

var (
	change1hDrift  = decimal.RequireFromString("0.1")
	change24hDrift = decimal.RequireFromString("0.2")
	volumeDrift    = decimal.RequireFromString("0.02")
)

// ChangeKind identifies the operation that produced a ledger commit.
type ChangeKind string

const (
	ChangePrice   ChangeKind = "price"
	ChangeCleared ChangeKind = "updating_cleared"
	ChangeSort    ChangeKind = "sort"
	ChangeFilter  ChangeKind = "filter"
)

// Change is delivered to listeners after every commit.
type Change struct {
	Kind    ChangeKind
	AssetID string // empty for sort and filter changes
	State   *domain.LedgerState
}

type pendingClear struct {
	gen   uint64
	timer clock.Timer
}

// Ledger is the authoritative asset store.
//
// Writers are serialized by mu; every commit publishes a new immutable
// LedgerState, so Snapshot never blocks and never observes a half-applied
// update. Listeners run synchronously, in commit order, while the writer lock
// is held: they must not call mutating Ledger methods on the same goroutine.
type Ledger struct {
	mu    sync.Mutex
	state atomic.Pointer[domain.LedgerState]

	clock            clock.Clock
	rng              *rand.Rand
	seed             uint64
	clearDelay       time.Duration
	cancelSuperseded bool

	clearGen uint64
	pending  map[string]pendingClear

	listeners Broadcaster[Change]
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock sets the clock used for deferred isUpdating clears.
func WithClock(c clock.Clock) LedgerOption {
	return func(l *Ledger) { l.clock = c }
}

// WithSeed makes the drift applied to change and volume fields reproducible.
func WithSeed(seed uint64) LedgerOption {
	return func(l *Ledger) { l.seed = seed }
}

// WithClearDelay overrides DefaultClearDelay.
func WithClearDelay(d time.Duration) LedgerOption {
	return func(l *Ledger) { l.clearDelay = d }
}

// WithCancelSupersededClears makes a new price update cancel the pending
// clear of the previous one, so isUpdating stays set for a full delay after
// the latest update. Off by default: each update's clear fires on its own and
// the first one to fire resets the flag.
func WithCancelSupersededClears(on bool) LedgerOption {
	return func(l *Ledger) { l.cancelSuperseded = on }
}

// NewLedger builds a ledger from a seed set.
func NewLedger(assets []domain.AssetRecord, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		clock:      clock.System{},
		seed:       rand.Uint64(),
		clearDelay: DefaultClearDelay,
		pending:    make(map[string]pendingClear),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.rng = rand.New(rand.NewPCG(l.seed, l.seed^0x9e3779b97f4a7c15))
	l.state.Store(domain.NewLedgerState(assets))
	return l
}

// Seed returns the drift seed in use.
func (l *Ledger) Seed() uint64 {
	return l.seed
}

// ClearDelay returns the isUpdating highlight window.
func (l *Ledger) ClearDelay() time.Duration {
	return l.clearDelay
}

// Snapshot returns the current state. The result is shared and must be
// treated as read-only.
func (l *Ledger) Snapshot() *domain.LedgerState {
	return l.state.Load()
}

// Subscribe registers fn to be called after every commit.
func (l *Ledger) Subscribe(fn func(Change)) (unsubscribe func()) {
	return l.listeners.Subscribe(fn)
}

// commit publishes next and notifies listeners. Caller holds mu.
func (l *Ledger) commit(next *domain.LedgerState, kind ChangeKind, id string) {
	next.Version = l.state.Load().Version + 1
	l.state.Store(next)
	l.listeners.Publish(Change{Kind: kind, AssetID: id, State: next})
}

// ApplyPriceUpdate moves asset id to price, drifts its short-term change and
// volume figures, pushes price onto the sparkline, sets isUpdating and
// schedules the flag's clear. Unknown ids are ignored.
func (l *Ledger) ApplyPriceUpdate(id string, price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.state.Load()
	rec, ok := cur.Asset(id)
	if !ok {
		slog.Debug("price update miss", slog.String("id", id))
		return
	}

	rec.IsUpdating = true
	rec.Price = price
	rec.PriceChange1h = quant.RoundPrice(rec.PriceChange1h.Add(quant.Uniform(l.rng, change1hDrift)))
	rec.PriceChange24h = quant.RoundPrice(rec.PriceChange24h.Add(quant.Uniform(l.rng, change24hDrift)))
	rec.Volume24h = quant.RoundPrice(quant.Scale(rec.Volume24h, quant.Uniform(l.rng, volumeDrift)))
	rec.Sparkline = rec.Sparkline.Push(price)

	l.commit(cur.WithAsset(rec), ChangePrice, id)
	l.scheduleClear(id)
}

// scheduleClear arms the isUpdating reset for id. Caller holds mu.
func (l *Ledger) scheduleClear(id string) {
	if prev, ok := l.pending[id]; ok && l.cancelSuperseded {
		prev.timer.Stop()
	}
	l.clearGen++
	gen := l.clearGen
	timer := l.clock.AfterFunc(l.clearDelay, func() { l.clearUpdating(id, gen) })
	l.pending[id] = pendingClear{gen: gen, timer: timer}
}

func (l *Ledger) clearUpdating(id string, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.pending[id]; ok && p.gen == gen {
		delete(l.pending, id)
	} else if l.cancelSuperseded {
		// superseded while already firing
		return
	}

	cur := l.state.Load()
	rec, ok := cur.Asset(id)
	if !ok || !rec.IsUpdating {
		return
	}
	rec.IsUpdating = false
	l.commit(cur.WithAsset(rec), ChangeCleared, id)
}

// SetSort selects the table sort column. Selecting the current column flips
// the direction; a new column starts ascending.
func (l *Ledger) SetSort(column domain.SortColumn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.state.Load()
	next := *cur
	if cur.SortBy == column {
		next.SortDirection = cur.SortDirection.Toggle()
	} else {
		next.SortBy = column
		next.SortDirection = domain.Ascending
	}
	l.commit(&next, ChangeSort, "")
}

// SetFilter stores the table filter text verbatim.
func (l *Ledger) SetFilter(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := *l.state.Load()
	next.Filter = text
	l.commit(&next, ChangeFilter, "")
}
