package engine

import (
	"crypto_dash/internal/domain"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Portfolio owns the holdings collection and the wallet flag. It follows the
// Ledger's contract: serialized writers, immutable published states, and
// listeners notified in commit order under the writer lock.
type Portfolio struct {
	mu        sync.Mutex
	state     atomic.Pointer[domain.PortfolioState]
	listeners Broadcaster[*domain.PortfolioState]
}

// NewPortfolio starts from holdings with the wallet disconnected.
func NewPortfolio(holdings []domain.HoldingEntry) *Portfolio {
	p := &Portfolio{}
	initial := &domain.PortfolioState{Holdings: make([]domain.HoldingEntry, len(holdings))}
	copy(initial.Holdings, holdings)
	p.state.Store(initial)
	return p
}

func (p *Portfolio) Snapshot() *domain.PortfolioState {
	return p.state.Load()
}

func (p *Portfolio) Subscribe(fn func(*domain.PortfolioState)) (unsubscribe func()) {
	return p.listeners.Subscribe(fn)
}

func (p *Portfolio) commit(next *domain.PortfolioState) {
	next.Version = p.state.Load().Version + 1
	p.state.Store(next)
	p.listeners.Publish(next)
}

// AddHolding adds amount to the entry for id, appending one if none exists.
func (p *Portfolio) AddHolding(id string, amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Load().Clone()
	if i := next.Index(id); i >= 0 {
		next.Holdings[i].Amount = next.Holdings[i].Amount.Add(amount)
	} else {
		next.Holdings = append(next.Holdings, domain.HoldingEntry{ID: id, Amount: amount})
	}
	p.commit(next)
}

// RemoveHolding drops every entry for id.
func (p *Portfolio) RemoveHolding(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.state.Load()
	if cur.Index(id) < 0 {
		return
	}
	next := *cur
	next.Holdings = make([]domain.HoldingEntry, 0, len(cur.Holdings))
	for _, h := range cur.Holdings {
		if h.ID != id {
			next.Holdings = append(next.Holdings, h)
		}
	}
	p.commit(&next)
}

// UpdateHoldingAmount overwrites the amount held for id.
func (p *Portfolio) UpdateHoldingAmount(id string, amount decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.state.Load()
	i := cur.Index(id)
	if i < 0 {
		return
	}
	next := cur.Clone()
	next.Holdings[i].Amount = amount
	p.commit(next)
}

func (p *Portfolio) SetWalletConnected(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Load().Clone()
	next.WalletConnected = connected
	p.commit(next)
}
