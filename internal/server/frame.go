package server

import (
	"crypto_dash/internal/domain"
	"crypto_dash/internal/projection"

	"github.com/shopspring/decimal"
)

const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// PortfolioView is the holdings section of a snapshot frame.
type PortfolioView struct {
	Version         uint64                 `json:"version"`
	WalletConnected bool                   `json:"walletConnected"`
	Lines           []domain.PortfolioLine `json:"lines"`
	Total           decimal.Decimal        `json:"total"`
	Summary         projection.Summary     `json:"summary"`
}

// SnapshotFrame is pushed to clients after every change.
type SnapshotFrame struct {
	Type          string               `json:"type"`
	Version       uint64               `json:"version"`
	Table         []domain.AssetRecord `json:"table"`
	SortBy        domain.SortColumn    `json:"sortBy"`
	SortDirection domain.SortDirection `json:"sortDirection"`
	Filter        string               `json:"filter"`
	Portfolio     PortfolioView        `json:"portfolio"`
	Feed          string               `json:"feed"`
}

// ErrorFrame reports a rejected command to the client that sent it.
type ErrorFrame struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

// BuildPortfolioView joins the holdings with a ledger state.
func BuildPortfolioView(state *domain.LedgerState, ps *domain.PortfolioState) PortfolioView {
	lines, total := projection.Portfolio(state, ps.Holdings)
	return PortfolioView{
		Version:         ps.Version,
		WalletConnected: ps.WalletConnected,
		Lines:           lines,
		Total:           total,
		Summary:         projection.Summarize(lines, total),
	}
}

func (h *Hub) buildFrame() SnapshotFrame {
	state := h.ledger.Snapshot()
	return SnapshotFrame{
		Type:          FrameSnapshot,
		Version:       state.Version,
		Table:         projection.Table(state),
		SortBy:        state.SortBy,
		SortDirection: state.SortDirection,
		Filter:        state.Filter,
		Portfolio:     BuildPortfolioView(state, h.portfolio.Snapshot()),
		Feed:          h.feed.State().String(),
	}
}
