package engine

import (
	"crypto_dash/internal/domain"
	"testing"
)

func TestPortfolio_Operations(t *testing.T) {
	tests := []struct {
		name  string
		apply func(p *Portfolio)
		want  map[string]string
	}{
		{
			name:  "add merges into existing entry",
			apply: func(p *Portfolio) { p.AddHolding("bitcoin", d("0.05")) },
			want:  map[string]string{"bitcoin": "0.3", "ethereum": "3.5", "solana": "10"},
		},
		{
			name:  "add appends new entry",
			apply: func(p *Portfolio) { p.AddHolding("xrp", d("100")) },
			want:  map[string]string{"bitcoin": "0.25", "ethereum": "3.5", "solana": "10", "xrp": "100"},
		},
		{
			name:  "remove drops entry",
			apply: func(p *Portfolio) { p.RemoveHolding("ethereum") },
			want:  map[string]string{"bitcoin": "0.25", "solana": "10"},
		},
		{
			name:  "update overwrites amount",
			apply: func(p *Portfolio) { p.UpdateHoldingAmount("solana", d("12.5")) },
			want:  map[string]string{"bitcoin": "0.25", "ethereum": "3.5", "solana": "12.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPortfolio(domain.SeedHoldings())
			tt.apply(p)

			got := p.Snapshot().Holdings
			if len(got) != len(tt.want) {
				t.Fatalf("got %d holdings, want %d", len(got), len(tt.want))
			}
			for _, h := range got {
				if !h.Amount.Equal(d(tt.want[h.ID])) {
					t.Errorf("%s: amount %s, want %s", h.ID, h.Amount, tt.want[h.ID])
				}
			}
		})
	}
}

func TestPortfolio_MissIsNoop(t *testing.T) {
	p := NewPortfolio(domain.SeedHoldings())
	calls := 0
	p.Subscribe(func(*domain.PortfolioState) { calls++ })
	before := p.Snapshot()

	p.RemoveHolding("dogecoin")
	p.UpdateHoldingAmount("dogecoin", d("1"))

	if p.Snapshot() != before {
		t.Error("a miss must not publish a new state")
	}
	if calls != 0 {
		t.Errorf("a miss notified listeners %d times", calls)
	}
}

func TestPortfolio_SnapshotsAreImmutable(t *testing.T) {
	p := NewPortfolio(domain.SeedHoldings())
	before := p.Snapshot()

	p.UpdateHoldingAmount("bitcoin", d("1"))
	p.AddHolding("bnb", d("2"))

	if !before.Holdings[0].Amount.Equal(d("0.25")) || len(before.Holdings) != 3 {
		t.Error("an earlier snapshot was modified")
	}
}

func TestPortfolio_WalletAndVersions(t *testing.T) {
	p := NewPortfolio(nil)
	var versions []uint64
	p.Subscribe(func(s *domain.PortfolioState) { versions = append(versions, s.Version) })

	if p.Snapshot().WalletConnected {
		t.Fatal("wallet should start disconnected")
	}
	p.SetWalletConnected(true)
	p.AddHolding("tether", d("50"))

	s := p.Snapshot()
	if !s.WalletConnected {
		t.Error("wallet flag not set")
	}
	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Errorf("unexpected versions %v", versions)
	}
}
