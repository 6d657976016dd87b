package server

import (
	"context"
	"crypto_dash/internal/clock"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"crypto_dash/internal/feed"
	"crypto_dash/internal/projection"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fixture struct {
	hub       *Hub
	ledger    *engine.Ledger
	portfolio *engine.Portfolio
	sim       *feed.Simulator
	clock     *clock.Manual
	srv       *httptest.Server
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ledger := engine.NewLedger(domain.SeedAssets(), engine.WithSeed(7), engine.WithClock(clk))
	portfolio := engine.NewPortfolio(domain.SeedHoldings())
	sim := feed.NewSimulator(ledger, ledger, feed.Config{Seed: 1}, feed.WithClock(clk))

	h := NewHub(ledger, portfolio, sim, domain.SeedNews(), opts)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	srv := httptest.NewServer(h.Routes())

	t.Cleanup(func() {
		cancel()
		h.Close()
		srv.Close()
		sim.Disconnect()
	})
	return &fixture{hub: h, ledger: ledger, portfolio: portfolio, sim: sim, clock: clk, srv: srv}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type anyFrame struct {
	SnapshotFrame
	Action string `json:"action"`
	Error  string `json:"error"`
}

// readUntil reads frames until match returns true or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(anyFrame) bool) anyFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var f anyFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			t.Fatalf("decode %s: %v", msg, err)
		}
		if match(f) {
			return f
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, cmd string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func isSnapshot(f anyFrame) bool { return f.Type == FrameSnapshot }

func TestServeWSInitialSnapshot(t *testing.T) {
	f := newFixture(t, Options{})
	conn := f.dial(t)

	got := readUntil(t, conn, isSnapshot)
	if len(got.Table) != 6 {
		t.Fatalf("table rows: got %d, want 6", len(got.Table))
	}
	if got.Table[0].ID != "bitcoin" {
		t.Errorf("first row: got %s, want bitcoin", got.Table[0].ID)
	}
	if got.SortBy != domain.ColRank || got.SortDirection != domain.Ascending {
		t.Errorf("sort: got %s %s", got.SortBy, got.SortDirection)
	}
	if got.Feed != "disconnected" {
		t.Errorf("feed: got %s", got.Feed)
	}

	_, wantTotal := projection.Portfolio(f.ledger.Snapshot(), domain.SeedHoldings())
	if !got.Portfolio.Total.Equal(wantTotal) {
		t.Errorf("portfolio total: got %s, want %s", got.Portfolio.Total, wantTotal)
	}
	if len(got.Portfolio.Lines) != 3 {
		t.Errorf("portfolio lines: got %d, want 3", len(got.Portfolio.Lines))
	}
}

func TestServeWSCommandsPushFrames(t *testing.T) {
	f := newFixture(t, Options{})
	conn := f.dial(t)
	readUntil(t, conn, isSnapshot)

	send(t, conn, `{"action":"set_filter","text":"bit"}`)
	got := readUntil(t, conn, func(f anyFrame) bool { return isSnapshot(f) && f.Filter == "bit" })
	if len(got.Table) != 1 || got.Table[0].ID != "bitcoin" {
		t.Fatalf("filtered table: %+v", got.Table)
	}

	send(t, conn, `{"action":"set_filter","text":""}`)
	send(t, conn, `{"action":"set_sort","column":"price"}`)
	got = readUntil(t, conn, func(f anyFrame) bool {
		return isSnapshot(f) && f.SortBy == domain.ColPrice && f.Filter == ""
	})
	if got.Table[0].ID != "tether" {
		t.Errorf("cheapest first: got %s, want tether", got.Table[0].ID)
	}

	send(t, conn, `{"action":"add_holding","id":"xrp","amount":"100"}`)
	got = readUntil(t, conn, func(f anyFrame) bool { return isSnapshot(f) && len(f.Portfolio.Lines) == 4 })
	if got.Portfolio.Lines[3].ID != "xrp" {
		t.Errorf("appended holding: got %s", got.Portfolio.Lines[3].ID)
	}

	send(t, conn, `{"action":"set_wallet_connected","connected":true}`)
	readUntil(t, conn, func(f anyFrame) bool { return isSnapshot(f) && f.Portfolio.WalletConnected })
}

func TestServeWSPriceUpdatesReachClient(t *testing.T) {
	f := newFixture(t, Options{})
	conn := f.dial(t)
	first := readUntil(t, conn, isSnapshot)

	send(t, conn, `{"action":"connect"}`)
	readUntil(t, conn, func(f anyFrame) bool { return isSnapshot(f) && f.Feed == "connected" })

	f.clock.Advance(f.sim.Config().Interval)
	got := readUntil(t, conn, func(f anyFrame) bool { return isSnapshot(f) && f.Version > first.Version })

	updating := 0
	for _, rec := range got.Table {
		if rec.IsUpdating {
			updating++
		}
	}
	if updating == 0 {
		t.Error("expected at least one row flagged isUpdating after a tick")
	}

	send(t, conn, `{"action":"disconnect"}`)
	readUntil(t, conn, func(f anyFrame) bool { return isSnapshot(f) && f.Feed == "disconnected" })
}

func TestServeWSRejectsInvalidCommands(t *testing.T) {
	tests := []struct {
		name   string
		cmd    string
		action string
	}{
		{"negative amount", `{"action":"add_holding","id":"bitcoin","amount":-1}`, ActionAddHolding},
		{"missing id", `{"action":"update_holding_amount","amount":"2"}`, ActionUpdateHolding},
		{"null amount", `{"action":"add_holding","id":"bitcoin","amount":null}`, ActionAddHolding},
		{"unknown action", `{"action":"buy"}`, "buy"},
		{"malformed json", `{"action":`, ""},
	}

	f := newFixture(t, Options{CommandBurst: 100, CommandsPerSec: 100})
	conn := f.dial(t)
	readUntil(t, conn, isSnapshot)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.cmd)
			got := readUntil(t, conn, func(f anyFrame) bool { return f.Type == FrameError })
			if got.Action != tt.action {
				t.Errorf("action: got %q, want %q", got.Action, tt.action)
			}
			if got.Error == "" {
				t.Error("expected an error message")
			}
		})
	}

	if v := f.portfolio.Snapshot().Version; v != 0 {
		t.Errorf("portfolio mutated by rejected commands: version %d", v)
	}
}

func TestServeWSRateLimit(t *testing.T) {
	f := newFixture(t, Options{CommandBurst: 1, CommandsPerSec: 0.001})
	conn := f.dial(t)
	readUntil(t, conn, isSnapshot)

	send(t, conn, `{"action":"set_filter","text":"a"}`)
	send(t, conn, `{"action":"set_filter","text":"b"}`)

	got := readUntil(t, conn, func(f anyFrame) bool { return f.Type == FrameError })
	if got.Error != errRateLimited.Error() {
		t.Errorf("error: got %q, want %q", got.Error, errRateLimited)
	}
	if filter := f.ledger.Snapshot().Filter; filter != "a" {
		t.Errorf("filter: got %q, want %q", filter, "a")
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	f := newFixture(t, Options{})
	conn := f.dial(t)
	readUntil(t, conn, isSnapshot)

	f.hub.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
