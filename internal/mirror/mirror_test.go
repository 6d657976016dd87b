package mirror

import (
	"context"
	"crypto_dash/internal/clock"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/engine"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newLedger() *engine.Ledger {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return engine.NewLedger(domain.SeedAssets(), engine.WithSeed(7), engine.WithClock(clk))
}

func TestKey(t *testing.T) {
	m := New(nil, newLedger(), Config{KeyPrefix: "dash"})
	if got := m.Key("bitcoin"); got != "dash:asset:bitcoin" {
		t.Errorf("key: got %s", got)
	}

	m = New(nil, newLedger(), Config{})
	if got := m.Key("xrp"); got != "crypto-dash:asset:xrp" {
		t.Errorf("default key: got %s", got)
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	rec, _ := domain.NewLedgerState(domain.SeedAssets()).Asset("bitcoin")
	rec.IsUpdating = true

	vals := make(map[string]string)
	for k, v := range Fields(rec, 42) {
		vals[k] = v.(string)
	}

	got, err := parseEntry("bitcoin", vals)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Price.Equal(rec.Price) || !got.Volume24h.Equal(rec.Volume24h) {
		t.Errorf("price/volume: got %s/%s", got.Price, got.Volume24h)
	}
	if !got.IsUpdating || got.Version != 42 {
		t.Errorf("flags: %+v", got)
	}
}

func TestParseEntryRejectsMissingField(t *testing.T) {
	_, err := parseEntry("bitcoin", map[string]string{FieldPrice: "1"})
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
}

func TestEnqueueDedupsAndDrops(t *testing.T) {
	m := New(nil, newLedger(), Config{QueueSize: 2})

	m.enqueue("bitcoin")
	m.enqueue("bitcoin")
	m.enqueue("ethereum")
	m.enqueue("solana")

	if got := len(m.queue); got != 2 {
		t.Errorf("queued: got %d, want 2", got)
	}
	if _, dropped := m.Stats(); dropped != 1 {
		t.Errorf("dropped: got %d, want 1", dropped)
	}
}

func TestMirrorRedis(t *testing.T) {
	addr := os.Getenv("CRYPTO_DASH_TEST_REDIS")
	if addr == "" {
		t.Skip("CRYPTO_DASH_TEST_REDIS not set")
	}

	ctx := context.Background()
	client, err := Dial(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ledger := newLedger()
	m := New(client, ledger, Config{KeyPrefix: "crypto-dash-test-" + time.Now().Format("150405.000")})
	m.Start(ctx)
	defer m.Stop()

	want := decimal.RequireFromString("100000.01")
	ledger.ApplyPriceUpdate("bitcoin", want)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		e, err := m.Latest(ctx, "bitcoin")
		if err == nil && e.Price.Equal(want) {
			if !e.IsUpdating {
				t.Error("expected isUpdating to be mirrored")
			}
			ttl := client.TTL(ctx, m.Key("bitcoin")).Val()
			if ttl <= 0 {
				t.Errorf("ttl: got %v", ttl)
			}
			return
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			t.Fatalf("latest: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("mirrored price never appeared")
}
