package storage

import (
	"context"
	"crypto_dash/internal/event"
	"crypto_dash/pkg/quant"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func openStore(t *testing.T) *EventStore {
	t.Helper()
	store, err := NewEventStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func priceEvent(seq uint64, id, price string) *event.PriceUpdateEvent {
	return &event.PriceUpdateEvent{
		BaseEvent: event.BaseEvent{Seq: seq, Ts: quant.TimeStamp(seq * 1000)},
		AssetID:   id,
		Price:     decimal.RequireFromString(price),
		Source:    "simulator",
	}
}

func TestEventStore_SaveAndLoad(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.SaveEvent(ctx, priceEvent(1, "bitcoin", "93759.48")); err != nil {
		t.Fatalf("Failed to save ev1: %v", err)
	}
	if err := store.SaveEvent(ctx, priceEvent(2, "solana", "151.12")); err != nil {
		t.Fatalf("Failed to save ev2: %v", err)
	}

	loaded, err := store.LoadEvents(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to load events: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(loaded))
	}

	if loaded[0].GetSeq() != 1 || loaded[0].AssetID != "bitcoin" {
		t.Errorf("Event 1 mismatch: %+v", loaded[0])
	}
	if !loaded[0].Price.Equal(decimal.RequireFromString("93759.48")) {
		t.Errorf("Event 1 price mismatch: got %s", loaded[0].Price)
	}
	if loaded[1].GetSeq() != 2 || loaded[1].Source != "simulator" {
		t.Errorf("Event 2 mismatch: %+v", loaded[1])
	}

	tail, err := store.LoadEvents(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to load tail: %v", err)
	}
	if len(tail) != 1 {
		t.Errorf("Expected 1 event from seq 2, got %d", len(tail))
	}
}

func TestEventStore_DuplicateSeqRejected(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.SaveEvent(ctx, priceEvent(1, "bitcoin", "1")); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveEvent(ctx, priceEvent(1, "bitcoin", "2")); err == nil {
		t.Error("expected duplicate sequence to fail")
	}
}

func TestEventStore_GetLastSeq(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	lastSeq, err := store.GetLastSeq(ctx)
	if err != nil {
		t.Fatalf("GetLastSeq failed: %v", err)
	}
	if lastSeq != 0 {
		t.Errorf("Expected 0 for empty DB, got %d", lastSeq)
	}

	for _, seq := range []uint64{5, 10} {
		if err := store.SaveEvent(ctx, priceEvent(seq, "xrp", "2.22")); err != nil {
			t.Fatalf("Failed to save event: %v", err)
		}
	}

	lastSeq, err = store.GetLastSeq(ctx)
	if err != nil {
		t.Fatalf("GetLastSeq failed: %v", err)
	}
	if lastSeq != 10 {
		t.Errorf("Expected 10, got %d", lastSeq)
	}
}

func TestEventStore_MetadataAndReset(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if v, err := store.GetMetadata(ctx, MetaSession); err != nil || v != "" {
		t.Fatalf("missing key should be empty: %q, %v", v, err)
	}

	if err := store.UpsertMetadata(ctx, MetaLedgerSeed, "42", 1); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertMetadata(ctx, MetaLedgerSeed, "43", 2); err != nil {
		t.Fatal(err)
	}
	if v, _ := store.GetMetadata(ctx, MetaLedgerSeed); v != "43" {
		t.Errorf("expected upserted value 43, got %q", v)
	}

	if err := store.SaveEvent(ctx, priceEvent(1, "bnb", "606.65")); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.CountEvents(ctx, "bnb"); n != 1 {
		t.Errorf("expected 1 bnb event, got %d", n)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if n, _ := store.CountEvents(ctx, ""); n != 0 {
		t.Errorf("expected empty tape after reset, got %d", n)
	}
	if v, _ := store.GetMetadata(ctx, MetaLedgerSeed); v != "" {
		t.Errorf("metadata survived reset: %q", v)
	}
}
