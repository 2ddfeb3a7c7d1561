package store

import (
	"context"
	"testing"

	"felt/engine"
)

func newStoredTable(t *testing.T, s Store, id string) *engine.Table {
	t.Helper()
	tbl, err := engine.NewTable(id, "creator", engine.Config{
		Variant:     engine.VariantHoldem,
		BettingType: engine.NoLimit,
		Mode:        engine.ModeCash,
		MaxPlayers:  6,
		SmallBlind:  10,
		BigBlind:    20,
		MinBuyIn:    400,
		MaxBuyIn:    2000,
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := s.Create(context.Background(), tbl); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tbl
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	newStoredTable(t, s, "t1")

	got, version, err := s.Load(ctx, "t1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if version != 1 {
		t.Fatalf("fresh document should be version 1, got %d", version)
	}
	if got.ID != "t1" || got.CreatorUID != "creator" {
		t.Fatalf("document fields lost in round trip: %+v", got)
	}

	if err := s.Create(ctx, got); err != ErrAlreadyExists {
		t.Fatalf("duplicate create should fail, got %v", err)
	}
}

func TestMemoryStoreVersionCAS(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tbl := newStoredTable(t, s, "t1")

	v, err := s.Save(ctx, tbl, 1)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v != 2 {
		t.Fatalf("version should advance to 2, got %d", v)
	}

	// A writer holding the stale version loses.
	if _, err := s.Save(ctx, tbl, 1); err != ErrVersionMismatch {
		t.Fatalf("stale save should return ErrVersionMismatch, got %v", err)
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	newStoredTable(t, s, "t1")

	a, _, err := s.Load(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	a.HandNumber = 99

	b, _, err := s.Load(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if b.HandNumber == 99 {
		t.Fatal("mutating a loaded document must not leak into the store")
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	newStoredTable(t, s, "t1")
	newStoredTable(t, s, "t2")

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 tables, got %v", ids)
	}

	if err := s.Delete(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Load(ctx, "t1"); err != ErrNotFound {
		t.Fatalf("deleted table should be gone, got %v", err)
	}
	if err := s.Delete(ctx, "t1"); err != ErrNotFound {
		t.Fatalf("double delete should return ErrNotFound, got %v", err)
	}
}
