package warden

import "testing"

func TestEntryLiveNoTTL(t *testing.T) {
	e := &Entry{Key: "k", Touched: 1000, TTL: 0}
	if !e.Live(1_000_000) {
		t.Fatal("entry with TTL 0 should never expire")
	}
}

func TestEntryLiveWithinTTL(t *testing.T) {
	e := &Entry{Key: "k", Touched: 1000, TTL: 500}
	if !e.Live(1200) {
		t.Fatal("expected entry to still be live")
	}
	if e.Live(1600) {
		t.Fatal("expected entry to have expired")
	}
}

func TestEntryExpireAt(t *testing.T) {
	e := &Entry{Touched: 1000, TTL: 500}
	if got := e.ExpireAt(); got != 1500 {
		t.Fatalf("expected ExpireAt 1500, got %d", got)
	}
	e2 := &Entry{Touched: 1000, TTL: 0}
	if got := e2.ExpireAt(); got != 0 {
		t.Fatalf("expected ExpireAt 0 for no-TTL entry, got %d", got)
	}
}

func TestEntryClone(t *testing.T) {
	e := &Entry{Key: "k", Value: "v", Touched: 1, TTL: 2}
	cp := e.clone()
	if cp == e {
		t.Fatal("clone should return a distinct pointer")
	}
	if *cp != *e {
		t.Fatal("clone should preserve field values")
	}
}
