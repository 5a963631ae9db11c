package warden

import (
	"bytes"
	"testing"
	"time"
)

func newPersistenceTestCache(t *testing.T, name string) *Cache {
	t.Helper()
	StartEngine()
	t.Cleanup(StopEngine)
	c, err := New(DefaultConfig(name))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestDumpLoadRoundTrip(t *testing.T) {
	src := newPersistenceTestCache(t, "dump-src")
	src.Set("a", "1", 0)
	src.Set("b", "2", 0)

	var buf bytes.Buffer
	if err := src.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	dst := newPersistenceTestCache(t, "dump-dst")
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	v, err := dst.Get("a")
	if err != nil || v != "1" {
		t.Fatalf("expected a=1, got (%v, %v)", v, err)
	}
	v, err = dst.Get("b")
	if err != nil || v != "2" {
		t.Fatalf("expected b=2, got (%v, %v)", v, err)
	}
}

func TestLoadIsAdditiveNotDestructive(t *testing.T) {
	src := newPersistenceTestCache(t, "additive-src")
	src.Set("fromsnapshot", "x", 0)
	var buf bytes.Buffer
	if err := src.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	dst := newPersistenceTestCache(t, "additive-dst")
	dst.Set("alreadythere", "y", 0)
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !dst.Exists("alreadythere") {
		t.Fatal("expected a pre-existing entry to survive an additive Load")
	}
	if !dst.Exists("fromsnapshot") {
		t.Fatal("expected the loaded entry to be present")
	}
}

func TestDumpExcludesExpiredEntries(t *testing.T) {
	cfg := DefaultConfig("dump-excludes-expired")
	cfg.TimeProvider = newManualTimeProvider(0)
	StartEngine()
	defer StopEngine()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	mtp := cfg.TimeProvider.(*manualTimeProvider)
	c.Set("gone", "v", int64(time.Nanosecond))
	mtp.advance(2 * time.Nanosecond)

	var buf bytes.Buffer
	if err := c.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	dst := newPersistenceTestCache(t, "dump-excludes-expired-dst")
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if dst.Exists("gone") {
		t.Fatal("expected expired entry to be excluded from the dump")
	}
}

func TestLoadRejectsBadVersion(t *testing.T) {
	dst := newPersistenceTestCache(t, "bad-version")
	buf := bytes.NewBuffer([]byte{0xFF})
	if err := dst.Load(buf); err == nil {
		t.Fatal("expected an unsupported version byte to be rejected")
	}
}

func TestLoadRejectsTruncatedData(t *testing.T) {
	dst := newPersistenceTestCache(t, "truncated")
	buf := bytes.NewBuffer([]byte{dumpFormatVersion, 0x01, 0x02})
	if err := dst.Load(buf); err == nil {
		t.Fatal("expected truncated gob data to be rejected")
	}
}
