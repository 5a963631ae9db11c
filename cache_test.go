package warden

import "testing"

func newCacheTest(t *testing.T, name string) *Cache {
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

func TestCacheGetSetDelete(t *testing.T) {
	c := newCacheTest(t, "cache-basic")

	if err := c.Set("a", "1", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := c.Get("a")
	if err != nil || v != "1" {
		t.Fatalf("expected (1, nil), got (%v, %v)", v, err)
	}
	if !c.Exists("a") {
		t.Fatal("expected Exists to report true")
	}

	deleted, err := c.Delete("a")
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got (%v, %v)", deleted, err)
	}
	if c.Exists("a") {
		t.Fatal("expected key to be gone after Delete")
	}
	if _, err := c.Get("a"); err == nil {
		t.Fatal("expected WARDEN_KEY_NOT_FOUND on a deleted key")
	}
}

func TestCacheCountSizeKeysEmptyClear(t *testing.T) {
	c := newCacheTest(t, "cache-bulk")
	if !c.Empty() {
		t.Fatal("expected a fresh cache to be empty")
	}
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	if c.Count() != 2 || c.Size() != 2 {
		t.Fatalf("expected count/size 2, got %d/%d", c.Count(), c.Size())
	}
	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", keys)
	}
	if n := c.Clear(); n != 2 {
		t.Fatalf("expected Clear to remove 2, got %d", n)
	}
	if !c.Empty() {
		t.Fatal("expected cache to be empty after Clear")
	}
}

func TestCachePurgeClearsNegativeCache(t *testing.T) {
	cfg := DefaultConfig("cache-purge")
	cfg.Fallback.Default = func(ctx FallbackContext, key string, state interface{}) FetchResult {
		return FetchError(NewErrInternal("fetch", nil))
	}
	StartEngine()
	defer StopEngine()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Fetch("k", nil); err == nil {
		t.Fatal("expected fetch to fail")
	}
	if n := c.Purge(); n != 0 {
		t.Fatalf("expected Purge to report 0 removed entries, got %d", n)
	}
}

func TestCacheIncrDecr(t *testing.T) {
	c := newCacheTest(t, "cache-incr")

	v, err := c.Incr("counter", 1, 10)
	if err != nil || v != 11 {
		t.Fatalf("expected first Incr to seed 10 then add 1, got (%v, %v)", v, err)
	}
	v, err = c.Incr("counter", 5, 0)
	if err != nil || v != 16 {
		t.Fatalf("expected 16, got (%v, %v)", v, err)
	}
	v, err = c.Decr("counter", 6, 0)
	if err != nil || v != 10 {
		t.Fatalf("expected 10, got (%v, %v)", v, err)
	}
}

func TestCacheIncrNonNumericValue(t *testing.T) {
	c := newCacheTest(t, "cache-incr-nonnumeric")
	c.Set("k", "not-a-number", 0)
	if _, err := c.Incr("k", 1, 0); err == nil {
		t.Fatal("expected WARDEN_NON_NUMERIC_VALUE")
	}
}

func TestCacheUpdate(t *testing.T) {
	c := newCacheTest(t, "cache-update")
	c.Set("a", 1, 0)

	v, err := c.Update("a", func(old interface{}) interface{} { return old.(int) + 1 })
	if err != nil || v.(int) != 2 {
		t.Fatalf("expected 2, got (%v, %v)", v, err)
	}
}

func TestCacheUpdateMissingKey(t *testing.T) {
	c := newCacheTest(t, "cache-update-missing")
	if _, err := c.Update("nope", func(old interface{}) interface{} { return old }); err == nil {
		t.Fatal("expected WARDEN_KEY_NOT_FOUND")
	}
}

func TestCacheTake(t *testing.T) {
	c := newCacheTest(t, "cache-take")
	c.Set("a", "v", 0)

	v, err := c.Take("a")
	if err != nil || v != "v" {
		t.Fatalf("expected (v, nil), got (%v, %v)", v, err)
	}
	if c.Exists("a") {
		t.Fatal("expected Take to remove the key")
	}
}

func TestCacheTTLAndExpireFamily(t *testing.T) {
	c := newCacheTest(t, "cache-ttl")
	c.Set("a", "v", 0)

	ttl, err := c.TTL("a")
	if err != nil || ttl != 0 {
		t.Fatalf("expected ttl 0 for a no-expiry key, got (%v, %v)", ttl, err)
	}

	if err := c.Expire("a", 1000); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	ttl, err = c.TTL("a")
	if err != nil || ttl <= 0 {
		t.Fatalf("expected a positive remaining ttl, got (%v, %v)", ttl, err)
	}

	if err := c.Persist("a"); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	ttl, err = c.TTL("a")
	if err != nil || ttl != 0 {
		t.Fatalf("expected ttl 0 after Persist, got (%v, %v)", ttl, err)
	}

	if err := c.Touch("a"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if err := c.Refresh("a"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
}

func TestCacheTTLMissingKey(t *testing.T) {
	c := newCacheTest(t, "cache-ttl-missing")
	if _, err := c.TTL("nope"); err == nil {
		t.Fatal("expected WARDEN_KEY_NOT_FOUND")
	}
	if err := c.Expire("nope", 100); err == nil {
		t.Fatal("expected WARDEN_KEY_NOT_FOUND from Expire on a missing key")
	}
}

func TestCacheTransactionRequiresTransactionalConfig(t *testing.T) {
	c := newCacheTest(t, "cache-tx-disabled")
	if _, err := c.Transaction([]string{"a"}, func(tx *Tx) (interface{}, error) { return nil, nil }); err == nil {
		t.Fatal("expected Transaction to fail without Transactional: true")
	}
}

func TestCacheTransactionLocksAndRuns(t *testing.T) {
	cfg := DefaultConfig("cache-tx-enabled")
	cfg.Transactional = true
	StartEngine()
	defer StopEngine()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	v, err := c.Transaction([]string{"a", "b"}, func(tx *Tx) (interface{}, error) {
		if err := tx.Set("a", 1, 0); err != nil {
			return nil, err
		}
		if err := tx.Set("b", 2, 0); err != nil {
			return nil, err
		}
		return "done", nil
	})
	if err != nil || v != "done" {
		t.Fatalf("expected (done, nil), got (%v, %v)", v, err)
	}
	if !c.Exists("a") || !c.Exists("b") {
		t.Fatal("expected both keys to be set inside the transaction")
	}
}

func TestCacheExecuteWithoutTransactionalQueue(t *testing.T) {
	c := newCacheTest(t, "cache-execute-plain")
	v, err := c.Execute(func() (interface{}, error) { return 42, nil })
	if err != nil || v.(int) != 42 {
		t.Fatalf("expected (42, nil), got (%v, %v)", v, err)
	}
}

func TestCacheResetCacheAndHooks(t *testing.T) {
	c := newCacheTest(t, "cache-reset")
	c.Set("a", 1, 0)
	c.Reset(ResetTarget{Cache: true}, nil)
	if !c.Empty() {
		t.Fatal("expected Reset{Cache: true} to clear the keyspace")
	}
}

func TestCacheWriteBlockedWhenEngineStopped(t *testing.T) {
	c := newCacheTest(t, "cache-write-blocked")
	StopEngine()
	defer StartEngine()
	if err := c.Set("a", 1, 0); err == nil {
		t.Fatal("expected Set to fail once the engine is stopped")
	}
}
