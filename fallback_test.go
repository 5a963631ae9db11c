package warden

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newFallbackTestCache(t *testing.T, fn FallbackFunc) *Cache {
	t.Helper()
	StartEngine()
	t.Cleanup(StopEngine)

	cfg := DefaultConfig(t.Name())
	cfg.Fallback.Default = fn
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestFetchCommitsAndCachesResult(t *testing.T) {
	var calls int32
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		atomic.AddInt32(&calls, 1)
		return Commit("loaded:" + key)
	})

	v, err := c.Fetch("a", nil)
	if err != nil || v != "loaded:a" {
		t.Fatalf("expected (loaded:a, nil), got (%v, %v)", v, err)
	}

	v, err = c.Fetch("a", nil)
	if err != nil || v != "loaded:a" {
		t.Fatalf("expected cached hit, got (%v, %v)", v, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected fallback called once, got %d", calls)
	}
}

func TestFetchIgnoreDoesNotCache(t *testing.T) {
	var calls int32
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		atomic.AddInt32(&calls, 1)
		return Ignore("transient")
	})

	for i := 0; i < 3; i++ {
		v, err := c.Fetch("a", nil)
		if err != nil || v != "transient" {
			t.Fatalf("expected (transient, nil), got (%v, %v)", v, err)
		}
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected fallback invoked every time for Ignore, got %d", calls)
	}
}

func TestFetchErrorNegativeCaching(t *testing.T) {
	var calls int32
	cfg := DefaultConfig("neg-cache")
	cfg.Expiration.Default = time.Hour
	cfg.Fallback.Default = func(_ FallbackContext, key string, state interface{}) FetchResult {
		atomic.AddInt32(&calls, 1)
		return FetchError(NewErrKeyNotFound(key))
	}
	StartEngine()
	defer StopEngine()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Fetch("a", nil); err == nil {
		t.Fatal("expected error from fallback")
	}
	if _, err := c.Fetch("a", nil); err == nil {
		t.Fatal("expected negative-cached error on second call")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected fallback invoked once due to negative caching, got %d", calls)
	}
}

func TestFetchPanicRecovered(t *testing.T) {
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		panic("boom")
	})
	if _, err := c.Fetch("a", nil); err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}

func TestFetchSingleflightDedup(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		atomic.AddInt32(&calls, 1)
		<-release
		return Commit("v")
	})

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.Fetch("a", nil)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected singleflight to collapse concurrent callers onto one fallback call, got %d", calls)
	}
}

func TestFetchNoFallbackConfigured(t *testing.T) {
	StartEngine()
	defer StopEngine()
	c, err := New(DefaultConfig("no-fallback"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Fetch("a", nil); err == nil {
		t.Fatal("expected error fetching with no fallback configured")
	}
}

func TestFetchEmptyKey(t *testing.T) {
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		return Commit("v")
	})
	if _, err := c.Fetch("", nil); err == nil {
		t.Fatal("expected error fetching an empty key")
	}
}

func TestGetFallsThroughToFallbackOnMiss(t *testing.T) {
	var calls int32
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		atomic.AddInt32(&calls, 1)
		return Commit("loaded:" + key)
	})

	v, err := c.Get("a")
	if err != nil || v != "loaded:a" {
		t.Fatalf("expected (loaded:a, nil), got (%v, %v)", v, err)
	}

	v, err = c.Get("a")
	if err != nil || v != "loaded:a" {
		t.Fatalf("expected cached hit, got (%v, %v)", v, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected fallback called once, got %d", calls)
	}
}

func TestGetFallbackIgnoreReturnsWithoutCaching(t *testing.T) {
	var calls int32
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		atomic.AddInt32(&calls, 1)
		return Ignore("transient")
	})

	for i := 0; i < 3; i++ {
		v, err := c.Get("a")
		if err != nil || v != "transient" {
			t.Fatalf("expected (transient, nil), got (%v, %v)", v, err)
		}
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected fallback invoked every time for Ignore, got %d", calls)
	}
}

func TestGetFallbackErrorSurfacesAsErrNotMissing(t *testing.T) {
	c := newFallbackTestCache(t, func(_ FallbackContext, key string, state interface{}) FetchResult {
		return FetchError(NewErrNonNumericValue(key))
	})

	_, err := c.Get("a")
	if err == nil {
		t.Fatal("expected fallback error to surface")
	}
	if IsNotFound(err) {
		t.Fatal("expected the fallback's own error, not WARDEN_KEY_NOT_FOUND")
	}
}

func TestGetMissingWithNoFallbackConfigured(t *testing.T) {
	c := newCacheTest(t, "get-missing-no-fallback")
	if _, err := c.Get("nope"); err == nil {
		t.Fatal("expected WARDEN_KEY_NOT_FOUND")
	}
}
