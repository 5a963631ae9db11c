// fallback.go: read-through population with singleflight deduplication
//
// A single in-flight call per key is shared by every concurrent caller
// via an inflightCall/done-channel broadcast; the result is a three-way
// Commit/Ignore/Error outcome, with errors optionally negative-cached.
package warden

import (
	"sync"
	"sync/atomic"
)

// FallbackContext is handed to a FallbackFunc so it can read the calling
// cache's name and current time, without exposing
// the full Cache surface (a fallback must not recursively mutate the key
// it is populating).
type FallbackContext struct {
	cacheName string
	now       int64
}

func (fc FallbackContext) CacheName() string { return fc.cacheName }
func (fc FallbackContext) Now() int64        { return fc.now }

type resultWrapper struct{ value FetchResult }

// inflightCall is one in-progress fallback invocation shared by every
// concurrent caller asking for the same key.
type inflightCall struct {
	wg   sync.WaitGroup
	res  atomic.Value // *resultWrapper
	done chan struct{}
}

type negativeEntry struct {
	err      error
	expireAt int64
}

// fallbackRuntime owns the per-cache singleflight and negative-cache
// state backing Fetch.
type fallbackRuntime struct {
	fn  FallbackFunc
	ttl int64 // negative cache TTL in nanoseconds; 0 disables it

	inflight sync.Map // key -> *inflightCall
	negative sync.Map // key -> negativeEntry
}

func newFallbackRuntime(opts FallbackOptions, negativeTTLNanos int64) *fallbackRuntime {
	if opts.Default == nil {
		return nil
	}
	return &fallbackRuntime{fn: opts.Default, ttl: negativeTTLNanos}
}

// Fetch implements the read-through path: a cache hit returns directly;
// a miss deduplicates concurrent callers onto a single FallbackFunc
// invocation and applies its Commit/Ignore/Error verdict. Fetch is an
// ordinary action: it passes through the same pre/post hook dispatch and
// stats/metrics recording as every other method, with populate doing the
// actual miss-handling work shared with Get's read-through path.
func (c *Cache) Fetch(key string, state interface{}) (interface{}, error) {
	if key == "" {
		return nil, NewErrEmptyKey("fetch")
	}
	if c.fallback == nil {
		return nil, NewErrInvalidFallback(c.cfg.Name)
	}

	started := c.now()
	result := c.do("fetch", []interface{}{key, state}, true, func() ActionResult {
		e, found, purged := c.keyspace.Lookup(key, c.now(), c.cfg.Expiration.Lazy)
		if purged {
			c.stats.recordExpired()
			c.cfg.MetricsCollector.RecordExpiration()
			c.emitSynthetic("purge", []interface{}{key}, ok(1))
		}
		c.stats.recordGet(found)
		if found {
			return ok(e.Value)
		}
		return c.populate(key, state)
	})
	c.cfg.MetricsCollector.RecordGet(c.now()-started, result.Tag == TagOK)
	if result.Tag == TagError {
		return nil, result.Err
	}
	return result.Value, nil
}

// populate runs the read-through miss path shared by Get and Fetch:
// negative-cache check, singleflight dedup around a single FallbackFunc
// invocation, and the Commit/Ignore/Error verdict mapped onto an
// ActionResult (both Commit and Ignore resolve as a successful read).
func (c *Cache) populate(key string, state interface{}) ActionResult {
	fr := c.fallback
	if fr.ttl > 0 {
		if neg, found := fr.negative.Load(key); found {
			ne := neg.(negativeEntry)
			if c.now() <= ne.expireAt {
				return actionErr(ne.err)
			}
			fr.negative.Delete(key)
		}
	}

	newFlight := &inflightCall{done: make(chan struct{})}
	newFlight.wg.Add(1)
	actual, loaded := fr.inflight.LoadOrStore(key, newFlight)
	flight := actual.(*inflightCall)

	if loaded {
		flight.wg.Wait()
		rw, _ := flight.res.Load().(*resultWrapper)
		if rw == nil {
			return actionErr(NewErrInternal("fetch: missing flight result", nil))
		}
		return fetchResultToAction(rw.value)
	}

	defer func() {
		close(flight.done)
		flight.wg.Done()
		fr.inflight.Delete(key)
	}()

	result := c.runFallback(fr, key, state)
	flight.res.Store(&resultWrapper{value: result})

	switch result.Tag {
	case TagCommit:
		c.set(key, result.Value, int64(c.cfg.Expiration.Default))
	case TagError:
		if fr.ttl > 0 {
			fr.negative.Store(key, negativeEntry{err: result.Err, expireAt: c.now() + fr.ttl})
		}
	}
	return fetchResultToAction(result)
}

func fetchResultToAction(result FetchResult) ActionResult {
	switch result.Tag {
	case TagCommit, TagIgnore:
		return ok(result.Value)
	default:
		return actionErr(result.Err)
	}
}

func (c *Cache) runFallback(fr *fallbackRuntime, key string, state interface{}) (result FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = FetchError(NewErrPanicRecovered("fetch:"+key, r))
		}
	}()
	ctx := FallbackContext{cacheName: c.cfg.Name, now: c.now()}
	return fr.fn(ctx, key, state)
}
