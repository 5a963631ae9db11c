// stats.go: internal counters backing Cache.Stats
//
// These are maintained independently of the pluggable MetricsCollector:
// a NoOp collector must not make stats() go dark, since Inspect/Stats is
// always-on, builtin instrumentation rather than the optional external
// hook metrics plug into.
package warden

import "sync/atomic"

type statsCounters struct {
	hits         int64
	misses       int64
	evictions    int64
	expired      int64
	transactions int64
}

func (s *statsCounters) recordGet(hit bool) {
	if hit {
		atomic.AddInt64(&s.hits, 1)
	} else {
		atomic.AddInt64(&s.misses, 1)
	}
}

func (s *statsCounters) recordEviction() { atomic.AddInt64(&s.evictions, 1) }
func (s *statsCounters) recordExpired()  { atomic.AddInt64(&s.expired, 1) }
func (s *statsCounters) recordTx()       { atomic.AddInt64(&s.transactions, 1) }

func (s *statsCounters) snapshot(count int, sizeBytes int64) CacheStats {
	return CacheStats{
		Count:        count,
		SizeBytes:    sizeBytes,
		Hits:         atomic.LoadInt64(&s.hits),
		Misses:       atomic.LoadInt64(&s.misses),
		Evictions:    atomic.LoadInt64(&s.evictions),
		Expired:      atomic.LoadInt64(&s.expired),
		Transactions: atomic.LoadInt64(&s.transactions),
	}
}

// Stats returns a point-in-time snapshot of this cache's counters and
// current occupancy. Returns WARDEN_STATS_DISABLED if the cache was
// constructed with stats collection turned off.
func (c *Cache) Stats() (CacheStats, error) {
	if c.statsDisabled {
		return CacheStats{}, NewErrStatsDisabled(c.cfg.Name)
	}
	return c.stats.snapshot(c.keyspace.Count(), c.keyspace.SizeBytes()), nil
}
