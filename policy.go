// policy.go: the built-in least-recently-written eviction policy
//
// LRW reuses Entry.Touched (already maintained for TTL bookkeeping) as
// its recency signal instead of keeping a second parallel structure such
// as a doubly linked LRU list or an access-count sketch.
package warden

import "math"

// lrwPolicy evicts the entries with the oldest Touched timestamp once a
// cache crosses its configured size bound. It installs itself as a
// single async post-hook that receives every notified action; each
// delivery re-checks occupancy and sweeps only while the cache is over
// its trigger.
type lrwPolicy struct {
	triggerRatio float64
	wakeBatch    int
}

// NewLRWPolicy returns the default Policy: evict oldest-Touched entries
// once occupancy crosses DefaultPolicyTriggerRatio of the configured
// limit, reclaiming the Reclaim fraction of the bound per sweep.
func NewLRWPolicy() Policy {
	return &lrwPolicy{
		triggerRatio: DefaultPolicyTriggerRatio,
		wakeBatch:    DefaultPolicyWakeBatch,
	}
}

func (p *lrwPolicy) Strategy() string { return "lrw" }

func (p *lrwPolicy) Hooks(c *Cache, limit LimitOptions) []HookDescriptor {
	if limit.Size <= 0 {
		return nil
	}
	trigger := p.triggerRatio
	if v, ok := limit.Options["trigger_ratio"].(float64); ok && v > 0 {
		trigger = v
	}
	batch := p.wakeBatch
	if v, ok := limit.Options["wake_batch"].(int); ok && v > 0 {
		batch = v
	}
	reclaim := limit.Reclaim
	if reclaim <= 0 || reclaim > 1 {
		reclaim = DefaultReclaimRatio
	}

	return []HookDescriptor{{
		Module: "policy:lrw",
		Type:   HookPost,
		Async:  true,
		Fn:     evictOnOverflow(c, limit.Size, trigger, reclaim, batch),
	}}
}

// evictOnOverflow closes over the owning cache and its tuned thresholds;
// a Policy is bound to exactly one Cache so this is safe for the
// closure's lifetime.
func evictOnOverflow(c *Cache, size int, trigger, reclaim float64, batch int) HookFunc {
	return func(n Notification, _ *ActionResult) *ActionResult {
		if n.Action == "reset" {
			return nil
		}
		count := c.keyspace.Count()
		if float64(count) <= float64(size)*trigger {
			return nil
		}
		want := int(math.Ceil(float64(size) * reclaim))
		if want <= 0 {
			want = 1
		}
		if want > batch {
			want = batch
		}
		evicted := 0
		for _, e := range c.keyspace.OldestByTouched(want) {
			if c.keyspace.Delete(e.Key) {
				evicted++
				c.stats.recordEviction()
				c.cfg.MetricsCollector.RecordEviction()
			}
		}
		if evicted > 0 {
			c.emitSynthetic("evict", []interface{}{evicted}, ok(evicted))
		}
		return nil
	}
}
