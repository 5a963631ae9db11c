// keyspace.go: concurrent key -> entry table
//
// Keyspace is a sharded key/entry table: many readers and many writers
// can proceed in parallel as long as they land on different shards,
// while still giving each key exactly one lock to acquire for per-key
// atomicity. A lock-free CAS table was considered and rejected — see
// DESIGN.md — because compute_if_present and the Locksmith's
// transactional hold both need a slot that can stay exclusively owned
// across an arbitrary caller-supplied critical section, which a
// lock-free retry loop cannot provide.
package warden

import (
	"hash/maphash"
	"sort"
	"sync"
)

type shard struct {
	mu   sync.RWMutex
	data map[string]*Entry
}

// Keyspace is the concurrent key/value table every Cache is built on.
type Keyspace struct {
	shards []*shard
	mask   uint64
	seed   maphash.Seed
}

// NewKeyspace builds a Keyspace with shardCount shards (rounded up to the
// next power of two).
func NewKeyspace(shardCount int) *Keyspace {
	n := nextPow2(shardCount)
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{data: make(map[string]*Entry)}
	}
	return &Keyspace{shards: shards, mask: uint64(n - 1), seed: maphash.MakeSeed()}
}

func nextPow2(n int) int {
	if n < 1 {
		n = 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (k *Keyspace) shardFor(key string) *shard {
	var h maphash.Hash
	h.SetSeed(k.seed)
	_, _ = h.WriteString(key)
	return k.shards[h.Sum64()&k.mask]
}

// Insert stores e, replacing any existing entry for e.Key.
func (k *Keyspace) Insert(e *Entry) {
	s := k.shardFor(e.Key)
	s.mu.Lock()
	s.data[e.Key] = e
	s.mu.Unlock()
}

// Lookup returns a snapshot of the entry for key, applying lazy
// expiration: if the entry exists but is not live at now, it is deleted
// and treated as absent. The bool return reports whether a live entry
// was found; the second bool reports whether a lazy purge happened, so
// callers can emit a synthetic purge notification.
func (k *Keyspace) Lookup(key string, now int64, lazy bool) (entry *Entry, found bool, purged bool) {
	s := k.shardFor(key)

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, false
	}
	if e.Live(now) {
		return e.clone(), true, false
	}
	if !lazy {
		return nil, false, false
	}

	// Expired: upgrade to a write lock and remove it, re-checking in case
	// of a concurrent write that refreshed the entry in between.
	s.mu.Lock()
	e, ok = s.data[key]
	if ok && !e.Live(now) {
		delete(s.data, key)
		s.mu.Unlock()
		return nil, false, true
	}
	live := ok && e.Live(now)
	s.mu.Unlock()
	if live {
		return e.clone(), true, false
	}
	return nil, false, false
}

// Peek is like Lookup but never purges; used by inspection and by
// Cache.TTL, where destructive side effects are unwanted.
func (k *Keyspace) Peek(key string) (*Entry, bool) {
	s := k.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

// Delete removes key, reporting whether it was present.
func (k *Keyspace) Delete(key string) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	if ok {
		delete(s.data, key)
	}
	return ok
}

// UpdateFields atomically applies updater to the existing entry for key,
// replacing it with whatever updater returns. It reports false if key
// does not exist.
func (k *Keyspace) UpdateFields(key string, updater func(e *Entry) *Entry) bool {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return false
	}
	s.data[key] = updater(e)
	return true
}

// ComputeIfPresent atomically transforms the entry for key if present,
// returning whatever f returns as the second value. If key is absent, f
// is not called and found is false.
func (k *Keyspace) ComputeIfPresent(key string, f func(e *Entry) (*Entry, interface{})) (result interface{}, found bool) {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	newEntry, res := f(e)
	if newEntry == nil {
		delete(s.data, key)
	} else {
		s.data[key] = newEntry
	}
	return res, true
}

// GetOrInsert returns the existing entry for key, or inserts build() and
// returns that. inserted reports which happened.
func (k *Keyspace) GetOrInsert(key string, build func() *Entry) (entry *Entry, inserted bool) {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[key]; ok {
		return e.clone(), false
	}
	e := build()
	s.data[key] = e
	return e.clone(), true
}

// Select returns a snapshot of every entry matching predicate, evaluated
// against a single wall-clock reading. Order is unspecified.
func (k *Keyspace) Select(now int64, predicate func(touched, ttl int64) bool) []*Entry {
	var out []*Entry
	for _, s := range k.shards {
		s.mu.RLock()
		for _, e := range s.data {
			if predicate(e.Touched, e.TTL) {
				out = append(out, e.clone())
			}
		}
		s.mu.RUnlock()
	}
	return out
}

// DeleteMatch deletes every entry matching predicate, evaluated per-shard
// under that shard's write lock, and returns how many were removed. This
// is the single bulk-delete call the Janitor uses, guaranteeing it can
// never double-count a row a concurrent lazy purge already removed: each
// row is visited and deleted at most once, atomically, by whichever side
// gets there first.
func (k *Keyspace) DeleteMatch(now int64, predicate func(touched, ttl int64) bool) int {
	removed := 0
	for _, s := range k.shards {
		s.mu.Lock()
		for key, e := range s.data {
			if predicate(e.Touched, e.TTL) {
				delete(s.data, key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Count returns the current number of entries, without regard to
// liveness. This is a cheap approximate count: it is not linearizable
// across shards.
func (k *Keyspace) Count() int {
	total := 0
	for _, s := range k.shards {
		s.mu.RLock()
		total += len(s.data)
		s.mu.RUnlock()
	}
	return total
}

// Keys returns a snapshot of every key currently stored, live or not.
func (k *Keyspace) Keys() []string {
	var out []string
	for _, s := range k.shards {
		s.mu.RLock()
		for key := range s.data {
			out = append(out, key)
		}
		s.mu.RUnlock()
	}
	sort.Strings(out)
	return out
}

// Clear removes every entry and returns how many were removed.
func (k *Keyspace) Clear() int {
	removed := 0
	for _, s := range k.shards {
		s.mu.Lock()
		removed += len(s.data)
		s.data = make(map[string]*Entry)
		s.mu.Unlock()
	}
	return removed
}

// SizeBytes returns a rough estimate of the keyspace's memory footprint.
// It is intentionally approximate: exact per-value memory accounting
// would require reflecting over arbitrary stored types.
func (k *Keyspace) SizeBytes() int64 {
	const perEntryOverhead = 64
	var total int64
	for _, s := range k.shards {
		s.mu.RLock()
		for key, e := range s.data {
			total += int64(len(key)) + perEntryOverhead
			if sv, ok := e.Value.(string); ok {
				total += int64(len(sv))
			}
		}
		s.mu.RUnlock()
	}
	return total
}

// OldestByTouched returns up to n live-or-not entries with the smallest
// Touched value, ties broken by key ordering, for the LRW policy's bulk
// eviction selection.
func (k *Keyspace) OldestByTouched(n int) []*Entry {
	all := k.Select(0, func(int64, int64) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		if all[i].Touched != all[j].Touched {
			return all[i].Touched < all[j].Touched
		}
		return all[i].Key < all[j].Key
	})
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}
