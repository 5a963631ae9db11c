// Package warden provides an embeddable, in-process, transactional,
// TTL-based key/value cache engine with hook-observable actions and
// policy-driven size bounds.
//
// # Overview
//
// A warden Cache is built from a sharded concurrent keyspace, a
// process-wide Locksmith for per-key and multi-key transactional
// locking, an optional periodic Janitor for TTL sweeping, an Informant
// hook runtime for pre/post observation of every action, and an
// optional read-through Fallback runtime with singleflight
// deduplication.
//
// # Quick Start
//
//	warden.StartEngine()
//	defer warden.StopEngine()
//
//	cache, err := warden.New(warden.DefaultConfig("sessions"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cache.Close()
//
//	cache.Set("user:123", "alice", 0)
//	v, err := cache.Get("user:123")
//
// # Type-safe access
//
//	typed := warden.NewGenericCache[string, User](cache)
//	typed.Set("user:123", User{ID: 123}, 0)
//	user, found := typed.Get("user:123")
//
// # Transactions
//
// A cache constructed with Config.Transactional enrolls writes against
// named keys into a single-threaded per-cache queue, serializing
// Transaction and Execute calls relative to one another:
//
//	cache.Transaction([]string{"a", "b"}, func(tx *warden.Tx) (interface{}, error) {
//		// both keys are exclusively held for the duration of this call
//		tx.Set("a", 1, 0)
//		tx.Set("b", 2, 0)
//		return nil, nil
//	})
package warden
