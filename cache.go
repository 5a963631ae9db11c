// cache.go: the public Cache type and its core action surface
//
// Cache wires together the Keyspace table, the per-cache transaction
// queue, the process-wide Locksmith, the Informant hook runtime, the
// optional Janitor, the optional fallback runtime, and registered
// commands into the single uniform pipeline every action funnels
// through (see pipeline.go's do).
package warden

import (
	"sort"
	"sync"
)

// Cache is one named, independently configured cache instance. All
// methods are safe for concurrent use.
type Cache struct {
	cfg Config
	mu  sync.Mutex // guards cfg mutation from Overseer.Update

	keyspace  *Keyspace
	informant *Informant
	locksmith *Locksmith
	txq       *txQueue
	janitor   *janitor
	fallback  *fallbackRuntime
	commands  map[string]Command

	stats         *statsCounters
	statsDisabled bool

	owner string // the identity this cache's direct (non-transactional) writes present to the Locksmith
}

// New constructs and starts a Cache from cfg. The process-wide engine
// (Locksmith + Overseer) must already be started via StartEngine, or
// every locked operation on this cache will fail with WARDEN_NOT_STARTED.
func New(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ls, ov := engine()

	c := &Cache{
		cfg:           cfg,
		keyspace:      NewKeyspace(cfg.ShardCount),
		locksmith:     ls,
		commands:      make(map[string]Command, len(cfg.Commands)),
		stats:         &statsCounters{},
		statsDisabled: cfg.DisableStats,
		owner:         "direct:" + cfg.Name,
	}

	for _, cmd := range cfg.Commands {
		c.commands[cmd.Name] = cmd
	}

	hooks := append([]HookDescriptor(nil), cfg.Hooks.Pre...)
	postHooks := append([]HookDescriptor(nil), cfg.Hooks.Post...)
	if cfg.Limit.Size > 0 && cfg.Limit.Policy != nil {
		postHooks = append(postHooks, cfg.Limit.Policy.Hooks(c, cfg.Limit)...)
	}
	c.informant = newInformant(HookOptions{Pre: hooks, Post: postHooks}, cfg.MetricsCollector)

	if cfg.Transactional {
		c.txq = newTxQueue(cfg.Name, ls)
	}

	if cfg.Expiration.Interval > 0 {
		c.janitor = newJanitor(c.keyspace, cfg.Expiration.Interval, cfg.TimeProvider, func(n int) {
			for i := 0; i < n; i++ {
				c.stats.recordExpired()
				c.cfg.MetricsCollector.RecordExpiration()
			}
		})
		c.janitor.start()
	}

	c.fallback = newFallbackRuntime(cfg.Fallback, int64(cfg.Expiration.Default))

	if err := ov.register(c); err != nil {
		c.Close()
		return nil, err
	}

	c.runWarmers()

	return c, nil
}

// Close stops this cache's background goroutines and unregisters it
// from the process-wide Overseer. It does not affect other caches.
func (c *Cache) Close() {
	if _, ov := engine(); ov != nil {
		ov.unregister(c.cfg.Name)
	}
	if c.txq != nil {
		c.txq.Close()
	}
	if c.janitor != nil {
		c.janitor.close()
	}
	if c.informant != nil {
		c.informant.close()
	}
}

// writeAllowed checks the Locksmith before a write proceeds, presenting
// owner as the calling identity. Direct (non-transactional) callers pass
// c.owner; a write issued from inside a Transaction's body passes the
// transaction queue's own owner token instead, so it is recognized as
// "the calling context is the transaction queue of that cache" per the
// write_allowed? rule and succeeds against its own locked keys.
func (c *Cache) writeAllowed(key, owner string) error {
	if !c.locksmith.isStarted() {
		return NewErrNotStarted(c.cfg.Name)
	}
	if !c.locksmith.WriteAllowed(c.cfg.Name, key, owner) {
		return NewErrLocked(c.cfg.Name, key)
	}
	return nil
}

// set is the internal write primitive shared by Set, the fallback
// commit path, and warmers. It does not go through the hook pipeline
// itself; callers that need notification wrap it in do().
func (c *Cache) set(key string, value interface{}, ttl int64) {
	c.keyspace.Insert(&Entry{Key: key, Value: value, Touched: c.now(), TTL: ttl})
}

// Get returns the value stored for key. On a miss, if the cache has a
// configured fallback, Get consults it exactly as Fetch does (using
// Config.Fallback.Provide as the loader state) instead of reporting
// WARDEN_KEY_NOT_FOUND: a read-through action falls through to the
// fallback runtime whether it arrives as get or as an explicit Fetch.
func (c *Cache) Get(key string) (interface{}, error) {
	started := c.now()
	result := c.do("get", []interface{}{key}, true, func() ActionResult {
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
		if c.fallback != nil {
			return c.populate(key, c.cfg.Fallback.Provide)
		}
		return missing()
	})
	c.cfg.MetricsCollector.RecordGet(c.now()-started, result.Tag == TagOK)
	if result.Tag == TagMissing {
		return nil, NewErrKeyNotFound(key)
	}
	if result.Tag == TagError {
		return nil, result.Err
	}
	return result.Value, nil
}

// Set stores value for key with an optional ttl (nanoseconds; 0 falls
// back to the cache's configured default, a negative value means "never
// expires").
func (c *Cache) Set(key string, value interface{}, ttl int64) error {
	return c.setAs(c.owner, key, value, ttl)
}

func (c *Cache) setAs(owner, key string, value interface{}, ttl int64) error {
	started := c.now()
	result := c.do("set", []interface{}{key, value, ttl}, true, func() ActionResult {
		if err := c.writeAllowed(key, owner); err != nil {
			return actionErr(err)
		}
		effectiveTTL := ttl
		if effectiveTTL == 0 {
			effectiveTTL = int64(c.cfg.Expiration.Default)
		} else if effectiveTTL < 0 {
			effectiveTTL = 0
		}
		c.set(key, value, effectiveTTL)
		return ok(value)
	})
	c.cfg.MetricsCollector.RecordSet(c.now() - started)
	if result.Tag == TagError {
		return result.Err
	}
	return nil
}

// Delete removes key, reporting whether it was present.
func (c *Cache) Delete(key string) (bool, error) {
	return c.deleteAs(c.owner, key)
}

func (c *Cache) deleteAs(owner, key string) (bool, error) {
	started := c.now()
	result := c.do("del", []interface{}{key}, true, func() ActionResult {
		if err := c.writeAllowed(key, owner); err != nil {
			return actionErr(err)
		}
		return ok(c.keyspace.Delete(key))
	})
	c.cfg.MetricsCollector.RecordDelete(c.now() - started)
	if result.Tag == TagError {
		return false, result.Err
	}
	return result.Value.(bool), nil
}

// Exists reports whether key currently has a live entry.
func (c *Cache) Exists(key string) bool {
	_, found, _ := c.keyspace.Lookup(key, c.now(), c.cfg.Expiration.Lazy)
	return found
}

// Count returns the number of entries currently stored, live or not.
func (c *Cache) Count() int { return c.keyspace.Count() }

// Size is an alias for Count, matching the action-surface name.
func (c *Cache) Size() int { return c.keyspace.Count() }

// Keys returns a sorted snapshot of every stored key.
func (c *Cache) Keys() []string { return c.keyspace.Keys() }

// Empty reports whether the cache currently holds no entries.
func (c *Cache) Empty() bool { return c.keyspace.Count() == 0 }

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() int {
	result := c.do("clear", nil, true, func() ActionResult {
		return ok(c.keyspace.Clear())
	})
	return result.Value.(int)
}

// Purge is an alias for Clear, matching the action-surface name; it also
// drops any negative-cache entries accumulated by the fallback runtime.
func (c *Cache) Purge() int {
	n := c.Clear()
	if c.fallback != nil {
		c.fallback.negative.Range(func(k, _ interface{}) bool {
			c.fallback.negative.Delete(k)
			return true
		})
	}
	return n
}

// Incr atomically adds amount to the numeric value stored at key,
// inserting initial+amount if key is absent. Returns WARDEN_NON_NUMERIC_VALUE
// if the stored value cannot be interpreted as an int64.
func (c *Cache) Incr(key string, amount, initial int64) (int64, error) {
	return c.addDeltaAs(c.owner, key, amount, initial)
}

// Decr is Incr with the sign of amount flipped.
func (c *Cache) Decr(key string, amount, initial int64) (int64, error) {
	return c.addDeltaAs(c.owner, key, -amount, initial)
}

func (c *Cache) addDeltaAs(owner, key string, delta, initial int64) (int64, error) {
	result := c.do("incr", []interface{}{key, delta, initial}, true, func() ActionResult {
		if err := c.writeAllowed(key, owner); err != nil {
			return actionErr(err)
		}
		var outErr error
		res, found := c.keyspace.ComputeIfPresent(key, func(e *Entry) (*Entry, interface{}) {
			n, ok := asInt64(e.Value)
			if !ok {
				outErr = NewErrNonNumericValue(key)
				return e, int64(0)
			}
			next := n + delta
			return &Entry{Key: key, Value: next, Touched: c.now(), TTL: e.TTL}, next
		})
		if outErr != nil {
			return actionErr(outErr)
		}
		if !found {
			next := initial + delta
			c.keyspace.Insert(&Entry{Key: key, Value: next, Touched: c.now(), TTL: int64(c.cfg.Expiration.Default)})
			return ok(next)
		}
		return ok(res)
	})
	if result.Tag == TagError {
		return 0, result.Err
	}
	return result.Value.(int64), nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// Update atomically replaces the value at key via updater's return
// value. Fails with WARDEN_KEY_NOT_FOUND if key is absent.
func (c *Cache) Update(key string, updater func(old interface{}) interface{}) (interface{}, error) {
	return c.updateAs(c.owner, key, updater)
}

func (c *Cache) updateAs(owner, key string, updater func(old interface{}) interface{}) (interface{}, error) {
	result := c.do("update", []interface{}{key}, true, func() ActionResult {
		if err := c.writeAllowed(key, owner); err != nil {
			return actionErr(err)
		}
		res, found := c.keyspace.ComputeIfPresent(key, func(e *Entry) (*Entry, interface{}) {
			next := updater(e.Value)
			return &Entry{Key: key, Value: next, Touched: c.now(), TTL: e.TTL}, next
		})
		if !found {
			return missing()
		}
		return ok(res)
	})
	if result.Tag == TagMissing {
		return nil, NewErrKeyNotFound(key)
	}
	if result.Tag == TagError {
		return nil, result.Err
	}
	return result.Value, nil
}

// Take atomically reads and removes key in one step.
func (c *Cache) Take(key string) (interface{}, error) {
	return c.takeAs(c.owner, key)
}

func (c *Cache) takeAs(owner, key string) (interface{}, error) {
	result := c.do("take", []interface{}{key}, true, func() ActionResult {
		if err := c.writeAllowed(key, owner); err != nil {
			return actionErr(err)
		}
		res, found := c.keyspace.ComputeIfPresent(key, func(e *Entry) (*Entry, interface{}) {
			return nil, e.Value
		})
		if !found {
			return missing()
		}
		return ok(res)
	})
	if result.Tag == TagMissing {
		return nil, NewErrKeyNotFound(key)
	}
	if result.Tag == TagError {
		return nil, result.Err
	}
	return result.Value, nil
}

// TTL returns the remaining time-to-live for key in nanoseconds, or 0 if
// the entry never expires.
func (c *Cache) TTL(key string) (int64, error) {
	e, found := c.keyspace.Peek(key)
	if !found {
		return 0, NewErrKeyNotFound(key)
	}
	if e.TTL <= 0 {
		return 0, nil
	}
	remaining := e.Touched + e.TTL - c.now()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Expire sets a new relative ttl (nanoseconds) on an existing key.
func (c *Cache) Expire(key string, ttl int64) error {
	return c.setTTLFieldAs(c.owner, key, func(e *Entry) { e.TTL = ttl; e.Touched = c.now() })
}

// ExpireAt sets an absolute expiration timestamp (nanoseconds since
// epoch) on an existing key.
func (c *Cache) ExpireAt(key string, at int64) error {
	now := c.now()
	return c.setTTLFieldAs(c.owner, key, func(e *Entry) { e.Touched = now; e.TTL = at - now })
}

// Persist removes any TTL from key, making it never expire.
func (c *Cache) Persist(key string) error {
	return c.setTTLFieldAs(c.owner, key, func(e *Entry) { e.TTL = 0 })
}

// Refresh resets key's touched timestamp to now without changing its
// TTL duration, extending its effective expiration.
func (c *Cache) Refresh(key string) error {
	return c.setTTLFieldAs(c.owner, key, func(e *Entry) { e.Touched = c.now() })
}

// Touch is an alias for Refresh, matching the action-surface name.
func (c *Cache) Touch(key string) error { return c.Refresh(key) }

func (c *Cache) setTTLFieldAs(owner, key string, mutate func(e *Entry)) error {
	result := c.do("expire", []interface{}{key}, true, func() ActionResult {
		if err := c.writeAllowed(key, owner); err != nil {
			return actionErr(err)
		}
		found := c.keyspace.UpdateFields(key, func(e *Entry) *Entry {
			cp := *e
			mutate(&cp)
			return &cp
		})
		if !found {
			return missing()
		}
		return ok(nil)
	})
	if result.Tag == TagMissing {
		return NewErrKeyNotFound(key)
	}
	return result.Err
}

// Transaction locks keys, runs fn under those locks, then unlocks them.
// fn receives a Tx presenting the transaction queue's own owner identity,
// so writes to the very keys this call locked go through the normal
// Set/Delete/etc. surface instead of reaching for unexported helpers.
// Requires the cache to have been constructed with Transactional: true.
func (c *Cache) Transaction(keys []string, fn func(tx *Tx) (interface{}, error)) (interface{}, error) {
	if c.txq == nil {
		return nil, NewErrInvalidOption("transactional", "cache was not constructed with Transactional: true")
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	c.stats.recordTx()
	started := c.now()
	tx := &Tx{c: c, owner: c.txq.owner}
	v, err := c.txq.Transaction(sorted, func() (interface{}, error) { return fn(tx) })
	c.cfg.MetricsCollector.RecordTransaction(c.now()-started, err == nil)
	return v, err
}

// Tx is the write surface handed to a Transaction body. It mirrors
// Cache's action methods but presents the owning transaction queue's
// identity to the Locksmith instead of the cache's direct-write identity,
// so a write to one of the keys this transaction locked is recognized as
// coming from "the transaction queue of that cache" and succeeds instead
// of failing with WARDEN_LOCKED.
type Tx struct {
	c     *Cache
	owner string
}

// Get reads through the owning cache; reads never consult the Locksmith.
func (tx *Tx) Get(key string) (interface{}, error) { return tx.c.Get(key) }

// Exists reads through the owning cache.
func (tx *Tx) Exists(key string) bool { return tx.c.Exists(key) }

// Set stores value for key, presenting this transaction's owner identity.
func (tx *Tx) Set(key string, value interface{}, ttl int64) error {
	return tx.c.setAs(tx.owner, key, value, ttl)
}

// Delete removes key, presenting this transaction's owner identity.
func (tx *Tx) Delete(key string) (bool, error) {
	return tx.c.deleteAs(tx.owner, key)
}

// Incr atomically adds amount to key's numeric value.
func (tx *Tx) Incr(key string, amount, initial int64) (int64, error) {
	return tx.c.addDeltaAs(tx.owner, key, amount, initial)
}

// Decr is Incr with the sign of amount flipped.
func (tx *Tx) Decr(key string, amount, initial int64) (int64, error) {
	return tx.c.addDeltaAs(tx.owner, key, -amount, initial)
}

// Update atomically replaces the value at key via updater's return value.
func (tx *Tx) Update(key string, updater func(old interface{}) interface{}) (interface{}, error) {
	return tx.c.updateAs(tx.owner, key, updater)
}

// Take atomically reads and removes key in one step.
func (tx *Tx) Take(key string) (interface{}, error) {
	return tx.c.takeAs(tx.owner, key)
}

// Expire sets a new relative ttl (nanoseconds) on an existing key.
func (tx *Tx) Expire(key string, ttl int64) error {
	return tx.c.setTTLFieldAs(tx.owner, key, func(e *Entry) { e.TTL = ttl; e.Touched = tx.c.now() })
}

// ExpireAt sets an absolute expiration timestamp on an existing key.
func (tx *Tx) ExpireAt(key string, at int64) error {
	now := tx.c.now()
	return tx.c.setTTLFieldAs(tx.owner, key, func(e *Entry) { e.Touched = now; e.TTL = at - now })
}

// Persist removes any TTL from key, making it never expire.
func (tx *Tx) Persist(key string) error {
	return tx.c.setTTLFieldAs(tx.owner, key, func(e *Entry) { e.TTL = 0 })
}

// Refresh resets key's touched timestamp to now without changing its TTL
// duration.
func (tx *Tx) Refresh(key string) error {
	return tx.c.setTTLFieldAs(tx.owner, key, func(e *Entry) { e.Touched = tx.c.now() })
}

// Touch is an alias for Refresh, matching the action-surface name.
func (tx *Tx) Touch(key string) error { return tx.Refresh(key) }

// Execute runs fn inside this cache's transaction queue with no key
// locks taken, useful for a short critical section that doesn't need
// multi-key coordination but must still be serialized with transactions.
// On a cache constructed without Transactional: true there is no queue,
// and fn runs directly on the calling goroutine.
func (c *Cache) Execute(fn func() (interface{}, error)) (interface{}, error) {
	if c.txq == nil {
		return fn()
	}
	return c.txq.Exec(fn)
}

// ResetTarget names what a Reset call clears: registered hooks, or the
// keyspace (equivalent to Clear), or both.
type ResetTarget struct {
	Hooks bool
	Cache bool
}

// Reset reinitializes the targets named by t. Resetting hooks re-invokes
// every registered hook instance's reset handler (see informant.go);
// resetting the cache clears the keyspace.
func (c *Cache) Reset(t ResetTarget, args interface{}) {
	if t.Hooks {
		c.informant.reset(args)
	}
	if t.Cache {
		c.keyspace.Clear()
	}
}
