// overseer.go: the process-wide cache registry and hot-reload watcher
//
// One Overseer instance tracks every running cache in the process, keyed
// by cache name, and serializes config updates per name while starting
// at most one file watcher per cache.
package warden

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

type overseerEntry struct {
	cache   *Cache
	mu      sync.Mutex // serializes Update calls against this one cache
	watcher *argus.Watcher
}

// Overseer is the process-wide registry every started Cache registers
// itself with. It exists as a package-level singleton (see engine.go)
// because file-watch hot-reload and cross-cache coordination are both
// process-scoped concerns, not per-cache ones.
type Overseer struct {
	mu      sync.RWMutex
	entries map[string]*overseerEntry
}

func newOverseer() *Overseer {
	return &Overseer{entries: make(map[string]*overseerEntry)}
}

// register adds c to the registry under its configured name, starting an
// argus watcher when ConfigPath is set. It returns an error if the name
// is already taken.
func (o *Overseer) register(c *Cache) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.entries[c.cfg.Name]; exists {
		return NewErrInvalidName(c.cfg.Name)
	}
	entry := &overseerEntry{cache: c}
	o.entries[c.cfg.Name] = entry

	if c.cfg.ConfigPath != "" {
		watcher, err := argus.UniversalConfigWatcherWithConfig(
			c.cfg.ConfigPath,
			func(data map[string]interface{}) { o.handleFileChange(c.cfg.Name, data) },
			argus.Config{PollInterval: time.Second},
		)
		if err != nil {
			delete(o.entries, c.cfg.Name)
			return err
		}
		if err := watcher.Start(); err != nil {
			delete(o.entries, c.cfg.Name)
			return err
		}
		entry.watcher = watcher
	}
	return nil
}

// unregister removes name from the registry, stopping its watcher if any.
func (o *Overseer) unregister(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.entries[name]
	if !ok {
		return
	}
	if entry.watcher != nil {
		_ = entry.watcher.Stop()
	}
	delete(o.entries, name)
}

// lookup returns the registered cache for name, if any.
func (o *Overseer) lookup(name string) (*Cache, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entry, ok := o.entries[name]
	if !ok {
		return nil, false
	}
	return entry.cache, true
}

// Update atomically replaces a subset of a named cache's hot-reloadable
// fields: Expiration.Default and Limit.Size. Concurrent updates to the
// same name are serialized by the entry's own mutex; updates to
// different caches proceed independently. Fields outside the
// hot-reloadable set are ignored rather than rejected.
func (o *Overseer) Update(name string, mutate func(cfg *Config)) error {
	o.mu.RLock()
	entry, ok := o.entries[name]
	o.mu.RUnlock()
	if !ok {
		return NewErrNoCache(name)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.cache.mu.Lock()
	next := entry.cache.cfg.clone()
	mutate(&next)
	// Only the documented hot-reloadable fields take effect; everything
	// else in next is discarded in favor of the running config.
	entry.cache.cfg.Expiration.Default = next.Expiration.Default
	entry.cache.cfg.Limit.Size = next.Limit.Size
	updated := entry.cache.cfg.clone()
	entry.cache.mu.Unlock()

	entry.cache.informant.provision(updated)
	return nil
}

// handleFileChange is the argus callback: it decodes the documented
// {expiration, limit} keys out of the raw file data and funnels them
// through Update so file-driven and programmatic updates share the same
// serialization and provisioning path.
func (o *Overseer) handleFileChange(name string, data map[string]interface{}) {
	_ = o.Update(name, func(cfg *Config) {
		if section, ok := data["expiration"].(map[string]interface{}); ok {
			if d, ok := parseDurationField(section["default"]); ok {
				cfg.Expiration.Default = d
			}
		}
		if section, ok := data["limit"].(map[string]interface{}); ok {
			if size, ok := parsePositiveIntField(section["size"]); ok {
				cfg.Limit.Size = size
			}
		}
	})
}

func parseDurationField(v interface{}) (time.Duration, bool) {
	switch x := v.(type) {
	case string:
		d, err := time.ParseDuration(x)
		return d, err == nil
	case float64:
		return time.Duration(x), true
	default:
		return 0, false
	}
}

func parsePositiveIntField(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, x > 0
	case float64:
		return int(x), x > 0
	default:
		return 0, false
	}
}

func (o *Overseer) String() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return fmt.Sprintf("overseer(%d caches)", len(o.entries))
}
