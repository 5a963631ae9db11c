// generic.go: type-safe wrapper over Cache
package warden

import (
	"fmt"
	"strconv"
)

// GenericCache provides a type-safe view over Cache. K must be
// comparable; it is converted to a string key the same way for every
// call so a GenericCache and its underlying Cache can be used
// interchangeably on the same keys.
type GenericCache[K comparable, V any] struct {
	inner *Cache
}

// NewGenericCache wraps an existing Cache. The Cache must already be
// constructed via New.
func NewGenericCache[K comparable, V any](c *Cache) *GenericCache[K, V] {
	return &GenericCache[K, V]{inner: c}
}

// Set stores value for key with an optional ttl (nanoseconds).
func (g *GenericCache[K, V]) Set(key K, value V, ttl int64) error {
	return g.inner.Set(keyToString(key), value, ttl)
}

// Get retrieves the value stored for key. found is false on a miss or a
// type mismatch between the stored value and V.
func (g *GenericCache[K, V]) Get(key K) (value V, found bool) {
	v, err := g.inner.Get(keyToString(key))
	if err != nil {
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		var zero V
		return zero, false
	}
	return typed, true
}

// Delete removes key, reporting whether it was present.
func (g *GenericCache[K, V]) Delete(key K) (bool, error) {
	return g.inner.Delete(keyToString(key))
}

// Has reports whether key currently has a live entry.
func (g *GenericCache[K, V]) Has(key K) bool {
	return g.inner.Exists(keyToString(key))
}

// Clear removes every entry and returns how many were removed.
func (g *GenericCache[K, V]) Clear() int { return g.inner.Clear() }

// Stats returns the wrapped cache's current counters.
func (g *GenericCache[K, V]) Stats() (CacheStats, error) { return g.inner.Stats() }

// Close stops the wrapped cache's background goroutines.
func (g *GenericCache[K, V]) Close() { g.inner.Close() }

// Fetch is the generic version of Cache.Fetch, type-asserting the
// result back to V.
func (g *GenericCache[K, V]) Fetch(key K, state interface{}) (V, error) {
	var zero V
	result, err := g.inner.Fetch(keyToString(key), state)
	if err != nil {
		return zero, err
	}
	value, ok := result.(V)
	if !ok {
		return zero, NewErrInternal("fetch", nil)
	}
	return value, nil
}

// keyToString converts a comparable key to the string key Cache stores
// entries under, avoiding an allocation for the common integer and
// string cases.
func keyToString[K comparable](key K) string {
	switch v := any(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprintf("%v", key)
	}
}
