// interfaces.go: small capability interfaces shared across the engine
package warden

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Logger defines a minimal structured logging interface. Implementations
// should be allocation-free on the hot path.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards everything. Used as the default so callers never
// need a nil check.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider supplies the current time in nanoseconds since epoch. It
// exists so tests and latency-sensitive callers can inject a cheaper or
// deterministic clock.
type TimeProvider interface {
	Now() int64
}

// systemTimeProvider is the default TimeProvider, backed by go-timecache's
// cached clock read instead of a syscall-backed time.Now() on every call.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}

// MetricsCollector receives operation-level observability events. All
// methods must be safe for concurrent use and must not block the caller.
type MetricsCollector interface {
	RecordGet(latencyNanos int64, hit bool)
	RecordSet(latencyNanos int64)
	RecordDelete(latencyNanos int64)
	RecordEviction()
	RecordExpiration()
	RecordHookFault(hookName string)
	RecordTransaction(latencyNanos int64, ok bool)
}

// NoOpMetricsCollector discards every event. Default when
// Config.MetricsCollector is nil, so the engine never has to nil-check a collector on the hot
// path.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordGet(int64, bool)       {}
func (NoOpMetricsCollector) RecordSet(int64)             {}
func (NoOpMetricsCollector) RecordDelete(int64)          {}
func (NoOpMetricsCollector) RecordEviction()             {}
func (NoOpMetricsCollector) RecordExpiration()           {}
func (NoOpMetricsCollector) RecordHookFault(string)      {}
func (NoOpMetricsCollector) RecordTransaction(int64, bool) {}

// Policy is the eviction-policy capability set. A policy observes writes
// through the hooks it installs and reacts when the cache's size bound
// is exceeded.
type Policy interface {
	// Hooks returns the post-hooks this policy wants installed for c,
	// configured with the given limit. Implementations may close over c
	// directly since a Policy is bound to exactly one Cache for its
	// lifetime.
	Hooks(c *Cache, limit LimitOptions) []HookDescriptor

	// Strategy names the policy, for inspection/diagnostics.
	Strategy() string
}

// clockDuration is a tiny helper so call sites read naturally when
// converting a TimeProvider reading into a time.Duration for logging.
func clockDuration(nanos int64) time.Duration {
	return time.Duration(nanos)
}
