// config.go: cache configuration records
//
// Config is the validated record the rest of the engine operates on. It
// is read-mostly once a cache is started; the Overseer mediates every
// subsequent compare-and-swap update (see overseer.go).
package warden

import "time"

// CommandKind distinguishes read commands (never take the Locksmith)
// from write commands (routed through the per-cache transaction queue
// when the cache was constructed with Transactional: true, and run
// directly otherwise).
type CommandKind int

const (
	CommandRead CommandKind = iota
	CommandWrite
)

// Command is a user-defined, by-name-invoked operation. Execute receives
// the owning cache so it can perform further keyspace operations, plus
// whatever positional args the caller passed to Invoke.
type Command struct {
	Name    string
	Type    CommandKind
	Execute func(c *Cache, key string, args ...interface{}) (interface{}, error)
}

// ExpirationOptions configures TTL defaulting and the Janitor.
type ExpirationOptions struct {
	// Default is applied to writes that don't specify their own TTL.
	// Zero means "no default expiration".
	Default time.Duration

	// Interval is how often the Janitor sweeps for expired entries. Zero
	// disables the Janitor entirely; the cache then relies solely on lazy
	// (purge-on-read) expiration.
	Interval time.Duration

	// Lazy enables purge-on-read. DefaultConfig turns it on; Validate
	// leaves an explicit false as it is.
	Lazy bool
}

// FallbackFunc populates a value on a read-through miss. state is
// whatever FallbackOptions.Provide was configured with, or nil.
type FallbackFunc func(ctx FallbackContext, key string, state interface{}) FetchResult

// FallbackOptions configures on-miss population for Get and Fetch.
type FallbackOptions struct {
	Default FallbackFunc
	Provide interface{}
}

// HookType distinguishes pre-action observers (which may short-circuit
// the action) from post-action observers (which only observe the
// result).
type HookType int

const (
	HookPre HookType = iota
	HookPost
)

// HookFunc is the body of a registered observer. For pre-hooks, a
// non-nil returned *ActionResult short-circuits the action with that
// result. For post-hooks the return value is ignored.
type HookFunc func(n Notification, result *ActionResult) *ActionResult

// HookDescriptor describes one registered observer.
type HookDescriptor struct {
	Module     string
	Type       HookType
	Async      bool
	Timeout    time.Duration
	MaxTimeout time.Duration
	Provisions []string
	Args       interface{}
	Fn         HookFunc
}

// HookOptions groups the pre/post hook descriptor lists of a cache
// config.
type HookOptions struct {
	Pre  []HookDescriptor
	Post []HookDescriptor
}

// LimitOptions bounds cache size and selects the eviction policy.
type LimitOptions struct {
	// Size is the soft bound the policy reacts to. Zero disables size
	// enforcement.
	Size int

	// Policy constructs the eviction policy hooks. Defaults to NewLRWPolicy
	// when nil and Size > 0.
	Policy Policy

	// Reclaim is the fraction of Size evicted once the bound is crossed.
	// Defaults to DefaultReclaimRatio.
	Reclaim float64

	// Options carries policy-specific tuning (e.g. trigger ratio, wake
	// batch) that a custom Policy implementation may interpret.
	Options map[string]interface{}
}

// Warmer pre-populates a cache at start time.
type Warmer struct {
	Module string
	Async  bool
	State  interface{}
	Run    func(c *Cache, state interface{}) (map[string]interface{}, error)
}

// Config is the full validated cache configuration record.
type Config struct {
	Name string

	Commands []Command

	Expiration ExpirationOptions
	Fallback   FallbackOptions
	Hooks      HookOptions
	Limit      LimitOptions
	Warmers    []Warmer

	// Transactional enables the per-cache transaction queue. Even when
	// false, Locksmith.WriteAllowed still gates writes against any
	// in-flight transaction — it only disables the dedicated queue
	// goroutine when a cache is known never to need one.
	Transactional bool

	// ConfigPath, when set, is watched by the Overseer for hot-reloadable
	// fields (currently Expiration.Default and Limit.Size) via argus.
	ConfigPath string

	Logger           Logger
	TimeProvider     TimeProvider
	MetricsCollector MetricsCollector

	ShardCount int

	// DisableStats turns off the always-on counters Stats() reports,
	// for callers who want to avoid the bookkeeping cost entirely.
	DisableStats bool
}

// Validate normalizes a Config in place, applying defaults. It never
// fails: rejecting a malformed option record is the caller's
// responsibility before construction, not Validate's.
func (c *Config) Validate() error {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.ShardCount <= 0 {
		c.ShardCount = DefaultShardCount
	}
	if c.Expiration.Interval < 0 {
		c.Expiration.Interval = 0
	}
	// Lazy has no "unset" state distinct from false: whoever turns it on
	// does so in DefaultConfig, and an explicit false set by the caller
	// here must survive unchanged.
	if c.Limit.Size > 0 {
		if c.Limit.Reclaim <= 0 || c.Limit.Reclaim > 1 {
			c.Limit.Reclaim = DefaultReclaimRatio
		}
		if c.Limit.Policy == nil {
			c.Limit.Policy = NewLRWPolicy()
		}
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig(name string) Config {
	cfg := Config{
		Name:             name,
		ShardCount:       DefaultShardCount,
		Logger:           NoOpLogger{},
		TimeProvider:     systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
	cfg.Expiration.Lazy = true
	return cfg
}

// clone returns a value copy of the Config suitable for handing to a
// provisioned hook; slices are shared (descriptors are read-only after
// validation) but the struct itself is independent.
func (c Config) clone() Config {
	return c
}
