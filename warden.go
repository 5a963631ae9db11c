// warden.go: package-level constants and defaults
package warden

const (
	// Version of the warden cache engine.
	Version = "v0.1.0-dev"

	// DefaultShardCount is the number of shards the keyspace table splits
	// its keyspace across. Must be a power of two.
	DefaultShardCount = 32

	// DefaultReclaimRatio is the fraction of entries the LRW policy evicts
	// once the size bound is exceeded.
	DefaultReclaimRatio = 0.1

	// DefaultPolicyTriggerRatio is the occupancy ratio (relative to
	// limit.size) above which the policy reacts. 1.0 means "act only once
	// over the bound".
	DefaultPolicyTriggerRatio = 1.0

	// DefaultPolicyWakeBatch bounds how many entries a single policy
	// reaction bulk-selects before deleting, to keep individual reactions
	// cheap under sustained overshoot.
	DefaultPolicyWakeBatch = 500

	// DefaultHookTimeout is 0 and is not read by the hook runtime: a
	// synchronous hook with no Timeout of its own waits up to 5 seconds
	// for its reply (see Informant.deliver).
	DefaultHookTimeout = 0

	// dumpFormatVersion is written into the Dump header so Load can
	// reject snapshots produced by an incompatible layout.
	dumpFormatVersion = uint8(1)
)
