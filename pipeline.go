// pipeline.go: the uniform action contract (pre-hook -> op -> post-hook)
//
// The hook-notified Cache actions (get, set, del, clear, incr, update,
// take, the expire family, fetch and invoke) funnel through (*Cache).do,
// which gives the pre-hook -> op -> post-hook shape a single reusable
// implementation instead of duplicating it per method. Metrics are
// recorded by the calling methods, not by do, and read-only helpers such
// as Exists, Count, Keys and TTL do not go through it.
package warden

// Tag is the outcome discriminator of an ActionResult.
type Tag string

const (
	TagOK      Tag = "ok"
	TagError   Tag = "error"
	TagMissing Tag = "missing"
	TagCommit  Tag = "commit"
	TagIgnore  Tag = "ignore"
)

// ActionResult is the tagged pair every action returns.
type ActionResult struct {
	Tag   Tag
	Value interface{}
	Err   error
}

func ok(v interface{}) ActionResult      { return ActionResult{Tag: TagOK, Value: v} }
func missing() ActionResult              { return ActionResult{Tag: TagMissing} }
func actionErr(err error) ActionResult   { return ActionResult{Tag: TagError, Err: err, Value: err} }

// FetchResult is the three-way outcome of a fallback invocation: commit,
// ignore, or error.
type FetchResult struct {
	Tag   Tag
	Value interface{}
	Err   error
}

// Commit builds a FetchResult that tells the engine to persist Value.
func Commit(v interface{}) FetchResult { return FetchResult{Tag: TagCommit, Value: v} }

// Ignore builds a FetchResult that returns Value without storing it.
func Ignore(v interface{}) FetchResult { return FetchResult{Tag: TagIgnore, Value: v} }

// FetchError builds a FetchResult that propagates err.
func FetchError(err error) FetchResult { return FetchResult{Tag: TagError, Err: err} }

// Notification is what hooks receive: the action name and its arguments,
// with any trailing options record stripped.
type Notification struct {
	Action string
	Args   []interface{}
}

// do is the central action dispatcher. fn performs the actual keyspace /
// locksmith work and returns the action's ActionResult; do wraps it with
// pre- and post-hook dispatch only. Lazy-expiration bookkeeping is the
// responsibility of fn itself (via Keyspace.Lookup), and metrics are
// recorded by the calling method.
func (c *Cache) do(name string, args []interface{}, notify bool, fn func() ActionResult) ActionResult {
	n := Notification{Action: name, Args: args}

	if notify {
		if short := c.informant.dispatchPre(n); short != nil {
			return *short
		}
	}

	result := fn()

	if notify {
		c.informant.dispatchPost(n, result)
	}

	return result
}

// emitSynthetic dispatches a post-hook notification for an action the
// cache performed on its own behalf (e.g. the lazy "purge" notification
// requires), without running through the pre-hook stage.
func (c *Cache) emitSynthetic(name string, args []interface{}, result ActionResult) {
	c.informant.dispatchPost(Notification{Action: name, Args: args}, result)
}

// now is a small convenience wrapping the cache's TimeProvider.
func (c *Cache) now() int64 { return c.cfg.TimeProvider.Now() }
