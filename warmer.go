// warmer.go: startup pre-population
//
// Runs each configured Warmer once at cache construction, synchronously
// unless Async is set, reusing the same panic-recovery shape as
// fallback.go's runFallback.
package warden

// runWarmers executes every configured warmer against the freshly built
// cache. Synchronous warmers block construction; async warmers are
// launched as goroutines and their failures are only visible through the
// logger and metrics, since there is no caller left to return an error
// to by the time they finish.
func (c *Cache) runWarmers() {
	for _, w := range c.cfg.Warmers {
		w := w
		if w.Async {
			go c.runWarmer(w)
			continue
		}
		c.runWarmer(w)
	}
}

func (c *Cache) runWarmer(w Warmer) {
	entries, err := c.invokeWarmer(w)
	if err != nil {
		c.cfg.Logger.Error("warmer failed", "module", w.Module, "error", err)
		c.cfg.MetricsCollector.RecordHookFault("warmer:" + w.Module)
		return
	}
	for key, value := range entries {
		c.set(key, value, int64(c.cfg.Expiration.Default))
	}
}

func (c *Cache) invokeWarmer(w Warmer) (entries map[string]interface{}, err error) {
	if w.Run == nil {
		return nil, NewErrInvalidWarmer(w.Module, "run function is nil")
	}
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered("warmer:"+w.Module, r)
		}
	}()
	return w.Run(c, w.State)
}
