// inspect.go: internal diagnostics surface
package warden

import "fmt"

// CacheStats is the snapshot returned by Cache.Stats.
type CacheStats struct {
	Count        int
	SizeBytes    int64
	Hits         int64
	Misses       int64
	Evictions    int64
	Expired      int64
	Transactions int64
}

// Inspect answers a diagnostic query. Supported targets: "expired"
// (count or keys, via arg "count"/"keys"), "janitor" (arg "last"),
// "memory" (arg "bytes"/"binary"/"words"), "record" (arg is the key),
// and "state".
func (c *Cache) Inspect(target string, arg interface{}) (interface{}, error) {
	switch target {
	case "expired":
		now := c.now()
		expired := c.keyspace.Select(now, func(touched, ttl int64) bool {
			return ttl > 0 && touched+ttl < now
		})
		if arg == "keys" {
			keys := make([]string, len(expired))
			for i, e := range expired {
				keys[i] = e.Key
			}
			return keys, nil
		}
		return len(expired), nil

	case "janitor":
		stats, enabled := c.janitor.stats()
		if !enabled {
			return nil, NewErrJanitorDisabled(c.cfg.Name)
		}
		return stats, nil

	case "memory":
		bytes := c.keyspace.SizeBytes()
		switch arg {
		case "binary":
			return fmt.Sprintf("%.2fKiB", float64(bytes)/1024), nil
		case "words":
			return bytes / 8, nil
		default:
			return bytes, nil
		}

	case "record":
		key, _ := arg.(string)
		e, found := c.keyspace.Peek(key)
		if !found {
			return nil, NewErrKeyNotFound(key)
		}
		return e, nil

	case "state":
		return c.stateSnapshot(), nil

	default:
		return nil, NewErrInvalidOption("target", target)
	}
}

type stateView struct {
	Name          string
	Count         int
	Transactional bool
	Locked        bool
}

func (c *Cache) stateSnapshot() stateView {
	return stateView{
		Name:          c.cfg.Name,
		Count:         c.keyspace.Count(),
		Transactional: c.cfg.Transactional,
		Locked:        !c.locksmith.isStarted(),
	}
}
