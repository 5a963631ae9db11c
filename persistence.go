// persistence.go: dump/load snapshot format
//
// No example repo in the reference pack ships a cache persistence layer,
// so this is built on encoding/gob directly (see DESIGN.md for why no
// pack library fits): a version byte followed by a gob-encoded slice of
// wire entries. The version byte lets a future format change refuse to
// load an incompatible file instead of silently corrupting state.
package warden

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"io"
	"os"
)

// gob requires every concrete type that will travel behind an
// interface{} field to be registered up front; these cover the common
// JSON-like value shapes callers store. Applications storing other
// concrete types in a cache they intend to Dump must register those
// types themselves before calling Dump or Load.
func init() {
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register([]byte(nil))
	gob.Register([]interface{}(nil))
	gob.Register(map[string]interface{}(nil))
}

// wireEntry is the persisted shape of an Entry. Touched is rebased to a
// TTL-remaining value at dump time so a snapshot loaded later restores
// the same relative expiration instead of an absolute timestamp that may
// already be in the past.
type wireEntry struct {
	Key          string
	Value        interface{}
	TTLRemaining int64 // nanoseconds remaining at dump time, 0 = no TTL
}

// Dump writes every live entry in the cache to w in the framed gob
// format described above.
func (c *Cache) Dump(w io.Writer) error {
	now := c.now()
	live := c.keyspace.Select(now, func(touched, ttl int64) bool {
		return ttl <= 0 || touched+ttl > now
	})

	entries := make([]wireEntry, 0, len(live))
	for _, e := range live {
		remaining := int64(0)
		if e.TTL > 0 {
			remaining = e.Touched + e.TTL - now
			if remaining <= 0 {
				continue
			}
		}
		entries = append(entries, wireEntry{Key: e.Key, Value: e.Value, TTLRemaining: remaining})
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write([]byte{dumpFormatVersion}); err != nil {
		return NewErrUnreachableFile(c.cfg.Name, err)
	}
	if err := gob.NewEncoder(bw).Encode(entries); err != nil {
		return NewErrCorruptedData(c.cfg.Name, err.Error())
	}
	if err := bw.Flush(); err != nil {
		return NewErrUnreachableFile(c.cfg.Name, err)
	}
	return nil
}

// Load merges the snapshot read from r into the cache's existing
// contents, without clearing first; call Clear beforehand for a
// replace-everything load. A corrupt or version-mismatched snapshot
// leaves the cache untouched and returns WARDEN_CORRUPTED_DATA.
func (c *Cache) Load(r io.Reader) error {
	var header [1]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return NewErrUnreachableFile(c.cfg.Name, err)
	}
	if header[0] != dumpFormatVersion {
		return NewErrCorruptedData(c.cfg.Name, "unsupported format version")
	}

	var entries []wireEntry
	if err := gob.NewDecoder(r).Decode(&entries); err != nil {
		return NewErrCorruptedData(c.cfg.Name, err.Error())
	}

	now := c.now()
	for _, we := range entries {
		c.keyspace.Insert(&Entry{Key: we.Key, Value: we.Value, Touched: now, TTL: we.TTLRemaining})
	}
	return nil
}

// DumpFile and LoadFile are convenience wrappers around Dump/Load for the
// common case of a plain filesystem path.
func (c *Cache) DumpFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return NewErrUnreachableFile(path, err)
	}
	defer f.Close()
	return c.Dump(f)
}

func (c *Cache) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewErrUnreachableFile(path, err)
	}
	return c.Load(bytes.NewReader(data))
}
