// engine.go: process-wide singletons every Cache registers with
package warden

import "sync"

var (
	engineOnce sync.Once
	locksmith  *Locksmith
	overseer   *Overseer
)

func engine() (*Locksmith, *Overseer) {
	engineOnce.Do(func() {
		locksmith = newLocksmith()
		overseer = newOverseer()
	})
	return locksmith, overseer
}

// StartEngine brings up the process-wide Locksmith and Overseer. It is
// safe to call multiple times: a call while the engine is already started
// changes nothing, and a call after StopEngine starts it again (the
// Overseer has no analogous state).
func StartEngine() {
	ls, _ := engine()
	ls.start()
}

// StopEngine halts the process-wide Locksmith, releasing every held lock
// and rejecting new locked operations until StartEngine runs again. It
// does not stop any individual Cache; call Cache.Close for that.
func StopEngine() {
	ls, _ := engine()
	ls.stop()
}

// EngineStarted reports whether StartEngine has run and StopEngine has
// not since.
func EngineStarted() bool {
	ls, _ := engine()
	return ls.isStarted()
}
