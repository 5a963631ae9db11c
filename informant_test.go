package warden

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestInformantDispatchPostObserves(t *testing.T) {
	var seen int32
	d := HookDescriptor{
		Module: "test:observe",
		Type:   HookPost,
		Async:  false,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			atomic.AddInt32(&seen, 1)
			return nil
		},
	}
	inf := newInformant(HookOptions{Post: []HookDescriptor{d}}, NoOpMetricsCollector{})
	defer inf.close()

	inf.dispatchPost(Notification{Action: "set"}, ok("v"))
	if atomic.LoadInt32(&seen) != 1 {
		t.Fatalf("expected post hook to observe once, got %d", seen)
	}
}

func TestInformantDispatchPreShortCircuit(t *testing.T) {
	d := HookDescriptor{
		Module: "test:shortcircuit",
		Type:   HookPre,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			r := ok("short-circuited")
			return &r
		},
	}
	inf := newInformant(HookOptions{Pre: []HookDescriptor{d}}, NoOpMetricsCollector{})
	defer inf.close()

	short := inf.dispatchPre(Notification{Action: "get"})
	if short == nil || short.Value != "short-circuited" {
		t.Fatalf("expected short-circuit result, got %v", short)
	}
}

func TestInformantDispatchPreFirstNonNilWins(t *testing.T) {
	var secondCalled int32
	first := HookDescriptor{
		Module: "first",
		Type:   HookPre,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			r := ok("first")
			return &r
		},
	}
	second := HookDescriptor{
		Module: "second",
		Type:   HookPre,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			atomic.AddInt32(&secondCalled, 1)
			return nil
		},
	}
	inf := newInformant(HookOptions{Pre: []HookDescriptor{first, second}}, NoOpMetricsCollector{})
	defer inf.close()

	short := inf.dispatchPre(Notification{Action: "get"})
	if short == nil || short.Value != "first" {
		t.Fatalf("expected first hook's result, got %v", short)
	}
	if atomic.LoadInt32(&secondCalled) != 1 {
		t.Fatal("expected second hook to still be dispatched to")
	}
}

func TestObserverPanicRecoveredAsFault(t *testing.T) {
	faults := &countingMetrics{}
	d := HookDescriptor{
		Module: "test:panic",
		Type:   HookPost,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			panic("boom")
		},
	}
	inf := newInformant(HookOptions{Post: []HookDescriptor{d}}, faults)
	defer inf.close()

	inf.dispatchPost(Notification{Action: "set"}, ok("v"))
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&faults.hookFaults) == 0 {
		t.Fatal("expected a hook fault to be recorded after a panicking hook")
	}
}

func TestInformantAsyncMailboxFullDrops(t *testing.T) {
	block := make(chan struct{})
	faults := &countingMetrics{}
	d := HookDescriptor{
		Module: "test:slow",
		Type:   HookPost,
		Async:  true,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			<-block
			return nil
		},
	}
	inf := newInformant(HookOptions{Post: []HookDescriptor{d}}, faults)
	defer func() {
		close(block)
		inf.close()
	}()

	for i := 0; i < 100; i++ {
		inf.dispatchPost(Notification{Action: "set"}, ok("v"))
	}
	if atomic.LoadInt32(&faults.hookFaults) == 0 {
		t.Fatal("expected at least one dropped delivery to be recorded once the mailbox fills")
	}
}

func TestInformantResetDeliversToEveryInstance(t *testing.T) {
	var resets int32
	d := HookDescriptor{
		Module: "test:reset",
		Type:   HookPost,
		Fn: func(n Notification, result *ActionResult) *ActionResult {
			if n.Action == "reset" {
				atomic.AddInt32(&resets, 1)
			}
			return nil
		},
	}
	inf := newInformant(HookOptions{Post: []HookDescriptor{d, d}}, NoOpMetricsCollector{})
	defer inf.close()

	inf.reset(nil)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&resets) != 2 {
		t.Fatalf("expected both registered instances to reset, got %d", resets)
	}
}

type countingMetrics struct {
	NoOpMetricsCollector
	hookFaults int32
}

func (c *countingMetrics) RecordHookFault(string) { atomic.AddInt32(&c.hookFaults, 1) }
