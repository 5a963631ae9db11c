// informant.go: registered pre/post observers with lifecycle
//
// Each hook runs as an independent observer with its own mailbox
// (buffered channel). Synchronous hooks additionally carry a reply
// channel the dispatcher selects on against time.After(timeout).
package warden

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// hookMsg is one message delivered to a hook's mailbox.
type hookMsg struct {
	kind   hookMsgKind
	n      Notification
	result ActionResult
	args   interface{} // for reset messages
	reply  chan *ActionResult
}

type hookMsgKind int

const (
	hookMsgPre hookMsgKind = iota
	hookMsgPost
	hookMsgReset
	hookMsgProvision
)

// observer is the running instance of a HookDescriptor: its own mailbox
// goroutine plus lifecycle control.
type observer struct {
	id       uint64
	desc     HookDescriptor
	mailbox  chan hookMsg
	stop     chan struct{}
	metrics  MetricsCollector
	provided Config
	mu       sync.Mutex
}

var observerIDSeq uint64

func newObserver(desc HookDescriptor, metrics MetricsCollector) *observer {
	o := &observer{
		id:      atomic.AddUint64(&observerIDSeq, 1),
		desc:    desc,
		mailbox: make(chan hookMsg, 64),
		stop:    make(chan struct{}),
		metrics: metrics,
	}
	go o.run()
	return o
}

func (o *observer) run() {
	for {
		select {
		case msg := <-o.mailbox:
			o.handle(msg)
		case <-o.stop:
			return
		}
	}
}

func (o *observer) handle(msg hookMsg) {
	defer func() {
		if r := recover(); r != nil {
			o.metrics.RecordHookFault(o.desc.Module)
			if msg.reply != nil {
				res := actionErr(NewErrPanicRecovered("hook:"+o.desc.Module, r))
				msg.reply <- &res
			}
		}
	}()

	switch msg.kind {
	case hookMsgPre, hookMsgPost:
		var res ActionResult
		if msg.kind == hookMsgPost {
			res = msg.result
		}
		out := o.desc.Fn(msg.n, &res)
		if msg.reply != nil {
			msg.reply <- out
		}
	case hookMsgReset:
		// Reinitialize from args as if freshly started: the descriptor's
		// Args field is swapped and Fn is invoked once with a synthetic
		// "reset" notification so stateful hooks can clear themselves.
		o.mu.Lock()
		o.desc.Args = msg.args
		o.mu.Unlock()
		o.desc.Fn(Notification{Action: "reset", Args: []interface{}{msg.args}}, nil)
	case hookMsgProvision:
		o.mu.Lock()
		o.provided = msg.n.Args[0].(Config)
		o.mu.Unlock()
	}
}

func (o *observer) close() {
	close(o.stop)
}

// Informant is the per-cache supervisor of registered hooks.
type Informant struct {
	mu      sync.RWMutex
	pre     []*observer
	post    []*observer
	metrics MetricsCollector
}

func newInformant(opts HookOptions, metrics MetricsCollector) *Informant {
	inf := &Informant{metrics: metrics}
	for _, d := range opts.Pre {
		inf.pre = append(inf.pre, newObserver(d, metrics))
	}
	for _, d := range opts.Post {
		inf.post = append(inf.post, newObserver(d, metrics))
	}
	return inf
}

// dispatchPre delivers the notification to every pre-hook in
// registration order. The first non-nil short-circuit result wins and
// stops further dispatch.
func (inf *Informant) dispatchPre(n Notification) *ActionResult {
	inf.mu.RLock()
	hooks := append([]*observer(nil), inf.pre...)
	inf.mu.RUnlock()

	for _, o := range hooks {
		if short := inf.deliver(o, hookMsg{kind: hookMsgPre, n: n}); short != nil {
			return short
		}
	}
	return nil
}

// dispatchPost delivers (notification, result) to every post-hook.
func (inf *Informant) dispatchPost(n Notification, result ActionResult) {
	inf.mu.RLock()
	hooks := append([]*observer(nil), inf.post...)
	inf.mu.RUnlock()

	for _, o := range hooks {
		inf.deliver(o, hookMsg{kind: hookMsgPost, n: n, result: result})
	}
}

// deliver sends msg to o, honoring async/sync delivery semantics. A
// timeout on a sync hook is observed (via RecordHookFault) but never
// aborts the action.
func (inf *Informant) deliver(o *observer, msg hookMsg) *ActionResult {
	if o.desc.Async {
		select {
		case o.mailbox <- msg:
		default:
			// Mailbox full: drop rather than deadlock the cache.
			inf.metrics.RecordHookFault(o.desc.Module)
		}
		return nil
	}

	timeout := o.desc.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reply := make(chan *ActionResult, 1)
	msg.reply = reply

	select {
	case o.mailbox <- msg:
	default:
		inf.metrics.RecordHookFault(o.desc.Module)
		return nil
	}

	select {
	case out := <-reply:
		return out
	case <-time.After(timeout):
		inf.metrics.RecordHookFault(o.desc.Module)
		if o.desc.MaxTimeout > 0 && timeout > o.desc.MaxTimeout {
			inf.metrics.RecordHookFault(fmt.Sprintf("%s:max_timeout", o.desc.Module))
		}
		return nil
	}
}

// reset sends a {reset, args} message to every registered hook instance,
// not just the first instance of a given module.
func (inf *Informant) reset(args interface{}) {
	inf.mu.RLock()
	defer inf.mu.RUnlock()
	for _, o := range inf.pre {
		o.mailbox <- hookMsg{kind: hookMsgReset, args: args}
	}
	for _, o := range inf.post {
		o.mailbox <- hookMsg{kind: hookMsgReset, args: args}
	}
}

// provision re-delivers cfg to every hook that declared a "cache"
// provision in its descriptor.
func (inf *Informant) provision(cfg Config) {
	inf.mu.RLock()
	defer inf.mu.RUnlock()
	deliverProvision := func(o *observer) {
		for _, p := range o.desc.Provisions {
			if p == "cache" {
				o.mailbox <- hookMsg{kind: hookMsgProvision, n: Notification{Args: []interface{}{cfg}}}
				return
			}
		}
	}
	for _, o := range inf.pre {
		deliverProvision(o)
	}
	for _, o := range inf.post {
		deliverProvision(o)
	}
}

func (inf *Informant) close() {
	inf.mu.RLock()
	defer inf.mu.RUnlock()
	for _, o := range inf.pre {
		o.close()
	}
	for _, o := range inf.post {
		o.close()
	}
}
