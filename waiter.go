package asyncprimitives

import "sync"

// Handle is an ownership token for an acquired resource. Release is
// idempotent: the first call relinquishes the resource and flips Active to
// false; every later call is a no-op.
//
// A dummy handle (Active() == false from the start) is returned by
// level-triggered waits — signals, a raised ManuallyConditional — where
// nothing was actually acquired and there is nothing to release.
type Handle struct {
	mu      sync.Mutex
	active  bool
	release func()
}

func newHandle(release func()) *Handle {
	return &Handle{active: true, release: release}
}

func dummyHandle() *Handle {
	return &Handle{}
}

// Active reports whether the handle still owns its resource.
func (h *Handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Release relinquishes the resource, if still held. Safe to call more than
// once, and safe to call on a dummy handle.
func (h *Handle) Release() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	release := h.release
	h.release = nil
	h.mu.Unlock()
	if release != nil {
		release()
	}
}

// Dispose is an alias for Release, for callers that prefer io.Closer-style
// naming (`defer h.Dispose()`).
func (h *Handle) Dispose() {
	h.Release()
}

// Waiter is the uniform capability every acquirable primitive exposes: a
// plain blocking acquire. cancel may be nil, meaning the wait never gives up
// on its own.
type Waiter interface {
	Wait(cancel *Cancellation) (*Handle, error)
}

// WaiterFunc adapts a function to a Waiter.
type WaiterFunc func(cancel *Cancellation) (*Handle, error)

func (f WaiterFunc) Wait(cancel *Cancellation) (*Handle, error) { return f(cancel) }

// prepared is returned by a two-phase prepareWaiter's prepareWait: a pending
// slot is already enlisted by the time this is returned.
type prepared struct {
	// wait blocks for the slot's eventual resolution. Call at most once.
	wait func() (*Handle, error)
	// commit is a no-op marker that the caller will go on to call wait; it
	// exists for symmetry with abort and to document intent at call sites.
	commit func()
	// abort synchronously removes the enlisted slot, before wait is called.
	// abort does not resolve the slot, so a wait called after abort does not
	// observe an aborted error (for a queued slot it blocks).
	abort func()
}

// prepareWaiter is the optional two-phase capability described in the
// package doc: enlist a slot immediately, decide synchronously whether to
// go on to wait for it or abort the enlistment. [TriggerAndWait] uses this
// to enqueue into B before it performs A's trigger step, so no producer can
// ever observe "triggered but not yet waiting".
//
// A Waiter that doesn't implement prepareWaiter degrades gracefully: callers
// fall back to a plain Wait, losing the atomicity guarantee.
type prepareWaiter interface {
	prepareWait(cancel *Cancellation) *prepared
}
