package asyncprimitives

import "sync"

// Cancellation is the host's cancellation handle: an observable aborted
// flag, plus one-shot callback registration. It is deliberately narrower
// than [context.Context] — no deadline, no values, no parent chain —
// because the only two capabilities this package's host ever needs from a
// cancellation object are "is it aborted" and "tell me when it becomes
// aborted".
//
// A nil *Cancellation is valid and behaves as never-aborted; every method
// tolerates it.
type Cancellation struct {
	mu       sync.Mutex
	handlers []func(reason error)
	reason   error
	aborted  bool
}

// CancellationSource creates and owns a [Cancellation], with the sole
// capability of aborting it. This is the Go analogue of an AbortController.
type CancellationSource struct {
	signal *Cancellation
}

// NewCancellationSource creates a new source with a fresh, pending [Cancellation].
func NewCancellationSource() *CancellationSource {
	return &CancellationSource{signal: &Cancellation{}}
}

// Signal returns the handle associated with this source. Always the same value.
func (s *CancellationSource) Signal() *Cancellation {
	return s.signal
}

// Cancel aborts the source's signal with reason. If reason is nil, a default
// [AbortedError] is used. Calling Cancel more than once has no additional
// effect; the signal keeps its original reason.
func (s *CancellationSource) Cancel(reason error) {
	if reason == nil {
		reason = &AbortedError{Reason: "aborted"}
	}
	s.signal.abort(reason)
}

// Aborted reports whether the handle has been aborted. A nil receiver is
// never aborted.
func (c *Cancellation) Aborted() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aborted
}

// Reason returns the abort reason, or nil if not yet aborted.
func (c *Cancellation) Reason() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

func (c *Cancellation) abort(reason error) {
	c.mu.Lock()
	if c.aborted {
		c.mu.Unlock()
		return
	}
	c.aborted = true
	c.reason = reason
	handlers := c.handlers
	c.handlers = nil
	c.mu.Unlock()

	// Invoked outside the lock: per spec §4.1, an exception raised inside a
	// callback propagates to the caller of Cancel, uncaught by this layer.
	for _, h := range handlers {
		if h != nil {
			h(reason)
		}
	}
}

// Subscription is returned by [OnAbort]; releasing it detaches the callback
// if it has not already fired.
type Subscription struct {
	release func()
}

// Release detaches the callback. Idempotent, safe to call multiple times or
// after the callback has already fired (no-op in that case).
func (s *Subscription) Release() {
	if s == nil || s.release == nil {
		return
	}
	s.release()
}

// OnAbort registers cb to run at most once, when handle becomes aborted.
//
// If handle is nil, cb never runs and the returned subscription is inert.
// If handle is already aborted, cb runs synchronously before OnAbort
// returns, and the returned subscription is already inactive (Release is a
// no-op). Otherwise cb fires the first time handle aborts; releasing the
// returned subscription beforehand detaches cb so it never runs.
func OnAbort(handle *Cancellation, cb func(reason error)) *Subscription {
	if handle == nil || cb == nil {
		return &Subscription{}
	}

	handle.mu.Lock()
	if handle.aborted {
		reason := handle.reason
		handle.mu.Unlock()
		cb(reason)
		return &Subscription{}
	}

	// Identify this registration by its slice index, so Release can detach
	// it in place (nil it out) without disturbing other subscribers' slots.
	idx := len(handle.handlers)
	handle.handlers = append(handle.handlers, cb)
	handle.mu.Unlock()

	var once sync.Once
	return &Subscription{release: func() {
		once.Do(func() {
			handle.mu.Lock()
			defer handle.mu.Unlock()
			if idx < len(handle.handlers) {
				handle.handlers[idx] = nil
			}
		})
	}}
}
