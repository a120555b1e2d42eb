package asyncprimitives

import "sync"

// manuallyConditionalOptions configures a [ManuallyConditional].
type manuallyConditionalOptions struct {
	common commonOptions
}

// ManuallyConditionalOption configures a [ManuallyConditional] at construction.
type ManuallyConditionalOption interface {
	applyManuallyConditional(*manuallyConditionalOptions)
}

func resolveManuallyConditionalOptions(opts []ManuallyConditionalOption) *manuallyConditionalOptions {
	o := &manuallyConditionalOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applyManuallyConditional(o)
		}
	}
	return o
}

// ManuallyConditional unions level- and edge-triggered wakeup: Raise leaves a
// persistent flag that satisfies any Wait until it is consumed; Trigger
// consumes that flag (if set) and additionally wakes one queued waiter, the
// same edge pulse [Conditional] provides.
type ManuallyConditional struct {
	mu     sync.Mutex
	raised bool
	queue  waitQueue[struct{}]
	common commonOptions
}

// NewManuallyConditional creates a ManuallyConditional that is not raised and
// has no queued waiters.
func NewManuallyConditional(opts ...ManuallyConditionalOption) *ManuallyConditional {
	o := resolveManuallyConditionalOptions(opts)
	return &ManuallyConditional{common: o.common}
}

// Raise sets the persistent flag and resolves every waiter currently queued
// on Wait, the same broadcast a [ManualSignal] Set performs. Future Wait
// calls also resolve immediately until Drop or a Trigger consumes the flag.
func (mc *ManuallyConditional) Raise() {
	mc.mu.Lock()
	mc.raised = true
	slots := mc.queue.drainAll()
	mc.mu.Unlock()
	if len(slots) > 0 {
		mc.common.logger.Trace().Str("name", mc.common.name).Int("woken", len(slots)).Log("raise dispatch")
	}
	for _, s := range slots {
		s.resolve(result[struct{}]{})
	}
}

// Drop clears the persistent flag without affecting queued waiters.
func (mc *ManuallyConditional) Drop() {
	mc.mu.Lock()
	mc.raised = false
	mc.mu.Unlock()
}

// IsRaised reports whether the persistent flag is currently set.
func (mc *ManuallyConditional) IsRaised() bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.raised
}

// Wait resolves immediately, with a dummy handle, if the flag is raised;
// otherwise it queues as an edge waiter for the next Trigger.
func (mc *ManuallyConditional) Wait(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}
	mc.mu.Lock()
	if mc.raised {
		mc.mu.Unlock()
		return dummyHandle(), nil
	}
	s := newSlot[struct{}]()
	mc.queue.enqueue(s)
	pending := mc.queue.len()
	mc.mu.Unlock()
	mc.common.logger.Debug().Str("name", mc.common.name).Int("pending", pending).Log("wait enqueue")

	sub := OnAbort(cancel, func(reason error) {
		mc.mu.Lock()
		ok := mc.queue.cancel(s)
		mc.mu.Unlock()
		if ok {
			mc.common.logger.Debug().Str("name", mc.common.name).Err(reason).Log("wait cancel")
			s.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})
	r := s.wait()
	sub.Release()
	if r.err != nil {
		return nil, r.err
	}
	return dummyHandle(), nil
}

// Waiter returns mc as a [Waiter], for composition with [TriggerAndWait].
func (mc *ManuallyConditional) Waiter() Waiter {
	return mc
}

func (mc *ManuallyConditional) prepareWait(cancel *Cancellation) *prepared {
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}
	mc.mu.Lock()
	if mc.raised {
		mc.mu.Unlock()
		return &prepared{
			wait:   func() (*Handle, error) { return dummyHandle(), nil },
			commit: func() {},
			abort:  func() {},
		}
	}
	s := newSlot[struct{}]()
	mc.queue.enqueue(s)
	mc.mu.Unlock()

	sub := OnAbort(cancel, func(reason error) {
		mc.mu.Lock()
		ok := mc.queue.cancel(s)
		mc.mu.Unlock()
		if ok {
			s.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})
	return &prepared{
		wait: func() (*Handle, error) {
			r := s.wait()
			sub.Release()
			if r.err != nil {
				return nil, r.err
			}
			return dummyHandle(), nil
		},
		commit: func() {},
		abort: func() {
			mc.mu.Lock()
			ok := mc.queue.cancel(s)
			mc.mu.Unlock()
			sub.Release()
			if !ok {
				s.wait()
			}
		},
	}
}

// Trigger consumes the raised flag, if set, and wakes one queued waiter, if
// any. Either effect may occur independently of the other.
func (mc *ManuallyConditional) Trigger() {
	mc.mu.Lock()
	mc.raised = false
	s := mc.queue.dequeueOne()
	mc.mu.Unlock()
	if s != nil {
		mc.common.logger.Trace().Str("name", mc.common.name).Log("trigger dispatch")
		s.resolve(result[struct{}]{})
	}
}

// TriggerAndWait atomically triggers mc and enlists on other, returning once
// other's wait resolves.
func (mc *ManuallyConditional) TriggerAndWait(other Waiter, cancel *Cancellation) (*Handle, error) {
	return composeTriggerAndWait(mc.Trigger, other, cancel)
}

// PendingCount reports the number of goroutines queued on Wait.
func (mc *ManuallyConditional) PendingCount() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.queue.len()
}
