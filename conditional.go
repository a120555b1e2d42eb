package asyncprimitives

import "sync"

// conditionalOptions configures a [Conditional].
type conditionalOptions struct {
	common commonOptions
}

// ConditionalOption configures a [Conditional] at construction.
type ConditionalOption interface {
	applyConditional(*conditionalOptions)
}

func resolveConditionalOptions(opts []ConditionalOption) *conditionalOptions {
	o := &conditionalOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applyConditional(o)
		}
	}
	return o
}

// Conditional is an edge-triggered wakeup: Trigger wakes exactly one waiter
// currently parked on Wait. A Trigger with no waiter queued is lost — unlike
// [ManualSignal], there is no persistent raised state to catch a late Wait.
type Conditional struct {
	mu     sync.Mutex
	queue  waitQueue[struct{}]
	common commonOptions
}

// NewConditional creates a Conditional with no queued waiters.
func NewConditional(opts ...ConditionalOption) *Conditional {
	o := resolveConditionalOptions(opts)
	return &Conditional{common: o.common}
}

// Wait parks until the next Trigger. The returned handle carries no
// ownership; Release is a no-op convenience.
func (c *Conditional) Wait(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}
	c.mu.Lock()
	s := newSlot[struct{}]()
	c.queue.enqueue(s)
	pending := c.queue.len()
	c.mu.Unlock()
	c.common.logger.Debug().Str("name", c.common.name).Int("pending", pending).Log("wait enqueue")

	sub := OnAbort(cancel, func(reason error) {
		c.mu.Lock()
		ok := c.queue.cancel(s)
		c.mu.Unlock()
		if ok {
			c.common.logger.Debug().Str("name", c.common.name).Err(reason).Log("wait cancel")
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

// Waiter returns c as a [Waiter], for composition with [TriggerAndWait].
func (c *Conditional) Waiter() Waiter {
	return c
}

func (c *Conditional) prepareWait(cancel *Cancellation) *prepared {
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}
	c.mu.Lock()
	s := newSlot[struct{}]()
	c.queue.enqueue(s)
	c.mu.Unlock()

	sub := OnAbort(cancel, func(reason error) {
		c.mu.Lock()
		ok := c.queue.cancel(s)
		c.mu.Unlock()
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
			c.mu.Lock()
			ok := c.queue.cancel(s)
			c.mu.Unlock()
			sub.Release()
			if !ok {
				s.wait()
			}
		},
	}
}

// Trigger wakes one waiter parked on Wait, if any. A no-op otherwise.
func (c *Conditional) Trigger() {
	c.mu.Lock()
	s := c.queue.dequeueOne()
	c.mu.Unlock()
	if s != nil {
		c.common.logger.Trace().Str("name", c.common.name).Log("trigger dispatch")
		s.resolve(result[struct{}]{})
	}
}

// TriggerAndWait atomically triggers c and enlists on other, returning once
// other's wait resolves. Composing the two guarantees no wakeup from the
// Trigger can be lost between the trigger and the enlistment on other.
func (c *Conditional) TriggerAndWait(other Waiter, cancel *Cancellation) (*Handle, error) {
	return composeTriggerAndWait(c.Trigger, other, cancel)
}

// PendingCount reports the number of goroutines queued on Wait.
func (c *Conditional) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}
