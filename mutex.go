package asyncprimitives

import (
	"runtime"
	"sync"
)

// mutexOptions configures a [Mutex].
type mutexOptions struct {
	common         commonOptions
	maxConsecutive int
}

// MutexOption configures a [Mutex] at construction.
type MutexOption interface {
	applyMutex(*mutexOptions)
}

type mutexOptionFunc func(*mutexOptions)

func (f mutexOptionFunc) applyMutex(o *mutexOptions) { f(o) }

// WithMaxConsecutive overrides the starvation-escape threshold (default 10):
// the number of uncontended, synchronous Lock acquisitions allowed in a row
// before the next one is forced to yield a scheduling turn.
func WithMaxConsecutive(n int) MutexOption {
	return mutexOptionFunc(func(o *mutexOptions) {
		if n > 0 {
			o.maxConsecutive = n
		}
	})
}

func resolveMutexOptions(opts []MutexOption) *mutexOptions {
	o := &mutexOptions{common: newCommonOptions(), maxConsecutive: 10}
	for _, opt := range opts {
		if opt != nil {
			opt.applyMutex(o)
		}
	}
	return o
}

// Mutex is binary mutual exclusion with a starvation-escape policy: a tight
// Lock/Release loop that never contends would otherwise monopolise the
// scheduler, so every maxConsecutive synchronous acquisitions force one
// cooperative yield before the next proceeds, letting other goroutines'
// pending work run.
type Mutex struct {
	mu             sync.Mutex
	held           bool
	queue          waitQueue[struct{}]
	consecutive    int
	maxConsecutive int
	common         commonOptions
}

// NewMutex creates an unheld Mutex.
func NewMutex(opts ...MutexOption) *Mutex {
	o := resolveMutexOptions(opts)
	return &Mutex{maxConsecutive: o.maxConsecutive, common: o.common}
}

// NewAsyncLock is a deprecated alias for NewMutex, named for parity with the
// host API this package's semantics are modelled on.
//
// Deprecated: use NewMutex.
func NewAsyncLock(opts ...MutexOption) *Mutex {
	return NewMutex(opts...)
}

// Lock acquires the mutex, blocking if held. cancel may be nil. Returns an
// active [Handle] on success; Release on that handle unlocks the mutex.
func (m *Mutex) Lock(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}

	m.mu.Lock()
	if !m.held && m.queue.len() == 0 {
		m.held = true
		yield := m.bumpConsecutiveLocked()
		m.mu.Unlock()
		if yield {
			m.common.logger.Trace().Str("name", m.common.name).Log("starvation escape yield")
			runtime.Gosched()
		}
		return newHandle(m.release), nil
	}

	s := newSlot[struct{}]()
	m.queue.enqueue(s)
	pending := m.queue.len()
	m.mu.Unlock()
	m.common.logger.Debug().Str("name", m.common.name).Int("pending", pending).Log("lock enqueue")

	sub := OnAbort(cancel, func(reason error) {
		m.mu.Lock()
		ok := m.queue.cancel(s)
		m.mu.Unlock()
		if ok {
			m.common.logger.Debug().Str("name", m.common.name).Err(reason).Log("lock cancel")
			s.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})
	r := s.wait()
	sub.Release()
	if r.err != nil {
		return nil, r.err
	}
	return newHandle(m.release), nil
}

// Wait is an alias for Lock, satisfying the [Waiter] interface.
func (m *Mutex) Wait(cancel *Cancellation) (*Handle, error) {
	return m.Lock(cancel)
}

// Waiter returns m as a [Waiter], for composition with [TriggerAndWait].
func (m *Mutex) Waiter() Waiter {
	return m
}

// bumpConsecutiveLocked increments the consecutive-acquisition counter and
// reports whether this acquisition must force a yield, resetting the
// counter if so. Must be called with mu held.
func (m *Mutex) bumpConsecutiveLocked() bool {
	m.consecutive++
	if m.consecutive >= m.maxConsecutive {
		m.consecutive = 0
		return true
	}
	return false
}

// prepareWait implements the two-phase waiter protocol.
func (m *Mutex) prepareWait(cancel *Cancellation) *prepared {
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}

	m.mu.Lock()
	if !m.held && m.queue.len() == 0 {
		m.held = true
		yield := m.bumpConsecutiveLocked()
		m.mu.Unlock()
		return &prepared{
			wait: func() (*Handle, error) {
				if yield {
					runtime.Gosched()
				}
				return newHandle(m.release), nil
			},
			commit: func() {},
			abort: func() {
				// Nothing was queued; undo the synchronous acquisition.
				m.release()
			},
		}
	}

	s := newSlot[struct{}]()
	m.queue.enqueue(s)
	m.mu.Unlock()

	sub := OnAbort(cancel, func(reason error) {
		m.mu.Lock()
		ok := m.queue.cancel(s)
		m.mu.Unlock()
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
			return newHandle(m.release), nil
		},
		commit: func() {},
		abort: func() {
			m.mu.Lock()
			ok := m.queue.cancel(s)
			m.mu.Unlock()
			sub.Release()
			if ok {
				return
			}
			// A producer already dispatched to this slot; drain it and
			// release the mutex back rather than leaking ownership.
			if r := s.wait(); r.err == nil {
				m.release()
			}
		},
	}
}

// release hands the mutex to the next queued waiter, or marks it free.
func (m *Mutex) release() {
	m.mu.Lock()
	s := m.queue.dequeueOne()
	if s == nil {
		m.held = false
		m.mu.Unlock()
		return
	}
	// Dispatch via the queue resets the starvation-escape counter.
	m.consecutive = 0
	pending := m.queue.len()
	m.mu.Unlock()
	m.common.logger.Trace().Str("name", m.common.name).Int("pending", pending).Log("lock dispatch")
	s.resolve(result[struct{}]{})
}

// IsLocked reports whether the mutex is currently held.
func (m *Mutex) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// PendingCount reports the number of goroutines waiting on Lock.
func (m *Mutex) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len()
}
