package asyncprimitives

import "sync"

// semaphoreOptions configures a [Semaphore].
type semaphoreOptions struct {
	common commonOptions
}

// SemaphoreOption configures a [Semaphore] at construction.
type SemaphoreOption interface {
	applySemaphore(*semaphoreOptions)
}

func resolveSemaphoreOptions(opts []SemaphoreOption) *semaphoreOptions {
	o := &semaphoreOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applySemaphore(o)
		}
	}
	return o
}

// Semaphore is an N-permit counter: up to capacity callers may hold an
// active handle simultaneously; the rest queue in FIFO order.
type Semaphore struct {
	mu        sync.Mutex
	available int
	capacity  int
	queue     waitQueue[struct{}]
	common    commonOptions
}

// NewSemaphore creates a Semaphore with capacity permits, all available.
func NewSemaphore(capacity int, opts ...SemaphoreOption) *Semaphore {
	o := resolveSemaphoreOptions(opts)
	return &Semaphore{available: capacity, capacity: capacity, common: o.common}
}

// Acquire takes one permit, blocking if none are available. cancel may be nil.
func (s *Semaphore) Acquire(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}

	s.mu.Lock()
	if s.available > 0 {
		s.available--
		s.mu.Unlock()
		return newHandle(s.release), nil
	}
	sl := newSlot[struct{}]()
	s.queue.enqueue(sl)
	pending := s.queue.len()
	s.mu.Unlock()
	s.common.logger.Debug().Str("name", s.common.name).Int("pending", pending).Log("acquire enqueue")

	sub := OnAbort(cancel, func(reason error) {
		s.mu.Lock()
		ok := s.queue.cancel(sl)
		s.mu.Unlock()
		if ok {
			s.common.logger.Debug().Str("name", s.common.name).Err(reason).Log("acquire cancel")
			sl.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})
	r := sl.wait()
	sub.Release()
	if r.err != nil {
		return nil, r.err
	}
	return newHandle(s.release), nil
}

// Wait is an alias for Acquire, satisfying the [Waiter] interface.
func (s *Semaphore) Wait(cancel *Cancellation) (*Handle, error) {
	return s.Acquire(cancel)
}

// Waiter returns s as a [Waiter], for composition with [TriggerAndWait].
func (s *Semaphore) Waiter() Waiter {
	return s
}

func (s *Semaphore) prepareWait(cancel *Cancellation) *prepared {
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}

	s.mu.Lock()
	if s.available > 0 {
		s.available--
		s.mu.Unlock()
		return &prepared{
			wait:   func() (*Handle, error) { return newHandle(s.release), nil },
			commit: func() {},
			abort:  func() { s.release() },
		}
	}
	sl := newSlot[struct{}]()
	s.queue.enqueue(sl)
	s.mu.Unlock()

	sub := OnAbort(cancel, func(reason error) {
		s.mu.Lock()
		ok := s.queue.cancel(sl)
		s.mu.Unlock()
		if ok {
			sl.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})

	return &prepared{
		wait: func() (*Handle, error) {
			r := sl.wait()
			sub.Release()
			if r.err != nil {
				return nil, r.err
			}
			return newHandle(s.release), nil
		},
		commit: func() {},
		abort: func() {
			s.mu.Lock()
			ok := s.queue.cancel(sl)
			s.mu.Unlock()
			sub.Release()
			if ok {
				return
			}
			if r := sl.wait(); r.err == nil {
				s.release()
			}
		},
	}
}

// release returns one permit, then wakes as many queued waiters as the
// resulting availability allows (ordinarily at most one).
func (s *Semaphore) release() {
	s.mu.Lock()
	s.available++
	var toWake []*slot[struct{}]
	for s.available > 0 && s.queue.len() > 0 {
		toWake = append(toWake, s.queue.dequeueOne())
		s.available--
	}
	available := s.available
	s.mu.Unlock()
	if len(toWake) > 0 {
		s.common.logger.Trace().Str("name", s.common.name).Int("woken", len(toWake)).Int("available", available).Log("acquire dispatch")
	}
	for _, sl := range toWake {
		sl.resolve(result[struct{}]{})
	}
}

// AvailableCount reports the number of permits currently free.
func (s *Semaphore) AvailableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// PendingCount reports the number of goroutines waiting on Acquire.
func (s *Semaphore) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}
