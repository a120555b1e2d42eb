package asyncprimitives

import "sync"

// signalOptions configures a [ManualSignal].
type signalOptions struct {
	common commonOptions
}

// SignalOption configures a [ManualSignal] at construction.
type SignalOption interface {
	applySignal(*signalOptions)
}

func resolveSignalOptions(opts []SignalOption) *signalOptions {
	o := &signalOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applySignal(o)
		}
	}
	return o
}

// ManualSignal is a level-triggered broadcast flag: while set, every Wait
// resolves immediately (and every future one, until Reset); Reset does not
// affect waiters that already resolved.
type ManualSignal struct {
	mu     sync.Mutex
	isSet  bool
	queue  waitQueue[struct{}]
	common commonOptions
}

// NewManualSignal creates a ManualSignal in the cleared state.
func NewManualSignal(opts ...SignalOption) *ManualSignal {
	o := resolveSignalOptions(opts)
	return &ManualSignal{common: o.common}
}

// Set raises the flag and resolves every waiter currently parked on Wait. A
// no-op if already set.
func (s *ManualSignal) Set() {
	s.mu.Lock()
	if s.isSet {
		s.mu.Unlock()
		return
	}
	s.isSet = true
	slots := s.queue.drainAll()
	s.mu.Unlock()
	if len(slots) > 0 {
		s.common.logger.Trace().Str("name", s.common.name).Int("woken", len(slots)).Log("set dispatch")
	}
	for _, sl := range slots {
		sl.resolve(result[struct{}]{})
	}
}

// Reset clears the flag. Waiters already resolved are unaffected; new Wait
// calls block again until the next Set.
func (s *ManualSignal) Reset() {
	s.mu.Lock()
	s.isSet = false
	s.mu.Unlock()
}

// IsSet reports whether the flag is currently raised.
func (s *ManualSignal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSet
}

// PendingCount reports the number of goroutines queued on Wait.
func (s *ManualSignal) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Wait blocks until the flag is set. If already set, returns immediately
// with a dummy handle — there is nothing to release for a level-triggered
// wait. cancel may be nil.
func (s *ManualSignal) Wait(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}
	s.mu.Lock()
	if s.isSet {
		s.mu.Unlock()
		return dummyHandle(), nil
	}
	sl := newSlot[struct{}]()
	s.queue.enqueue(sl)
	pending := s.queue.len()
	s.mu.Unlock()
	s.common.logger.Debug().Str("name", s.common.name).Int("pending", pending).Log("wait enqueue")

	sub := OnAbort(cancel, func(reason error) {
		s.mu.Lock()
		ok := s.queue.cancel(sl)
		s.mu.Unlock()
		if ok {
			s.common.logger.Debug().Str("name", s.common.name).Err(reason).Log("wait cancel")
			sl.resolve(result[struct{}]{err: errSignalAborted})
		}
	})
	r := sl.wait()
	sub.Release()
	if r.err != nil {
		return nil, r.err
	}
	return dummyHandle(), nil
}

func (s *ManualSignal) prepareWait(cancel *Cancellation) *prepared {
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}
	s.mu.Lock()
	if s.isSet {
		s.mu.Unlock()
		return &prepared{
			wait:   func() (*Handle, error) { return dummyHandle(), nil },
			commit: func() {},
			abort:  func() {},
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
			sl.resolve(result[struct{}]{err: errSignalAborted})
		}
	})
	return &prepared{
		wait: func() (*Handle, error) {
			r := sl.wait()
			sub.Release()
			if r.err != nil {
				return nil, r.err
			}
			return dummyHandle(), nil
		},
		commit: func() {},
		abort: func() {
			s.mu.Lock()
			ok := s.queue.cancel(sl)
			s.mu.Unlock()
			sub.Release()
			if !ok {
				sl.wait()
			}
		},
	}
}
