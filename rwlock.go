package asyncprimitives

import "sync"

// rwLockOptions configures an [RWLock].
type rwLockOptions struct {
	common commonOptions
}

// RWLockOption configures an [RWLock] at construction.
type RWLockOption interface {
	applyRWLock(*rwLockOptions)
}

func resolveRWLockOptions(opts []RWLockOption) *rwLockOptions {
	o := &rwLockOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applyRWLock(o)
		}
	}
	return o
}

// RWLock is a shared/exclusive lock with writer preference: once a writer is
// queued, no new reader may jump ahead of it, even though other readers may
// already hold the lock.
type RWLock struct {
	mu          sync.Mutex
	readers     int
	hasWriter   bool
	writerQueue waitQueue[struct{}]
	readerQueue waitQueue[struct{}]
	common      commonOptions
}

// NewRWLock creates an unheld RWLock.
func NewRWLock(opts ...RWLockOption) *RWLock {
	o := resolveRWLockOptions(opts)
	return &RWLock{common: o.common}
}

// ReadLock acquires a shared hold. A new reader may proceed only if there is
// no active or queued writer ahead of it; otherwise it queues behind them.
func (rw *RWLock) ReadLock(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}
	rw.mu.Lock()
	if !rw.hasWriter && rw.writerQueue.len() == 0 {
		rw.readers++
		rw.mu.Unlock()
		return newHandle(rw.releaseReader), nil
	}
	s := newSlot[struct{}]()
	rw.readerQueue.enqueue(s)
	pending := rw.readerQueue.len()
	rw.mu.Unlock()
	rw.common.logger.Debug().Str("name", rw.common.name).Int("pending", pending).Log("read lock enqueue")

	sub := OnAbort(cancel, func(reason error) {
		rw.mu.Lock()
		ok := rw.readerQueue.cancel(s)
		rw.mu.Unlock()
		if ok {
			rw.common.logger.Debug().Str("name", rw.common.name).Err(reason).Log("read lock cancel")
			s.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})
	r := s.wait()
	sub.Release()
	if r.err != nil {
		return nil, r.err
	}
	return newHandle(rw.releaseReader), nil
}

// WriteLock acquires exclusive ownership, queueing if any reader or writer
// currently holds the lock.
func (rw *RWLock) WriteLock(cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}
	rw.mu.Lock()
	if rw.readers == 0 && !rw.hasWriter {
		rw.hasWriter = true
		rw.mu.Unlock()
		return newHandle(rw.releaseWriter), nil
	}
	s := newSlot[struct{}]()
	rw.writerQueue.enqueue(s)
	pending := rw.writerQueue.len()
	rw.mu.Unlock()
	rw.common.logger.Debug().Str("name", rw.common.name).Int("pending", pending).Log("write lock enqueue")

	sub := OnAbort(cancel, func(reason error) {
		rw.mu.Lock()
		ok := rw.writerQueue.cancel(s)
		rw.mu.Unlock()
		if ok {
			rw.common.logger.Debug().Str("name", rw.common.name).Err(reason).Log("write lock cancel")
			s.resolve(result[struct{}]{err: &AbortedError{Reason: reason}})
		}
	})
	r := s.wait()
	sub.Release()
	if r.err != nil {
		return nil, r.err
	}
	return newHandle(rw.releaseWriter), nil
}

func (rw *RWLock) releaseReader() {
	rw.mu.Lock()
	rw.readers--
	if rw.readers == 0 && rw.writerQueue.len() > 0 {
		s := rw.writerQueue.dequeueOne()
		rw.hasWriter = true
		rw.mu.Unlock()
		rw.common.logger.Trace().Str("name", rw.common.name).Log("write lock dispatch")
		s.resolve(result[struct{}]{})
		return
	}
	rw.mu.Unlock()
}

func (rw *RWLock) releaseWriter() {
	rw.mu.Lock()
	rw.hasWriter = false
	if rw.writerQueue.len() > 0 {
		s := rw.writerQueue.dequeueOne()
		rw.hasWriter = true
		rw.mu.Unlock()
		rw.common.logger.Trace().Str("name", rw.common.name).Log("write lock dispatch")
		s.resolve(result[struct{}]{})
		return
	}
	slots := rw.readerQueue.drainAll()
	rw.readers += len(slots)
	rw.mu.Unlock()
	if len(slots) > 0 {
		rw.common.logger.Trace().Str("name", rw.common.name).Int("woken", len(slots)).Log("read lock dispatch")
	}
	for _, s := range slots {
		s.resolve(result[struct{}]{})
	}
}

// CurrentReaders reports the number of active readers.
func (rw *RWLock) CurrentReaders() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.readers
}

// HasWriter reports whether a writer currently holds the lock.
func (rw *RWLock) HasWriter() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.hasWriter
}

// ReadWaiter returns a [Waiter] view over ReadLock, for composition with
// [TriggerAndWait].
func (rw *RWLock) ReadWaiter() Waiter {
	return rwReadWaiter{rw}
}

// WriteWaiter returns a [Waiter] view over WriteLock, for composition with
// [TriggerAndWait].
func (rw *RWLock) WriteWaiter() Waiter {
	return rwWriteWaiter{rw}
}

type rwReadWaiter struct{ rw *RWLock }

func (w rwReadWaiter) Wait(cancel *Cancellation) (*Handle, error) { return w.rw.ReadLock(cancel) }

func (w rwReadWaiter) prepareWait(cancel *Cancellation) *prepared {
	rw := w.rw
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}
	rw.mu.Lock()
	if !rw.hasWriter && rw.writerQueue.len() == 0 {
		rw.readers++
		rw.mu.Unlock()
		return &prepared{
			wait:   func() (*Handle, error) { return newHandle(rw.releaseReader), nil },
			commit: func() {},
			abort:  func() { rw.releaseReader() },
		}
	}
	s := newSlot[struct{}]()
	rw.readerQueue.enqueue(s)
	rw.mu.Unlock()

	sub := OnAbort(cancel, func(reason error) {
		rw.mu.Lock()
		ok := rw.readerQueue.cancel(s)
		rw.mu.Unlock()
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
			return newHandle(rw.releaseReader), nil
		},
		commit: func() {},
		abort: func() {
			rw.mu.Lock()
			ok := rw.readerQueue.cancel(s)
			rw.mu.Unlock()
			sub.Release()
			if ok {
				return
			}
			if r := s.wait(); r.err == nil {
				rw.releaseReader()
			}
		},
	}
}

type rwWriteWaiter struct{ rw *RWLock }

func (w rwWriteWaiter) Wait(cancel *Cancellation) (*Handle, error) { return w.rw.WriteLock(cancel) }

func (w rwWriteWaiter) prepareWait(cancel *Cancellation) *prepared {
	rw := w.rw
	if cancel.Aborted() {
		reason := cancel.Reason()
		return &prepared{
			wait:   func() (*Handle, error) { return nil, &AbortedError{Reason: reason} },
			commit: func() {},
			abort:  func() {},
		}
	}
	rw.mu.Lock()
	if rw.readers == 0 && !rw.hasWriter {
		rw.hasWriter = true
		rw.mu.Unlock()
		return &prepared{
			wait:   func() (*Handle, error) { return newHandle(rw.releaseWriter), nil },
			commit: func() {},
			abort:  func() { rw.releaseWriter() },
		}
	}
	s := newSlot[struct{}]()
	rw.writerQueue.enqueue(s)
	rw.mu.Unlock()

	sub := OnAbort(cancel, func(reason error) {
		rw.mu.Lock()
		ok := rw.writerQueue.cancel(s)
		rw.mu.Unlock()
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
			return newHandle(rw.releaseWriter), nil
		},
		commit: func() {},
		abort: func() {
			rw.mu.Lock()
			ok := rw.writerQueue.cancel(s)
			rw.mu.Unlock()
			sub.Release()
			if ok {
				return
			}
			if r := s.wait(); r.err == nil {
				rw.releaseWriter()
			}
		},
	}
}
