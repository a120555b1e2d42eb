package asyncprimitives

import "sync"

// deferredOptions configures a [Deferred].
type deferredOptions struct {
	common commonOptions
}

// DeferredOption configures a [Deferred] at construction.
type DeferredOption interface {
	applyDeferred(*deferredOptions)
}

func resolveDeferredOptions(opts []DeferredOption) *deferredOptions {
	o := &deferredOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applyDeferred(o)
		}
	}
	return o
}

// Deferred is a one-shot resolvable/rejectable future: the first call among
// Resolve, Reject, and the abort of an associated [Cancellation] wins, and
// every value recorded then is absorbing — later calls are no-ops, and every
// waiter, present or future, observes that same outcome.
type Deferred[T any] struct {
	mu     sync.Mutex
	state  settleState
	done   chan struct{}
	value  T
	err    error
	sub    *Subscription
	common commonOptions
}

// NewDeferred creates a pending Deferred. If cancel fires before the value
// settles any other way, the Deferred rejects with an [AbortedError].
func NewDeferred[T any](cancel *Cancellation, opts ...DeferredOption) *Deferred[T] {
	o := resolveDeferredOptions(opts)
	d := &Deferred[T]{
		done:   make(chan struct{}),
		common: o.common,
	}
	d.sub = OnAbort(cancel, func(reason error) {
		d.common.logger.Debug().Str("name", d.common.name).Err(reason).Log("settle cancel")
		d.settle(*new(T), &AbortedError{Reason: reason})
	})
	return d
}

// Resolve settles the Deferred with v. A no-op if already settled.
func (d *Deferred[T]) Resolve(v T) {
	d.settle(v, nil)
}

// Reject settles the Deferred with err. A no-op if already settled. err is
// propagated verbatim — never wrapped or transformed.
func (d *Deferred[T]) Reject(err error) {
	d.settle(*new(T), err)
}

func (d *Deferred[T]) settle(v T, err error) {
	var to settlement = settleResolved
	if err != nil {
		to = settleRejected
	}
	if !d.state.TrySettle(to) {
		return
	}
	d.mu.Lock()
	d.value = v
	d.err = err
	d.mu.Unlock()
	d.common.logger.Trace().Str("name", d.common.name).Str("state", to.String()).Log("settle dispatch")
	close(d.done)
	if d.sub != nil {
		d.sub.Release()
	}
}

// Wait blocks until the Deferred settles, then returns its recorded value
// and error. Safe to call concurrently and any number of times; every
// caller after the first settlement returns immediately.
func (d *Deferred[T]) Wait() (T, error) {
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err
}

// Settled reports whether Resolve, Reject, or an abort has already fired.
func (d *Deferred[T]) Settled() bool {
	return d.state.Settled()
}
