package asyncprimitives

import (
	"errors"
	"sync"
)

// generatorOptions configures a [DeferredGenerator].
type generatorOptions struct {
	common commonOptions
}

// GeneratorOption configures a [DeferredGenerator] at construction.
type GeneratorOption interface {
	applyGenerator(*generatorOptions)
}

func resolveGeneratorOptions(opts []GeneratorOption) *generatorOptions {
	o := &generatorOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applyGenerator(o)
		}
	}
	return o
}

// ErrGeneratorClosed is returned by Yield once the generator has already
// finished, via Return, Throw, or an abort.
var ErrGeneratorClosed = errors.New("asyncprimitives: generator already closed")

// DeferredGenerator is a single-use asynchronous iterable: a producer calls
// Yield any number of times, then exactly one of Return or Throw; a consumer
// drains it with Next (or the Range convenience) until the false/zero
// terminal result. Unlike [Deferred], it carries a sequence of values rather
// than one, and unlike the auto/manually conditional primitives, consumption
// is destructive — each value is delivered to exactly one Next call.
type DeferredGenerator[T any] struct {
	mu      sync.Mutex
	buf     []T
	state   settleState
	failErr error
	waiter  *slot[T]
	sub     *Subscription
	common  commonOptions
}

// NewDeferredGenerator creates an open DeferredGenerator. If cancel fires
// before the producer calls Return or Throw, the generator fails with an
// error whose message is exactly "Deferred generator aborted".
func NewDeferredGenerator[T any](cancel *Cancellation, opts ...GeneratorOption) *DeferredGenerator[T] {
	o := resolveGeneratorOptions(opts)
	g := &DeferredGenerator[T]{common: o.common}
	g.sub = OnAbort(cancel, func(reason error) {
		g.common.logger.Debug().Str("name", g.common.name).Err(reason).Log("generator cancel")
		g.finish(errGeneratorAborted)
	})
	return g
}

// Yield delivers v to the next Next call, buffering it if none is currently
// parked. Returns [ErrGeneratorClosed] if the generator has already finished.
func (g *DeferredGenerator[T]) Yield(v T) error {
	g.mu.Lock()
	if g.state.Settled() {
		g.mu.Unlock()
		return ErrGeneratorClosed
	}
	if g.waiter != nil {
		w := g.waiter
		g.waiter = nil
		g.mu.Unlock()
		g.common.logger.Trace().Str("name", g.common.name).Log("yield dispatch")
		w.resolve(result[T]{value: v})
		return nil
	}
	g.buf = append(g.buf, v)
	buffered := len(g.buf)
	g.mu.Unlock()
	g.common.logger.Debug().Str("name", g.common.name).Int("buffered", buffered).Log("yield enqueue")
	return nil
}

// Return finishes the generator cleanly. Values already buffered or queued
// for delivery are still consumed by Next before it reports the clean stop.
// A no-op if the generator already finished.
func (g *DeferredGenerator[T]) Return() {
	g.finish(nil)
}

// Throw finishes the generator with err, which propagates verbatim from the
// next Next call; values still buffered are discarded, not delivered. A
// no-op if the generator already finished.
func (g *DeferredGenerator[T]) Throw(err error) {
	g.finish(err)
}

func (g *DeferredGenerator[T]) finish(err error) {
	var to settlement = settleResolved
	if err != nil {
		to = settleRejected
	}
	if !g.state.TrySettle(to) {
		return
	}
	g.mu.Lock()
	g.failErr = err
	if err != nil {
		// A throw/abort discards anything still buffered: the consumer must
		// see the error on its next step, not drain stale values past it.
		g.buf = nil
	}
	w := g.waiter
	g.waiter = nil
	g.mu.Unlock()
	if g.sub != nil {
		g.sub.Release()
	}
	if w != nil {
		g.common.logger.Trace().Str("name", g.common.name).Log("finish dispatch")
		if err != nil {
			w.resolve(result[T]{err: err})
		} else {
			w.resolve(result[T]{done: true})
		}
	}
}

// clearWaiter removes s as the parked waiter if it is still the current one,
// mirroring waitQueue.cancel's tombstone race: whichever of a concurrent
// finish/Yield and this call acts first wins.
func (g *DeferredGenerator[T]) clearWaiter(s *slot[T]) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.waiter == s {
		g.waiter = nil
		return true
	}
	return false
}

// Next returns the next yielded value (ok true), or reports the generator's
// terminal outcome (ok false, err nil for a clean Return, non-nil for a
// Throw or abort). cancel aborts only this call's wait, not the generator
// itself; it may be nil.
func (g *DeferredGenerator[T]) Next(cancel *Cancellation) (T, bool, error) {
	if cancel.Aborted() {
		var zero T
		return zero, false, &AbortedError{Reason: cancel.Reason()}
	}

	g.mu.Lock()
	if len(g.buf) > 0 {
		v := g.buf[0]
		g.buf = g.buf[1:]
		g.mu.Unlock()
		return v, true, nil
	}
	if g.state.Settled() {
		err := g.failErr
		g.mu.Unlock()
		var zero T
		return zero, false, err
	}
	s := newSlot[T]()
	g.waiter = s
	g.mu.Unlock()
	g.common.logger.Debug().Str("name", g.common.name).Log("next enqueue")

	sub := OnAbort(cancel, func(reason error) {
		if g.clearWaiter(s) {
			g.common.logger.Debug().Str("name", g.common.name).Err(reason).Log("next cancel")
			s.resolve(result[T]{err: &AbortedError{Reason: reason}})
		}
	})
	r := s.wait()
	sub.Release()
	if r.err != nil {
		var zero T
		return zero, false, r.err
	}
	if r.done {
		var zero T
		return zero, false, nil
	}
	return r.value, true, nil
}

// Range drains the generator, calling fn with every yielded value in order.
// It stops and returns fn's error the first time fn returns one, or the
// generator's own terminal error if it finishes with Throw or an abort. A
// panic inside fn is recovered and returned as a [PanicError].
func (g *DeferredGenerator[T]) Range(fn func(T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	for {
		v, ok, nextErr := g.Next(nil)
		if nextErr != nil {
			return nextErr
		}
		if !ok {
			return nil
		}
		if err = fn(v); err != nil {
			return err
		}
	}
}
