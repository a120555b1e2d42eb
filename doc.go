// Package asyncprimitives provides cooperative asynchronous coordination
// primitives: mutual exclusion, counting semaphores, reader/writer locks,
// level- and edge-triggered signals, deferred values, a deferred streaming
// generator, cancellation hooks, and an atomic trigger-and-wait composition
// across heterogeneous waitables.
//
// # Architecture
//
// Every primitive owns a private [waitQueue]: a FIFO list of pending callers,
// with O(1) cancellation. A caller either proceeds synchronously (fast path)
// or is enqueued and parked on a buffered channel until a producer call
// (Release, Set, Trigger, Raise, ...) or cancellation resolves it.
//
// Primitives expose a uniform [Waiter] capability: a plain [Waiter.Wait], and
// an unexported two-phase prepareWait that enlists a pending slot
// synchronously, before any second, possibly wake-inducing, action runs. This
// is what lets [TriggerAndWait] atomically trigger one primitive and enqueue
// into another without an observer ever seeing "triggered but not yet
// waiting".
//
// # Cancellation
//
// [Cancellation] models the host's cancellation handle: an observable
// aborted flag plus one-shot callback registration via [OnAbort]. It is the
// Go analogue of a DOM-style AbortSignal/AbortController pair, sized down to
// exactly what this package needs.
//
// # Thread model
//
// This package's semantics originate from a single-threaded cooperative host:
// all mutations to a primitive's state happen logically atomically, with
// "await" as the only suspension point. In Go there is no single scheduler
// thread to lean on, so every primitive instead guards its state with a
// mutex and parks waiters on a channel; the net effect is the same FIFO,
// exactly-once-resolution semantics, safe for concurrent callers.
//
// # Usage
//
//	mu := asyncprimitives.NewMutex()
//	h, err := mu.Lock(nil) // nil Cancellation never aborts
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Release()
//
// # Error types
//
//	[AbortedError] - cancellation observed before acquisition/next item
//	[PanicError]   - wraps a recovered panic surfaced through a promise-like API
package asyncprimitives
