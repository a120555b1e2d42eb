package asyncprimitives

import "sync/atomic"

// settlement is the three-value state a one-shot result can be in: not yet
// decided, or decided one of two ways. [Deferred] uses it directly
// (pending/resolved/rejected); [DeferredGenerator] reuses the same shape for
// its open/closed/failed lifecycle.
type settlement uint32

const (
	settlePending settlement = iota
	settleResolved
	settleRejected
)

func (s settlement) String() string {
	switch s {
	case settlePending:
		return "pending"
	case settleResolved:
		return "resolved"
	case settleRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// settleState is a lock-free pending→{resolved,rejected} state machine. Only
// the first CAS out of pending succeeds; every later attempt, from either
// goroutine, observes the state already settled. [Deferred] and
// [DeferredGenerator] rely on it to settle exactly once, even when a
// producer call and an abort race to settle them; the queue-based
// primitives instead resolve each waiter once through waitQueue's
// dequeue/cancel tombstone.
type settleState struct {
	v atomic.Uint32
}

// Load returns the current settlement, atomically.
func (s *settleState) Load() settlement {
	return settlement(s.v.Load())
}

// TrySettle attempts the one-way pending→to transition. Returns true iff
// this call won the race and performed the transition.
func (s *settleState) TrySettle(to settlement) bool {
	return s.v.CompareAndSwap(uint32(settlePending), uint32(to))
}

// Settled reports whether the state has left pending.
func (s *settleState) Settled() bool {
	return s.Load() != settlePending
}
