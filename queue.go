package asyncprimitives

import "container/list"

// result is what a parked waiter receives once its slot is resolved: either
// a value, an error, or (generator consumers only) a clean-stop marker with
// neither.
type result[T any] struct {
	value T
	done  bool
	err   error
}

// slot is one pending caller, enlisted in a waitQueue. elem is non-nil while
// the slot is still enqueued; cancel and dequeue both consult it to decide
// whether they won the race to remove it — the list element pointer IS the
// tombstone.
type slot[T any] struct {
	ch   chan result[T]
	elem *list.Element
}

func newSlot[T any]() *slot[T] {
	return &slot[T]{ch: make(chan result[T], 1)}
}

// resolve delivers r to the slot's single receiver. Callers must only
// resolve a slot they have just removed from its queue (via dequeueOne,
// drainAll, or a successful cancel), so this never fires more than once.
func (s *slot[T]) resolve(r result[T]) {
	s.ch <- r
}

// wait blocks until the slot is resolved.
func (s *slot[T]) wait() result[T] {
	return <-s.ch
}

// waitQueue is a FIFO list of pending slots with O(1) enqueue, dequeue and
// cancellation, given the slot's own list.Element. It is not internally
// synchronized: every primitive in this package guards its waitQueue with
// its own mutex, and only ever touches the queue while holding it — this is
// what the spec calls doing the check-and-set "without intervening awaits".
type waitQueue[T any] struct {
	l list.List
}

// enqueue appends s to the back of the queue.
func (q *waitQueue[T]) enqueue(s *slot[T]) {
	s.elem = q.l.PushBack(s)
}

// dequeueOne removes and returns the front slot, or nil if the queue is empty.
func (q *waitQueue[T]) dequeueOne() *slot[T] {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	q.l.Remove(e)
	s := e.Value.(*slot[T])
	s.elem = nil
	return s
}

// drainAll removes and returns every slot, in FIFO order, emptying the queue.
func (q *waitQueue[T]) drainAll() []*slot[T] {
	if q.l.Len() == 0 {
		return nil
	}
	out := make([]*slot[T], 0, q.l.Len())
	for e := q.l.Front(); e != nil; {
		next := e.Next()
		s := e.Value.(*slot[T])
		q.l.Remove(e)
		s.elem = nil
		out = append(out, s)
		e = next
	}
	return out
}

// cancel removes s from the queue if it is still enqueued. Returns false if
// a producer already dequeued it (a race this method is designed to lose
// gracefully — the producer's resolve then wins).
func (q *waitQueue[T]) cancel(s *slot[T]) bool {
	if s.elem == nil {
		return false
	}
	q.l.Remove(s.elem)
	s.elem = nil
	return true
}

// len reports the number of slots currently enqueued.
func (q *waitQueue[T]) len() int {
	return q.l.Len()
}
