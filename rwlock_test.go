package asyncprimitives

import (
	"testing"
	"time"

	"github.com/joeycumines/go-asyncprimitives/internal/asynctest"
	"github.com/stretchr/testify/require"
)

// TestRWLock_WriterPreference reproduces the literal scenario: two readers
// hold the lock, one writer queues, then a new reader arrives. The writer
// must acquire before the new reader, even though the new reader's queue
// request comes after the writer's.
func TestRWLock_WriterPreference(t *testing.T) {
	rw := NewRWLock()

	r1, err := rw.ReadLock(nil)
	require.NoError(t, err)
	r2, err := rw.ReadLock(nil)
	require.NoError(t, err)
	require.Equal(t, 2, rw.CurrentReaders())

	writerAcquired := make(chan struct{})
	go func() {
		h, err := rw.WriteLock(nil)
		require.NoError(t, err)
		close(writerAcquired)
		time.Sleep(20 * time.Millisecond)
		h.Release()
	}()

	select {
	case <-writerAcquired:
		t.Fatal("writer acquired before readers released")
	case <-time.After(20 * time.Millisecond):
	}

	newReaderAcquired := make(chan struct{})
	go func() {
		h, err := rw.ReadLock(nil)
		require.NoError(t, err)
		close(newReaderAcquired)
		h.Release()
	}()

	// New reader must queue behind the writer, not jump ahead.
	select {
	case <-newReaderAcquired:
		t.Fatal("new reader acquired ahead of the queued writer")
	case <-time.After(20 * time.Millisecond):
	}

	r1.Release()
	r2.Release()

	select {
	case <-writerAcquired:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired after readers released")
	}

	select {
	case <-newReaderAcquired:
	case <-time.After(time.Second):
		t.Fatal("new reader never acquired after writer released")
	}
}

func TestRWLock_MultipleReadersConcurrent(t *testing.T) {
	rw := NewRWLock()
	const n = 5

	type acquired struct {
		h   *Handle
		err error
	}
	fn := func() acquired { h, err := rw.ReadLock(nil); return acquired{h, err} }
	results := asynctest.Fleet(fn, fn, fn, fn, fn)
	require.Equal(t, n, rw.CurrentReaders())
	require.False(t, rw.HasWriter())
	for _, r := range results {
		require.NoError(t, r.err)
		r.h.Release()
	}
	require.Equal(t, 0, rw.CurrentReaders())
}

func TestRWLock_WriterExclusive(t *testing.T) {
	rw := NewRWLock()
	h, err := rw.WriteLock(nil)
	require.NoError(t, err)
	require.True(t, rw.HasWriter())

	readerBlocked := make(chan struct{})
	go func() {
		rh, err := rw.ReadLock(nil)
		require.NoError(t, err)
		close(readerBlocked)
		rh.Release()
	}()

	select {
	case <-readerBlocked:
		t.Fatal("reader acquired while writer held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	h.Release()

	select {
	case <-readerBlocked:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired after writer released")
	}
}

func TestRWLock_CancelWhileQueued(t *testing.T) {
	rw := NewRWLock()
	h, err := rw.WriteLock(nil)
	require.NoError(t, err)

	src := NewCancellationSource()
	done := make(chan error, 1)
	go func() {
		_, err := rw.ReadLock(src.Signal())
		done <- err
	}()

	src.Cancel(nil)
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("cancel did not unblock queued reader")
	}
	h.Release()
}
