package asyncprimitives

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestManualSignal_BroadcastAndReset reproduces the literal scenario: five
// waiters park on Wait, Set resolves all five; after Reset, a sixth Wait
// blocks until the next Set.
func TestManualSignal_BroadcastAndReset(t *testing.T) {
	sig := NewManualSignal()

	const n = 5
	resolved := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			h, err := sig.Wait(nil)
			require.NoError(t, err)
			require.NotNil(t, h)
			resolved <- i
		}()
	}

	require.Eventually(t, func() bool { return sig.PendingCount() == n }, time.Second, time.Millisecond)
	sig.Set()

	for i := 0; i < n; i++ {
		select {
		case <-resolved:
		case <-time.After(time.Second):
			t.Fatalf("waiter %d never resolved after Set", i)
		}
	}

	sig.Reset()

	sixth := make(chan struct{})
	go func() {
		h, err := sig.Wait(nil)
		require.NoError(t, err)
		require.NotNil(t, h)
		close(sixth)
	}()

	select {
	case <-sixth:
		t.Fatal("sixth waiter resolved before the next Set")
	case <-time.After(20 * time.Millisecond):
	}

	sig.Set()

	select {
	case <-sixth:
	case <-time.After(time.Second):
		t.Fatal("sixth waiter never resolved after the next Set")
	}
}

func TestManualSignal_WaitWhileAlreadySet(t *testing.T) {
	sig := NewManualSignal()
	sig.Set()
	h, err := sig.Wait(nil)
	require.NoError(t, err)
	require.False(t, h.Active()) // dummy handle; nothing was actually acquired
	h.Release()                  // no-op on a dummy handle
}

func TestManualSignal_SetIsIdempotent(t *testing.T) {
	sig := NewManualSignal()
	sig.Set()
	sig.Set() // must not panic or double-resolve anything
	h, err := sig.Wait(nil)
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestManualSignal_AbortWhileQueuedHasExactMessage(t *testing.T) {
	sig := NewManualSignal()
	src := NewCancellationSource()
	done := make(chan error, 1)
	go func() {
		_, err := sig.Wait(src.Signal())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	src.Cancel(nil)

	select {
	case err := <-done:
		require.Error(t, err)
		require.Equal(t, "Signal aborted", err.Error())
	case <-time.After(time.Second):
		t.Fatal("cancel did not unblock queued waiter")
	}
}
