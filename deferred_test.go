package asyncprimitives

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeferred_ResolveThenWait(t *testing.T) {
	d := NewDeferred[int](nil)
	d.Resolve(42)
	v, err := d.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, d.Settled())
}

func TestDeferred_RejectPropagatesVerbatim(t *testing.T) {
	d := NewDeferred[string](nil)
	boom := errors.New("boom")
	d.Reject(boom)
	_, err := d.Wait()
	require.Same(t, boom, err)
}

func TestDeferred_FirstSettlementWins(t *testing.T) {
	d := NewDeferred[int](nil)
	d.Resolve(1)
	d.Resolve(2)
	d.Reject(errors.New("ignored"))
	v, err := d.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestDeferred_MultipleWaiters(t *testing.T) {
	d := NewDeferred[int](nil)
	const n = 5
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			v, err := d.Wait()
			require.NoError(t, err)
			results <- v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	d.Resolve(7)
	for i := 0; i < n; i++ {
		require.Equal(t, 7, <-results)
	}
}

func TestDeferred_AbortRejects(t *testing.T) {
	src := NewCancellationSource()
	d := NewDeferred[int](src.Signal())
	src.Cancel(errors.New("reason"))
	_, err := d.Wait()
	require.Error(t, err)
	require.ErrorIs(t, err, new(AbortedError))
}

func TestDeferred_AlreadyAbortedSettlesImmediately(t *testing.T) {
	src := NewCancellationSource()
	src.Cancel(nil)
	d := NewDeferred[int](src.Signal())
	require.True(t, d.Settled())
	_, err := d.Wait()
	require.Error(t, err)
}
