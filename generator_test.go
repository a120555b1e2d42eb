package asyncprimitives

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDeferredGenerator_AbortMidStream reproduces the literal scenario: the
// producer yields v1 and v2, the cancellation fires before a third yield,
// and the consumer observes v1, v2, then an error with the exact message
// "Deferred generator aborted".
func TestDeferredGenerator_AbortMidStream(t *testing.T) {
	src := NewCancellationSource()
	gen := NewDeferredGenerator[string](src.Signal())

	require.NoError(t, gen.Yield("v1"))
	require.NoError(t, gen.Yield("v2"))

	v, ok, err := gen.Next(nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", v)

	v, ok, err = gen.Next(nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)

	src.Cancel(nil)

	_, ok, err = gen.Next(nil)
	require.False(t, ok)
	require.Error(t, err)
	require.Equal(t, "Deferred generator aborted", err.Error())
}

func TestDeferredGenerator_ReturnEndsCleanly(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	require.NoError(t, gen.Yield(1))
	gen.Return()

	v, ok, err := gen.Next(nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok, err = gen.Next(nil)
	require.False(t, ok)
	require.NoError(t, err)
}

func TestDeferredGenerator_ThrowPropagatesVerbatim(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	boom := errors.New("boom")
	gen.Throw(boom)
	_, ok, err := gen.Next(nil)
	require.False(t, ok)
	require.Same(t, boom, err)
}

// TestDeferredGenerator_ThrowDiscardsBufferedValues covers spec's consumer
// contract: a mid-stream Throw must discard anything already buffered, not
// let the consumer drain past it to stale values.
func TestDeferredGenerator_ThrowDiscardsBufferedValues(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	require.NoError(t, gen.Yield(1))
	boom := errors.New("boom")
	gen.Throw(boom)

	_, ok, err := gen.Next(nil)
	require.False(t, ok)
	require.Same(t, boom, err)
}

func TestDeferredGenerator_YieldAfterCloseErrors(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	gen.Return()
	err := gen.Yield(1)
	require.ErrorIs(t, err, ErrGeneratorClosed)
}

func TestDeferredGenerator_ConsumerParksBeforeProducerYields(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	result := make(chan int, 1)
	errc := make(chan error, 1)
	go func() {
		v, ok, err := gen.Next(nil)
		if err != nil {
			errc <- err
			return
		}
		if !ok {
			errc <- errors.New("unexpected clean stop")
			return
		}
		result <- v
	}()

	require.Eventually(t, func() bool {
		gen.mu.Lock()
		defer gen.mu.Unlock()
		return gen.waiter != nil
	}, time.Second, time.Millisecond)
	require.NoError(t, gen.Yield(9))
	require.Equal(t, 9, <-result)
}

func TestDeferredGenerator_Range(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	require.NoError(t, gen.Yield(1))
	require.NoError(t, gen.Yield(2))
	require.NoError(t, gen.Yield(3))
	gen.Return()

	var got []int
	err := gen.Range(func(v int) error {
		got = append(got, v)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestDeferredGenerator_RangeStopsOnConsumerError(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	require.NoError(t, gen.Yield(1))
	require.NoError(t, gen.Yield(2))
	gen.Return()

	stop := errors.New("stop")
	err := gen.Range(func(v int) error {
		if v == 2 {
			return stop
		}
		return nil
	})
	require.Same(t, stop, err)
}

func TestDeferredGenerator_RangeRecoversPanic(t *testing.T) {
	gen := NewDeferredGenerator[int](nil)
	require.NoError(t, gen.Yield(1))
	gen.Return()

	err := gen.Range(func(v int) error {
		panic("kaboom")
	})
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	require.Equal(t, "kaboom", panicErr.Value)
}
