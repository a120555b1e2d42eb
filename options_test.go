package asyncprimitives

import (
	"bytes"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

// TestCommonOptions_ApplyAcrossPrimitives verifies that the single
// WithLogger/WithName pair accepted by every constructor actually reaches
// each primitive's embedded commonOptions, despite each having its own
// distinct Option interface.
func TestCommonOptions_ApplyAcrossPrimitives(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelTrace)

	mu := NewMutex(WithLogger(logger), WithName("my-mutex"))
	require.Equal(t, "my-mutex", mu.common.name)
	require.Same(t, logger, mu.common.logger)

	sem := NewSemaphore(1, WithLogger(logger), WithName("my-sem"))
	require.Equal(t, "my-sem", sem.common.name)

	rw := NewRWLock(WithName("my-rwlock"))
	require.Equal(t, "my-rwlock", rw.common.name)

	sig := NewManualSignal(WithName("my-signal"))
	require.Equal(t, "my-signal", sig.common.name)

	cond := NewConditional(WithName("my-cond"))
	require.Equal(t, "my-cond", cond.common.name)

	mc := NewManuallyConditional(WithName("my-mc"))
	require.Equal(t, "my-mc", mc.common.name)

	d := NewDeferred[int](nil, WithName("my-deferred"))
	require.Equal(t, "my-deferred", d.common.name)
}

func TestCommonOptions_DefaultNameIsNonEmptyUUID(t *testing.T) {
	mu := NewMutex()
	require.NotEmpty(t, mu.common.name)
	mu2 := NewMutex()
	require.NotEqual(t, mu.common.name, mu2.common.name)
}

func TestWithLogger_NilFallsBackToNoop(t *testing.T) {
	mu := NewMutex(WithLogger(nil))
	require.NotNil(t, mu.common.logger)
}

func TestWithName_EmptyIgnored(t *testing.T) {
	mu := NewMutex(WithName(""))
	require.NotEmpty(t, mu.common.name)
}

// TestWithLogger_ContentionWritesLogLines confirms the wired logger actually
// observes real primitive operations — enqueue and dispatch — rather
// than just being plumbed through and never called.
func TestWithLogger_ContentionWritesLogLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelTrace)
	mu := NewMutex(WithLogger(logger), WithName("contended-mutex"))

	held, err := mu.Lock(nil)
	require.NoError(t, err)

	queued := make(chan struct{})
	go func() {
		h, err := mu.Lock(nil)
		require.NoError(t, err)
		close(queued)
		h.Release()
	}()

	require.Eventually(t, func() bool { return mu.PendingCount() == 1 }, time.Second, time.Millisecond)
	held.Release()

	select {
	case <-queued:
	case <-time.After(time.Second):
		t.Fatal("queued waiter never acquired")
	}

	out := buf.String()
	require.Contains(t, out, "contended-mutex")
	require.Contains(t, out, "lock enqueue")
	require.Contains(t, out, "lock dispatch")
}
