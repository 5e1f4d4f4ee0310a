package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// counter is a tiny journaled state cell.
type counter struct {
	c *Chain
	v int
}

func (k *counter) add(ctx context.Context, n int) error {
	prev := k.v
	if err := k.c.Record(ctx, func() { k.v = prev }); err != nil {
		return err
	}
	k.v += n
	return nil
}

func TestCallCommitsOnSuccess(t *testing.T) {
	c := New()
	k := &counter{c: c}

	err := c.Call(context.Background(), func(ctx context.Context) error {
		return k.add(ctx, 5)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, k.v)
	assert.Equal(t, uint64(1), c.Height())
}

func TestCallRevertsOnError(t *testing.T) {
	c := New()
	k := &counter{c: c}

	err := c.Call(context.Background(), func(ctx context.Context) error {
		require.NoError(t, k.add(ctx, 1))
		require.NoError(t, k.add(ctx, 2))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, k.v)
	assert.Equal(t, uint64(0), c.Height())
}

func TestNestedCallRevertsOnlyItself(t *testing.T) {
	c := New()
	k := &counter{c: c}

	err := c.Call(context.Background(), func(ctx context.Context) error {
		require.NoError(t, k.add(ctx, 10))
		inner := c.Call(ctx, func(ctx context.Context) error {
			assert.Equal(t, 1, c.Depth(ctx))
			require.NoError(t, k.add(ctx, 100))
			return errBoom
		})
		assert.ErrorIs(t, inner, errBoom)
		assert.Equal(t, 10, k.v)
		return k.add(ctx, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, 11, k.v)
}

func TestNestedErrorPropagatesToTopLevel(t *testing.T) {
	c := New()
	k := &counter{c: c}

	err := c.Call(context.Background(), func(ctx context.Context) error {
		require.NoError(t, k.add(ctx, 10))
		return c.Call(ctx, func(ctx context.Context) error {
			require.NoError(t, k.add(ctx, 100))
			return errBoom
		})
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, k.v)
}

func TestRecordOutsideCall(t *testing.T) {
	c := New()
	err := c.Record(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrNoActiveCall)
	assert.False(t, c.InCall(context.Background()))
	assert.Equal(t, -1, c.Depth(context.Background()))
}

func TestBlockTimeFixedForCall(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	ticks := 0
	c := New().WithClock(func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	})

	err := c.Call(context.Background(), func(ctx context.Context) error {
		first := c.Now(ctx)
		return c.Call(ctx, func(ctx context.Context) error {
			assert.Equal(t, first, c.Now(ctx))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ticks)
}

func TestCanceledContext(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := c.Call(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestOnCommitHook(t *testing.T) {
	c := New()
	var heights []uint64
	c.OnCommit(func(h uint64) { heights = append(heights, h) })

	require.NoError(t, c.Call(context.Background(), func(context.Context) error { return nil }))
	require.Error(t, c.Call(context.Background(), func(context.Context) error { return errBoom }))
	require.NoError(t, c.Call(context.Background(), func(context.Context) error { return nil }))

	assert.Equal(t, []uint64{1, 2}, heights)
}

func TestConcurrentCallsSerialize(t *testing.T) {
	c := New()
	k := &counter{c: c}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Call(context.Background(), func(ctx context.Context) error {
				return k.add(ctx, 1)
			})
		}()
	}
	wg.Wait()

	c.Exclusive(func() {
		assert.Equal(t, 50, k.v)
	})
	assert.Equal(t, uint64(50), c.Height())
}

func TestViewDoesNotCommit(t *testing.T) {
	c := New()
	hooks := 0
	c.OnCommit(func(uint64) { hooks++ })

	err := c.View(context.Background(), func(ctx context.Context) error {
		assert.True(t, c.InCall(ctx))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.Height())
	assert.Zero(t, hooks)
}

func TestPanicRevertsCall(t *testing.T) {
	c := New()
	k := &counter{c: c}

	assert.PanicsWithValue(t, "venue blew up", func() {
		_ = c.Call(context.Background(), func(ctx context.Context) error {
			require.NoError(t, k.add(ctx, 7))
			panic("venue blew up")
		})
	})
	assert.Equal(t, 0, k.v)
	assert.Equal(t, uint64(0), c.Height())

	// The lock is released and the next call starts from the reverted state.
	require.NoError(t, c.Call(context.Background(), func(ctx context.Context) error {
		return k.add(ctx, 1)
	}))
	assert.Equal(t, 1, k.v)
}

func TestNestedPanicRevertsEverything(t *testing.T) {
	c := New()
	k := &counter{c: c}

	assert.Panics(t, func() {
		_ = c.Call(context.Background(), func(ctx context.Context) error {
			require.NoError(t, k.add(ctx, 10))
			return c.Call(ctx, func(ctx context.Context) error {
				require.NoError(t, k.add(ctx, 100))
				panic(errBoom)
			})
		})
	})
	assert.Equal(t, 0, k.v)
	assert.Equal(t, uint64(0), c.Height())
}
