package async_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agencykit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 42, func(_ context.Context, n int) (string, error) {
			return fmt.Sprintf("n=%d", n), nil
		})
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, "n=42", v)
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			return 0, boom
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context short-circuits", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var called atomic.Bool
		f := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called.Store(true)
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called.Load())
	})

	t.Run("settle keeps every outcome", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		boom := errors.New("boom")
		results := async.Settle(
			async.Async(ctx, 1, func(_ context.Context, n int) (int, error) { return n * 2, nil }),
			async.Async(ctx, 2, func(context.Context, int) (int, error) { return 0, boom }),
			async.Async(ctx, 3, func(_ context.Context, n int) (int, error) { return n * 2, nil }),
		)
		require.Len(t, results, 3)
		assert.Equal(t, 2, results[0].Value)
		assert.ErrorIs(t, results[1].Err, boom)
		assert.Equal(t, 6, results[2].Value)
	})
}

func TestMap(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	gate := make(chan struct{})
	boom := errors.New("odd")

	done := make(chan []async.Result[int])
	go func() {
		done <- async.Map(context.Background(), []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
			cur := inFlight.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			<-gate
			inFlight.Add(-1)
			if n%2 == 1 {
				return 0, boom
			}
			return n * 10, nil
		})
	}()

	require.Eventually(t, func() bool { return inFlight.Load() == 4 }, time.Second, time.Millisecond)
	close(gate)
	results := <-done

	assert.Equal(t, int32(4), peak.Load(), "all items run concurrently")
	require.Len(t, results, 4)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.Equal(t, 20, results[1].Value)
	assert.ErrorIs(t, results[2].Err, boom)
	assert.Equal(t, 40, results[3].Value)
}

func TestSettleEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, async.Settle[int]())
}
