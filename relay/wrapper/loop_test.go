package wrapper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	loop := NewLoop(context.Background())
	defer loop.Close()

	var order []int
	for i := range 3 {
		err := loop.RunUntilComplete(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestLoopClose(t *testing.T) {
	loop := NewLoop(context.Background())

	var taskCtx context.Context
	require.NoError(t, loop.RunUntilComplete(func(ctx context.Context) error {
		taskCtx = ctx
		return nil
	}))
	require.NoError(t, taskCtx.Err())

	require.NoError(t, loop.Close())
	require.NoError(t, loop.Close())
	require.ErrorIs(t, taskCtx.Err(), context.Canceled)

	err := loop.RunUntilComplete(func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, ErrLoopClosed)
}

func TestLoopCloseWaitsForRunningTask(t *testing.T) {
	loop := NewLoop(context.Background())

	started := make(chan struct{})
	var finished atomic.Bool
	go func() {
		_ = loop.RunUntilComplete(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			finished.Store(true)
			return ctx.Err()
		})
	}()

	<-started
	require.NoError(t, loop.Close())
	require.True(t, finished.Load())
}

func TestLoopRecoversPanickingTask(t *testing.T) {
	loop := NewLoop(context.Background())
	defer loop.Close()

	err := loop.RunUntilComplete(func(ctx context.Context) error {
		panic("boom")
	})
	require.ErrorContains(t, err, "boom")

	require.NoError(t, loop.RunUntilComplete(func(ctx context.Context) error { return nil }))
}

func TestLoopInheritsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(ctx)
	defer loop.Close()

	cancel()
	err := loop.RunUntilComplete(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
}
