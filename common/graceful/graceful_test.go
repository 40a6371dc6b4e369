package graceful

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDrainWaitsForRequestsAndTasks(t *testing.T) {
	end := BeginRequest()
	var taskRan atomic.Bool
	GoCritical(context.Background(), "test", func(context.Context) {
		time.Sleep(20 * time.Millisecond)
		taskRan.Store(true)
	})

	go func() {
		time.Sleep(50 * time.Millisecond)
		end()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, Drain(ctx))
	require.True(t, taskRan.Load())
	require.Zero(t, InFlight())
}

func TestDrainTimesOut(t *testing.T) {
	end := BeginRequest()
	defer end()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, Drain(ctx), context.DeadlineExceeded)
}

func TestDraining(t *testing.T) {
	require.False(t, IsDraining())
	SetDraining()
	require.True(t, IsDraining())
	draining.Store(false)
}
