package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerFiresOnce(t *testing.T) {
	var fired int64
	timer := NewTimer(func(context.Context, uint64) error {
		atomic.AddInt64(&fired, 1)
		return nil
	})
	defer timer.Stop()

	require.NoError(t, timer.Schedule(context.Background(), 1, 20*time.Millisecond))
	require.Eventually(t, func() bool { return atomic.LoadInt64(&fired) == 1 }, time.Second, 5*time.Millisecond)

	// No stray second firing.
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt64(&fired))
}

func TestScheduleDedupesPendingTimers(t *testing.T) {
	var fired int64
	timer := NewTimer(func(context.Context, uint64) error {
		atomic.AddInt64(&fired, 1)
		return nil
	})
	defer timer.Stop()

	ctx := context.Background()
	require.NoError(t, timer.Schedule(ctx, 7, 30*time.Millisecond))
	require.NoError(t, timer.Schedule(ctx, 7, 30*time.Millisecond))

	time.Sleep(150 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt64(&fired))
}

func TestTimerRetriesAfterError(t *testing.T) {
	var calls int64
	timer := NewTimer(func(context.Context, uint64) error {
		if atomic.AddInt64(&calls, 1) == 1 {
			return errors.New("transient storage error")
		}
		return nil
	})
	timer.retryDelay = 10 * time.Millisecond
	defer timer.Stop()

	require.NoError(t, timer.Schedule(context.Background(), 3, 10*time.Millisecond))
	require.Eventually(t, func() bool { return atomic.LoadInt64(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestStopCancelsPendingTimers(t *testing.T) {
	var fired int64
	timer := NewTimer(func(context.Context, uint64) error {
		atomic.AddInt64(&fired, 1)
		return nil
	})

	require.NoError(t, timer.Schedule(context.Background(), 9, 50*time.Millisecond))
	timer.Stop()

	time.Sleep(120 * time.Millisecond)
	require.EqualValues(t, 0, atomic.LoadInt64(&fired))
}
