package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// acquireOnFake runs Acquire in a goroutine and advances the fake clock in a
// loop until it returns, so tests don't need to guess how many intermediate
// waits the limiter will schedule before granting a slot.
func acquireOnFake(t *testing.T, l *Limiter, fc clockwork.FakeClock, ctx context.Context, key string) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx, key) }()

	for {
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Millisecond):
			fc.BlockUntil(1)
			fc.Advance(time.Second)
		}
	}
}

func TestAcquireGrantsImmediatelyWhenIdle(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	l := New(DefaultConfig(), fc)

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background(), "client-1") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first acquire on an idle limiter should not block")
	}
}

func TestAcquireEnforcesPerSecondSpacing(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	cfg := Config{PerSecond: 2 * time.Second, PerMinute: 100, PerHour: 1000}
	l := New(cfg, fc)

	require.NoError(t, l.Acquire(context.Background(), "c"))

	wait, ok := l.tryAcquire("c")
	require.False(t, ok, "second call within the per-second window must not be admitted immediately")
	require.GreaterOrEqual(t, wait, minWait)
}

func TestAcquireEnforcesPerMinuteCap(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	cfg := Config{PerSecond: 0, PerMinute: 2, PerHour: 1000}
	l := New(cfg, fc)

	require.NoError(t, l.Acquire(context.Background(), "c"))
	fc.Advance(time.Millisecond)
	require.NoError(t, l.Acquire(context.Background(), "c"))

	_, ok := l.tryAcquire("c")
	require.False(t, ok, "third call within the rolling minute must be rejected")

	fc.Advance(time.Minute + time.Second)
	_, ok = l.tryAcquire("c")
	require.True(t, ok, "call after the minute window slides should be admitted")
}

func TestAcquireEnforcesPerHourCap(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	cfg := Config{PerSecond: 0, PerMinute: 1000, PerHour: 1}
	l := New(cfg, fc)

	require.NoError(t, l.Acquire(context.Background(), "c"))

	_, ok := l.tryAcquire("c")
	require.False(t, ok)

	fc.Advance(time.Hour + time.Second)
	_, ok = l.tryAcquire("c")
	require.True(t, ok)
}

func TestAcquireCancellationUnblocksImmediately(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	cfg := Config{PerSecond: time.Hour, PerMinute: 1000, PerHour: 1000}
	l := New(cfg, fc)

	require.NoError(t, l.Acquire(context.Background(), "c"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx, "c") }()

	fc.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock after cancellation")
	}
}

func TestAcquireDoesNotCrossCredentials(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	cfg := Config{PerSecond: time.Hour, PerMinute: 1, PerHour: 1}
	l := New(cfg, fc)

	require.NoError(t, l.Acquire(context.Background(), "client-a"))

	_, ok := l.tryAcquire("client-a")
	require.False(t, ok)

	// A different credential has its own independent window.
	require.NoError(t, l.Acquire(context.Background(), "client-b"))
}

func TestSlidingWindowAdmitsAtMostPerHourAcrossManyAcquires(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	cfg := Config{PerSecond: 10 * time.Millisecond, PerMinute: 50, PerHour: 5}
	l := New(cfg, fc)

	admitted := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, acquireOnFake(t, l, fc, context.Background(), "c"))
		admitted++
	}
	require.Equal(t, 5, admitted)

	// Step past the per-second spacing so only the hourly cap can reject.
	fc.Advance(time.Second)
	_, ok := l.tryAcquire("c")
	require.False(t, ok, "a 6th call inside the rolling hour must not be admitted")
}
