package clock

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestStartAndEndOfMoscowDay(t *testing.T) {
	t.Parallel()

	// 2026-07-29 23:30 UTC is 2026-07-30 02:30 Moscow time.
	in := time.Date(2026, 7, 29, 23, 30, 0, 0, time.UTC)

	start := StartOfMoscowDay(in)
	require.Equal(t, "2026-07-30T00:00:00+03:00", start.Format(time.RFC3339))

	end := EndOfMoscowDay(in)
	require.Equal(t, "2026-07-30T23:59:59+03:00", end.Truncate(time.Second).Format(time.RFC3339))
	require.True(t, end.After(start))
	require.True(t, end.Sub(start) < 24*time.Hour)
}

func TestAddDays(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC), AddDays(base, 2))
	require.Equal(t, base, AddDays(base, 0))
}

func TestMinTime(t *testing.T) {
	t.Parallel()

	a := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, a, MinTime(a, b))
	require.Equal(t, a, MinTime(b, a))
}

func TestISORoundTrip(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 7, 29, 10, 0, 0, 123_000_000, time.UTC)
	s := ISO(in)
	require.Equal(t, "2026-07-29T10:00:00Z", s)

	parsed, err := ParseISO(s)
	require.NoError(t, err)
	require.True(t, parsed.Equal(in.Truncate(time.Second)))
}

func TestParseISOAcceptsFractionalSeconds(t *testing.T) {
	t.Parallel()

	parsed, err := ParseISO("2026-07-29T10:00:00.500Z")
	require.NoError(t, err)
	require.Equal(t, 2026, parsed.Year())
}

func TestSleepHonoursCancellation(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Sleep(ctx, fc, time.Minute) }()

	fc.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Sleep did not return after cancellation")
	}
}

func TestSleepReturnsOnTimerFire(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	done := make(chan error, 1)
	go func() { done <- Sleep(context.Background(), fc, time.Second) }()

	fc.BlockUntil(1)
	fc.Advance(time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Sleep did not return after timer fired")
	}
}

func TestSleepZeroDurationReturnsImmediately(t *testing.T) {
	t.Parallel()

	require.NoError(t, Sleep(context.Background(), clockwork.NewFakeClock(), 0))
}
