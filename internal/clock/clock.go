// Package clock provides the Moscow-timezone day-boundary arithmetic and
// ISO formatting the orchestration engine needs to compute search windows
// and to talk to the marketplace's UTC, millisecond-stripped wire format.
package clock

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source every blocking component is built against so
// tests can substitute clockwork.NewFakeClock() in place of the real wall
// clock.
type Clock = clockwork.Clock

// New returns the real wall clock for production use.
func New() Clock {
	return clockwork.NewRealClock()
}

// Moscow is the timezone the marketplace's day boundaries are defined in.
var Moscow = mustLoadLocation("Europe/Moscow")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Europe/Moscow is a fixed +3 offset with no DST since 2014; fall
		// back to a fixed zone rather than failing construction if the
		// platform's tzdata is unavailable.
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// StartOfMoscowDay returns 00:00:00 Moscow time on the calendar day that t
// falls on.
func StartOfMoscowDay(t time.Time) time.Time {
	mt := t.In(Moscow)
	return time.Date(mt.Year(), mt.Month(), mt.Day(), 0, 0, 0, 0, Moscow)
}

// EndOfMoscowDay returns 23:59:59.999999999 Moscow time on the calendar day
// that t falls on.
func EndOfMoscowDay(t time.Time) time.Time {
	return StartOfMoscowDay(t).Add(24*time.Hour - time.Nanosecond)
}

// AddDays adds n calendar days to t.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// MinTime returns the earlier of two instants.
func MinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// ISO formats t as the marketplace wire format: UTC, millis stripped, "Z"
// suffix (e.g. "2026-07-29T10:00:00Z").
func ISO(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// ParseISO parses the marketplace's millis-stripped UTC timestamp format,
// also tolerating a fractional-second suffix some endpoints still emit.
func ParseISO(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05Z", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Sleep blocks for d, or until ctx is cancelled, whichever comes first. It
// is the one suspension primitive every poll/backoff loop in the engine
// uses so cancellation always wins a race against a timer.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := clk.NewTimer(d)
	select {
	case <-timer.Chan():
		return ctx.Err()
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
