package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsMatchDocumentedValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 3, cfg.HTTPRetryAttempts)
	require.Equal(t, 200*time.Millisecond, cfg.HTTPRetryBase)
	require.Equal(t, 30*time.Minute, cfg.DraftLifetime)
	require.Equal(t, 2*time.Second, cfg.RateLimitSecond)
	require.Equal(t, 2, cfg.RateLimitPerMinute)
	require.Equal(t, 50, cfg.RateLimitPerHour)
	require.Equal(t, 28, cfg.TimeslotWindowMaxDays)
}

func TestLoadReadsBareMillisecondValues(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_MS", "2500")
	t.Setenv("TIMESLOT_POLL_INTERVAL_MS", "1500")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2500*time.Millisecond, cfg.HTTPTimeout)
	require.Equal(t, 1500*time.Millisecond, cfg.TimeslotPollInterval)
}

func TestLoadAcceptsGoDurationSyntaxToo(t *testing.T) {
	t.Setenv("DRAFT_POLL_INTERVAL_MS", "15s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, cfg.DraftPollInterval)
}

func TestParseMillisRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := parseMillis("not-a-number")
	require.Error(t, err)
}
