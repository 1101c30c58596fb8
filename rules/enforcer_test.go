package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a regular NSE trading day.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func newEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestEnforcerSessionWindows(t *testing.T) {
	t.Parallel()

	saturday := monday.AddDate(0, 0, 5)

	tests := []struct {
		name string
		now  time.Time
		want Violation
	}{
		{"mid_session", at(monday, 11, 0), None},
		{"before_open", at(monday, 9, 0), MarketClosed},
		{"opening_buffer", at(monday, 9, 20), OpeningWindow},
		{"first_tradable_minute", at(monday, 9, 30), None},
		{"closing_buffer", at(monday, 15, 20), ClosingWindow},
		{"after_close", at(monday, 16, 0), MarketClosed},
		{"weekend", at(saturday, 11, 0), Weekend},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := newEnforcer(t).CanTrade(tt.now)
			assert.Equal(t, tt.want, v.Violation, v.Detail)
			assert.Equal(t, tt.want == None, v.Allowed)
		})
	}
}

func TestEnforcerDailyTradeCap(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	for i := 0; i < 5; i++ {
		e.RecordTrade(500, at(monday, 10, i*10))
	}

	v := e.CanTrade(at(monday, 12, 0))
	assert.False(t, v.Allowed)
	assert.Equal(t, MaxTradesExceeded, v.Violation)
}

func TestEnforcerConsecutiveLosses(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	e.RecordTrade(-300, at(monday, 10, 0))
	e.RecordTrade(-300, at(monday, 10, 10))

	// Two losses only start the cooldown, not the streak block.
	v := e.CanTrade(at(monday, 11, 30))
	require.True(t, v.Allowed, v.Detail)

	e.RecordTrade(-300, at(monday, 10, 20))
	v = e.CanTrade(at(monday, 12, 0))
	assert.False(t, v.Allowed)
	assert.Equal(t, ConsecutiveLosses, v.Violation)

	assert.Equal(t, 3, e.Session().ConsecutiveLosses)
}

func TestEnforcerWinResetsLossStreak(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	e.RecordTrade(-300, at(monday, 10, 0))
	e.RecordTrade(-300, at(monday, 10, 10))
	e.RecordTrade(800, at(monday, 10, 20))

	s := e.Session()
	assert.Equal(t, 0, s.ConsecutiveLosses)
	assert.Equal(t, 1, s.ConsecutiveWins)
	assert.InDelta(t, 200.0, s.DayPnL, 1e-9)
}

func TestEnforcerTradeGap(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	e.RecordTrade(500, at(monday, 11, 0))

	v := e.CanTrade(at(monday, 11, 2))
	assert.False(t, v.Allowed)
	assert.Equal(t, TradeGap, v.Violation)

	v = e.CanTrade(at(monday, 11, 6))
	assert.True(t, v.Allowed, v.Detail)
}

func TestEnforcerLossCooldown(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	e.RecordTrade(-300, at(monday, 11, 0))

	// The five-minute gap has long passed; the hour-long cooldown has not.
	v := e.CanTrade(at(monday, 11, 30))
	assert.False(t, v.Allowed)
	assert.Equal(t, LossCooldown, v.Violation)

	v = e.CanTrade(at(monday, 12, 1))
	assert.True(t, v.Allowed, v.Detail)
}

func TestEnforcerChecksRunInOrder(t *testing.T) {
	t.Parallel()

	// Daily cap outranks the session-window checks.
	e := newEnforcer(t)
	for i := 0; i < 5; i++ {
		e.RecordTrade(500, at(monday, 10, i*10))
	}

	v := e.CanTrade(at(monday, 9, 0))
	assert.Equal(t, MaxTradesExceeded, v.Violation)
}

func TestEnforcerSessionRollover(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	e.RecordTrade(-300, at(monday, 10, 0))
	e.RecordTrade(-300, at(monday, 10, 10))
	e.RecordTrade(-300, at(monday, 10, 20))
	require.False(t, e.CanTrade(at(monday, 12, 0)).Allowed)

	tuesday := monday.AddDate(0, 0, 1)
	v := e.CanTrade(at(tuesday, 11, 0))
	assert.True(t, v.Allowed, v.Detail)
	assert.Equal(t, 0, e.Session().Trades)
	assert.Equal(t, 0, e.Session().ConsecutiveLosses)
}

func TestEnforcerOverride(t *testing.T) {
	t.Parallel()

	e := newEnforcer(t)
	e.RecordTrade(-300, at(monday, 10, 0))
	e.RecordTrade(-300, at(monday, 10, 10))
	e.RecordTrade(-300, at(monday, 10, 20))
	require.False(t, e.CanTrade(at(monday, 12, 0)).Allowed)

	assert.False(t, e.Override(""))
	require.True(t, e.Override("discretionary re-entry on reversal setup"))

	v := e.CanTrade(at(monday, 12, 0))
	assert.True(t, v.Allowed)

	reason, active := e.OverrideReason()
	assert.True(t, active)
	assert.Equal(t, "discretionary re-entry on reversal setup", reason)

	// The boundary clears the override along with the counters.
	tuesday := monday.AddDate(0, 0, 1)
	e.CanTrade(at(tuesday, 11, 0))
	_, active = e.OverrideReason()
	assert.False(t, active)
}
