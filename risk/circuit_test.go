package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		dayPnL float64
		want   AlertLevel
	}{
		{"flat", 0, Safe},
		{"profit", 3000, Safe},
		{"small_loss", -2000, Safe},
		{"half_limit", -2500, BreakerCaution},
		{"warning", -4000, BreakerWarning},
		{"at_limit", -5000, Triggered},
		{"past_limit", -7500, Triggered},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cb := NewCircuitBreaker(5000, 100_000)
			assert.Equal(t, tt.want, cb.Update(tt.dayPnL, t0))
		})
	}
}

func TestCircuitBreakerTriggerBlocksUntilReset(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(5000, 100_000)

	cb.Update(-3000, t0)
	ok, _ := cb.CanTrade()
	require.True(t, ok)

	require.Equal(t, Triggered, cb.Update(-5000, t0.Add(time.Hour)))
	ok, reason := cb.CanTrade()
	assert.False(t, ok)
	assert.Contains(t, reason, "circuit breaker")

	// Recovering P&L within the session does not un-trigger.
	cb.Update(-1000, t0.Add(2*time.Hour))
	ok, _ = cb.CanTrade()
	assert.False(t, ok)

	// Session boundary clears everything.
	cb.ResetSession(95_000)
	assert.Equal(t, Safe, cb.Level())
	ok, _ = cb.CanTrade()
	assert.True(t, ok)
}

func TestCircuitBreakerAlertsFireOncePerLevel(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(5000, 100_000)
	cb.Update(-2600, t0)
	cb.Update(-2700, t0.Add(time.Minute))
	cb.Update(-4100, t0.Add(2*time.Minute))
	cb.Update(-5200, t0.Add(3*time.Minute))
	cb.Update(-6000, t0.Add(4*time.Minute))

	alerts := cb.Alerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, BreakerCaution, alerts[0].Level)
	assert.Equal(t, BreakerWarning, alerts[1].Level)
	assert.Equal(t, Triggered, alerts[2].Level)

	// Drained.
	assert.Empty(t, cb.Alerts())
}

func TestCircuitBreakerOverride(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(5000, 100_000)
	cb.Update(-5000, t0)

	// Empty reason refused.
	assert.False(t, cb.Override(""))
	ok, _ := cb.CanTrade()
	require.False(t, ok)

	require.True(t, cb.Override("manual restart after fat-finger fill"))
	ok, _ = cb.CanTrade()
	assert.True(t, ok)

	reason, active := cb.OverrideReason()
	assert.True(t, active)
	assert.Equal(t, "manual restart after fat-finger fill", reason)

	// Overrides never survive the session boundary.
	cb.ResetSession(95_000)
	_, active = cb.OverrideReason()
	assert.False(t, active)
}
