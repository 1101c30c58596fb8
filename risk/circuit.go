package risk

import (
	"time"
)

// AlertLevel is the circuit breaker's tiered status against the daily
// loss limit.
type AlertLevel int8

const (
	Safe           AlertLevel = iota // < 50% of limit
	BreakerCaution                   // 50-80%
	BreakerWarning                   // 80-100%
	Triggered                        // >= 100%, trading blocked
)

func (l AlertLevel) String() string {
	switch l {
	case BreakerCaution:
		return "CAUTION"
	case BreakerWarning:
		return "WARNING"
	case Triggered:
		return "TRIGGERED"
	default:
		return "SAFE"
	}
}

const (
	cautionFrac = 0.5
	warningFrac = 0.8
)

// BreakerAlert is emitted once per level escalation for the reporting
// surface.
type BreakerAlert struct {
	Level  AlertLevel
	DayPnL float64
	Limit  float64
	At     time.Time
}

// CircuitBreaker blocks all new entries once cumulative day P&L reaches
// the daily loss limit. Once TRIGGERED it stays blocked until the next
// session boundary unless explicitly overridden with a recorded reason;
// overrides never persist past the session reset.
type CircuitBreaker struct {
	limit float64

	dayStartCapital float64
	dayPnL          float64
	level           AlertLevel
	triggeredAt     time.Time

	overrideActive bool
	overrideReason string

	alerts []BreakerAlert
}

func NewCircuitBreaker(dailyLossLimit, dayStartCapital float64) *CircuitBreaker {
	return &CircuitBreaker{
		limit:           dailyLossLimit,
		dayStartCapital: dayStartCapital,
	}
}

// Update feeds the cumulative realized+unrealized day P&L and returns
// the resulting alert level. Levels only escalate within a session; a
// recovering P&L does not un-trigger the breaker.
func (cb *CircuitBreaker) Update(dayPnL float64, now time.Time) AlertLevel {
	cb.dayPnL = dayPnL

	loss := -dayPnL
	if loss < 0 {
		loss = 0
	}

	level := Safe
	switch {
	case loss >= cb.limit:
		level = Triggered
	case loss >= cb.limit*warningFrac:
		level = BreakerWarning
	case loss >= cb.limit*cautionFrac:
		level = BreakerCaution
	}

	if level > cb.level {
		cb.level = level
		cb.alerts = append(cb.alerts, BreakerAlert{
			Level:  level,
			DayPnL: dayPnL,
			Limit:  cb.limit,
			At:     now,
		})
		if level == Triggered {
			cb.triggeredAt = now
		}
	}

	return cb.level
}

// CanTrade reports whether new entries are allowed.
func (cb *CircuitBreaker) CanTrade() (bool, string) {
	if cb.level == Triggered && !cb.overrideActive {
		return false, "circuit breaker triggered: day loss reached daily limit"
	}
	return true, ""
}

func (cb *CircuitBreaker) Level() AlertLevel { return cb.level }
func (cb *CircuitBreaker) Limit() float64    { return cb.limit }
func (cb *CircuitBreaker) DayPnL() float64   { return cb.dayPnL }

// Alerts drains the alert events emitted since the last call.
func (cb *CircuitBreaker) Alerts() []BreakerAlert {
	out := cb.alerts
	cb.alerts = nil
	return out
}

// Override lifts a triggered breaker for the remainder of the session.
// The reason is recorded; an empty reason is refused.
func (cb *CircuitBreaker) Override(reason string) bool {
	if reason == "" {
		return false
	}
	cb.overrideActive = true
	cb.overrideReason = reason
	return true
}

func (cb *CircuitBreaker) OverrideReason() (string, bool) {
	return cb.overrideReason, cb.overrideActive
}

// ResetSession starts a new trading day. Overrides and trigger state do
// not survive the boundary.
func (cb *CircuitBreaker) ResetSession(dayStartCapital float64) {
	cb.dayStartCapital = dayStartCapital
	cb.dayPnL = 0
	cb.level = Safe
	cb.triggeredAt = time.Time{}
	cb.overrideActive = false
	cb.overrideReason = ""
}
