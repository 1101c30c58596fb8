package rules

import (
	"fmt"
	"sync"
	"time"
)

// Violation codes why the cadence policy blocked a trade. Like risk
// rejections these are expected outcomes carried as typed results.
type Violation int8

const (
	None Violation = iota
	MaxTradesExceeded
	ConsecutiveLosses
	TradeGap
	LossCooldown
	MarketClosed
	OpeningWindow
	ClosingWindow
	Weekend
)

func (v Violation) String() string {
	switch v {
	case MaxTradesExceeded:
		return "MAX_TRADES_EXCEEDED"
	case ConsecutiveLosses:
		return "CONSECUTIVE_LOSSES"
	case TradeGap:
		return "TRADE_GAP"
	case LossCooldown:
		return "LOSS_COOLDOWN"
	case MarketClosed:
		return "MARKET_CLOSED"
	case OpeningWindow:
		return "OPENING_WINDOW"
	case ClosingWindow:
		return "CLOSING_WINDOW"
	case Weekend:
		return "WEEKEND"
	default:
		return "NONE"
	}
}

// Verdict is the result of a cadence check.
type Verdict struct {
	Allowed   bool
	Violation Violation
	Detail    string
}

func block(v Violation, detail string) Verdict {
	return Verdict{Violation: v, Detail: detail}
}

// SessionState is the per-day counter set the policy evaluates against.
// It rolls over automatically at the first call on a new calendar day.
type SessionState struct {
	Date              time.Time
	Trades            int
	ConsecutiveWins   int
	ConsecutiveLosses int
	DayPnL            float64
	LastTrade         time.Time
	LastLoss          time.Time
}

// Enforcer is the stateful trade-cadence gate. It fails closed: every
// configured rule must pass before a trade is allowed, and only an
// explicit override with a recorded reason lifts a block.
type Enforcer struct {
	mu sync.Mutex

	cfg      Config
	openMin  int
	closeMin int

	state SessionState

	overrideActive bool
	overrideReason string
}

func NewEnforcer(cfg Config) (*Enforcer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	openMin, _ := parseClock(cfg.SessionOpen)
	closeMin, _ := parseClock(cfg.SessionClose)
	return &Enforcer{cfg: cfg, openMin: openMin, closeMin: closeMin}, nil
}

// CanTrade evaluates every rule in a fixed order and returns the first
// violation. An active override skips the check entirely.
func (e *Enforcer) CanTrade(now time.Time) Verdict {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rollover(now)

	if e.overrideActive {
		return Verdict{Allowed: true}
	}

	if e.state.Trades >= e.cfg.MaxTradesPerDay {
		return block(MaxTradesExceeded,
			fmt.Sprintf("daily cap of %d trades reached", e.cfg.MaxTradesPerDay))
	}
	if e.state.ConsecutiveLosses >= e.cfg.MaxConsecutiveLosses {
		return block(ConsecutiveLosses,
			fmt.Sprintf("%d consecutive losses, done for the day", e.state.ConsecutiveLosses))
	}
	if !e.state.LastTrade.IsZero() {
		gap := time.Duration(e.cfg.MinTradeGapMin) * time.Minute
		if since := now.Sub(e.state.LastTrade); since < gap {
			return block(TradeGap,
				fmt.Sprintf("wait %s between trades", (gap - since).Round(time.Second)))
		}
	}
	if !e.state.LastLoss.IsZero() {
		cooldown := time.Duration(e.cfg.LossCooldownMin) * time.Minute
		if since := now.Sub(e.state.LastLoss); since < cooldown {
			return block(LossCooldown,
				fmt.Sprintf("cooling off for %s after a loss", (cooldown - since).Round(time.Second)))
		}
	}

	clock := minuteOfDay(now)
	switch {
	case clock < e.openMin || clock >= e.closeMin:
		return block(MarketClosed,
			fmt.Sprintf("outside session %s-%s", e.cfg.SessionOpen, e.cfg.SessionClose))
	case clock < e.openMin+e.cfg.OpenBufferMin:
		return block(OpeningWindow,
			fmt.Sprintf("first %d minutes of the session are off limits", e.cfg.OpenBufferMin))
	case clock >= e.closeMin-e.cfg.CloseBufferMin:
		return block(ClosingWindow,
			fmt.Sprintf("last %d minutes of the session are off limits", e.cfg.CloseBufferMin))
	}

	if e.cfg.SkipWeekends {
		if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return block(Weekend, "no weekend trading")
		}
	}

	return Verdict{Allowed: true}
}

// RecordTrade updates the day's counters with a completed round-trip.
// A win resets the loss streak, a loss extends it and starts the
// cooldown clock; breakeven trades reset both streaks.
func (e *Enforcer) RecordTrade(pnl float64, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rollover(at)

	e.state.Trades++
	e.state.LastTrade = at
	e.state.DayPnL += pnl

	switch {
	case pnl > 0:
		e.state.ConsecutiveWins++
		e.state.ConsecutiveLosses = 0
	case pnl < 0:
		e.state.ConsecutiveLosses++
		e.state.ConsecutiveWins = 0
		e.state.LastLoss = at
	default:
		e.state.ConsecutiveWins = 0
		e.state.ConsecutiveLosses = 0
	}
}

// Override lifts all cadence rules for the rest of the session. The
// reason is required and recorded.
func (e *Enforcer) Override(reason string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if reason == "" {
		return false
	}
	e.overrideActive = true
	e.overrideReason = reason
	return true
}

func (e *Enforcer) OverrideReason() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overrideReason, e.overrideActive
}

// Session returns a snapshot of the current day's counters.
func (e *Enforcer) Session() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// rollover resets the counters when the calendar day changes. Overrides
// never survive the boundary.
func (e *Enforcer) rollover(now time.Time) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if e.state.Date.Equal(day) {
		return
	}
	e.state = SessionState{Date: day}
	e.overrideActive = false
	e.overrideReason = ""
}
