package risk

import "time"

// DrawdownState is the result of a capital update: drawdown is always
// measured against the running peak, never the initial capital.
type DrawdownState struct {
	Peak        float64
	Capital     float64
	DrawdownPct float64
	Tier        Tier
	Multiplier  float64
	EnteredAt   time.Time
	// PausedUntil is set while a cool-off band blocks trading.
	PausedUntil time.Time
}

// DrawdownManager classifies drawdown against an ordered tier table and
// throttles position size accordingly. Tiers are re-evaluated fresh on
// every update; an optional hysteresis cushion damps downgrade flapping
// near a boundary.
type DrawdownManager struct {
	tiers      []TierBand
	hysteresis float64

	peak    float64
	capital float64
	state   DrawdownState
}

func NewDrawdownManager(initialCapital float64, tiers []TierBand, hysteresisPct float64) *DrawdownManager {
	m := &DrawdownManager{
		tiers:      tiers,
		hysteresis: hysteresisPct,
		peak:       initialCapital,
		capital:    initialCapital,
	}
	m.state = DrawdownState{
		Peak:       initialCapital,
		Capital:    initialCapital,
		Tier:       tiers[0].Tier,
		Multiplier: tiers[0].Multiplier,
	}
	return m
}

// Update recomputes peak, drawdown percent and tier for the new capital.
func (m *DrawdownManager) Update(capital float64, now time.Time) DrawdownState {
	m.capital = capital
	if capital > m.peak {
		m.peak = capital
	}

	ddPct := 0.0
	if m.peak > 0 {
		ddPct = (m.peak - capital) / m.peak * 100
	}

	band := m.bandFor(ddPct)

	// Hysteresis: to move to a LESS severe band, drawdown must clear the
	// current band's threshold by the cushion.
	if m.hysteresis > 0 && band.Tier < m.state.Tier {
		current := m.currentBand()
		if ddPct > current.Threshold-m.hysteresis {
			band = current
		}
	}

	prev := m.state
	m.state = DrawdownState{
		Peak:        m.peak,
		Capital:     capital,
		DrawdownPct: ddPct,
		Tier:        band.Tier,
		Multiplier:  band.Multiplier,
		EnteredAt:   prev.EnteredAt,
		PausedUntil: prev.PausedUntil,
	}

	if band.Tier != prev.Tier {
		m.state.EnteredAt = now
		if band.CoolOff > 0 {
			m.state.PausedUntil = now.Add(band.CoolOff)
		} else if band.Tier < prev.Tier {
			m.state.PausedUntil = time.Time{}
		}
	}

	return m.state
}

func (m *DrawdownManager) bandFor(ddPct float64) TierBand {
	band := m.tiers[0]
	for _, b := range m.tiers {
		if ddPct >= b.Threshold {
			band = b
		}
	}
	return band
}

func (m *DrawdownManager) currentBand() TierBand {
	for _, b := range m.tiers {
		if b.Tier == m.state.Tier {
			return b
		}
	}
	return m.tiers[0]
}

// State returns the last computed drawdown state.
func (m *DrawdownManager) State() DrawdownState { return m.state }

// SizeMultiplier returns the current tier's position size multiplier.
// Zero means trading is blocked.
func (m *DrawdownManager) SizeMultiplier() float64 { return m.state.Multiplier }

// CanTrade reports whether drawdown throttling permits new entries.
func (m *DrawdownManager) CanTrade(now time.Time) (bool, string) {
	if !m.state.PausedUntil.IsZero() && now.Before(m.state.PausedUntil) {
		return false, "drawdown cool-off until " + m.state.PausedUntil.Format(time.RFC3339)
	}
	if m.state.Multiplier == 0 {
		return false, "drawdown tier " + m.state.Tier.String() + " blocks new entries"
	}
	return true, ""
}

// ResetPeak declares recovery, resetting the high-water mark to current
// capital. Manual operation; clears any pause.
func (m *DrawdownManager) ResetPeak(now time.Time) {
	m.peak = m.capital
	m.state = DrawdownState{
		Peak:       m.peak,
		Capital:    m.capital,
		Tier:       m.tiers[0].Tier,
		Multiplier: m.tiers[0].Multiplier,
		EnteredAt:  now,
	}
}
