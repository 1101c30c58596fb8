package risk

import "math"

// CorrelationImpact describes how correlated open exposure affects a
// proposed position.
type CorrelationImpact struct {
	// MaxCorr is the strongest |coefficient| against any open position
	// at or above the threshold. Zero when nothing correlates.
	MaxCorr float64
	// ShrinkFactor scales the proposed size: 1 - MaxCorr when a
	// correlated position is open, 1.0 otherwise.
	ShrinkFactor float64
	// CorrelatedExposurePct is the summed risk (as % of capital) held in
	// instruments correlated with the proposal.
	CorrelatedExposurePct float64
	// Unknown is true when no coefficient exists for any open pair.
	// Unknown pairs fail open by default; see CorrelationFailClosed.
	Unknown bool
}

// correlationImpact inspects open positions for exposure correlated with
// the proposed instrument.
func correlationImpact(cfg LimitConfig, ps *PortfolioState, instrument string) CorrelationImpact {
	impact := CorrelationImpact{ShrinkFactor: 1.0, Unknown: true}
	if ps.capital <= 0 {
		return impact
	}

	for _, open := range ps.Positions() {
		if open.Instrument == instrument {
			// Same-instrument exposure is governed by the heat caps.
			impact.Unknown = false
			continue
		}

		corr, known := cfg.Correlation(instrument, open.Instrument)
		if !known {
			continue
		}
		impact.Unknown = false

		abs := math.Abs(corr)
		if abs < cfg.CorrelationThreshold {
			continue
		}

		impact.CorrelatedExposurePct += open.RiskAmount() / ps.capital * 100
		if abs > impact.MaxCorr {
			impact.MaxCorr = abs
		}
	}

	if impact.MaxCorr > 0 {
		impact.ShrinkFactor = 1 - impact.MaxCorr
	}
	return impact
}
