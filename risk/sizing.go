package risk

import "math"

// kellyCap bounds raw Kelly before the safety factor is applied. Full
// Kelly is ruinous under return-sequence variance, so the cap and the
// safety halving are both hard constraints, not tunables.
const kellyCap = 0.25

// FixedFractionalLots sizes a position so that a stop-out loses
// riskPct percent of capital. Returns whole lots.
func FixedFractionalLots(capital, riskPct, entry, stop float64, lotSize int) int {
	if riskPct <= 0 || riskPct > 100 || capital <= 0 || lotSize <= 0 {
		return 0
	}

	stopDistance := math.Abs(entry - stop)
	if stopDistance == 0 {
		return 0
	}

	riskAmount := capital * riskPct / 100
	units := riskAmount / stopDistance
	lots := int(units / float64(lotSize))

	// One lot is allowed when the budget covers it but flooring lost it.
	if lots == 0 && riskAmount >= stopDistance*float64(lotSize) {
		lots = 1
	}
	return lots
}

// KellyFraction returns the fraction of capital to risk given a win rate
// and payoff ratio (avg win / avg loss), clamped to [0, kellyCap] and
// then scaled by the safety factor. Degenerate inputs size to zero.
func KellyFraction(winRate, payoffRatio, safetyFactor float64) float64 {
	if winRate < 0 || winRate > 1 || payoffRatio <= 0 || safetyFactor <= 0 {
		return 0
	}

	kelly := winRate - (1-winRate)/payoffRatio
	kelly = math.Max(0, math.Min(kelly, kellyCap))
	return kelly * safetyFactor
}

// KellyLots converts the Kelly fraction into whole lots for a concrete
// entry/stop pair.
func KellyLots(capital, winRate, payoffRatio, safetyFactor, entry, stop float64, lotSize int) int {
	frac := KellyFraction(winRate, payoffRatio, safetyFactor)
	if frac == 0 {
		return 0
	}
	return FixedFractionalLots(capital, frac*100, entry, stop, lotSize)
}

// VolatilityAdjustedLots scales a base size inversely with the ratio of
// current to average ATR, bounded to +-maxAdjust. Quiet markets size up,
// volatile markets size down.
func VolatilityAdjustedLots(baseLots int, currentATR, averageATR, maxAdjust float64) int {
	if averageATR <= 0 || baseLots <= 0 {
		return baseLots
	}

	factor := averageATR / currentATR
	factor = math.Max(1-maxAdjust, math.Min(1+maxAdjust, factor))

	adjusted := int(float64(baseLots) * factor)
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}
