package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedFractionalLots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		capital float64
		riskPct float64
		entry   float64
		stop    float64
		lotSize int
		want    int
	}{
		// 100k at 2% risks 2000; 100-point stop on 50-lot = 5000/lot... no:
		// units = 2000/100 = 20, lots = 20/50 = 0, budget < 5000 -> 0.
		{"too_small_for_one_lot", 100_000, 2, 21500, 21400, 50, 0},
		// 500k at 2% risks 10000; units = 100, lots = 2.
		{"two_lots", 500_000, 2, 21500, 21400, 50, 2},
		// Stop above entry works the same (short).
		{"short_stop_above", 500_000, 2, 21400, 21500, 50, 2},
		{"zero_stop_distance", 500_000, 2, 21500, 21500, 50, 0},
		{"zero_risk", 500_000, 0, 21500, 21400, 50, 0},
		{"unit_lot", 100_000, 2, 21500, 21400, 1, 20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FixedFractionalLots(tt.capital, tt.riskPct, tt.entry, tt.stop, tt.lotSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFixedFractionalLots_ExactlyOneLot(t *testing.T) {
	t.Parallel()

	// Budget 5020 covers one 50-lot at a 100-point stop (5000) but not
	// two.
	got := FixedFractionalLots(251_000, 2, 21500, 21400, 50)
	assert.Equal(t, 1, got)
}

func TestKellyFraction_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		winRate float64
		payoff  float64
		want    float64
	}{
		{"classic_edge", 0.55, 1.67, (0.55 - 0.45/1.67) * 0.5},
		{"no_edge", 0.5, 1.0, 0},
		{"negative_edge", 0.3, 1.0, 0},
		{"certain_win", 1.0, 2.0, 0.25 * 0.5},
		{"certain_loss", 0.0, 2.0, 0},
		{"huge_edge_capped", 0.9, 10.0, 0.25 * 0.5},
		{"invalid_payoff", 0.6, 0, 0},
		{"invalid_win_rate", 1.2, 2.0, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := KellyFraction(tt.winRate, tt.payoff, 0.5)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestKellyFraction_NeverExceedsHalfCap(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10_000; i++ {
		winRate := rng.Float64()
		payoff := rng.Float64() * 10
		got := KellyFraction(winRate, payoff, 0.5)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 0.125)
	}
}

func TestVolatilityAdjustedLots(t *testing.T) {
	t.Parallel()

	// ATR 50% above average shrinks size, bounded at -50%.
	assert.Equal(t, 6, VolatilityAdjustedLots(10, 150, 100, 0.5))
	// Quiet market sizes up, bounded at +50%.
	assert.Equal(t, 15, VolatilityAdjustedLots(10, 50, 100, 0.5))
	// Unknown average leaves size alone.
	assert.Equal(t, 10, VolatilityAdjustedLots(10, 150, 0, 0.5))
	// Never below one lot.
	assert.Equal(t, 1, VolatilityAdjustedLots(1, 400, 100, 0.5))
}
