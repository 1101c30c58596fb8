package risk

import (
	"fmt"
	"sort"
	"time"
)

// Tier is the drawdown severity classification.
type Tier int8

const (
	Normal Tier = iota
	Caution
	Warning
	Critical
	Emergency
)

func (t Tier) String() string {
	switch t {
	case Caution:
		return "CAUTION"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	case Emergency:
		return "EMERGENCY"
	default:
		return "NORMAL"
	}
}

// TierBand is one row of the drawdown tier table: drawdowns at or above
// Threshold (percent) fall into this band unless a later band also
// matches. Multiplier scales position size; CoolOff pauses trading.
type TierBand struct {
	Threshold  float64       `json:"threshold" yaml:"threshold"`
	Tier       Tier          `json:"-" yaml:"-"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier"`
	CoolOff    time.Duration `json:"cool_off,omitempty" yaml:"cool_off,omitempty"`
}

// CorrelationKey identifies an unordered instrument pair.
type CorrelationKey struct {
	A, B string
}

// NewCorrelationKey normalizes the pair so lookups are symmetric.
func NewCorrelationKey(a, b string) CorrelationKey {
	if a > b {
		a, b = b, a
	}
	return CorrelationKey{A: a, B: b}
}

// LimitConfig is the immutable risk-limit snapshot consumed at run start.
// Heat and risk percentages are whole percents (6.0 = 6%).
type LimitConfig struct {
	MaxPortfolioHeatPct   float64
	MaxSinglePositionPct  float64
	KellySafetyFactor     float64
	DailyLossLimit        float64
	CorrelationThreshold  float64
	MaxCorrelatedExposure float64
	// CorrelationFailClosed rejects pairs with no known correlation.
	// The observed default fails open; flipping this is deliberate.
	CorrelationFailClosed bool
	Correlations          map[CorrelationKey]float64
	Tiers                 []TierBand
	// HysteresisPct is the cushion subtracted before downgrading to a
	// less severe tier. Zero disables hysteresis.
	HysteresisPct float64
}

// DefaultTiers mirrors the standard drawdown protocol.
func DefaultTiers() []TierBand {
	return []TierBand{
		{Threshold: 0, Tier: Normal, Multiplier: 1.0},
		{Threshold: 5, Tier: Caution, Multiplier: 0.5},
		{Threshold: 10, Tier: Warning, Multiplier: 0.25},
		{Threshold: 15, Tier: Critical, Multiplier: 0, CoolOff: 7 * 24 * time.Hour},
		{Threshold: 20, Tier: Emergency, Multiplier: 0},
	}
}

// DefaultLimits returns a conservative limit snapshot.
func DefaultLimits() LimitConfig {
	return LimitConfig{
		MaxPortfolioHeatPct:   6.0,
		MaxSinglePositionPct:  2.0,
		KellySafetyFactor:     0.5,
		DailyLossLimit:        5000,
		CorrelationThreshold:  0.6,
		MaxCorrelatedExposure: 10.0,
		Correlations: map[CorrelationKey]float64{
			NewCorrelationKey("NIFTY", "BANKNIFTY"):     0.70,
			NewCorrelationKey("NIFTY", "FINNIFTY"):      0.65,
			NewCorrelationKey("BANKNIFTY", "FINNIFTY"):  0.60,
			NewCorrelationKey("NIFTY", "NIFTY_FUT"):     0.98,
			NewCorrelationKey("BANKNIFTY", "NIFTY_FUT"): 0.70,
		},
		Tiers: DefaultTiers(),
	}
}

// Validate checks the snapshot once at construction. The tier table must
// be sorted by threshold with monotonically non-increasing multipliers;
// that property is what makes worsening drawdown never increase size.
func (c LimitConfig) Validate() error {
	if c.MaxPortfolioHeatPct <= 0 {
		return fmt.Errorf("risk: max_portfolio_heat must be positive, got %g", c.MaxPortfolioHeatPct)
	}
	if c.MaxSinglePositionPct <= 0 || c.MaxSinglePositionPct > c.MaxPortfolioHeatPct {
		return fmt.Errorf("risk: max_single_position must be in (0, %g], got %g",
			c.MaxPortfolioHeatPct, c.MaxSinglePositionPct)
	}
	if c.KellySafetyFactor <= 0 || c.KellySafetyFactor > 0.5 {
		return fmt.Errorf("risk: kelly_safety_factor must be in (0, 0.5], got %g", c.KellySafetyFactor)
	}
	if c.DailyLossLimit <= 0 {
		return fmt.Errorf("risk: daily_loss_limit must be positive, got %g", c.DailyLossLimit)
	}
	if c.CorrelationThreshold < 0 || c.CorrelationThreshold > 1 {
		return fmt.Errorf("risk: correlation_threshold must be in [0,1], got %g", c.CorrelationThreshold)
	}
	for key, corr := range c.Correlations {
		if corr < -1 || corr > 1 {
			return fmt.Errorf("risk: correlation %s/%s out of [-1,1]: %g", key.A, key.B, corr)
		}
	}

	if len(c.Tiers) == 0 {
		return fmt.Errorf("risk: tier table is empty")
	}
	if !sort.SliceIsSorted(c.Tiers, func(i, j int) bool {
		return c.Tiers[i].Threshold < c.Tiers[j].Threshold
	}) {
		return fmt.Errorf("risk: tier table must be sorted by threshold")
	}
	for i := 1; i < len(c.Tiers); i++ {
		if c.Tiers[i].Multiplier > c.Tiers[i-1].Multiplier {
			return fmt.Errorf("risk: tier multipliers must be non-increasing (%g after %g)",
				c.Tiers[i].Multiplier, c.Tiers[i-1].Multiplier)
		}
	}
	if c.HysteresisPct < 0 {
		return fmt.Errorf("risk: hysteresis must be non-negative, got %g", c.HysteresisPct)
	}
	return nil
}

// Correlation looks up the pairwise coefficient. ok is false for unknown
// pairs, which fail open unless CorrelationFailClosed is set.
func (c LimitConfig) Correlation(a, b string) (float64, bool) {
	corr, ok := c.Correlations[NewCorrelationKey(a, b)]
	return corr, ok
}
