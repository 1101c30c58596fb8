package backtest

import (
	"fmt"
	"math/rand"
	"sort"
)

// ResampleMethod selects how Monte Carlo paths are drawn from the
// trade sequence.
type ResampleMethod int8

const (
	// BlockBootstrap draws contiguous blocks of trades, preserving the
	// clustering of losing streaks that independent draws destroy. This
	// is the default.
	BlockBootstrap ResampleMethod = iota
	// IndependentDraws resamples single trades with replacement. Offered
	// as an explicitly labeled alternative; it understates streak risk.
	IndependentDraws
)

func (m ResampleMethod) String() string {
	if m == IndependentDraws {
		return "independent"
	}
	return "block-bootstrap"
}

type MonteCarloConfig struct {
	Paths     int            `yaml:"paths" json:"paths"`
	BlockSize int            `yaml:"block_size" json:"block_size"`
	Seed      int64          `yaml:"seed" json:"seed"`
	Method    ResampleMethod `yaml:"-" json:"-"`

	// RuinFraction is the capital fraction below which a path counts as
	// ruined.
	RuinFraction float64 `yaml:"ruin_fraction" json:"ruin_fraction"`
}

func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Paths:        1000,
		BlockSize:    5,
		Seed:         1,
		RuinFraction: 0.5,
	}
}

// Band is a percentile summary across simulated paths.
type Band struct {
	P5  float64
	P50 float64
	P95 float64
}

type MonteCarloResult struct {
	Method         ResampleMethod
	Paths          int
	TerminalEquity Band
	MaxDrawdownPct Band
	ProbProfit     float64
	RiskOfRuin     float64
}

// MonteCarlo resamples the trade P&L sequence into equity paths and
// summarizes their terminal equity and max drawdown distributions.
// Identical inputs and seed always reproduce the same result.
func MonteCarlo(pnls []float64, initialCapital float64, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if len(pnls) == 0 {
		return MonteCarloResult{}, fmt.Errorf("backtest: monte carlo needs at least one trade")
	}
	if initialCapital <= 0 {
		return MonteCarloResult{}, fmt.Errorf("backtest: initial capital must be positive, got %g", initialCapital)
	}
	if cfg.Paths <= 0 {
		cfg.Paths = DefaultMonteCarloConfig().Paths
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultMonteCarloConfig().BlockSize
	}
	if cfg.BlockSize > len(pnls) {
		cfg.BlockSize = len(pnls)
	}
	if cfg.RuinFraction <= 0 || cfg.RuinFraction >= 1 {
		cfg.RuinFraction = DefaultMonteCarloConfig().RuinFraction
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	terminals := make([]float64, cfg.Paths)
	maxDDs := make([]float64, cfg.Paths)
	profitable := 0
	ruined := 0
	ruinLevel := initialCapital * cfg.RuinFraction

	for p := 0; p < cfg.Paths; p++ {
		path := resample(rng, pnls, cfg.Method, cfg.BlockSize)

		equity := initialCapital
		peak := initialCapital
		maxDD := 0.0
		pathRuined := false

		for _, pnl := range path {
			equity += pnl
			if equity > peak {
				peak = equity
			}
			if peak > 0 {
				if dd := (peak - equity) / peak * 100; dd > maxDD {
					maxDD = dd
				}
			}
			if equity < ruinLevel {
				pathRuined = true
			}
		}

		terminals[p] = equity
		maxDDs[p] = maxDD
		if equity > initialCapital {
			profitable++
		}
		if pathRuined {
			ruined++
		}
	}

	return MonteCarloResult{
		Method:         cfg.Method,
		Paths:          cfg.Paths,
		TerminalEquity: band(terminals),
		MaxDrawdownPct: band(maxDDs),
		ProbProfit:     float64(profitable) / float64(cfg.Paths) * 100,
		RiskOfRuin:     float64(ruined) / float64(cfg.Paths) * 100,
	}, nil
}

func resample(rng *rand.Rand, pnls []float64, method ResampleMethod, blockSize int) []float64 {
	n := len(pnls)
	out := make([]float64, 0, n)

	if method == IndependentDraws {
		for i := 0; i < n; i++ {
			out = append(out, pnls[rng.Intn(n)])
		}
		return out
	}

	for len(out) < n {
		start := rng.Intn(n - blockSize + 1)
		out = append(out, pnls[start:start+blockSize]...)
	}
	return out[:n]
}

func band(vals []float64) Band {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	return Band{
		P5:  percentile(sorted, 5),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
	}
}

// percentile interpolates linearly over a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
