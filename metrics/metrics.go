// Package metrics reduces a completed trade ledger and equity curve to
// summary performance statistics. Every function here is a pure
// reduction: inputs are never mutated, and identical inputs always
// produce identical output.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/quantcore/journal"
)

// Config carries the knobs that change how risk-adjusted ratios are
// annualized.
type Config struct {
	// RiskFreeRate is the annual risk-free rate in percent, typically
	// the 10-year government bond yield.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`

	// PeriodsPerYear converts per-period returns to annual terms: 252
	// for daily equity samples, 52 for weekly.
	PeriodsPerYear int `yaml:"periods_per_year" json:"periods_per_year"`
}

func DefaultConfig() Config {
	return Config{
		RiskFreeRate:   6.0,
		PeriodsPerYear: 252,
	}
}

func (c Config) Validate() error {
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("metrics: periods per year must be positive, got %d", c.PeriodsPerYear)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("metrics: risk-free rate cannot be negative, got %g", c.RiskFreeRate)
	}
	return nil
}

// Drawdown describes the deepest peak-to-trough decline of an equity
// curve, measured against the running peak.
type Drawdown struct {
	MaxPct     float64
	Peak       float64
	Trough     float64
	PeakTime   time.Time
	TroughTime time.Time

	// Duration runs from the peak to the trough.
	Duration time.Duration

	// Recovered reports whether equity later regained the peak;
	// RecoveryTime is zero when it never did.
	Recovered    bool
	RecoveryTime time.Time
}

// Report is the full statistics set for one run. Ratios that divide by
// a zero denominator are reported as +Inf rather than guessed at.
type Report struct {
	InitialCapital float64
	FinalCapital   float64
	TotalPnL       float64
	TotalReturnPct float64
	CAGRPct        float64

	Trades     int
	Wins       int
	Losses     int
	WinRatePct float64

	ProfitFactor float64
	Expectancy   float64
	AvgWin       float64
	AvgLoss      float64
	BestTrade    float64
	WorstTrade   float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	Sharpe  float64
	Sortino float64
	Calmar  float64

	Drawdown Drawdown
}

// Compute reduces trades and the per-bar equity curve to a Report.
// Equity points must be in time order, the order the backtest recorded
// them in.
func Compute(trades []journal.Trade, equity []journal.EquityPoint, initialCapital float64, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if initialCapital <= 0 {
		return Report{}, fmt.Errorf("metrics: initial capital must be positive, got %g", initialCapital)
	}
	if len(trades) == 0 {
		return Report{}, fmt.Errorf("metrics: no completed trades to reduce")
	}
	if len(equity) == 0 {
		return Report{}, fmt.Errorf("metrics: no equity points to reduce")
	}

	r := Report{
		InitialCapital: initialCapital,
		FinalCapital:   equity[len(equity)-1].Capital,
		Trades:         len(trades),
	}
	r.TotalPnL = r.FinalCapital - r.InitialCapital
	r.TotalReturnPct = r.TotalPnL / r.InitialCapital * 100
	r.CAGRPct = cagr(r.InitialCapital, r.FinalCapital, equity[0].Time, equity[len(equity)-1].Time)

	tradeStats(&r, trades)

	returns := periodReturns(equity)
	r.Sharpe = sharpe(returns, cfg)
	r.Sortino = sortino(returns, cfg)
	r.Drawdown = maxDrawdown(equity)
	r.Calmar = calmar(r.TotalReturnPct, r.Drawdown.MaxPct, equity[0].Time, equity[len(equity)-1].Time)

	return r, nil
}

func tradeStats(r *Report, trades []journal.Trade) {
	var grossProfit, grossLoss, total float64
	r.BestTrade = math.Inf(-1)
	r.WorstTrade = math.Inf(1)

	winStreak, lossStreak := 0, 0
	for _, t := range trades {
		pnl := t.NetPnL
		total += pnl
		if pnl > r.BestTrade {
			r.BestTrade = pnl
		}
		if pnl < r.WorstTrade {
			r.WorstTrade = pnl
		}

		switch {
		case pnl > 0:
			r.Wins++
			grossProfit += pnl
			winStreak++
			lossStreak = 0
		case pnl < 0:
			r.Losses++
			grossLoss += -pnl
			lossStreak++
			winStreak = 0
		default:
			// Breakevens end both streaks without counting as either.
			winStreak, lossStreak = 0, 0
		}
		if winStreak > r.MaxConsecutiveWins {
			r.MaxConsecutiveWins = winStreak
		}
		if lossStreak > r.MaxConsecutiveLosses {
			r.MaxConsecutiveLosses = lossStreak
		}
	}

	r.WinRatePct = float64(r.Wins) / float64(len(trades)) * 100
	r.Expectancy = total / float64(len(trades))
	if r.Wins > 0 {
		r.AvgWin = grossProfit / float64(r.Wins)
	}
	if r.Losses > 0 {
		r.AvgLoss = -grossLoss / float64(r.Losses)
	}
	switch {
	case grossLoss > 0:
		r.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		r.ProfitFactor = math.Inf(1)
	}
}

// periodReturns converts the equity curve to per-period fractional
// returns, skipping points where the prior capital is non-positive.
func periodReturns(equity []journal.EquityPoint) []float64 {
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Capital
		if prev <= 0 {
			continue
		}
		out = append(out, (equity[i].Capital-prev)/prev)
	}
	return out
}

func sharpe(returns []float64, cfg Config) float64 {
	if len(returns) < 2 {
		return 0
	}
	rf := cfg.RiskFreeRate / 100 / float64(cfg.PeriodsPerYear)

	excess := make([]float64, len(returns))
	for i, ret := range returns {
		excess[i] = ret - rf
	}
	sd := stddev(excess)
	if sd == 0 {
		return 0
	}
	return math.Sqrt(float64(cfg.PeriodsPerYear)) * mean(excess) / sd
}

func sortino(returns []float64, cfg Config) float64 {
	if len(returns) == 0 {
		return 0
	}
	rf := cfg.RiskFreeRate / 100 / float64(cfg.PeriodsPerYear)

	var excessSum float64
	var downside []float64
	for _, ret := range returns {
		excessSum += ret - rf
		if ret < 0 {
			downside = append(downside, ret)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}
	sd := stddev(downside)
	if sd == 0 {
		return 0
	}
	return math.Sqrt(float64(cfg.PeriodsPerYear)) * (excessSum / float64(len(returns))) / sd
}

func cagr(initial, final float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / (24 * 365.25)
	if years <= 0 || final <= 0 {
		return (final - initial) / initial * 100
	}
	return (math.Pow(final/initial, 1/years) - 1) * 100
}

func calmar(totalReturnPct, maxDDPct float64, start, end time.Time) float64 {
	if maxDDPct == 0 {
		if totalReturnPct > 0 {
			return math.Inf(1)
		}
		return 0
	}
	years := end.Sub(start).Hours() / (24 * 365.25)
	if years <= 0 {
		years = 1
	}
	annualized := (math.Pow(1+totalReturnPct/100, 1/years) - 1) * 100
	return annualized / maxDDPct
}

func maxDrawdown(equity []journal.EquityPoint) Drawdown {
	dd := Drawdown{
		Peak:     equity[0].Capital,
		PeakTime: equity[0].Time,
	}

	peak := equity[0].Capital
	peakTime := equity[0].Time
	for _, pt := range equity {
		if pt.Capital > peak {
			peak = pt.Capital
			peakTime = pt.Time
		}
		if peak <= 0 {
			continue
		}
		if pct := (peak - pt.Capital) / peak * 100; pct > dd.MaxPct {
			dd.MaxPct = pct
			dd.Peak = peak
			dd.PeakTime = peakTime
			dd.Trough = pt.Capital
			dd.TroughTime = pt.Time
		}
	}
	if dd.MaxPct == 0 {
		dd.Trough = dd.Peak
		dd.TroughTime = dd.PeakTime
		return dd
	}
	dd.Duration = dd.TroughTime.Sub(dd.PeakTime)

	for _, pt := range equity {
		if pt.Time.After(dd.TroughTime) && pt.Capital >= dd.Peak {
			dd.Recovered = true
			dd.RecoveryTime = pt.Time
			break
		}
	}
	return dd
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
