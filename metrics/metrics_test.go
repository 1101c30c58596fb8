package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantcore/journal"
)

var day0 = time.Date(2025, 3, 3, 15, 30, 0, 0, time.UTC)

func trade(pnl float64) journal.Trade {
	return journal.Trade{Instrument: "NIFTY", NetPnL: pnl}
}

func equityCurve(capitals ...float64) []journal.EquityPoint {
	out := make([]journal.EquityPoint, len(capitals))
	for i, c := range capitals {
		out[i] = journal.EquityPoint{Time: day0.AddDate(0, 0, i), Capital: c}
	}
	return out
}

func TestComputeTradeStatistics(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{
		trade(1000), trade(-500), trade(2000), trade(-500), trade(-500),
	}
	equity := equityCurve(101_000, 100_500, 102_500, 102_000, 101_500)

	r, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 5, r.Trades)
	assert.Equal(t, 2, r.Wins)
	assert.Equal(t, 3, r.Losses)
	assert.InDelta(t, 40.0, r.WinRatePct, 1e-9)

	assert.InDelta(t, 1500.0, r.TotalPnL, 1e-9)
	assert.InDelta(t, 1.5, r.TotalReturnPct, 1e-9)

	// Gross profit 3000 against gross loss 1500.
	assert.InDelta(t, 2.0, r.ProfitFactor, 1e-9)
	assert.InDelta(t, 300.0, r.Expectancy, 1e-9)
	assert.InDelta(t, 1500.0, r.AvgWin, 1e-9)
	assert.InDelta(t, -500.0, r.AvgLoss, 1e-9)
	assert.InDelta(t, 2000.0, r.BestTrade, 1e-9)
	assert.InDelta(t, -500.0, r.WorstTrade, 1e-9)

	assert.Equal(t, 1, r.MaxConsecutiveWins)
	assert.Equal(t, 2, r.MaxConsecutiveLosses)

	// Four days of gains annualize to far more than the raw return.
	assert.Greater(t, r.CAGRPct, r.TotalReturnPct)
}

func TestComputeMaxDrawdown(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{trade(1500)}
	equity := equityCurve(101_000, 100_500, 102_500, 102_000, 101_500)

	r, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	dd := r.Drawdown
	assert.InDelta(t, 1000.0/102_500*100, dd.MaxPct, 1e-9)
	assert.InDelta(t, 102_500.0, dd.Peak, 1e-9)
	assert.InDelta(t, 101_500.0, dd.Trough, 1e-9)
	assert.Equal(t, day0.AddDate(0, 0, 2), dd.PeakTime)
	assert.Equal(t, day0.AddDate(0, 0, 4), dd.TroughTime)
	assert.Equal(t, 48*time.Hour, dd.Duration)
	assert.False(t, dd.Recovered)
}

func TestComputeDrawdownRecovery(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{trade(500), trade(-300), trade(2800)}
	equity := equityCurve(102_000, 99_000, 101_000, 103_000)

	r, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	require.True(t, r.Drawdown.Recovered)
	assert.Equal(t, day0.AddDate(0, 0, 3), r.Drawdown.RecoveryTime)
}

func TestComputeMonotonicRise(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{trade(1000), trade(1000), trade(1000)}
	equity := equityCurve(101_000, 102_000, 103_000)

	r, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Drawdown.MaxPct)
	assert.Equal(t, r.Drawdown.Peak, r.Drawdown.Trough)
	assert.True(t, math.IsInf(r.Sortino, 1))
	assert.True(t, math.IsInf(r.Calmar, 1))
	assert.True(t, math.IsInf(r.ProfitFactor, 1))
	assert.Equal(t, 3, r.MaxConsecutiveWins)
	assert.Greater(t, r.Sharpe, 0.0)
}

func TestComputeLosingRun(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{trade(-1000), trade(-1000), trade(-1000)}
	equity := equityCurve(99_000, 98_000, 97_000)

	r, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.WinRatePct)
	assert.Equal(t, 0.0, r.ProfitFactor)
	assert.Equal(t, 0.0, r.AvgWin)
	assert.Less(t, r.Sharpe, 0.0)
	assert.Less(t, r.Sortino, 0.0)
	assert.Less(t, r.TotalReturnPct, 0.0)
}

func TestComputeFlatEquity(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{trade(0)}
	equity := equityCurve(100_000, 100_000, 100_000)

	r, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	// A breakeven trade counts as neither win nor loss.
	assert.Equal(t, 0, r.Wins)
	assert.Equal(t, 0, r.Losses)
	assert.Equal(t, 0.0, r.Sharpe)
	assert.Equal(t, 0.0, r.Calmar)
	assert.Equal(t, 0.0, r.ProfitFactor)
}

func TestComputeDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	trades := []journal.Trade{trade(1000), trade(-500)}
	equity := equityCurve(101_000, 100_500)
	wantTrades := append([]journal.Trade(nil), trades...)
	wantEquity := append([]journal.EquityPoint(nil), equity...)

	a, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)
	b, err := Compute(trades, equity, 100_000, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, wantTrades, trades)
	assert.Equal(t, wantEquity, equity)
}

func TestComputeRejectsBadInput(t *testing.T) {
	t.Parallel()

	good := []journal.Trade{trade(100)}
	eq := equityCurve(100_100)

	_, err := Compute(nil, eq, 100_000, DefaultConfig())
	assert.Error(t, err)

	_, err = Compute(good, nil, 100_000, DefaultConfig())
	assert.Error(t, err)

	_, err = Compute(good, eq, 0, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.PeriodsPerYear = 0
	_, err = Compute(good, eq, 100_000, bad)
	assert.Error(t, err)
}
