package risk

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantcore/market"
)

func newTestEngine(t *testing.T, cfg LimitConfig, capital float64) *Engine {
	t.Helper()
	eng, err := NewEngine(cfg, capital)
	require.NoError(t, err)
	return eng
}

func proposal(instrument string, lots, lotSize int, entry, stop float64) Proposal {
	return Proposal{
		Instrument: instrument,
		Side:       market.Long,
		Lots:       lots,
		LotSize:    lotSize,
		Entry:      entry,
		Stop:       stop,
		Class:      market.IndexOption,
		Time:       t0,
	}
}

func TestEngineRejectsBadProposal(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, DefaultLimits(), 100_000)

	for _, p := range []Proposal{
		proposal("NIFTY", 0, 50, 21500, 21400),
		proposal("NIFTY", 1, 0, 21500, 21400),
		proposal("NIFTY", 1, 50, 0, 21400),
		proposal("NIFTY", 1, 50, 21500, 21500),
	} {
		d := eng.Evaluate(p)
		assert.False(t, d.Approved)
		assert.Equal(t, RejectedBadProposal, d.Reason)
	}
}

func TestEngineApproveRecordCloseFlow(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxSinglePositionPct = 6.0
	eng := newTestEngine(t, cfg, 100_000)

	p := proposal("NIFTY", 1, 50, 21500, 21400)
	d := eng.Evaluate(p)
	require.True(t, d.Approved, d.Detail)
	assert.Equal(t, 1, d.Lots)
	assert.InDelta(t, 5000.0, d.RiskAmount, 1e-9)
	assert.InDelta(t, 5.0, d.HeatAfter, 1e-9)

	require.NoError(t, eng.Record(Position{
		ID: "t1", Instrument: p.Instrument, Side: p.Side,
		Lots: d.Lots, LotSize: p.LotSize, Entry: p.Entry, Stop: p.Stop,
		EntryTime: p.Time, Class: p.Class,
	}))

	// A second identical position would push heat to 10% against a 6% cap.
	d2 := eng.Evaluate(p)
	assert.False(t, d2.Approved)
	assert.Equal(t, RejectedPortfolioHeat, d2.Reason)

	// Full stop-out hits the daily loss limit exactly.
	require.NoError(t, eng.Close("t1", -5000, t0))
	assert.Equal(t, Triggered, eng.Breaker().Level())

	d3 := eng.Evaluate(p)
	assert.False(t, d3.Approved)
	assert.Equal(t, RejectedCircuitBreaker, d3.Reason)

	// Overriding the breaker exposes the next gate: 5% drawdown halves
	// size, and half of one lot is zero.
	require.True(t, eng.OverrideBreaker("resuming after review"))
	d4 := eng.Evaluate(p)
	assert.False(t, d4.Approved)
	assert.Equal(t, RejectedDrawdown, d4.Reason)
}

func TestEngineEvaluateIsDryRun(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxSinglePositionPct = 6.0
	eng := newTestEngine(t, cfg, 100_000)

	p := proposal("NIFTY", 1, 50, 21500, 21400)
	first := eng.Evaluate(p)
	second := eng.Evaluate(p)

	assert.Equal(t, first, second)
	assert.InDelta(t, 0.0, eng.Portfolio().Heat(), 1e-9)
}

func TestEnginePositionRiskCap(t *testing.T) {
	t.Parallel()

	// Default single-position cap is 2%; a 100-point stop on one NIFTY
	// lot risks 5% of a one-lakh account.
	eng := newTestEngine(t, DefaultLimits(), 100_000)

	d := eng.Evaluate(proposal("NIFTY", 1, 50, 21500, 21400))
	assert.False(t, d.Approved)
	assert.Equal(t, RejectedPositionRisk, d.Reason)
}

func TestEngineCorrelationShrink(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxPortfolioHeatPct = 20
	cfg.MaxSinglePositionPct = 10
	eng := newTestEngine(t, cfg, 100_000)

	require.NoError(t, eng.Record(pos("t1", "NIFTY", 1, 21500, 21400)))

	// NIFTY/BANKNIFTY correlate 0.70, so ten proposed lots shrink to
	// three.
	d := eng.Evaluate(proposal("BANKNIFTY", 10, 15, 46000, 45900))
	require.True(t, d.Approved, d.Detail)
	assert.Equal(t, 3, d.Lots)
	assert.InDelta(t, 4500.0, d.RiskAmount, 1e-9)
}

func TestEngineCorrelatedExposureCap(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxPortfolioHeatPct = 20
	cfg.MaxSinglePositionPct = 10
	cfg.MaxCorrelatedExposure = 4.0
	eng := newTestEngine(t, cfg, 100_000)

	require.NoError(t, eng.Record(pos("t1", "NIFTY", 1, 21500, 21400)))

	// 5% of capital already rides in NIFTY, over the 4% correlated cap.
	d := eng.Evaluate(proposal("BANKNIFTY", 1, 15, 46000, 45900))
	assert.False(t, d.Approved)
	assert.Equal(t, RejectedCorrelation, d.Reason)
}

func TestEngineCorrelationFailClosed(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxPortfolioHeatPct = 20
	cfg.MaxSinglePositionPct = 10
	cfg.CorrelationFailClosed = true
	eng := newTestEngine(t, cfg, 100_000)

	// Nothing open yet, so there is nothing to be unknown against.
	d := eng.Evaluate(proposal("NIFTY", 1, 50, 21500, 21400))
	require.True(t, d.Approved, d.Detail)

	require.NoError(t, eng.Record(pos("t1", "RELIANCE", 1, 2900, 2850)))

	d = eng.Evaluate(proposal("NIFTY", 1, 50, 21500, 21400))
	assert.False(t, d.Approved)
	assert.Equal(t, RejectedCorrelation, d.Reason)
}

func TestEngineHeatNeverExceedsCap(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxSinglePositionPct = 6.0
	cfg.Correlations = nil
	eng := newTestEngine(t, cfg, 100_000)

	rng := rand.New(rand.NewSource(11))
	var open []string

	for i := 0; i < 500; i++ {
		entry := 21000 + rng.Float64()*1000
		stop := entry - (10 + rng.Float64()*150)
		p := proposal("NIFTY", 1+rng.Intn(3), 50, entry, stop)

		d := eng.Evaluate(p)
		if d.Approved {
			id := fmt.Sprintf("t%d", i)
			require.NoError(t, eng.Record(Position{
				ID: id, Instrument: p.Instrument, Side: p.Side,
				Lots: d.Lots, LotSize: p.LotSize, Entry: p.Entry, Stop: p.Stop,
				EntryTime: p.Time, Class: p.Class,
			}))
			open = append(open, id)
		}

		require.LessOrEqual(t, eng.Portfolio().Heat(), cfg.MaxPortfolioHeatPct+1e-9)

		// Flat exits keep capital and the breaker out of the picture so
		// the heat cap is the only constraint being exercised.
		if len(open) > 0 && rng.Float64() < 0.4 {
			require.NoError(t, eng.Close(open[0], 0, t0))
			open = open[1:]
		}
	}
}

func TestEngineMarkToMarketTripsBreaker(t *testing.T) {
	t.Parallel()

	cfg := DefaultLimits()
	cfg.MaxSinglePositionPct = 6.0
	eng := newTestEngine(t, cfg, 100_000)

	p := proposal("NIFTY", 1, 50, 21500, 21400)
	d := eng.Evaluate(p)
	require.True(t, d.Approved, d.Detail)
	require.NoError(t, eng.Record(Position{
		ID: "t1", Instrument: p.Instrument, Side: p.Side,
		Lots: d.Lots, LotSize: p.LotSize, Entry: p.Entry, Stop: p.Stop,
		EntryTime: p.Time, Class: p.Class,
	}))

	// Unrealized losses count against the day, not only closed trades.
	assert.Equal(t, BreakerWarning, eng.MarkToMarket(-cfg.DailyLossLimit*0.8, t0))
	assert.Equal(t, Triggered, eng.MarkToMarket(-cfg.DailyLossLimit, t0))

	d2 := eng.Evaluate(p)
	assert.False(t, d2.Approved)
	assert.Equal(t, RejectedCircuitBreaker, d2.Reason)

	// A recovering mark does not un-trip the session.
	assert.Equal(t, Triggered, eng.MarkToMarket(0, t0))

	alerts := eng.Breaker().Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, BreakerWarning, alerts[0].Level)
	assert.Equal(t, Triggered, alerts[1].Level)
}
