package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantcore/market"
)

func barAt(i int, px float64) market.Bar {
	return market.Bar{
		Time:  time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Open:  px,
		High:  px + 2,
		Low:   px - 2,
		Close: px,
	}
}

// feed drives closes through the strategy and returns the first entry
// signal the strategy emits, with the bar index it fired on.
func feed(s BarStrategy, closes []float64) (Signal, int) {
	for i, px := range closes {
		b := barAt(i, px)
		if sig := s.OnOpen(b.Time, b.Open); sig.Action != Hold {
			return sig, i
		}
		s.OnClose(b)
	}
	return Signal{}, -1
}

func trendingUp(n int) []float64 {
	out := make([]float64, n)
	px := 100.0
	for i := range out {
		// Flat then rising so the fast EMA crosses from below.
		if i > n/2 {
			px += 3
		} else {
			px -= 0.1
		}
		out[i] = px
	}
	return out
}

func TestEMACrossSignalsBuyOnUpCross(t *testing.T) {
	t.Parallel()

	s := NewEMACross(EMACrossConfig{
		Instrument: "NIFTY", Lots: 2, FastPeriod: 3, SlowPeriod: 6, ATRPeriod: 3, StopATR: 1.5, RR: 2,
	})

	sig, idx := feed(s, trendingUp(30))
	require.NotEqual(t, -1, idx, "expected an entry signal")
	assert.Equal(t, Buy, sig.Action)
	assert.Equal(t, "NIFTY", sig.Instrument)
	assert.Equal(t, 2, sig.Lots)
	assert.Equal(t, market.Market, sig.OrderType)
	assert.Equal(t, "ema-cross", sig.Tag)

	// Stop below entry, target above, at the configured ratio.
	entry := trendingUp(30)[idx]
	require.Less(t, sig.Stop, entry)
	require.Greater(t, sig.Target, entry)
	assert.InDelta(t, 2.0, (sig.Target-entry)/(entry-sig.Stop), 1e-9)
}

func TestEMACrossDecidesOnOpenOnly(t *testing.T) {
	t.Parallel()

	s := NewEMACross(EMACrossConfig{FastPeriod: 3, SlowPeriod: 6, ATRPeriod: 3})

	// Without a completed-bar cross no amount of open prints moves it.
	for i := 0; i < 10; i++ {
		sig := s.OnOpen(barAt(i, 100+float64(i)*50).Time, 100+float64(i)*50)
		assert.Equal(t, Hold, sig.Action)
	}
}

func TestEMACrossExitsOnOppositeCross(t *testing.T) {
	t.Parallel()

	s := NewEMACross(EMACrossConfig{FastPeriod: 2, SlowPeriod: 4, ATRPeriod: 2})

	closes := trendingUp(20)
	_, idx := feed(s, closes)
	require.NotEqual(t, -1, idx)

	// Continue past the entry with a sharp reversal.
	px := closes[len(closes)-1]
	var exit Signal
	for i := 0; i < 20; i++ {
		px -= 5
		b := barAt(100+i, px)
		if sig := s.OnOpen(b.Time, b.Open); sig.Action != Hold {
			exit = sig
			break
		}
		s.OnClose(b)
	}
	assert.Equal(t, Sell, exit.Action)
}

func TestEMACrossResetClearsState(t *testing.T) {
	t.Parallel()

	s := NewEMACross(EMACrossConfig{FastPeriod: 2, SlowPeriod: 4, ATRPeriod: 2})
	_, idx := feed(s, trendingUp(20))
	require.NotEqual(t, -1, idx)

	s.Reset()
	sig := s.OnOpen(barAt(0, 100).Time, 100)
	assert.Equal(t, Hold, sig.Action)
}

func TestByName(t *testing.T) {
	t.Parallel()

	s, err := ByName("ema-cross", "BANKNIFTY", 1, 5, 20)
	require.NoError(t, err)
	assert.Equal(t, "ema-cross", s.Name())

	s, err = ByName("noop", "", 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())

	_, err = ByName("martingale", "", 0, 0, 0)
	assert.Error(t, err)
}
