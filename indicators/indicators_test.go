package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantcore/market"
)

func bar(i int, o, h, l, c float64) market.Bar {
	return market.Bar{
		Time:  time.Date(2025, 3, 3, 9, 15+i, 0, 0, time.UTC),
		Open:  o, High: h, Low: l, Close: c,
		Volume: 1000,
	}
}

func closes(vals ...float64) []market.Bar {
	out := make([]market.Bar, len(vals))
	for i, v := range vals {
		out[i] = bar(i, v, v, v, v)
	}
	return out
}

func TestEMAWarmupAndSmoothing(t *testing.T) {
	t.Parallel()

	e := NewEMA(3)
	require.Equal(t, 3, e.Warmup())

	bars := closes(10, 11, 12, 13)
	for i, b := range bars[:3] {
		assert.False(t, e.Ready(), "bar %d", i)
		e.Update(b)
	}
	require.True(t, e.Ready())
	// Seeded with SMA(10,11,12) = 11.
	assert.InDelta(t, 11.0, e.Value(), 1e-9)

	// multiplier 2/(3+1) = 0.5, so next value is (13-11)*0.5+11 = 12.
	e.Update(bars[3])
	assert.InDelta(t, 12.0, e.Value(), 1e-9)
}

func TestEMAReset(t *testing.T) {
	t.Parallel()

	e := NewEMA(2)
	for _, b := range closes(10, 20, 30) {
		e.Update(b)
	}
	require.True(t, e.Ready())

	e.Reset()
	assert.False(t, e.Ready())
	assert.InDelta(t, 0.0, e.Value(), 1e-9)
}

func TestATRWilderSmoothing(t *testing.T) {
	t.Parallel()

	a := NewATR(2)
	require.Equal(t, 3, a.Warmup())

	a.Update(bar(0, 100, 102, 99, 101))
	assert.False(t, a.Ready())

	// TR = max(104-100, |104-101|, |100-101|) = 4
	a.Update(bar(1, 101, 104, 100, 103))
	// TR = max(105-102, |105-103|, |102-103|) = 3; seed = (4+3)/2 = 3.5
	a.Update(bar(2, 103, 105, 102, 104))
	require.True(t, a.Ready())
	assert.InDelta(t, 3.5, a.Value(), 1e-9)

	// TR = max(106-103, |106-104|, |103-104|) = 3
	// Wilder: (3.5*1 + 3)/2 = 3.25
	a.Update(bar(3, 104, 106, 103, 105))
	assert.InDelta(t, 3.25, a.Value(), 1e-9)
}

func TestATRGapUsesPrevClose(t *testing.T) {
	t.Parallel()

	a := NewATR(1)
	a.Update(bar(0, 100, 101, 99, 100))
	// Bar gaps up well past its own range against the prior close.
	a.Update(bar(1, 110, 111, 109, 110))
	require.True(t, a.Ready())
	assert.InDelta(t, 11.0, a.Value(), 1e-9)
}
