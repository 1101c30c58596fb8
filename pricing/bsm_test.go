package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantcore/market"
)

func atmCall() Inputs {
	return Inputs{
		Spot:         21500,
		Strike:       21500,
		TimeToExpiry: 7.0 / 365,
		Vol:          0.18,
		Rate:         0.06,
		Kind:         market.Call,
	}
}

func TestCompute_ATMCallDelta(t *testing.T) {
	t.Parallel()

	g, err := Compute(atmCall())
	require.NoError(t, err)

	// Slightly above 0.5 because of the drift term.
	assert.InDelta(t, 0.52, g.Delta, 0.02)
	assert.Greater(t, g.Gamma, 0.0)
	assert.Less(t, g.Theta, 0.0)
	assert.Greater(t, g.Vega, 0.0)
}

func TestCompute_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := Compute(atmCall())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Compute(atmCall())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompute_DeepITMAndOTM(t *testing.T) {
	t.Parallel()

	itm := atmCall()
	itm.Spot = 30000
	g, err := Compute(itm)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.Delta, 1e-6)

	otm := atmCall()
	otm.Spot = 15000
	g, err = Compute(otm)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, g.Delta, 1e-6)
}

func TestCompute_PutCallParity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spot float64
	}{
		{"atm", 21500},
		{"itm_call", 22500},
		{"otm_call", 20500},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			call := atmCall()
			call.Spot = tt.spot

			put := call
			put.Kind = market.Put

			gc, err := Compute(call)
			require.NoError(t, err)
			gp, err := Compute(put)
			require.NoError(t, err)

			// delta(call) - delta(put) = 1 for matching strike/expiry.
			assert.InDelta(t, 1.0, gc.Delta-gp.Delta, 1e-9)
			// Gamma and vega are identical for calls and puts.
			assert.InDelta(t, gc.Gamma, gp.Gamma, 1e-12)
			assert.InDelta(t, gc.Vega, gp.Vega, 1e-12)
		})
	}
}

func TestCompute_InvalidInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Inputs)
		field  string
	}{
		{"zero_expiry", func(in *Inputs) { in.TimeToExpiry = 0 }, "time_to_expiry"},
		{"negative_expiry", func(in *Inputs) { in.TimeToExpiry = -0.1 }, "time_to_expiry"},
		{"zero_vol", func(in *Inputs) { in.Vol = 0 }, "vol"},
		{"negative_vol", func(in *Inputs) { in.Vol = -0.2 }, "vol"},
		{"zero_spot", func(in *Inputs) { in.Spot = 0 }, "spot"},
		{"zero_strike", func(in *Inputs) { in.Strike = 0 }, "strike"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := atmCall()
			tt.mutate(&in)

			_, err := Compute(in)
			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestPrice_PutCallParityValue(t *testing.T) {
	t.Parallel()

	call := atmCall()
	put := call
	put.Kind = market.Put

	cp, err := Price(call)
	require.NoError(t, err)
	pp, err := Price(put)
	require.NoError(t, err)

	// C - P = S - K*exp(-rT)
	forward := call.Spot - call.Strike*math.Exp(-call.Rate*call.TimeToExpiry)
	assert.InDelta(t, forward, cp-pp, 1e-6)
}

func TestMoneyness(t *testing.T) {
	t.Parallel()

	in := atmCall()
	assert.Equal(t, "ATM", in.Moneyness())

	in.Spot = 23000
	assert.Equal(t, "ITM", in.Moneyness())

	in.Kind = market.Put
	assert.Equal(t, "OTM", in.Moneyness())
}

func TestPnLAtExpiry(t *testing.T) {
	t.Parallel()

	in := atmCall()
	assert.InDelta(t, 300.0, in.PnLAtExpiry(21900, 100), 1e-9)
	assert.InDelta(t, -100.0, in.PnLAtExpiry(21000, 100), 1e-9)
	assert.InDelta(t, 21600.0, in.BreakEven(100), 1e-9)
}

func TestAggregate_SignedReduction(t *testing.T) {
	t.Parallel()

	long := Leg{Inputs: atmCall(), Quantity: 2, LotSize: 50}
	short := Leg{Inputs: atmCall(), Quantity: -2, LotSize: 50}

	net, err := Aggregate([]Leg{long, short})
	require.NoError(t, err)

	// Equal and opposite legs cancel exactly.
	assert.InDelta(t, 0, net.Delta, 1e-9)
	assert.InDelta(t, 0, net.Vega, 1e-9)

	solo, err := Aggregate([]Leg{long})
	require.NoError(t, err)
	g, err := Compute(atmCall())
	require.NoError(t, err)
	assert.InDelta(t, g.Delta*100, solo.Delta, 1e-9)
}

func TestAggregate_InvalidLegAborts(t *testing.T) {
	t.Parallel()

	bad := atmCall()
	bad.Vol = 0

	_, err := Aggregate([]Leg{
		{Inputs: atmCall(), Quantity: 1, LotSize: 50},
		{Inputs: bad, Quantity: 1, LotSize: 50},
	})

	var invalid *InvalidInputError
	assert.True(t, errors.As(err, &invalid))
}
