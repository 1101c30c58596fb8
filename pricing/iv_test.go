package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quantcore/market"
)

func TestImpliedVol_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vol  float64
		kind market.OptionKind
		spot float64
	}{
		{"atm_call_18", 0.18, market.Call, 21500},
		{"atm_put_18", 0.18, market.Put, 21500},
		{"high_vol_call", 0.45, market.Call, 21500},
		{"low_vol_put", 0.10, market.Put, 21500},
		{"slightly_otm_call", 0.22, market.Call, 21200},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := Inputs{
				Spot:         tt.spot,
				Strike:       21500,
				TimeToExpiry: 30.0 / 365,
				Vol:          tt.vol,
				Rate:         0.06,
				Kind:         tt.kind,
			}

			price, err := Price(in)
			require.NoError(t, err)

			solved, err := ImpliedVol(in, price)
			require.NoError(t, err)
			assert.InDelta(t, tt.vol, solved, 1e-4)
		})
	}
}

func TestImpliedVol_DegenerateVega(t *testing.T) {
	t.Parallel()

	// Deep ITM near expiry: vega collapses and Newton-Raphson cannot
	// make progress. The solver must report failure, not a junk value.
	in := Inputs{
		Spot:         30000,
		Strike:       15000,
		TimeToExpiry: 1.0 / 365,
		Rate:         0.06,
		Kind:         market.Call,
	}

	_, err := ImpliedVol(in, 15000)
	var conv *ConvergenceError
	require.ErrorAs(t, err, &conv)
	assert.LessOrEqual(t, conv.Iterations, ivMaxIter)
}

func TestImpliedVol_BadInputs(t *testing.T) {
	t.Parallel()

	in := Inputs{Spot: 21500, Strike: 21500, TimeToExpiry: 0, Rate: 0.06, Kind: market.Call}

	_, err := ImpliedVol(in, 150)
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = ImpliedVol(atmCall(), -5)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "market_price", invalid.Field)
}
