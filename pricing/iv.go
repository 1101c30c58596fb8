package pricing

import "math"

const (
	ivSeed       = 0.3
	ivTolerance  = 1e-4
	ivMaxIter    = 50
	ivVegaFloor  = 1e-8
	ivSigmaFloor = 0.01
	ivSigmaCap   = 3.0
)

// ImpliedVol solves for the volatility that reproduces marketPrice via
// Newton-Raphson, using vega as the derivative. The iteration cap is a
// hard bound; on non-convergence or a degenerate vega (deep ITM/OTM or
// near expiry) it returns a ConvergenceError and the caller must fall
// back to a market-quoted IV.
func ImpliedVol(in Inputs, marketPrice float64) (float64, error) {
	if marketPrice <= 0 {
		return 0, &InvalidInputError{Field: "market_price", Value: marketPrice}
	}

	in.Vol = ivSeed
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var priceErr float64
	for i := 0; i < ivMaxIter; i++ {
		g, err := Compute(in)
		if err != nil {
			return 0, err
		}

		priceErr = g.Price - marketPrice
		if math.Abs(priceErr) < ivTolerance {
			return in.Vol, nil
		}

		// Vega here is per unit vol, not per 1%.
		vega := g.Vega * 100
		if vega < ivVegaFloor {
			return 0, &ConvergenceError{Iterations: i, LastSigma: in.Vol, PriceErr: priceErr}
		}

		sigma := in.Vol - priceErr/vega
		in.Vol = math.Min(math.Max(sigma, ivSigmaFloor), ivSigmaCap)
	}

	return 0, &ConvergenceError{Iterations: ivMaxIter, LastSigma: in.Vol, PriceErr: priceErr}
}
