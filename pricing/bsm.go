package pricing

import (
	"math"

	"github.com/rustyeddy/quantcore/market"
)

// Inputs are the Black-Scholes-Merton parameters for a European option.
// TimeToExpiry is in years, Vol and Rate are decimals (0.18 = 18%).
type Inputs struct {
	Spot         float64
	Strike       float64
	TimeToExpiry float64
	Vol          float64
	Rate         float64
	Kind         market.OptionKind
}

// Greeks is an immutable snapshot of an option's theoretical value and
// sensitivities. Theta is per calendar day; Vega and Rho are per 1%
// change in vol and rate respectively.
type Greeks struct {
	Inputs

	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Validate rejects inputs the closed form cannot price.
func (in Inputs) Validate() error {
	switch {
	case in.TimeToExpiry <= 0:
		return &InvalidInputError{Field: "time_to_expiry", Value: in.TimeToExpiry}
	case in.Vol <= 0:
		return &InvalidInputError{Field: "vol", Value: in.Vol}
	case in.Spot <= 0:
		return &InvalidInputError{Field: "spot", Value: in.Spot}
	case in.Strike <= 0:
		return &InvalidInputError{Field: "strike", Value: in.Strike}
	}
	return nil
}

func (in Inputs) d1() float64 {
	return (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Vol*in.Vol)*in.TimeToExpiry) /
		(in.Vol * math.Sqrt(in.TimeToExpiry))
}

func (in Inputs) d2() float64 {
	return in.d1() - in.Vol*math.Sqrt(in.TimeToExpiry)
}

// Price returns the theoretical option value.
func Price(in Inputs) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return in.price(), nil
}

func (in Inputs) price() float64 {
	d1, d2 := in.d1(), in.d2()
	disc := math.Exp(-in.Rate * in.TimeToExpiry)

	if in.Kind == market.Call {
		return in.Spot*normCDF(d1) - in.Strike*disc*normCDF(d2)
	}
	return in.Strike*disc*normCDF(-d2) - in.Spot*normCDF(-d1)
}

// Compute evaluates price and all Greeks for the given inputs.
func Compute(in Inputs) (Greeks, error) {
	if err := in.Validate(); err != nil {
		return Greeks{}, err
	}

	d1, d2 := in.d1(), in.d2()
	sqrtT := math.Sqrt(in.TimeToExpiry)
	disc := math.Exp(-in.Rate * in.TimeToExpiry)
	pdf := normPDF(d1)

	g := Greeks{
		Inputs: in,
		Price:  in.price(),
		Gamma:  pdf / (in.Spot * in.Vol * sqrtT),
		Vega:   in.Spot * pdf * sqrtT / 100,
	}

	if in.Kind == market.Call {
		g.Delta = normCDF(d1)
		g.Theta = (-in.Spot*pdf*in.Vol/(2*sqrtT) - in.Rate*in.Strike*disc*normCDF(d2)) / 365
		g.Rho = in.Strike * in.TimeToExpiry * disc * normCDF(d2) / 100
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = (-in.Spot*pdf*in.Vol/(2*sqrtT) + in.Rate*in.Strike*disc*normCDF(-d2)) / 365
		g.Rho = -in.Strike * in.TimeToExpiry * disc * normCDF(-d2) / 100
	}

	return g, nil
}

// IntrinsicValue is the exercise value at the current spot.
func (in Inputs) IntrinsicValue() float64 {
	if in.Kind == market.Call {
		return math.Max(0, in.Spot-in.Strike)
	}
	return math.Max(0, in.Strike-in.Spot)
}

// TimeValue is the premium in excess of intrinsic value.
func (g Greeks) TimeValue() float64 {
	return g.Price - g.IntrinsicValue()
}

// Moneyness classifies the contract as ITM, ATM or OTM using a 2% band
// around the strike.
func (in Inputs) Moneyness() string {
	ratio := in.Spot / in.Strike
	itm := ratio > 1.02
	otm := ratio < 0.98
	if in.Kind == market.Put {
		itm, otm = otm, itm
	}
	switch {
	case itm:
		return "ITM"
	case otm:
		return "OTM"
	default:
		return "ATM"
	}
}

// BreakEven returns the underlying price at expiry where the position
// holding this contract at premium paid breaks even.
func (in Inputs) BreakEven(premium float64) float64 {
	if in.Kind == market.Call {
		return in.Strike + premium
	}
	return in.Strike - premium
}

// PnLAtExpiry is the long holder's profit at a given expiry spot.
func (in Inputs) PnLAtExpiry(spotAtExpiry, premium float64) float64 {
	at := in
	at.Spot = spotAtExpiry
	return at.IntrinsicValue() - premium
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
