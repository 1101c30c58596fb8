package pricing

// Leg is one option position contributing to portfolio-level Greeks.
// Quantity is signed: negative for short legs. Lots are converted to
// units via LotSize.
type Leg struct {
	Inputs

	Quantity int
	LotSize  int
}

// PortfolioGreeks are per-position Greeks aggregated by signed quantity
// times lot size. This is a pure reduction with no side effects.
type PortfolioGreeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Aggregate reduces the legs to net portfolio Greeks. The first invalid
// leg aborts the reduction so a malformed position cannot silently skew
// the exposure numbers.
func Aggregate(legs []Leg) (PortfolioGreeks, error) {
	var total PortfolioGreeks

	for _, leg := range legs {
		g, err := Compute(leg.Inputs)
		if err != nil {
			return PortfolioGreeks{}, err
		}

		units := float64(leg.Quantity * leg.LotSize)
		total.Delta += g.Delta * units
		total.Gamma += g.Gamma * units
		total.Theta += g.Theta * units
		total.Vega += g.Vega * units
		total.Rho += g.Rho * units
	}

	return total, nil
}
