package pricing

import "fmt"

// InvalidInputError reports malformed pricing inputs. The caller must
// never receive silently clamped or wrong Greeks.
type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("pricing: invalid input %s=%g", e.Field, e.Value)
}

// ConvergenceError reports an implied-volatility solve that failed to
// converge. Callers should fall back to a market-quoted IV or skip the
// instrument.
type ConvergenceError struct {
	Iterations int
	LastSigma  float64
	PriceErr   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("pricing: IV solve did not converge after %d iterations (sigma=%.4f, price err=%.6f)",
		e.Iterations, e.LastSigma, e.PriceErr)
}
