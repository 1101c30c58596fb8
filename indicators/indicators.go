// Package indicators provides streaming technical indicators over bars.
// Each indicator consumes one bar at a time and reports Ready once its
// warmup window has filled.
package indicators

import "github.com/rustyeddy/quantcore/market"

// Indicator is the common streaming interface.
type Indicator interface {
	Name() string
	Warmup() int
	Reset()
	Update(b market.Bar)
	Ready() bool
	Value() float64
}
