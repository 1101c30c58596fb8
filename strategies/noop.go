package strategies

import (
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// Noop never trades. Useful for dry runs of the engine plumbing.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Reset() {}

func (Noop) OnOpen(time.Time, float64) Signal { return Signal{} }

func (Noop) OnClose(market.Bar) {}
