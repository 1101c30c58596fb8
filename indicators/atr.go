package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quantcore/market"
)

// ATR is a streaming Average True Range. The warmup window is averaged
// into the seed value, after which Wilder smoothing applies.
type ATR struct {
	period    int
	atr       float64
	count     int
	warmupSum float64
	prev      market.Bar
	hasPrev   bool
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	// One extra bar for the first true range.
	return a.period + 1
}

func (a *ATR) Reset() {
	a.atr = 0
	a.count = 0
	a.warmupSum = 0
	a.hasPrev = false
}

func (a *ATR) Update(b market.Bar) {
	if !a.hasPrev {
		a.prev = b
		a.hasPrev = true
		return
	}

	tr := trueRange(b, a.prev.Close)
	a.prev = b

	if a.count < a.period {
		a.warmupSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.warmupSum / float64(a.period)
		}
		return
	}
	a.atr = (a.atr*float64(a.period-1) + tr) / float64(a.period)
}

func (a *ATR) Ready() bool {
	return a.count >= a.period
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

func trueRange(b market.Bar, prevClose float64) float64 {
	hl := b.High - b.Low
	hc := math.Abs(b.High - prevClose)
	lc := math.Abs(b.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
