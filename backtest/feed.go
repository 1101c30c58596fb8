package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// BarFeed yields bars one at a time in strictly increasing timestamp
// order. Implementations should be deterministic and return
// (ok=false, err=nil) at EOF.
type BarFeed interface {
	Next() (b market.Bar, ok bool, err error)
	Close() error
}

// DataGapError reports a non-monotonic timestamp or a gap wider than
// the feed tolerates. Sequencing faults are fatal to a run; continuing
// on a corrupted sequence would produce meaningless numbers.
type DataGapError struct {
	Prev time.Time
	Next time.Time
}

func (e *DataGapError) Error() string {
	if !e.Next.After(e.Prev) {
		return fmt.Sprintf("bar feed: non-monotonic timestamp %s after %s",
			e.Next.Format(time.RFC3339), e.Prev.Format(time.RFC3339))
	}
	return fmt.Sprintf("bar feed: gap from %s to %s exceeds tolerance",
		e.Prev.Format(time.RFC3339), e.Next.Format(time.RFC3339))
}

// SliceFeed replays an in-memory bar series. Interval is the expected
// bar spacing; when set, a jump of more than GapTolerance intervals
// raises a DataGapError. Session and day boundaries need a tolerance
// sized to cover them, or Interval left zero to check ordering only.
type SliceFeed struct {
	Interval     time.Duration
	GapTolerance int

	bars []market.Bar
	i    int
}

func NewSliceFeed(bars []market.Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (market.Bar, bool, error) {
	if f.i >= len(f.bars) {
		return market.Bar{}, false, nil
	}

	b := f.bars[f.i]
	if f.i > 0 {
		prev := f.bars[f.i-1]
		if !b.Time.After(prev.Time) {
			return market.Bar{}, false, &DataGapError{Prev: prev.Time, Next: b.Time}
		}
		if f.Interval > 0 {
			tolerance := f.GapTolerance
			if tolerance < 1 {
				tolerance = 1
			}
			if b.Time.Sub(prev.Time) > f.Interval*time.Duration(tolerance) {
				return market.Bar{}, false, &DataGapError{Prev: prev.Time, Next: b.Time}
			}
		}
	}

	f.i++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }
