package journal

import (
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// Trade is one completed round-trip. Records are append-only: a ledger
// entry is never edited after the exit fill writes it.
type Trade struct {
	ID         string
	Instrument string
	Side       market.Side
	Lots       int
	LotSize    int
	OrderType  market.OrderType

	Entry     float64
	Exit      float64
	Stop      float64
	Target    float64
	EntryTime time.Time
	ExitTime  time.Time

	GrossPnL float64
	Costs    float64
	NetPnL   float64

	ExitReason string
	Strategy   string
	Regime     string
}

// Rejection records a signal that failed a risk or rules check. These
// are kept alongside trades so a backtest never silently drops a
// signal.
type Rejection struct {
	Time       time.Time
	Instrument string
	Action     string
	Lots       int
	Stage      string // "risk" or "rules"
	Reason     string
	Detail     string
}

// EquityPoint is one sample of the account equity curve.
type EquityPoint struct {
	Time        time.Time
	Capital     float64
	DrawdownPct float64
}

type Journal interface {
	RecordTrade(Trade) error
	RecordRejection(Rejection) error
	RecordEquity(EquityPoint) error
	Close() error
}
