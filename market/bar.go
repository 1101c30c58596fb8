package market

import "time"

// Bar is a single OHLCV bar supplied by the market-data collaborator.
// Bars are expected in strictly increasing timestamp order.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Contains reports whether price falls inside the bar's high/low range.
func (b Bar) Contains(price float64) bool {
	return price >= b.Low && price <= b.High
}

// Side: +1 long, -1 short.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}

// OrderType determines the slippage applied by the cost model.
type OrderType int8

const (
	Market OrderType = iota
	Limit
	Stop
)

func (o OrderType) String() string {
	switch o {
	case Limit:
		return "LIMIT"
	case Stop:
		return "STOP"
	default:
		return "MARKET"
	}
}
