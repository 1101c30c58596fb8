package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// Action is the decision a strategy hands to the engine.
type Action int8

const (
	Hold Action = iota
	Buy
	Sell
	Short
	Cover
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Short:
		return "SHORT"
	case Cover:
		return "COVER"
	default:
		return "HOLD"
	}
}

// Signal is a strategy's per-bar decision. Lots is the proposed size;
// the risk engine may shrink or reject it. Lots zero delegates sizing
// to the engine, which fits the position to the risk budget using the
// signal's stop distance.
type Signal struct {
	Action     Action
	Instrument string
	Lots       int
	Stop       float64
	Target     float64
	OrderType  market.OrderType
	Tag        string
}

// Entry reports whether the signal opens a position.
func (s Signal) Entry() bool {
	return s.Action == Buy || s.Action == Short
}

// Exit reports whether the signal closes a position.
func (s Signal) Exit() bool {
	return s.Action == Sell || s.Action == Cover
}

// BarStrategy is the interface a backtest strategy implements. The
// decision point is the bar open: OnOpen sees only the opening print,
// never the bar's eventual range or close. OnClose runs after the bar
// completes and is where indicator state advances.
type BarStrategy interface {
	Name() string
	Reset()
	OnOpen(t time.Time, open float64) Signal
	OnClose(b market.Bar)
}

// ByName builds a registered strategy from CLI-level parameters.
func ByName(name, instrument string, lots, fast, slow int) (BarStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "ema-cross", "emacross":
		cfg := EMACrossConfig{
			Instrument: instrument,
			Lots:       lots,
			FastPeriod: fast,
			SlowPeriod: slow,
		}
		return NewEMACross(cfg), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, ema-cross)", name)
	}
}
