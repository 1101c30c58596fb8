package backtest

import (
	"fmt"

	"github.com/rustyeddy/quantcore/market"
)

// CostModel prices the full Indian F&O friction stack. All methods are
// pure: the same inputs always produce the same costs.
type CostModel struct {
	BrokeragePerOrder float64 `yaml:"brokerage_per_order" json:"brokerage_per_order"` // flat, per side
	BrokeragePct      float64 `yaml:"brokerage_pct" json:"brokerage_pct"`             // % of turnover, lower of the two applies
	STTPct            float64 `yaml:"stt_pct" json:"stt_pct"`                         // sell side for options, both for futures
	ExchangePct       float64 `yaml:"exchange_pct" json:"exchange_pct"`
	GSTPct            float64 `yaml:"gst_pct" json:"gst_pct"` // on brokerage + exchange charges
	SEBIPerCrore      float64 `yaml:"sebi_per_crore" json:"sebi_per_crore"`
	StampDutyPct      float64 `yaml:"stamp_duty_pct" json:"stamp_duty_pct"` // buy side only

	// Slippage in basis points by order type, scaled by a volatility
	// factor at fill time. Limit orders are assumed to fill without
	// slippage or not at all.
	MarketSlipBps float64 `yaml:"market_slip_bps" json:"market_slip_bps"`
	LimitSlipBps  float64 `yaml:"limit_slip_bps" json:"limit_slip_bps"`
	StopSlipBps   float64 `yaml:"stop_slip_bps" json:"stop_slip_bps"`
}

// DefaultCostModel matches a discount broker on NSE F&O.
func DefaultCostModel() CostModel {
	return CostModel{
		BrokeragePerOrder: 20.0,
		BrokeragePct:      0.05,
		STTPct:            0.05,
		ExchangePct:       0.0035,
		GSTPct:            18.0,
		SEBIPerCrore:      10.0,
		StampDutyPct:      0.003,
		MarketSlipBps:     5,
		LimitSlipBps:      0,
		StopSlipBps:       10,
	}
}

func (c CostModel) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"brokerage_per_order", c.BrokeragePerOrder},
		{"brokerage_pct", c.BrokeragePct},
		{"stt_pct", c.STTPct},
		{"exchange_pct", c.ExchangePct},
		{"gst_pct", c.GSTPct},
		{"sebi_per_crore", c.SEBIPerCrore},
		{"stamp_duty_pct", c.StampDutyPct},
		{"market_slip_bps", c.MarketSlipBps},
		{"limit_slip_bps", c.LimitSlipBps},
		{"stop_slip_bps", c.StopSlipBps},
	} {
		if v.val < 0 {
			return fmt.Errorf("backtest: cost %s must be non-negative, got %g", v.name, v.val)
		}
	}
	return nil
}

// Breakdown itemizes a round trip's costs.
type Breakdown struct {
	EntryTurnover float64
	ExitTurnover  float64
	Brokerage     float64
	STT           float64
	Exchange      float64
	GST           float64
	SEBI          float64
	StampDuty     float64
	Total         float64
}

func (c CostModel) brokerage(turnover float64) float64 {
	pct := turnover * c.BrokeragePct / 100
	if pct < c.BrokeragePerOrder {
		return pct
	}
	return c.BrokeragePerOrder
}

// RoundTrip computes entry-plus-exit costs for one position.
func (c CostModel) RoundTrip(entry, exit float64, lots, lotSize int, isOption bool) Breakdown {
	qty := float64(lots * lotSize)

	b := Breakdown{
		EntryTurnover: entry * qty,
		ExitTurnover:  exit * qty,
	}
	turnover := b.EntryTurnover + b.ExitTurnover

	b.Brokerage = c.brokerage(b.EntryTurnover) + c.brokerage(b.ExitTurnover)

	if isOption {
		b.STT = b.ExitTurnover * c.STTPct / 100
	} else {
		b.STT = turnover * c.STTPct / 100
	}

	b.Exchange = turnover * c.ExchangePct / 100
	b.GST = (b.Brokerage + b.Exchange) * c.GSTPct / 100
	b.SEBI = turnover / 1e7 * c.SEBIPerCrore
	b.StampDuty = b.EntryTurnover * c.StampDutyPct / 100

	b.Total = b.Brokerage + b.STT + b.Exchange + b.GST + b.SEBI + b.StampDuty
	return b
}

// Slippage estimates per-unit slippage for a fill. volFactor scales the
// base rate during volatile stretches; pass 1 for calm conditions.
func (c CostModel) Slippage(price float64, ot market.OrderType, volFactor float64) float64 {
	var bps float64
	switch ot {
	case market.Limit:
		bps = c.LimitSlipBps
	case market.Stop:
		bps = c.StopSlipBps
	default:
		bps = c.MarketSlipBps
	}
	return price * bps / 10000 * volFactor
}
