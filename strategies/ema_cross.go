package strategies

import (
	"time"

	"github.com/rustyeddy/quantcore/indicators"
	"github.com/rustyeddy/quantcore/market"
)

// EMACross trades a single instrument on a fast/slow EMA crossover.
// Indicators advance on completed bars only, so the cross seen at a
// bar's open was fully formed by the previous close. Stops are placed
// an ATR multiple away from entry, targets at RR times the stop
// distance.
type EMACross struct {
	cfg EMACrossConfig

	fast *indicators.EMA
	slow *indicators.EMA
	atr  *indicators.ATR

	lastDiff     float64
	haveLastDiff bool
	crossed      Action // pending cross direction, consumed at next open

	inPosition bool
	side       Action
}

type EMACrossConfig struct {
	Instrument string `yaml:"instrument" json:"instrument"`
	// Lots is the fixed size per entry. Zero leaves sizing to the
	// backtest engine's risk budget.
	Lots       int     `yaml:"lots" json:"lots"`
	FastPeriod int     `yaml:"fast_period" json:"fast_period"`
	SlowPeriod int     `yaml:"slow_period" json:"slow_period"`
	ATRPeriod  int     `yaml:"atr_period" json:"atr_period"`
	StopATR    float64 `yaml:"stop_atr" json:"stop_atr"`
	RR         float64 `yaml:"risk_reward" json:"risk_reward"`
}

func EMACrossDefaults() EMACrossConfig {
	return EMACrossConfig{
		Instrument: "NIFTY",
		Lots:       0,
		FastPeriod: 10,
		SlowPeriod: 30,
		ATRPeriod:  14,
		StopATR:    1.5,
		RR:         2.0,
	}
}

func NewEMACross(cfg EMACrossConfig) *EMACross {
	def := EMACrossDefaults()
	if cfg.Lots < 0 {
		cfg.Lots = def.Lots
	}
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = def.FastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = def.SlowPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.StopATR <= 0 {
		cfg.StopATR = def.StopATR
	}
	if cfg.RR <= 0 {
		cfg.RR = def.RR
	}

	return &EMACross{
		cfg:  cfg,
		fast: indicators.NewEMA(cfg.FastPeriod),
		slow: indicators.NewEMA(cfg.SlowPeriod),
		atr:  indicators.NewATR(cfg.ATRPeriod),
	}
}

func (s *EMACross) Name() string { return "ema-cross" }

func (s *EMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.atr.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
	s.crossed = Hold
	s.inPosition = false
	s.side = Hold
}

func (s *EMACross) OnOpen(t time.Time, open float64) Signal {
	cross := s.crossed
	s.crossed = Hold

	if cross == Hold {
		return Signal{}
	}

	// An opposite cross while holding exits; the engine re-enters on the
	// next cross rather than reversing in one step.
	if s.inPosition {
		if s.side == Buy && cross == Short {
			s.inPosition = false
			return Signal{Action: Sell, Instrument: s.cfg.Instrument, Tag: s.Name()}
		}
		if s.side == Short && cross == Buy {
			s.inPosition = false
			return Signal{Action: Cover, Instrument: s.cfg.Instrument, Tag: s.Name()}
		}
		return Signal{}
	}

	stopDist := s.atr.Value() * s.cfg.StopATR
	if stopDist <= 0 {
		return Signal{}
	}

	sig := Signal{
		Action:     cross,
		Instrument: s.cfg.Instrument,
		Lots:       s.cfg.Lots,
		OrderType:  market.Market,
		Tag:        s.Name(),
	}
	if cross == Buy {
		sig.Stop = open - stopDist
		sig.Target = open + stopDist*s.cfg.RR
	} else {
		sig.Stop = open + stopDist
		sig.Target = open - stopDist*s.cfg.RR
	}

	s.inPosition = true
	s.side = cross
	return sig
}

func (s *EMACross) OnClose(b market.Bar) {
	s.fast.Update(b)
	s.slow.Update(b)
	s.atr.Update(b)

	if !s.fast.Ready() || !s.slow.Ready() || !s.atr.Ready() {
		return
	}

	diff := s.fast.Value() - s.slow.Value()
	if s.haveLastDiff {
		switch {
		case s.lastDiff <= 0 && diff > 0:
			s.crossed = Buy
		case s.lastDiff >= 0 && diff < 0:
			s.crossed = Short
		}
	}
	s.lastDiff = diff
	s.haveLastDiff = true
}

// PositionClosed tells the strategy the engine exited its position on a
// stop or target so it does not emit a stale exit signal later.
func (s *EMACross) PositionClosed() {
	s.inPosition = false
	s.side = Hold
}
