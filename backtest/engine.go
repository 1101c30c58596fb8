package backtest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/quantcore/indicators"
	"github.com/rustyeddy/quantcore/internal/logger"
	"github.com/rustyeddy/quantcore/journal"
	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/pkg/id"
	"github.com/rustyeddy/quantcore/risk"
	"github.com/rustyeddy/quantcore/rules"
	"github.com/rustyeddy/quantcore/strategies"
)

// Exit reasons recorded on the trade ledger.
const (
	ExitStop   = "STOP_LOSS"
	ExitTarget = "TARGET"
	ExitSignal = "SIGNAL"
	ExitEnd    = "BACKTEST_END"
)

// Volatility regimes tagged on trades, taken from the ATR stretch at
// entry so journal queries can split results by market state.
const (
	RegimeNormal  = "NORMAL"
	RegimeHighVol = "HIGH_VOL"
)

// Config wires one backtest run. Risk limits, cadence rules and the
// cost model are immutable snapshots taken at construction.
type Config struct {
	InitialCapital float64
	Limits         risk.LimitConfig
	Rules          rules.Config
	Costs          CostModel

	// ATRPeriod drives the volatility scaling of slippage. Zero
	// disables scaling and fills slip at the base rate.
	ATRPeriod int
	// ATRBaselinePct is the ATR (as % of price) considered normal; the
	// slippage factor is the ratio of current ATR% to this, floored at 1.
	ATRBaselinePct float64

	// Label tags the run's results. Walk-forward sets this per fold;
	// anything run on its full history is in-sample by definition.
	Label string
}

func DefaultRunConfig() Config {
	return Config{
		InitialCapital: 100_000,
		Limits:         risk.DefaultLimits(),
		Rules:          rules.DefaultConfig(),
		Costs:          DefaultCostModel(),
		ATRPeriod:      14,
		ATRBaselinePct: 0.5,
		Label:          LabelInSample,
	}
}

const (
	LabelInSample    = "in-sample"
	LabelWalkForward = "walk-forward"
)

// Result summarizes a completed run. The full trade ledger travels
// separately for metrics and resampling. Alerts holds every circuit
// breaker escalation the run produced, drained as they fire so session
// resets cannot swallow them.
type Result struct {
	Label          string
	InitialCapital float64
	FinalCapital   float64
	Trades         int
	Wins           int
	Losses         int
	Rejections     int
	Alerts         []risk.BreakerAlert
	Start          time.Time
	End            time.Time
}

type openPosition struct {
	id      string
	sig     strategies.Signal
	side    market.Side
	lots    int
	lotSize int
	entry   float64
	at      time.Time
	class   market.InstrumentClass
	regime  string
}

// Engine replays bars through a strategy with every candidate trade
// gated by the risk engine and the rules enforcer. One position at a
// time; state is not safe for concurrent runs, give each run its own
// Engine.
type Engine struct {
	cfg   Config
	strat strategies.BarStrategy
	rsk   *risk.Engine
	gate  *rules.Enforcer
	atr   *indicators.ATR

	ledger *journal.Ledger
	mirror journal.Journal
	log    *zap.Logger

	pos    *openPosition
	alerts []risk.BreakerAlert
}

func NewEngine(cfg Config, strat strategies.BarStrategy, log *zap.Logger) (*Engine, error) {
	if strat == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	rsk, err := risk.NewEngine(cfg.Limits, cfg.InitialCapital)
	if err != nil {
		return nil, err
	}
	gate, err := rules.NewEnforcer(cfg.Rules)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		strat:  strat,
		rsk:    rsk,
		gate:   gate,
		ledger: journal.NewLedger(),
		log:    log,
	}
	if cfg.ATRPeriod > 0 {
		e.atr = indicators.NewATR(cfg.ATRPeriod)
	}
	return e, nil
}

// Mirror copies every journal record to j as well, typically a SQLite
// or CSV journal for post-run analysis.
func (e *Engine) Mirror(j journal.Journal) {
	e.mirror = j
}

// Ledger exposes the run's trade ledger.
func (e *Engine) Ledger() *journal.Ledger { return e.ledger }

// Risk exposes the run's risk engine for reporting.
func (e *Engine) Risk() *risk.Engine { return e.rsk }

// Run replays the feed to exhaustion. Sequencing errors from the feed
// abort the run; an open position at the end is force-closed at the
// last bar's close.
func (e *Engine) Run(feed BarFeed) (Result, error) {
	if feed == nil {
		return Result{}, fmt.Errorf("backtest: feed is required")
	}
	defer feed.Close()

	e.strat.Reset()

	var last market.Bar
	haveBar := false

	for {
		b, ok, err := feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}

		if haveBar && !sameDay(last.Time, b.Time) {
			e.rsk.ResetSession()
		}

		// Exits first: an open position's stop or target inside this
		// bar's range outranks any new signal.
		if e.pos != nil {
			if px, reason, ot, hit := checkExit(e.pos, b); hit {
				e.closePosition(b.Time, px, reason, ot)
			}
		}

		sig := e.strat.OnOpen(b.Time, b.Open)
		switch {
		case sig.Entry() && e.pos == nil:
			e.tryEnter(sig, b)
		case sig.Exit() && e.pos != nil:
			e.closePosition(b.Time, b.Open, ExitSignal, market.Market)
		}

		e.strat.OnClose(b)
		if e.atr != nil {
			e.atr.Update(b)
		}
		e.recordEquity(b.Time)

		if !haveBar {
			haveBar = true
		}
		last = b
	}

	if e.pos != nil && haveBar {
		e.closePosition(last.Time, last.Close, ExitEnd, market.Market)
	}

	return e.result(haveBar, last), nil
}

func (e *Engine) result(haveBar bool, last market.Bar) Result {
	res := Result{
		Label:          e.cfg.Label,
		InitialCapital: e.cfg.InitialCapital,
		FinalCapital:   e.rsk.Portfolio().Capital(),
		Rejections:     len(e.ledger.Rejections()),
		Alerts:         e.alerts,
	}
	if res.Label == "" {
		res.Label = LabelInSample
	}

	trades := e.ledger.Trades()
	res.Trades = len(trades)
	for _, t := range trades {
		switch {
		case t.NetPnL > 0:
			res.Wins++
		case t.NetPnL < 0:
			res.Losses++
		}
		if res.Start.IsZero() || t.EntryTime.Before(res.Start) {
			res.Start = t.EntryTime
		}
	}
	if haveBar {
		res.End = last.Time
	}
	return res
}

// drainAlerts pulls breaker escalations off the risk engine as they
// fire, before a session reset can discard them, and keeps them for
// the run result.
func (e *Engine) drainAlerts() {
	for _, a := range e.rsk.Breaker().Alerts() {
		e.log.Warn("circuit breaker escalated",
			zap.Stringer("level", a.Level),
			zap.Float64("day_pnl", a.DayPnL),
			zap.Float64("limit", a.Limit),
			zap.Time("at", a.At))
		e.alerts = append(e.alerts, a)
	}
}

// volFactor scales slippage by how stretched the current ATR is
// against the configured baseline, never below 1.
func (e *Engine) volFactor(price float64) float64 {
	if e.atr == nil || !e.atr.Ready() || e.cfg.ATRBaselinePct <= 0 || price <= 0 {
		return 1
	}
	atrPct := e.atr.Value() / price * 100
	if f := atrPct / e.cfg.ATRBaselinePct; f > 1 {
		return f
	}
	return 1
}

func (e *Engine) tryEnter(sig strategies.Signal, b market.Bar) {
	if v := e.gate.CanTrade(b.Time); !v.Allowed {
		e.reject(sig, b.Time, "rules", v.Violation.String(), v.Detail)
		return
	}

	side := market.Long
	if sig.Action == strategies.Short {
		side = market.Short
	}

	vf := e.volFactor(b.Open)
	slip := e.cfg.Costs.Slippage(b.Open, sig.OrderType, vf)
	entry := b.Open + float64(side)*slip

	lotSize := market.LotSize(sig.Instrument)
	class := market.IndexOption
	if meta, ok := market.Instruments[sig.Instrument]; ok {
		class = meta.Class
	}

	// Lots zero asks the engine to size the entry: risk the single
	// position budget against the signal's stop distance.
	lots := sig.Lots
	if lots == 0 {
		lots = risk.FixedFractionalLots(e.rsk.Portfolio().Capital(),
			e.cfg.Limits.MaxSinglePositionPct, entry, sig.Stop, lotSize)
		if lots == 0 {
			e.reject(sig, b.Time, "risk", risk.RejectedPositionRisk.String(),
				"stop distance too wide to size even one lot")
			return
		}
	}

	prop := risk.Proposal{
		Instrument: sig.Instrument,
		Side:       side,
		Lots:       lots,
		LotSize:    lotSize,
		Entry:      entry,
		Stop:       sig.Stop,
		Class:      class,
		Time:       b.Time,
	}
	dec := e.rsk.Evaluate(prop)
	if !dec.Approved {
		e.reject(sig, b.Time, "risk", dec.Reason.String(), dec.Detail)
		return
	}

	tradeID := id.New()
	if err := e.rsk.Record(risk.Position{
		ID:         tradeID,
		Instrument: sig.Instrument,
		Side:       side,
		Lots:       dec.Lots,
		LotSize:    lotSize,
		Entry:      entry,
		Stop:       sig.Stop,
		EntryTime:  b.Time,
		Class:      class,
	}); err != nil {
		e.log.Error("record position", zap.Error(err))
		return
	}

	regime := RegimeNormal
	if vf > 1 {
		regime = RegimeHighVol
	}
	e.pos = &openPosition{
		id:      tradeID,
		sig:     sig,
		side:    side,
		lots:    dec.Lots,
		lotSize: lotSize,
		entry:   entry,
		at:      b.Time,
		class:   class,
		regime:  regime,
	}
	e.log.Debug("entered position",
		zap.String("instrument", sig.Instrument),
		zap.Stringer("side", side),
		zap.Int("lots", dec.Lots),
		zap.Float64("entry", entry))
}

func (e *Engine) closePosition(t time.Time, rawExit float64, reason string, ot market.OrderType) {
	p := e.pos
	e.pos = nil

	slip := e.cfg.Costs.Slippage(rawExit, ot, e.volFactor(rawExit))
	exit := rawExit - float64(p.side)*slip

	qty := float64(p.lots * p.lotSize)
	gross := float64(p.side) * (exit - p.entry) * qty
	costs := e.cfg.Costs.RoundTrip(p.entry, exit, p.lots, p.lotSize, p.class.IsOption())
	net := gross - costs.Total

	trade := journal.Trade{
		ID:         p.id,
		Instrument: p.sig.Instrument,
		Side:       p.side,
		Lots:       p.lots,
		LotSize:    p.lotSize,
		OrderType:  p.sig.OrderType,
		Entry:      p.entry,
		Exit:       exit,
		Stop:       p.sig.Stop,
		Target:     p.sig.Target,
		EntryTime:  p.at,
		ExitTime:   t,
		GrossPnL:   gross,
		Costs:      costs.Total,
		NetPnL:     net,
		ExitReason: reason,
		Strategy:   p.sig.Tag,
		Regime:     p.regime,
	}
	e.record(trade)

	if err := e.rsk.Close(p.id, net, t); err != nil {
		e.log.Error("close position", zap.Error(err))
	}
	e.drainAlerts()
	e.gate.RecordTrade(net, t)

	if reason != ExitSignal {
		if s, ok := e.strat.(interface{ PositionClosed() }); ok {
			s.PositionClosed()
		}
	}

	e.log.Debug("closed position",
		zap.String("instrument", trade.Instrument),
		zap.String("reason", reason),
		zap.Float64("net_pnl", net))
}

func (e *Engine) record(t journal.Trade) {
	if err := e.ledger.RecordTrade(t); err != nil {
		e.log.Error("ledger trade", zap.Error(err))
	}
	if e.mirror != nil {
		if err := e.mirror.RecordTrade(t); err != nil {
			e.log.Error("mirror trade", zap.Error(err))
		}
	}
}

func (e *Engine) reject(sig strategies.Signal, t time.Time, stage, reason, detail string) {
	r := journal.Rejection{
		Time:       t,
		Instrument: sig.Instrument,
		Action:     sig.Action.String(),
		Lots:       sig.Lots,
		Stage:      stage,
		Reason:     reason,
		Detail:     detail,
	}
	if err := e.ledger.RecordRejection(r); err != nil {
		e.log.Error("ledger rejection", zap.Error(err))
	}
	if e.mirror != nil {
		if err := e.mirror.RecordRejection(r); err != nil {
			e.log.Error("mirror rejection", zap.Error(err))
		}
	}
	e.log.Debug("signal rejected",
		zap.String("stage", stage),
		zap.String("reason", reason),
		zap.String("detail", detail))
}

func (e *Engine) recordEquity(t time.Time) {
	ps := e.rsk.Portfolio()
	capital := ps.Capital()
	peak := ps.Peak()

	var dd float64
	if peak > 0 && capital < peak {
		dd = (peak - capital) / peak * 100
	}

	p := journal.EquityPoint{Time: t, Capital: capital, DrawdownPct: dd}
	if err := e.ledger.RecordEquity(p); err != nil {
		e.log.Error("ledger equity", zap.Error(err))
	}
	if e.mirror != nil {
		if err := e.mirror.RecordEquity(p); err != nil {
			e.log.Error("mirror equity", zap.Error(err))
		}
	}
}

// checkExit models intrabar stop/target hits. A bar that opens beyond
// the level gapped past it overnight, so the fill is the open, not the
// stale level. When both stop and target sit inside one bar's range the
// stop is assumed to hit first.
func checkExit(p *openPosition, b market.Bar) (px float64, reason string, ot market.OrderType, hit bool) {
	stop := p.sig.Stop
	target := p.sig.Target
	hasStop := stop > 0
	hasTarget := target > 0

	switch p.side {
	case market.Long:
		if hasStop && b.Open <= stop {
			return b.Open, ExitStop, market.Stop, true
		}
		if hasTarget && b.Open >= target {
			return b.Open, ExitTarget, market.Limit, true
		}
		if hasStop && b.Low <= stop {
			return stop, ExitStop, market.Stop, true
		}
		if hasTarget && b.High >= target {
			return target, ExitTarget, market.Limit, true
		}
	case market.Short:
		if hasStop && b.Open >= stop {
			return b.Open, ExitStop, market.Stop, true
		}
		if hasTarget && b.Open <= target {
			return b.Open, ExitTarget, market.Limit, true
		}
		if hasStop && b.High >= stop {
			return stop, ExitStop, market.Stop, true
		}
		if hasTarget && b.Low <= target {
			return target, ExitTarget, market.Limit, true
		}
	}
	return 0, "", market.Market, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
