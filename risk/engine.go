package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// Reason codes a rejection. Rejections are expected, frequent outcomes
// and travel as typed results, never as errors.
type Reason int8

const (
	OK Reason = iota
	RejectedCircuitBreaker
	RejectedDrawdown
	RejectedPositionRisk
	RejectedPortfolioHeat
	RejectedCorrelation
	RejectedBadProposal
)

func (r Reason) String() string {
	switch r {
	case RejectedCircuitBreaker:
		return "CIRCUIT_BREAKER"
	case RejectedDrawdown:
		return "DRAWDOWN"
	case RejectedPositionRisk:
		return "POSITION_RISK"
	case RejectedPortfolioHeat:
		return "PORTFOLIO_HEAT"
	case RejectedCorrelation:
		return "CORRELATION"
	case RejectedBadProposal:
		return "BAD_PROPOSAL"
	default:
		return "OK"
	}
}

// Proposal is a candidate position submitted for approval.
type Proposal struct {
	Instrument string
	Side       market.Side
	Lots       int
	LotSize    int
	Entry      float64
	Stop       float64
	Class      market.InstrumentClass
	Time       time.Time
}

func (p Proposal) riskAmount(lots int) float64 {
	return math.Abs(p.Entry-p.Stop) * float64(lots) * float64(p.LotSize)
}

// Decision is the typed result of evaluating a proposal. Lots may be
// smaller than proposed when correlation or drawdown throttling shrank
// the size rather than rejecting outright.
type Decision struct {
	Approved   bool
	Reason     Reason
	Detail     string
	Lots       int
	RiskAmount float64
	HeatAfter  float64
}

func reject(reason Reason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}

// Engine is the account-level risk gate. Evaluate is a dry run with no
// side effects; Record and Close mutate portfolio state after fill
// confirmations. Concurrent live callers must serialize through the
// engine: the internal lock makes each operation atomic so two
// near-simultaneous proposals cannot both pass a heat check that only
// one can satisfy.
type Engine struct {
	mu sync.Mutex

	cfg       LimitConfig
	portfolio *PortfolioState
	drawdown  *DrawdownManager
	breaker   *CircuitBreaker
}

func NewEngine(cfg LimitConfig, initialCapital float64) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("risk: initial capital must be positive, got %g", initialCapital)
	}

	return &Engine{
		cfg:       cfg,
		portfolio: NewPortfolio(initialCapital),
		drawdown:  NewDrawdownManager(initialCapital, cfg.Tiers, cfg.HysteresisPct),
		breaker:   NewCircuitBreaker(cfg.DailyLossLimit, initialCapital),
	}, nil
}

// Evaluate answers "can I take this position, and at what size" without
// recording anything.
func (e *Engine) Evaluate(p Proposal) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluate(p)
}

func (e *Engine) evaluate(p Proposal) Decision {
	if p.Lots <= 0 || p.LotSize <= 0 || p.Entry <= 0 || p.Entry == p.Stop {
		return reject(RejectedBadProposal, "lots, lot size and a non-zero stop distance are required")
	}

	if ok, why := e.breaker.CanTrade(); !ok {
		return reject(RejectedCircuitBreaker, why)
	}
	if ok, why := e.drawdown.CanTrade(p.Time); !ok {
		return reject(RejectedDrawdown, why)
	}

	lots := p.Lots

	// Drawdown throttle shrinks before the heat checks so the checked
	// size is the size that would actually be recorded.
	if mult := e.drawdown.SizeMultiplier(); mult < 1 {
		lots = int(float64(lots) * mult)
		if lots == 0 {
			return reject(RejectedDrawdown,
				fmt.Sprintf("size multiplier %.2f reduces position to zero", mult))
		}
	}

	// Correlation shrink or reject.
	impact := correlationImpact(e.cfg, e.portfolio, p.Instrument)
	if impact.Unknown && e.cfg.CorrelationFailClosed && len(e.portfolio.positions) > 0 {
		return reject(RejectedCorrelation, "no correlation data for open positions (fail-closed policy)")
	}
	if impact.CorrelatedExposurePct > e.cfg.MaxCorrelatedExposure {
		return reject(RejectedCorrelation,
			fmt.Sprintf("correlated exposure %.2f%% exceeds cap %.2f%%",
				impact.CorrelatedExposurePct, e.cfg.MaxCorrelatedExposure))
	}
	if impact.ShrinkFactor < 1 {
		lots = int(float64(lots) * impact.ShrinkFactor)
		if lots == 0 {
			return reject(RejectedCorrelation,
				fmt.Sprintf("correlation %.2f shrinks position to zero", impact.MaxCorr))
		}
	}

	risk := p.riskAmount(lots)
	capital := e.portfolio.Capital()

	if pct := risk / capital * 100; pct > e.cfg.MaxSinglePositionPct {
		return reject(RejectedPositionRisk,
			fmt.Sprintf("position risk %.2f%% exceeds limit %.2f%%", pct, e.cfg.MaxSinglePositionPct))
	}

	heatAfter := e.portfolio.heatAfter(risk)
	if heatAfter > e.cfg.MaxPortfolioHeatPct {
		return reject(RejectedPortfolioHeat,
			fmt.Sprintf("portfolio heat would reach %.2f%%, cap is %.2f%%",
				heatAfter, e.cfg.MaxPortfolioHeatPct))
	}

	return Decision{
		Approved:   true,
		Reason:     OK,
		Lots:       lots,
		RiskAmount: risk,
		HeatAfter:  heatAfter,
	}
}

// Record adds a filled position to the heat ledger. The position must
// have been approved; Record re-checks nothing, so the caller owns the
// evaluate-then-record ordering. In live use concurrent proposals must
// serialize through the engine's lock.
func (e *Engine) Record(p Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.add(p)
}

// Close removes a position on exit fill and applies its realized P&L,
// then refreshes drawdown and circuit-breaker state.
func (e *Engine) Close(id string, pnl float64, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.portfolio.close(id, pnl); err != nil {
		return err
	}
	e.drawdown.Update(e.portfolio.Capital(), now)
	e.breaker.Update(e.portfolio.DayPnL(), now)
	return nil
}

// MarkToMarket feeds unrealized P&L for open positions so the circuit
// breaker sees the full day picture, not just closed trades.
func (e *Engine) MarkToMarket(unrealized float64, now time.Time) AlertLevel {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.portfolio.markUnrealized(unrealized)
	return e.breaker.Update(e.portfolio.DayPnL(), now)
}

// ResetSession rolls the account over a trading-day boundary.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.portfolio.resetSession()
	e.breaker.ResetSession(e.portfolio.Capital())
}

// OverrideBreaker lifts a triggered circuit breaker until the next
// session boundary. The reason is recorded and required.
func (e *Engine) OverrideBreaker(reason string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.breaker.Override(reason)
}

// Portfolio exposes the state for read-only reporting.
func (e *Engine) Portfolio() *PortfolioState { return e.portfolio }

// Drawdown exposes the drawdown manager state.
func (e *Engine) Drawdown() DrawdownState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drawdown.State()
}

// Breaker exposes the circuit breaker for alert draining and status.
func (e *Engine) Breaker() *CircuitBreaker { return e.breaker }

// Limits returns the immutable configuration snapshot.
func (e *Engine) Limits() LimitConfig { return e.cfg }
