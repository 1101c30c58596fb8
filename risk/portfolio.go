package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// Position is one open entry in the heat ledger. Created on approval plus
// fill confirmation, destroyed on exit fill.
type Position struct {
	ID         string
	Instrument string
	Side       market.Side
	Lots       int
	LotSize    int
	Entry      float64
	Stop       float64
	EntryTime  time.Time
	Class      market.InstrumentClass
}

// RiskAmount is the dollar loss if the stop is hit. This is the unit
// portfolio heat accounting operates on.
func (p Position) RiskAmount() float64 {
	return math.Abs(p.Entry-p.Stop) * float64(p.Lots) * float64(p.LotSize)
}

// PortfolioState tracks capital, the high-water mark, open positions and
// day P&L. It is owned exclusively by the risk Engine; callers mutate it
// only through the engine's record operations.
type PortfolioState struct {
	capital     float64
	peak        float64
	positions   map[string]Position
	realizedDay float64
	unrealized  float64
}

func NewPortfolio(capital float64) *PortfolioState {
	return &PortfolioState{
		capital:   capital,
		peak:      capital,
		positions: make(map[string]Position),
	}
}

func (ps *PortfolioState) Capital() float64 { return ps.capital }
func (ps *PortfolioState) Peak() float64    { return ps.peak }

// DayPnL is realized plus marked unrealized P&L since the session reset.
func (ps *PortfolioState) DayPnL() float64 { return ps.realizedDay + ps.unrealized }

// OpenRisk sums the risk amounts of all open positions.
func (ps *PortfolioState) OpenRisk() float64 {
	var total float64
	for _, p := range ps.positions {
		total += p.RiskAmount()
	}
	return total
}

// Heat is open risk as a percentage of current capital.
func (ps *PortfolioState) Heat() float64 {
	if ps.capital <= 0 {
		return math.Inf(1)
	}
	return ps.OpenRisk() / ps.capital * 100
}

// Positions returns a copy of the open positions.
func (ps *PortfolioState) Positions() []Position {
	out := make([]Position, 0, len(ps.positions))
	for _, p := range ps.positions {
		out = append(out, p)
	}
	return out
}

func (ps *PortfolioState) Position(id string) (Position, bool) {
	p, ok := ps.positions[id]
	return p, ok
}

// heatAfter computes the hypothetical heat if a position with the given
// risk amount were added. Pure; used for dry-run what-if checks.
func (ps *PortfolioState) heatAfter(riskAmount float64) float64 {
	if ps.capital <= 0 {
		return math.Inf(1)
	}
	return (ps.OpenRisk() + riskAmount) / ps.capital * 100
}

func (ps *PortfolioState) add(p Position) error {
	if _, exists := ps.positions[p.ID]; exists {
		return fmt.Errorf("risk: position %q already open", p.ID)
	}
	ps.positions[p.ID] = p
	return nil
}

// close removes the position and applies its realized P&L to capital.
func (ps *PortfolioState) close(id string, pnl float64) error {
	if _, ok := ps.positions[id]; !ok {
		return fmt.Errorf("risk: position %q not found", id)
	}
	delete(ps.positions, id)
	ps.realizedDay += pnl
	ps.capital += pnl
	if ps.capital > ps.peak {
		ps.peak = ps.capital
	}
	return nil
}

func (ps *PortfolioState) markUnrealized(pnl float64) {
	ps.unrealized = pnl
}

// resetSession zeroes the day P&L counters at the session boundary.
func (ps *PortfolioState) resetSession() {
	ps.realizedDay = 0
	ps.unrealized = 0
}
