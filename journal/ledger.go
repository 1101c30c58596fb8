package journal

// Ledger is the in-memory journal every backtest run writes to. It is
// the input PerformanceMetrics and Monte Carlo resampling reduce over.
type Ledger struct {
	trades     []Trade
	rejections []Rejection
	equity     []EquityPoint
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) RecordTrade(t Trade) error {
	l.trades = append(l.trades, t)
	return nil
}

func (l *Ledger) RecordRejection(r Rejection) error {
	l.rejections = append(l.rejections, r)
	return nil
}

func (l *Ledger) RecordEquity(p EquityPoint) error {
	l.equity = append(l.equity, p)
	return nil
}

func (l *Ledger) Close() error { return nil }

// Trades returns a copy so callers cannot edit history.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) Rejections() []Rejection {
	out := make([]Rejection, len(l.rejections))
	copy(out, l.rejections)
	return out
}

func (l *Ledger) Equity() []EquityPoint {
	out := make([]EquityPoint, len(l.equity))
	copy(out, l.equity)
	return out
}

// NetPnLs extracts the per-trade net P&L sequence in ledger order.
func (l *Ledger) NetPnLs() []float64 {
	out := make([]float64, len(l.trades))
	for i, t := range l.trades {
		out[i] = t.NetPnL
	}
	return out
}
