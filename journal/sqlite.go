package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quantcore/market"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, instrument, side, lots, lot_size, order_type,
		 entry_price, exit_price, stop_price, target_price,
		 entry_time, exit_time, gross_pnl, costs, net_pnl,
		 exit_reason, strategy, regime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Instrument, int(t.Side), t.Lots, t.LotSize, int(t.OrderType),
		t.Entry, t.Exit, t.Stop, t.Target,
		t.EntryTime, t.ExitTime, t.GrossPnL, t.Costs, t.NetPnL,
		t.ExitReason, t.Strategy, t.Regime,
	)
	return err
}

func (j *SQLite) RecordRejection(r Rejection) error {
	_, err := j.db.Exec(`
		INSERT INTO rejections
		(time, instrument, action, lots, stage, reason, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Time, r.Instrument, r.Action, r.Lots, r.Stage, r.Reason, r.Detail,
	)
	return err
}

func (j *SQLite) RecordEquity(p EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, capital, drawdown_pct)
		VALUES (?, ?, ?)`,
		p.Time, p.Capital, p.DrawdownPct,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func scanTrade(scan func(...any) error) (Trade, error) {
	var t Trade
	var side, orderType int
	err := scan(
		&t.ID, &t.Instrument, &side, &t.Lots, &t.LotSize, &orderType,
		&t.Entry, &t.Exit, &t.Stop, &t.Target,
		&t.EntryTime, &t.ExitTime, &t.GrossPnL, &t.Costs, &t.NetPnL,
		&t.ExitReason, &t.Strategy, &t.Regime,
	)
	t.Side = market.Side(side)
	t.OrderType = market.OrderType(orderType)
	return t, err
}
