package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, instrument, side, lots, lot_size, order_type,
	entry_price, exit_price, stop_price, target_price,
	entry_time, exit_time, gross_pnl, costs, net_pnl,
	exit_reason, strategy, regime`

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (Trade, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`, tradeID)

	t, err := scanTrade(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Trade{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return Trade{}, err
	}
	return t, nil
}

// ListTradesClosedBetween returns trades whose exit_time is within
// [start, end), in exit order.
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]Trade, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRejections returns every recorded rejection in time order.
func (j *SQLite) ListRejections() ([]Rejection, error) {
	rows, err := j.db.Query(`
		SELECT time, instrument, action, lots, stage, reason, detail
		FROM rejections
		ORDER BY time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var r Rejection
		if err := rows.Scan(&r.Time, &r.Instrument, &r.Action, &r.Lots, &r.Stage, &r.Reason, &r.Detail); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns the equity curve samples within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT time, capital, drawdown_pct
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.Time, &p.Capital, &p.DrawdownPct); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
