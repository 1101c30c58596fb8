package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV writes trades, rejections and equity samples to three flat files
// for external analysis.
type CSV struct {
	trades *csv.Writer
	rej    *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

func NewCSV(tradesPath, rejectionsPath, equityPath string) (*CSV, error) {
	j := &CSV{}

	open := func(path string, header []string) (*csv.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	j.trades, err = open(tradesPath, []string{
		"trade_id", "instrument", "side", "lots", "lot_size", "order_type",
		"entry_price", "exit_price", "stop_price", "target_price",
		"entry_time", "exit_time", "gross_pnl", "costs", "net_pnl",
		"exit_reason", "strategy", "regime",
	})
	if err != nil {
		j.closeFiles()
		return nil, err
	}
	j.rej, err = open(rejectionsPath, []string{
		"time", "instrument", "action", "lots", "stage", "reason", "detail",
	})
	if err != nil {
		j.closeFiles()
		return nil, err
	}
	j.equity, err = open(equityPath, []string{"time", "capital", "drawdown_pct"})
	if err != nil {
		j.closeFiles()
		return nil, err
	}

	return j, nil
}

func (j *CSV) RecordTrade(t Trade) error {
	err := j.trades.Write([]string{
		t.ID,
		t.Instrument,
		t.Side.String(),
		strconv.Itoa(t.Lots),
		strconv.Itoa(t.LotSize),
		t.OrderType.String(),
		f(t.Entry),
		f(t.Exit),
		f(t.Stop),
		f(t.Target),
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		f(t.GrossPnL),
		f(t.Costs),
		f(t.NetPnL),
		t.ExitReason,
		t.Strategy,
		t.Regime,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordRejection(r Rejection) error {
	err := j.rej.Write([]string{
		r.Time.Format(time.RFC3339),
		r.Instrument,
		r.Action,
		strconv.Itoa(r.Lots),
		r.Stage,
		r.Reason,
		r.Detail,
	})
	if err != nil {
		return err
	}
	j.rej.Flush()
	return j.rej.Error()
}

func (j *CSV) RecordEquity(p EquityPoint) error {
	err := j.equity.Write([]string{
		p.Time.Format(time.RFC3339),
		f(p.Capital),
		f(p.DrawdownPct),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	for _, w := range []*csv.Writer{j.trades, j.rej, j.equity} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSV) closeFiles() error {
	var first error
	for _, f := range j.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
