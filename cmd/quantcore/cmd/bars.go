package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// loadBars reads an OHLCV CSV with columns
// time,open,high,low,close,volume and an optional header row.
func loadBars(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []market.Bar
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bars: %w", err)
		}
		line++

		if len(rec) < 5 {
			return nil, fmt.Errorf("bars line %d: want time,open,high,low,close[,volume], got %d fields", line, len(rec))
		}
		if line == 1 && !isNumeric(rec[1]) {
			continue // header
		}

		ts, err := parseBarTime(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("bars line %d: %w", line, err)
		}

		var vals [4]float64
		for i := 0; i < 4; i++ {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("bars line %d field %d: %w", line, i+2, err)
			}
		}

		var vol int64
		if len(rec) > 5 {
			vol, err = strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bars line %d volume: %w", line, err)
			}
		}

		bars = append(bars, market.Bar{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vol,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars in %s", path)
	}
	return bars, nil
}

var barTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseBarTime(s string) (time.Time, error) {
	for _, layout := range barTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
