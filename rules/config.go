package rules

import (
	"fmt"
	"time"
)

// Config holds the trade-cadence policy. Fields are validated once at
// construction and treated as immutable afterwards.
type Config struct {
	MaxTradesPerDay      int    `yaml:"max_trades_per_day" json:"max_trades_per_day"`
	MaxConsecutiveLosses int    `yaml:"max_consecutive_losses" json:"max_consecutive_losses"`
	SessionOpen          string `yaml:"session_open" json:"session_open"`
	SessionClose         string `yaml:"session_close" json:"session_close"`
	OpenBufferMin        int    `yaml:"open_buffer_min" json:"open_buffer_min"`
	CloseBufferMin       int    `yaml:"close_buffer_min" json:"close_buffer_min"`
	MinTradeGapMin       int    `yaml:"min_trade_gap_min" json:"min_trade_gap_min"`
	LossCooldownMin      int    `yaml:"loss_cooldown_min" json:"loss_cooldown_min"`
	SkipWeekends         bool   `yaml:"skip_weekends" json:"skip_weekends"`
}

// DefaultConfig is the NSE intraday cadence policy.
func DefaultConfig() Config {
	return Config{
		MaxTradesPerDay:      5,
		MaxConsecutiveLosses: 3,
		SessionOpen:          "09:15",
		SessionClose:         "15:30",
		OpenBufferMin:        15,
		CloseBufferMin:       15,
		MinTradeGapMin:       5,
		LossCooldownMin:      60,
		SkipWeekends:         true,
	}
}

func (c Config) Validate() error {
	if c.MaxTradesPerDay <= 0 {
		return fmt.Errorf("rules: max_trades_per_day must be positive, got %d", c.MaxTradesPerDay)
	}
	if c.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("rules: max_consecutive_losses must be positive, got %d", c.MaxConsecutiveLosses)
	}
	openMin, err := parseClock(c.SessionOpen)
	if err != nil {
		return fmt.Errorf("rules: session_open: %w", err)
	}
	closeMin, err := parseClock(c.SessionClose)
	if err != nil {
		return fmt.Errorf("rules: session_close: %w", err)
	}
	if closeMin <= openMin {
		return fmt.Errorf("rules: session_close %s must be after session_open %s", c.SessionClose, c.SessionOpen)
	}
	if openMin+c.OpenBufferMin > closeMin-c.CloseBufferMin {
		return fmt.Errorf("rules: open/close buffers leave no tradable window")
	}
	if c.OpenBufferMin < 0 || c.CloseBufferMin < 0 || c.MinTradeGapMin < 0 || c.LossCooldownMin < 0 {
		return fmt.Errorf("rules: buffer, gap and cooldown minutes must be non-negative")
	}
	return nil
}

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
