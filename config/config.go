// Package config loads and validates the run configuration consumed at
// engine start. Files may be YAML or JSON; the loaded snapshot is
// validated once and treated as immutable from then on.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quantcore/backtest"
	"github.com/rustyeddy/quantcore/metrics"
	"github.com/rustyeddy/quantcore/risk"
	"github.com/rustyeddy/quantcore/rules"
	"github.com/rustyeddy/quantcore/strategies"
)

// Config is the complete run configuration.
type Config struct {
	Account     AccountConfig      `json:"account" yaml:"account"`
	Risk        RiskConfig         `json:"risk" yaml:"risk"`
	Rules       rules.Config       `json:"rules" yaml:"rules"`
	Costs       backtest.CostModel `json:"costs" yaml:"costs"`
	Backtest    BacktestConfig     `json:"backtest" yaml:"backtest"`
	WalkForward WalkForwardConfig  `json:"walk_forward" yaml:"walk_forward"`
	MonteCarlo  MonteCarloConfig   `json:"monte_carlo" yaml:"monte_carlo"`
	Strategy    StrategyConfig     `json:"strategy" yaml:"strategy"`
	Metrics     metrics.Config     `json:"metrics" yaml:"metrics"`
	Journal     JournalConfig      `json:"journal" yaml:"journal"`
	Logging     LoggingConfig      `json:"logging" yaml:"logging"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	ID      string  `json:"id" yaml:"id"`
	Capital float64 `json:"capital" yaml:"capital"`
}

// CorrelationPair is one symmetric pairwise coefficient.
type CorrelationPair struct {
	A           string  `json:"a" yaml:"a"`
	B           string  `json:"b" yaml:"b"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
}

// RiskConfig is the file-format mirror of risk.LimitConfig; Limits()
// converts it to the snapshot the engine consumes.
type RiskConfig struct {
	MaxPortfolioHeatPct   float64           `json:"max_portfolio_heat_pct" yaml:"max_portfolio_heat_pct"`
	MaxSinglePositionPct  float64           `json:"max_single_position_pct" yaml:"max_single_position_pct"`
	KellySafetyFactor     float64           `json:"kelly_safety_factor" yaml:"kelly_safety_factor"`
	DailyLossLimit        float64           `json:"daily_loss_limit" yaml:"daily_loss_limit"`
	CorrelationThreshold  float64           `json:"correlation_threshold" yaml:"correlation_threshold"`
	MaxCorrelatedExposure float64           `json:"max_correlated_exposure_pct" yaml:"max_correlated_exposure_pct"`
	CorrelationFailClosed bool              `json:"correlation_fail_closed" yaml:"correlation_fail_closed"`
	Correlations          []CorrelationPair `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Tiers                 []risk.TierBand   `json:"drawdown_tiers,omitempty" yaml:"drawdown_tiers,omitempty"`
	HysteresisPct         float64           `json:"hysteresis_pct" yaml:"hysteresis_pct"`
}

// Limits builds the risk snapshot. An empty correlation list or tier
// table falls back to the defaults; custom tiers get severities
// assigned in table order.
func (r RiskConfig) Limits() risk.LimitConfig {
	out := risk.LimitConfig{
		MaxPortfolioHeatPct:   r.MaxPortfolioHeatPct,
		MaxSinglePositionPct:  r.MaxSinglePositionPct,
		KellySafetyFactor:     r.KellySafetyFactor,
		DailyLossLimit:        r.DailyLossLimit,
		CorrelationThreshold:  r.CorrelationThreshold,
		MaxCorrelatedExposure: r.MaxCorrelatedExposure,
		CorrelationFailClosed: r.CorrelationFailClosed,
		HysteresisPct:         r.HysteresisPct,
	}

	if len(r.Correlations) == 0 {
		out.Correlations = risk.DefaultLimits().Correlations
	} else {
		out.Correlations = make(map[risk.CorrelationKey]float64, len(r.Correlations))
		for _, p := range r.Correlations {
			out.Correlations[risk.NewCorrelationKey(p.A, p.B)] = p.Coefficient
		}
	}

	if len(r.Tiers) == 0 {
		out.Tiers = risk.DefaultTiers()
	} else {
		out.Tiers = make([]risk.TierBand, len(r.Tiers))
		copy(out.Tiers, r.Tiers)
		for i := range out.Tiers {
			tier := risk.Normal + risk.Tier(i)
			if tier > risk.Emergency {
				tier = risk.Emergency
			}
			out.Tiers[i].Tier = tier
		}
	}
	return out
}

// BacktestConfig tunes the simulation loop itself.
type BacktestConfig struct {
	// ATRPeriod drives the volatility scaling of slippage; zero
	// disables scaling.
	ATRPeriod      int     `json:"atr_period" yaml:"atr_period"`
	ATRBaselinePct float64 `json:"atr_baseline_pct" yaml:"atr_baseline_pct"`
}

// WalkForwardConfig sets the fold partition sizes in bars.
type WalkForwardConfig struct {
	TrainSize int `json:"train_size" yaml:"train_size"`
	TestSize  int `json:"test_size" yaml:"test_size"`
	Step      int `json:"step" yaml:"step"`
}

// MonteCarloConfig wraps the resampling parameters with a readable
// method name for the file format.
type MonteCarloConfig struct {
	Paths        int     `json:"paths" yaml:"paths"`
	BlockSize    int     `json:"block_size" yaml:"block_size"`
	Seed         int64   `json:"seed" yaml:"seed"`
	RuinFraction float64 `json:"ruin_fraction" yaml:"ruin_fraction"`
	Method       string  `json:"method" yaml:"method"`
}

// Resampling converts to the backtest package's config.
func (m MonteCarloConfig) Resampling() (backtest.MonteCarloConfig, error) {
	out := backtest.MonteCarloConfig{
		Paths:        m.Paths,
		BlockSize:    m.BlockSize,
		Seed:         m.Seed,
		RuinFraction: m.RuinFraction,
	}
	switch strings.ToLower(strings.TrimSpace(m.Method)) {
	case "", "block", "block-bootstrap":
		out.Method = backtest.BlockBootstrap
	case "independent":
		out.Method = backtest.IndependentDraws
	default:
		return out, fmt.Errorf("monte_carlo.method must be 'block-bootstrap' or 'independent', got %q", m.Method)
	}
	return out, nil
}

// StrategyConfig names the strategy and its parameters.
type StrategyConfig struct {
	Name     string                    `json:"name" yaml:"name"`
	EMACross strategies.EMACrossConfig `json:"ema_cross" yaml:"ema_cross"`
}

// JournalConfig selects where completed trades are persisted beyond the
// in-memory ledger.
type JournalConfig struct {
	Type           string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile     string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	RejectionsFile string `json:"rejections_file,omitempty" yaml:"rejections_file,omitempty"`
	EquityFile     string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath         string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // console or json
}

// LoadFromFile loads configuration from a YAML or JSON file and
// validates it. Sections absent from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML or, for other extensions,
// indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks every section, delegating to the owning packages.
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if err := c.Risk.Limits().Validate(); err != nil {
		return err
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	if c.Backtest.ATRPeriod < 0 {
		return fmt.Errorf("backtest.atr_period cannot be negative")
	}
	if c.Backtest.ATRPeriod > 0 && c.Backtest.ATRBaselinePct <= 0 {
		return fmt.Errorf("backtest.atr_baseline_pct must be positive when ATR scaling is on")
	}
	if c.WalkForward.TrainSize < 0 || c.WalkForward.TestSize < 0 || c.WalkForward.Step < 0 {
		return fmt.Errorf("walk_forward sizes cannot be negative")
	}
	if _, err := c.MonteCarlo.Resampling(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.RejectionsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file, rejections_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be 'console' or 'json'")
	}
	return nil
}

// Engine assembles the backtest engine config for this run.
func (c *Config) Engine(label string) backtest.Config {
	return backtest.Config{
		InitialCapital: c.Account.Capital,
		Limits:         c.Risk.Limits(),
		Rules:          c.Rules,
		Costs:          c.Costs,
		ATRPeriod:      c.Backtest.ATRPeriod,
		ATRBaselinePct: c.Backtest.ATRBaselinePct,
		Label:          label,
	}
}

// Default returns a configuration with NSE F&O defaults throughout.
func Default() *Config {
	limits := risk.DefaultLimits()
	mc := backtest.DefaultMonteCarloConfig()

	return &Config{
		Account: AccountConfig{
			ID:      "SIM-001",
			Capital: 100_000,
		},
		Risk: RiskConfig{
			MaxPortfolioHeatPct:   limits.MaxPortfolioHeatPct,
			MaxSinglePositionPct:  limits.MaxSinglePositionPct,
			KellySafetyFactor:     limits.KellySafetyFactor,
			DailyLossLimit:        limits.DailyLossLimit,
			CorrelationThreshold:  limits.CorrelationThreshold,
			MaxCorrelatedExposure: limits.MaxCorrelatedExposure,
		},
		Rules: rules.DefaultConfig(),
		Costs: backtest.DefaultCostModel(),
		Backtest: BacktestConfig{
			ATRPeriod:      14,
			ATRBaselinePct: 0.5,
		},
		WalkForward: WalkForwardConfig{
			TrainSize: 1500,
			TestSize:  500,
		},
		MonteCarlo: MonteCarloConfig{
			Paths:        mc.Paths,
			BlockSize:    mc.BlockSize,
			Seed:         mc.Seed,
			RuinFraction: mc.RuinFraction,
			Method:       backtest.BlockBootstrap.String(),
		},
		Strategy: StrategyConfig{
			Name:     "ema-cross",
			EMACross: strategies.EMACrossDefaults(),
		},
		Metrics: metrics.DefaultConfig(),
		Journal: JournalConfig{
			Type: "none",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
