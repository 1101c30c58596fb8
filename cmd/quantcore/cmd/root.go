package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/quantcore/config"
	"github.com/rustyeddy/quantcore/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "quantcore",
	Short: "Risk-managed backtesting and options analytics for Indian F&O",
	Long: `Quantcore is a quantitative risk and simulation toolkit for
derivatives trading on NSE index futures and options.

It provides tools for:
  - Event-driven backtesting with a realistic F&O cost model
  - Portfolio heat, drawdown and circuit-breaker risk controls
  - Trade cadence rules (daily caps, cooldowns, session windows)
  - Walk-forward evaluation and Monte Carlo resampling
  - Black-Scholes Greeks and implied volatility

Complete documentation is available at https://github.com/rustyeddy/quantcore`,
}

var (
	cfgPath   string
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to run config (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
}

// loadRunConfig returns the file config when --config is set, the
// defaults otherwise. Command-line logging flags win over the file.
func loadRunConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	return logger.New(level, format)
}
