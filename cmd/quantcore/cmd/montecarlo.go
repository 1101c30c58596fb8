package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/quantcore/backtest"
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Resample a backtest's trades into equity-path distributions",
	Long: `Montecarlo runs the configured strategy over the bar CSV, then
resamples the resulting trade sequence into N simulated equity paths.
Block-bootstrap is the default so losing streaks survive the shuffle.

Example:
  quantcore montecarlo --bars data/nifty_5m.csv --paths 2000`,
	RunE: runMonteCarlo,
}

var (
	mcBarsPath string
	mcPaths    int
	mcSeed     int64
)

func init() {
	rootCmd.AddCommand(montecarloCmd)

	montecarloCmd.Flags().StringVarP(&mcBarsPath, "bars", "b", "", "path to bar CSV (required)")
	montecarloCmd.Flags().IntVar(&mcPaths, "paths", 0, "simulated paths (default from config)")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "resampling seed (default from config)")
	montecarloCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (noop, ema-cross)")
	montecarloCmd.Flags().StringVarP(&btInstrument, "instrument", "i", "NIFTY", "instrument to trade")
	montecarloCmd.Flags().IntVar(&btLots, "lots", 0, "lots per entry, 0 sizes from the risk budget")
	montecarloCmd.Flags().IntVar(&btFast, "fast", 10, "ema-cross: fast EMA period")
	montecarloCmd.Flags().IntVar(&btSlow, "slow", 30, "ema-cross: slow EMA period")

	montecarloCmd.MarkFlagRequired("bars")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	bars, err := loadBars(mcBarsPath)
	if err != nil {
		return err
	}
	strat, err := buildStrategy(cfg)
	if err != nil {
		return err
	}

	eng, err := backtest.NewEngine(cfg.Engine(backtest.LabelInSample), strat, log)
	if err != nil {
		return err
	}
	res, err := eng.Run(backtest.NewSliceFeed(bars))
	if err != nil {
		return err
	}
	if res.Trades == 0 {
		return fmt.Errorf("no trades to resample")
	}

	mcCfg, err := cfg.MonteCarlo.Resampling()
	if err != nil {
		return err
	}
	if mcPaths > 0 {
		mcCfg.Paths = mcPaths
	}
	if mcSeed != 0 {
		mcCfg.Seed = mcSeed
	}

	log.Info("resampling trades",
		zap.Int("trades", res.Trades),
		zap.Int("paths", mcCfg.Paths),
		zap.String("method", mcCfg.Method.String()))

	mc, err := backtest.MonteCarlo(eng.Ledger().NetPnLs(), res.InitialCapital, mcCfg)
	if err != nil {
		return err
	}

	printResult(res)
	fmt.Printf("\n=== Monte Carlo (%s, %d paths) ===\n", mc.Method, mc.Paths)
	fmt.Printf("Terminal equity: P5 %.2f   P50 %.2f   P95 %.2f\n",
		mc.TerminalEquity.P5, mc.TerminalEquity.P50, mc.TerminalEquity.P95)
	fmt.Printf("Max drawdown %%:  P5 %.2f   P50 %.2f   P95 %.2f\n",
		mc.MaxDrawdownPct.P5, mc.MaxDrawdownPct.P50, mc.MaxDrawdownPct.P95)
	fmt.Printf("Prob. of profit: %.1f%%\n", mc.ProbProfit)
	fmt.Printf("Risk of ruin:    %.1f%%\n", mc.RiskOfRuin)
	return nil
}
