package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/quantcore/backtest"
	"github.com/rustyeddy/quantcore/config"
	"github.com/rustyeddy/quantcore/journal"
	"github.com/rustyeddy/quantcore/metrics"
	"github.com/rustyeddy/quantcore/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run an in-sample backtest over a bar CSV",
	Long: `Backtest replays historical bars through a strategy with the full
risk, rules and cost stack applied to every signal.

The result is labeled "in-sample": it has seen the whole series and must
not be trusted for sizing decisions. Use walkforward for that.

Example:
  quantcore backtest --bars data/nifty_5m.csv --strategy ema-cross --fast 10 --slow 30`,
	RunE: runBacktest,
}

var (
	btBarsPath   string
	btStrategy   string
	btInstrument string
	btLots       int
	btFast       int
	btSlow       int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (time,open,high,low,close,volume) (required)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (noop, ema-cross); defaults to the config's")
	backtestCmd.Flags().StringVarP(&btInstrument, "instrument", "i", "NIFTY", "instrument to trade")
	backtestCmd.Flags().IntVar(&btLots, "lots", 0, "lots per entry, 0 sizes from the risk budget")
	backtestCmd.Flags().IntVar(&btFast, "fast", 10, "ema-cross: fast EMA period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 30, "ema-cross: slow EMA period")

	backtestCmd.MarkFlagRequired("bars")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	bars, err := loadBars(btBarsPath)
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

	mirror, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if mirror != nil {
		defer mirror.Close()
		eng.Mirror(mirror)
	}

	log.Info("backtest starting",
		zap.String("strategy", strat.Name()),
		zap.Int("bars", len(bars)),
		zap.Float64("capital", cfg.Account.Capital))

	res, err := eng.Run(backtest.NewSliceFeed(bars))
	if err != nil {
		return err
	}

	printResult(res)

	ledger := eng.Ledger()
	if res.Trades > 0 {
		report, err := metrics.Compute(ledger.Trades(), ledger.Equity(), res.InitialCapital, cfg.Metrics)
		if err != nil {
			return err
		}
		printReport(report)
	}
	return nil
}

// buildStrategy resolves the strategy from flags with the config as
// fallback.
func buildStrategy(cfg *config.Config) (strategies.BarStrategy, error) {
	name := btStrategy
	if name == "" {
		name = cfg.Strategy.Name
	}
	return strategies.ByName(name, btInstrument, btLots, btFast, btSlow)
}

// openJournal returns the persistent journal the config asks for, or
// nil when journaling is off.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.RejectionsFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

func printResult(res backtest.Result) {
	fmt.Printf("\n=== Backtest Result (%s) ===\n", res.Label)
	fmt.Printf("Period:          %s to %s\n", res.Start.Format("2006-01-02 15:04"), res.End.Format("2006-01-02 15:04"))
	fmt.Printf("Initial capital: %.2f\n", res.InitialCapital)
	fmt.Printf("Final capital:   %.2f\n", res.FinalCapital)
	fmt.Printf("Net P&L:         %.2f\n", res.FinalCapital-res.InitialCapital)
	fmt.Printf("Trades:          %d (%d wins / %d losses)\n", res.Trades, res.Wins, res.Losses)
	fmt.Printf("Rejections:      %d\n", res.Rejections)
	for _, a := range res.Alerts {
		fmt.Printf("Breaker alert:   %s at %s (day P&L %.2f against limit %.2f)\n",
			a.Level, a.At.Format("2006-01-02 15:04"), a.DayPnL, a.Limit)
	}
}

func printReport(r metrics.Report) {
	fmt.Printf("\n=== Performance ===\n")
	fmt.Printf("Total return:    %.2f%%\n", r.TotalReturnPct)
	fmt.Printf("CAGR:            %.2f%%\n", r.CAGRPct)
	fmt.Printf("Win rate:        %.1f%%\n", r.WinRatePct)
	fmt.Printf("Profit factor:   %.2f\n", r.ProfitFactor)
	fmt.Printf("Expectancy:      %.2f\n", r.Expectancy)
	fmt.Printf("Avg win/loss:    %.2f / %.2f\n", r.AvgWin, r.AvgLoss)
	fmt.Printf("Best/worst:      %.2f / %.2f\n", r.BestTrade, r.WorstTrade)
	fmt.Printf("Sharpe:          %.2f\n", r.Sharpe)
	fmt.Printf("Sortino:         %.2f\n", r.Sortino)
	fmt.Printf("Max drawdown:    %.2f%% over %s\n", r.Drawdown.MaxPct, r.Drawdown.Duration)
}
