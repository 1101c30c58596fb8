package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantcore/backtest"
	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/strategies"
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Run a walk-forward evaluation over a bar CSV",
	Long: `Walkforward partitions the series into successive train/test folds
and scores the strategy only on bars it never trained on. The aggregated
out-of-sample result is the one to trust.

Example:
  quantcore walkforward --bars data/nifty_5m.csv --train 1500 --test 500`,
	RunE: runWalkForward,
}

var (
	wfBarsPath string
	wfTrain    int
	wfTest     int
	wfStep     int
)

func init() {
	rootCmd.AddCommand(walkforwardCmd)

	walkforwardCmd.Flags().StringVarP(&wfBarsPath, "bars", "b", "", "path to bar CSV (required)")
	walkforwardCmd.Flags().IntVar(&wfTrain, "train", 0, "train window in bars (default from config)")
	walkforwardCmd.Flags().IntVar(&wfTest, "test", 0, "test window in bars (default from config)")
	walkforwardCmd.Flags().IntVar(&wfStep, "step", 0, "roll-forward step in bars (default: test size)")
	walkforwardCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (noop, ema-cross)")
	walkforwardCmd.Flags().StringVarP(&btInstrument, "instrument", "i", "NIFTY", "instrument to trade")
	walkforwardCmd.Flags().IntVar(&btLots, "lots", 0, "lots per entry, 0 sizes from the risk budget")
	walkforwardCmd.Flags().IntVar(&btFast, "fast", 10, "ema-cross: fast EMA period")
	walkforwardCmd.Flags().IntVar(&btSlow, "slow", 30, "ema-cross: slow EMA period")

	walkforwardCmd.MarkFlagRequired("bars")
}

func runWalkForward(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	bars, err := loadBars(wfBarsPath)
	if err != nil {
		return err
	}

	train := wfTrain
	if train == 0 {
		train = cfg.WalkForward.TrainSize
	}
	test := wfTest
	if test == 0 {
		test = cfg.WalkForward.TestSize
	}
	step := wfStep
	if step == 0 {
		step = cfg.WalkForward.Step
	}

	if _, err := buildStrategy(cfg); err != nil {
		return err
	}

	wf := &backtest.WalkForward{
		Config:    cfg.Engine(backtest.LabelWalkForward),
		TrainSize: train,
		TestSize:  test,
		Step:      step,
		Factory: func(trainBars []market.Bar) strategies.BarStrategy {
			strat, err := buildStrategy(cfg)
			if err != nil {
				return strategies.Noop{}
			}
			// Warm indicators on the tail of the train window so the
			// test window starts with a primed strategy.
			for _, b := range trainBars {
				strat.OnClose(b)
			}
			return strat
		},
		Log: log,
	}

	res, err := wf.Run(bars)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Walk-Forward (%d folds) ===\n", len(res.Folds))
	for _, f := range res.Folds {
		r := f.Result
		fmt.Printf("fold %2d: trades %3d  wins %3d  losses %3d  pnl %12.2f\n",
			f.Fold, r.Trades, r.Wins, r.Losses, r.FinalCapital-r.InitialCapital)
	}
	printResult(res.Combined)
	return nil
}
