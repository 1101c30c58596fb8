package backtest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/quantcore/internal/logger"
	"github.com/rustyeddy/quantcore/journal"
	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/strategies"
)

// Fold is one (train, test) pair of a walk-forward partition. Slices
// alias the input series; folds are read-only views.
type Fold struct {
	Train []market.Bar
	Test  []market.Bar
}

// Split partitions bars into successive folds: trainSize bars to fit
// on, the following testSize bars to score on, rolled forward by step.
// Parameters fitted on a fold's train window must only ever be scored
// on its own test window.
func Split(bars []market.Bar, trainSize, testSize, step int) ([]Fold, error) {
	if trainSize <= 0 || testSize <= 0 {
		return nil, fmt.Errorf("backtest: train and test sizes must be positive, got %d/%d", trainSize, testSize)
	}
	if step <= 0 {
		step = testSize
	}
	if len(bars) < trainSize+testSize {
		return nil, fmt.Errorf("backtest: %d bars cannot fill a %d train + %d test fold",
			len(bars), trainSize, testSize)
	}

	var folds []Fold
	for start := 0; start+trainSize+testSize <= len(bars); start += step {
		folds = append(folds, Fold{
			Train: bars[start : start+trainSize],
			Test:  bars[start+trainSize : start+trainSize+testSize],
		})
	}
	return folds, nil
}

// StrategyFactory builds a strategy for one fold. Fitting, if any,
// sees only the train window.
type StrategyFactory func(train []market.Bar) strategies.BarStrategy

// WalkForward scores a strategy out-of-sample across rolled folds.
// Each fold runs on a fresh engine with its own capital and state, so
// folds are independent and could run concurrently.
type WalkForward struct {
	Config    Config
	TrainSize int
	TestSize  int
	Step      int
	Factory   StrategyFactory
	Log       *zap.Logger
}

// FoldResult pairs a fold's summary with its full ledger.
type FoldResult struct {
	Fold   int
	Result Result
	Ledger *journal.Ledger
}

// WalkForwardResult aggregates test-window performance across folds;
// the aggregate is the number that may inform sizing decisions.
type WalkForwardResult struct {
	Folds    []FoldResult
	Combined Result
}

// NetPnLs concatenates every fold's trade P&Ls in fold order.
func (r WalkForwardResult) NetPnLs() []float64 {
	var out []float64
	for _, f := range r.Folds {
		out = append(out, f.Ledger.NetPnLs()...)
	}
	return out
}

func (wf *WalkForward) Run(bars []market.Bar) (WalkForwardResult, error) {
	if wf.Factory == nil {
		return WalkForwardResult{}, fmt.Errorf("backtest: strategy factory is required")
	}
	log := wf.Log
	if log == nil {
		log = logger.Nop()
	}

	folds, err := Split(bars, wf.TrainSize, wf.TestSize, wf.Step)
	if err != nil {
		return WalkForwardResult{}, err
	}

	out := WalkForwardResult{
		Combined: Result{
			Label:          LabelWalkForward,
			InitialCapital: wf.Config.InitialCapital,
			FinalCapital:   wf.Config.InitialCapital,
		},
	}

	for i, fold := range folds {
		cfg := wf.Config
		cfg.Label = LabelWalkForward

		eng, err := NewEngine(cfg, wf.Factory(fold.Train), log)
		if err != nil {
			return WalkForwardResult{}, err
		}

		res, err := eng.Run(NewSliceFeed(fold.Test))
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("fold %d: %w", i, err)
		}

		out.Folds = append(out.Folds, FoldResult{Fold: i, Result: res, Ledger: eng.Ledger()})

		out.Combined.Trades += res.Trades
		out.Combined.Wins += res.Wins
		out.Combined.Losses += res.Losses
		out.Combined.Rejections += res.Rejections
		out.Combined.FinalCapital += res.FinalCapital - res.InitialCapital
		if out.Combined.Start.IsZero() || (!res.Start.IsZero() && res.Start.Before(out.Combined.Start)) {
			out.Combined.Start = res.Start
		}
		if res.End.After(out.Combined.End) {
			out.Combined.End = res.End
		}

		log.Info("walk-forward fold complete",
			zap.Int("fold", i),
			zap.Int("trades", res.Trades),
			zap.Float64("pnl", res.FinalCapital-res.InitialCapital))
	}

	return out, nil
}
