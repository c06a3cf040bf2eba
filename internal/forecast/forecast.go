// Package forecast trains on the full historical dataset and flags which
// tickers in the current sample are likely to outperform.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"KeyStatsLab/internal/backtest"
	"KeyStatsLab/internal/extract"
	"KeyStatsLab/internal/model"
)

// ErrNoForwardSample is returned when there are no current pages to score.
var ErrNoForwardSample = errors.New("no forward sample")

// Forecaster scores current snapshots with a classifier trained on history.
type Forecaster struct {
	Extractor     *extract.Extractor
	NewClassifier backtest.ClassifierFactory
	Workers       int
}

// NewForecaster creates a new Forecaster.
func NewForecaster(ex *extract.Extractor, factory backtest.ClassifierFactory, workers int) *Forecaster {
	return &Forecaster{Extractor: ex, NewClassifier: factory, Workers: workers}
}

// Result lists the picks and how much of the forward sample was usable.
type Result struct {
	Picks      []model.Pick
	Considered int // forward tickers with every fundamental present
	Skipped    int
}

// Predict fits on every complete row of train and classifies each complete
// forward snapshot. Picks are in forward order.
func (f *Forecaster) Predict(ctx context.Context, train model.Dataset, forward []model.Snapshot, seed uint64) (Result, error) {
	if !slices.Equal(train.Fields, f.Extractor.Fields()) {
		return Result{}, fmt.Errorf("dataset fields do not match the extraction schema (%d vs %d fields)",
			len(train.Fields), len(f.Extractor.Fields()))
	}
	if len(forward) == 0 {
		return Result{}, ErrNoForwardSample
	}

	var X [][]float64
	var y []bool
	for _, r := range train.Rows {
		if !r.Features.Complete() {
			continue
		}
		X = append(X, r.Features.Floats())
		y = append(y, r.Outperformed)
	}
	if len(X) == 0 {
		return Result{}, fmt.Errorf("no complete training rows: %w", backtest.ErrEmptyDataset)
	}

	vectors, err := f.Extractor.ExtractAll(ctx, forward, f.Workers)
	if err != nil {
		return Result{}, fmt.Errorf("extract forward sample: %w", err)
	}
	var res Result
	var candidates []model.Pick
	var Xf [][]float64
	for i, fv := range vectors {
		if !fv.Complete() {
			res.Skipped++
			continue
		}
		candidates = append(candidates, model.Pick{Ticker: forward[i].Ticker, Features: fv})
		Xf = append(Xf, fv.Floats())
	}
	res.Considered = len(candidates)
	if res.Skipped > 0 {
		log.Printf("[WARN] %d of %d forward tickers have missing fundamentals and were skipped", res.Skipped, len(forward))
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	clf := f.NewClassifier(seed)
	if err := clf.Fit(X, y); err != nil {
		return Result{}, fmt.Errorf("%w: fit: %w", backtest.ErrTraining, err)
	}
	if len(Xf) == 0 {
		log.Printf("[WARN] no complete forward snapshots to score")
		return res, nil
	}
	pred, err := clf.Predict(Xf)
	if err != nil {
		return Result{}, fmt.Errorf("%w: predict: %w", backtest.ErrTraining, err)
	}
	for i, p := range pred {
		if p {
			res.Picks = append(res.Picks, candidates[i])
		}
	}

	log.Printf("[INFO] %d of %d forward tickers predicted to outperform", len(res.Picks), res.Considered)
	return res, nil
}
