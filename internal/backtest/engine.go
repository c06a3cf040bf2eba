// Package backtest trains a classifier on part of a labeled dataset and
// measures what its picks would have earned on the rest.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"KeyStatsLab/internal/calculator"
	"KeyStatsLab/internal/classifier"
	"KeyStatsLab/internal/model"
)

var (
	// ErrEmptyDataset is returned when there is nothing to model.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrTraining wraps any classifier fit or predict failure.
	ErrTraining = errors.New("training failed")
)

// Options controls one run.
type Options struct {
	TestFraction float64 // in [0, 1)
	Seed         uint64
}

// ClassifierFactory builds a fresh classifier for a run.
type ClassifierFactory func(seed uint64) classifier.Classifier

// Engine runs backtests.
type Engine struct {
	newClassifier ClassifierFactory
}

// NewEngine creates a new Engine.
func NewEngine(factory ClassifierFactory) *Engine {
	return &Engine{newClassifier: factory}
}

// ForestFactory returns a factory for random forests built from base, with
// the seed taken from the run.
func ForestFactory(base classifier.Options) ClassifierFactory {
	return func(seed uint64) classifier.Classifier {
		opts := base
		opts.Seed = seed
		return classifier.NewRandomForest(opts)
	}
}

type sample struct {
	x   []float64
	y   bool
	row model.LabeledRow
}

// Run splits the complete rows of ds into train and test sets with a
// permutation seeded from opts.Seed, fits on train and evaluates on test.
func (e *Engine) Run(ctx context.Context, ds model.Dataset, opts Options) (model.Report, error) {
	if ds.Len() == 0 {
		return model.Report{}, ErrEmptyDataset
	}
	if opts.TestFraction < 0 || opts.TestFraction >= 1 {
		return model.Report{}, fmt.Errorf("test fraction %v outside [0, 1)", opts.TestFraction)
	}

	report := model.Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	samples := make([]sample, 0, ds.Len())
	for _, r := range ds.Rows {
		if !r.Features.Complete() {
			report.DroppedRows++
			continue
		}
		samples = append(samples, sample{x: r.Features.Floats(), y: r.Outperformed, row: r})
	}
	if len(samples) == 0 {
		return model.Report{}, fmt.Errorf("all %d rows have missing fundamentals: %w", ds.Len(), ErrEmptyDataset)
	}
	if report.DroppedRows > 0 {
		log.Printf("[INFO] dropped %d of %d rows with missing fundamentals", report.DroppedRows, ds.Len())
	}

	train, test := split(samples, opts.TestFraction, opts.Seed)
	report.TrainRows = len(train)
	report.TestRows = len(test)

	if err := ctx.Err(); err != nil {
		return model.Report{}, err
	}

	clf := e.newClassifier(opts.Seed)
	if err := clf.Fit(matrix(train)); err != nil {
		return model.Report{}, fmt.Errorf("%w: fit: %w", ErrTraining, err)
	}

	var pred []bool
	if len(test) > 0 {
		X, _ := matrix(test)
		p, err := clf.Predict(X)
		if err != nil {
			return model.Report{}, fmt.Errorf("%w: predict: %w", ErrTraining, err)
		}
		if len(p) != len(test) {
			return model.Report{}, fmt.Errorf("%w: %d predictions for %d rows", ErrTraining, len(p), len(test))
		}
		pred = p
	} else {
		report.Warnings = append(report.Warnings, "test set is empty")
	}

	evaluate(&report, test, pred)
	if err := returns(&report, test, pred); err != nil {
		return model.Report{}, err
	}

	log.Printf("[INFO] backtest %s: train=%d test=%d accuracy=%.2f precision=%.2f trades=%d",
		report.RunID, report.TrainRows, report.TestRows, report.Accuracy, report.Precision, report.NumPositivePredictions)
	return report, nil
}

// split shuffles with a PCG seeded from seed and takes ceil(frac*n) rows
// for testing.
func split(samples []sample, frac float64, seed uint64) (train, test []sample) {
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(len(samples))
	nTest := int(math.Ceil(frac * float64(len(samples))))

	test = make([]sample, 0, nTest)
	train = make([]sample, 0, len(samples)-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, samples[p])
		} else {
			train = append(train, samples[p])
		}
	}
	return train, test
}

func matrix(s []sample) ([][]float64, []bool) {
	X := make([][]float64, len(s))
	y := make([]bool, len(s))
	for i := range s {
		X[i] = s[i].x
		y[i] = s[i].y
	}
	return X, y
}

func evaluate(r *model.Report, test []sample, pred []bool) {
	if len(test) == 0 {
		return
	}
	correct, tp := 0, 0
	for i, s := range test {
		if pred[i] == s.y {
			correct++
		}
		if pred[i] {
			r.NumPositivePredictions++
			if s.y {
				tp++
			}
		}
	}
	r.Accuracy = float64(correct) / float64(len(test))
	if r.NumPositivePredictions > 0 {
		r.Precision = float64(tp) / float64(r.NumPositivePredictions)
	}
}

// returns averages the realized ticker and benchmark returns over the rows
// predicted positive.
func returns(r *model.Report, test []sample, pred []bool) error {
	if r.NumPositivePredictions == 0 {
		r.NoTrades = true
		r.Warnings = append(r.Warnings, "no stocks predicted")
		log.Printf("[WARN] no stocks predicted, precision reported as 0")
		return nil
	}

	var stock, bench []float64
	for i, s := range test {
		if pred[i] {
			stock = append(stock, s.row.PctChange)
			bench = append(bench, s.row.BenchmarkPctChange)
		}
	}
	avgStock, err := calculator.AverageReturnPct(stock)
	if err != nil {
		return err
	}
	avgBench, err := calculator.AverageReturnPct(bench)
	if err != nil {
		return err
	}
	out := avgStock - avgBench

	r.AvgStrategyReturnPct = &avgStock
	r.AvgBenchmarkReturnPct = &avgBench
	r.OutperformancePct = &out
	return nil
}
