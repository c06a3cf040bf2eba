// Package label decides, for a snapshot date, whether a ticker beat the
// benchmark over the forward horizon.
package label

import (
	"fmt"
	"time"

	"KeyStatsLab/internal/calculator"
	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/series"
)

const (
	// DefaultHorizon is a fixed 365 days (31536000s), not a calendar year.
	DefaultHorizon = 365 * 24 * time.Hour
	// DefaultThresholdPct is the margin, in percentage points, a ticker
	// must beat the benchmark by.
	DefaultThresholdPct = 10.0
)

// Result is either a labeled row (OK) or absent with the reason.
type Result struct {
	Row    model.LabeledRow
	OK     bool
	Reason string
}

func absent(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Engine labels snapshots against two price series.
type Engine struct {
	Horizon      time.Duration
	ThresholdPct float64
}

// NewEngine returns an engine with the given horizon and threshold;
// a zero horizon falls back to DefaultHorizon.
func NewEngine(horizon time.Duration, thresholdPct float64) *Engine {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Engine{Horizon: horizon, ThresholdPct: thresholdPct}
}

// Outperformed applies the threshold rule to two percent changes.
func (e *Engine) Outperformed(tickerPct, benchmarkPct float64) bool {
	return tickerPct-benchmarkPct >= e.ThresholdPct
}

// Label computes forward returns from snapshotTime to snapshotTime+Horizon.
// All four prices must resolve; otherwise the result is absent. Percent
// changes are rounded to two places and the label is derived from the
// rounded figures, the same numbers that end up in the dataset.
func (e *Engine) Label(snapshotTime time.Time, ticker, benchmark series.Series) Result {
	now := series.Day(snapshotTime)
	future := series.Day(snapshotTime.Add(e.Horizon))

	bNow, ok := benchmark.Lookup(now)
	if !ok {
		return absent("benchmark price missing for %s", now.Format("2006-01-02"))
	}
	bFuture, ok := benchmark.Lookup(future)
	if !ok {
		return absent("benchmark price missing for %s", future.Format("2006-01-02"))
	}
	tNow, ok := ticker.Lookup(now)
	if !ok {
		return absent("%s price missing for %s", ticker.Symbol, now.Format("2006-01-02"))
	}
	tFuture, ok := ticker.Lookup(future)
	if !ok {
		return absent("%s price missing for %s", ticker.Symbol, future.Format("2006-01-02"))
	}

	bPct, err := calculator.PercentChange(bNow, bFuture)
	if err != nil {
		return absent("benchmark: %v", err)
	}
	tPct, err := calculator.PercentChange(tNow, tFuture)
	if err != nil {
		return absent("%s: %v", ticker.Symbol, err)
	}
	bPct = calculator.Round2(bPct)
	tPct = calculator.Round2(tPct)

	return Result{
		OK: true,
		Row: model.LabeledRow{
			Ticker:             ticker.Symbol,
			SnapshotTime:       snapshotTime,
			Price:              tNow,
			PriceFuture:        tFuture,
			PctChange:          tPct,
			Benchmark:          bNow,
			BenchmarkFuture:    bFuture,
			BenchmarkPctChange: bPct,
			Outperformed:       e.Outperformed(tPct, bPct),
		},
	}
}

// Relabel recomputes Outperformed from the stored percent changes with this
// engine's threshold and returns how many rows flipped.
func (e *Engine) Relabel(rows []model.LabeledRow) int {
	changed := 0
	for i := range rows {
		out := e.Outperformed(rows[i].PctChange, rows[i].BenchmarkPctChange)
		if out != rows[i].Outperformed {
			rows[i].Outperformed = out
			changed++
		}
	}
	return changed
}
