package model

import "time"

// Report is the outcome of one backtest run.
type Report struct {
	RunID     string
	CreatedAt time.Time

	TrainRows   int
	TestRows    int
	DroppedRows int // rows excluded because of missing fundamentals

	Accuracy               float64
	Precision              float64
	NumPositivePredictions int

	// nil when NoTrades is set
	AvgStrategyReturnPct  *float64
	AvgBenchmarkReturnPct *float64
	OutperformancePct     *float64
	NoTrades              bool

	Warnings []string
}
