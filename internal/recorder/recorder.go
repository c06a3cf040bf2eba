package recorder

import (
	"time"

	"KeyStatsLab/internal/model"
)

// RunMeta describes the inputs of a backtest run.
type RunMeta struct {
	DatasetPath  string
	ThresholdPct float64
	TestFraction float64
	Seed         uint64
}

// BacktestRun is a stored backtest summary.
type BacktestRun struct {
	RunID             string
	CreatedAt         time.Time
	Meta              RunMeta
	TrainRows         int
	TestRows          int
	DroppedRows       int
	Accuracy          float64
	Precision         float64
	Trades            int
	OutperformancePct *float64
	NoTrades          bool
}

// Recorder persists backtest history for analysis.
type Recorder interface {
	RecordBacktest(meta RunMeta, rep model.Report) error
	RecordPicks(runID string, picks []model.Pick) error
	RecentBacktests(limit int) ([]BacktestRun, error)
	Close() error
}
