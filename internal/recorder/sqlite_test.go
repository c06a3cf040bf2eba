package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KeyStatsLab/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "keystats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Backtests(t *testing.T) {
	r := openTemp(t)
	out := 5.5
	stock, bench := 7.0, 1.5

	first := model.Report{
		RunID: "run-1", CreatedAt: time.Unix(1000, 0),
		TrainRows: 8, TestRows: 2, Accuracy: 0.5, Precision: 0.5, NumPositivePredictions: 2,
		AvgStrategyReturnPct: &stock, AvgBenchmarkReturnPct: &bench, OutperformancePct: &out,
	}
	second := model.Report{
		RunID: "run-2", CreatedAt: time.Unix(2000, 0),
		TrainRows: 8, TestRows: 2, NoTrades: true, Warnings: []string{"no stocks predicted"},
	}
	meta := RunMeta{DatasetPath: "keystats.csv", ThresholdPct: 10, TestFraction: 0.2, Seed: 3}
	require.NoError(t, r.RecordBacktest(meta, first))
	require.NoError(t, r.RecordBacktest(meta, second))
	assert.Error(t, r.RecordBacktest(meta, first), "run ids are unique")

	runs, err := r.RecentBacktests(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].RunID)
	assert.True(t, runs[0].NoTrades)
	assert.Nil(t, runs[0].OutperformancePct)

	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, meta, runs[1].Meta)
	assert.Equal(t, 2, runs[1].Trades)
	require.NotNil(t, runs[1].OutperformancePct)
	assert.InDelta(t, 5.5, *runs[1].OutperformancePct, 1e-9)
	assert.Equal(t, time.Unix(1000, 0).UTC(), runs[1].CreatedAt)
}

func TestSQLiteRecorder_Picks(t *testing.T) {
	r := openTemp(t)
	picks := []model.Pick{
		{Ticker: "AAPL", Features: model.FeatureVector{Values: []model.Value{model.Num(1), model.Missing()}}},
		{Ticker: "MSFT"},
	}
	require.NoError(t, r.RecordPicks("run-1", picks))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM picks WHERE run_id = ?`, "run-1").Scan(&n))
	assert.Equal(t, 2, n)

	var missing int
	require.NoError(t, r.db.QueryRow(`SELECT missing_fields FROM picks WHERE ticker = ?`, "AAPL").Scan(&missing))
	assert.Equal(t, 1, missing)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordBacktest(RunMeta{}, model.Report{}))
	runs, err := r.RecentBacktests(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, r.Close())
}
