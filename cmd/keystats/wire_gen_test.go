package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KeyStatsLab/internal/app"
	"KeyStatsLab/internal/notifier"
)

func writeConfig(t *testing.T, body string) app.ConfigPath {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return app.ConfigPath(path)
}

func TestInitializeApp(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
pipeline:
  outperformance_threshold_percent: 15
paths:
  dataset: `+filepath.Join(dir, "out.csv")+`
  dataset_format: parquet
database:
  sqlite_path: `+filepath.Join(dir, "runs.db")+`
`)

	a, cleanup, err := InitializeApp(path)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, 15.0, a.Config.Pipeline.OutperformancePct)
	assert.Equal(t, 15.0, a.Labeler.ThresholdPct)
	assert.Equal(t, filepath.Join(dir, "out.parquet"), a.DatasetPath())
	assert.Nil(t, a.Telegram)
	assert.IsType(t, notifier.LogNotifier{}, a.Notifier)
	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.Forecaster)
	assert.NotNil(t, a.Collector)
	assert.Len(t, a.Schema.Names(), a.Schema.Len())

	runs, err := a.Recorder.RecentBacktests(5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestInitializeApp_BadFormat(t *testing.T) {
	path := writeConfig(t, "paths:\n  dataset_format: xlsx\n")
	_, _, err := InitializeApp(path)
	assert.Error(t, err)
}
