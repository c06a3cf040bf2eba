// Package app wires the pipeline stages together and runs the top-level
// flows behind each command.
package app

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"KeyStatsLab/internal/backtest"
	"KeyStatsLab/internal/collector"
	"KeyStatsLab/internal/config"
	"KeyStatsLab/internal/dataset"
	"KeyStatsLab/internal/fields"
	"KeyStatsLab/internal/forecast"
	"KeyStatsLab/internal/label"
	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/notifier"
	"KeyStatsLab/internal/recorder"
	"KeyStatsLab/internal/series"
)

// App holds application dependencies built by Wire.
type App struct {
	Config     *config.Config
	Schema     fields.Schema
	Labeler    *label.Engine
	Assembler  *dataset.Assembler
	Writer     dataset.Writer
	Engine     *backtest.Engine
	Forecaster *forecast.Forecaster
	Collector  *collector.Collector
	Recorder   recorder.Recorder
	Notifier   notifier.Notifier
	Telegram   *notifier.TelegramNotifier // nil when Telegram is not configured
}

// DatasetPath is paths.dataset with the extension of the configured format.
func (a *App) DatasetPath() string {
	p := a.Config.Paths.Dataset
	return strings.TrimSuffix(p, filepath.Ext(p)) + "." + a.Writer.Extension()
}

// BuildDataset parses every historical snapshot, labels it against the
// price files and writes the dataset.
func (a *App) BuildDataset(ctx context.Context) (model.Dataset, dataset.Stats, error) {
	cfg := a.Config
	snaps, err := collector.NewSnapshotSource(cfg.Paths.StatsDir).Load()
	if err != nil {
		return model.Dataset{}, dataset.Stats{}, err
	}
	tickers, err := collector.LoadPriceTable(cfg.Paths.StockPrices)
	if err != nil {
		return model.Dataset{}, dataset.Stats{}, fmt.Errorf("load stock prices: %w", err)
	}
	bench, err := collector.LoadIndexPrices(cfg.Paths.BenchmarkPrices, cfg.Fetch.BenchmarkSymbol, cfg.Paths.BenchmarkColumn)
	if err != nil {
		return model.Dataset{}, dataset.Stats{}, fmt.Errorf("load benchmark prices: %w", err)
	}
	from, to := universeRange(tickers)
	bench = bench.Reindex(from, to)

	ds, st, err := a.Assembler.Assemble(ctx, snaps, tickers, bench)
	if err != nil {
		return ds, st, err
	}

	path := a.DatasetPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ds, st, fmt.Errorf("create dataset dir: %w", err)
		}
	}
	if err := a.Writer.Write(ds, path); err != nil {
		return ds, st, fmt.Errorf("write dataset: %w", err)
	}
	log.Printf("[INFO] dataset written to %s (%d rows, %d fields)", path, ds.Len(), len(ds.Fields))
	return ds, st, nil
}

// universeRange spans the earliest start to the latest end of all ticker
// series; the benchmark is aligned to it.
func universeRange(tickers map[string]series.Series) (time.Time, time.Time) {
	var from, to time.Time
	for _, s := range tickers {
		if from.IsZero() || s.Start().Before(from) {
			from = s.Start()
		}
		if s.End().After(to) {
			to = s.End()
		}
	}
	return from, to
}

// LoadDataset reads the dataset written by BuildDataset and re-derives the
// labels with the current threshold.
func (a *App) LoadDataset() (model.Dataset, error) {
	ds, err := dataset.Load(a.DatasetPath(), a.Schema.Names())
	if err != nil {
		return ds, fmt.Errorf("load dataset: %w", err)
	}
	if n := a.Labeler.Relabel(ds.Rows); n > 0 {
		log.Printf("[INFO] %d rows relabeled with threshold %.2f%%", n, a.Labeler.ThresholdPct)
	}
	return ds, nil
}

// Backtest runs one backtest over the stored dataset and records it.
func (a *App) Backtest(ctx context.Context) (model.Report, error) {
	ds, err := a.LoadDataset()
	if err != nil {
		return model.Report{}, err
	}
	rep, err := a.Engine.Run(ctx, ds, backtest.Options{
		TestFraction: a.Config.Pipeline.TestFraction,
		Seed:         a.Config.Pipeline.RandomSeed,
	})
	if err != nil {
		return rep, err
	}
	meta := recorder.RunMeta{
		DatasetPath:  a.DatasetPath(),
		ThresholdPct: a.Config.Pipeline.OutperformancePct,
		TestFraction: a.Config.Pipeline.TestFraction,
		Seed:         a.Config.Pipeline.RandomSeed,
	}
	if err := a.Recorder.RecordBacktest(meta, rep); err != nil {
		log.Printf("[ERROR] record backtest: %v", err)
	}
	return rep, nil
}

// Predict trains on the full dataset and scores the forward sample.
func (a *App) Predict(ctx context.Context) ([]model.Pick, error) {
	ds, err := a.LoadDataset()
	if err != nil {
		return nil, err
	}
	forward, err := collector.LoadForward(a.Config.Paths.ForwardDir)
	if err != nil {
		return nil, err
	}
	res, err := a.Forecaster.Predict(ctx, ds, forward, a.Config.Pipeline.RandomSeed)
	if err != nil {
		return nil, err
	}
	if err := a.Recorder.RecordPicks(uuid.NewString(), res.Picks); err != nil {
		log.Printf("[ERROR] record picks: %v", err)
	}
	return res.Picks, nil
}

// FetchPrices downloads adjusted closes for every ticker in the stats
// directory plus the benchmark and writes both price files.
func (a *App) FetchPrices(ctx context.Context) error {
	cfg := a.Config
	tickers, err := a.tickers()
	if err != nil {
		return err
	}
	start, end, err := cfg.FetchRange()
	if err != nil {
		return err
	}
	h, err := a.Collector.CollectPrices(ctx, tickers, cfg.Fetch.BenchmarkSymbol, start, end)
	if err != nil {
		return err
	}
	if len(h.Tickers) == 0 {
		return fmt.Errorf("no ticker prices downloaded: %w", collector.ErrEmptySeries)
	}

	var buf bytes.Buffer
	if err := collector.WritePriceTable(&buf, h.Tickers); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Paths.StockPrices, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write stock prices: %w", err)
	}
	buf.Reset()
	if err := collector.WriteIndexPrices(&buf, cfg.Paths.BenchmarkColumn, h.Benchmark); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Paths.BenchmarkPrices, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write benchmark prices: %w", err)
	}
	log.Printf("[INFO] wrote %s and %s", cfg.Paths.StockPrices, cfg.Paths.BenchmarkPrices)
	return nil
}

// FetchForward downloads the current key statistics page of every ticker.
func (a *App) FetchForward(ctx context.Context) error {
	tickers, err := a.tickers()
	if err != nil {
		return err
	}
	n, err := a.Collector.CollectForward(ctx, tickers, a.Config.Paths.ForwardDir)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no forward pages downloaded")
	}
	return nil
}

func (a *App) tickers() ([]string, error) {
	dirs, err := collector.NewSnapshotSource(a.Config.Paths.StatsDir).Tickers()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = strings.ToUpper(d)
	}
	return out, nil
}
