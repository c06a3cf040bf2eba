package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KeyStatsLab/internal/backtest"
	"KeyStatsLab/internal/collector"
	"KeyStatsLab/internal/config"
	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/notifier"
)

func page(beta string) string {
	return `<tr><td class="yfnc_tablehead1">Beta:</td><td class="yfnc_tabledata1">` + beta + `</td></tr>`
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// weekdayPrices grows linearly by yearlyPct from base over 2010-2011.
func weekdayPrices(base, yearlyPct float64) []model.PricePoint {
	var out []model.PricePoint
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2012; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days := d.Sub(start).Hours() / 24
		out = append(out, model.PricePoint{Date: d, Price: base * (1 + yearlyPct/100*days/365)})
	}
	return out
}

// fixture lays out six monthly snapshots for a grower (AAA) and a flat
// ticker (BBB), their prices and a benchmark gaining 5% a year.
func fixture(t *testing.T, format string) *App {
	dir := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Pipeline.Fields = []string{"Beta"}
	cfg.Pipeline.TestFraction = 0.25
	cfg.Pipeline.Workers = 2
	cfg.Paths.StatsDir = filepath.Join(dir, "_KeyStats")
	cfg.Paths.ForwardDir = filepath.Join(dir, "forward")
	cfg.Paths.StockPrices = filepath.Join(dir, "stock_prices.csv")
	cfg.Paths.BenchmarkPrices = filepath.Join(dir, "sp500_index.csv")
	cfg.Paths.Dataset = filepath.Join(dir, "out", "keystats.csv")
	cfg.Paths.DatasetFormat = format
	cfg.Forest.Trees = 10
	cfg.Database.SQLitePath = filepath.Join(dir, "keystats.db")
	require.NoError(t, cfg.Validate())

	for m := 1; m <= 6; m++ {
		stamp := time.Date(2010, time.Month(m), 4, 12, 0, 0, 0, time.UTC).Format(collector.SnapshotLayout)
		writeFile(t, filepath.Join(cfg.Paths.StatsDir, "aaa", stamp+".html"), page("2.5"))
		writeFile(t, filepath.Join(cfg.Paths.StatsDir, "bbb", stamp+".html"), page("0.5"))
	}
	writeFile(t, filepath.Join(cfg.Paths.StatsDir, ".DS_Store"), "")

	var b strings.Builder
	require.NoError(t, collector.WritePriceTable(&b, map[string][]model.PricePoint{
		"AAA": weekdayPrices(20, 50),
		"BBB": weekdayPrices(40, 0),
	}))
	writeFile(t, cfg.Paths.StockPrices, b.String())
	b.Reset()
	require.NoError(t, collector.WriteIndexPrices(&b, cfg.Paths.BenchmarkColumn, weekdayPrices(1100, 5)))
	writeFile(t, cfg.Paths.BenchmarkPrices, b.String())

	a, cleanup, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return a
}

// newApp wires an App the same way the injector does, from a ready config.
func newApp(cfg *config.Config) (*App, func(), error) {
	schema := ProvideSchema(cfg)
	ex := ProvideExtractor(schema)
	lb := ProvideLabeler(cfg)
	w, err := ProvideWriter(cfg)
	if err != nil {
		return nil, nil, err
	}
	factory := ProvideClassifierFactory(cfg)
	rec, cleanup := ProvideRecorder(cfg)
	tn := ProvideTelegram(cfg)
	return &App{
		Config:     cfg,
		Schema:     schema,
		Labeler:    lb,
		Assembler:  ProvideAssembler(ex, lb, cfg),
		Writer:     w,
		Engine:     backtest.NewEngine(factory),
		Forecaster: ProvideForecaster(ex, factory, cfg),
		Collector:  ProvideCollector(&collector.MockFetcher{Price: 10}, cfg),
		Recorder:   rec,
		Notifier:   ProvideNotifier(tn),
		Telegram:   tn,
	}, cleanup, nil
}

func TestPipeline_EndToEnd(t *testing.T) {
	for _, format := range []string{"csv", "parquet"} {
		t.Run(format, func(t *testing.T) {
			a := fixture(t, format)
			ctx := context.Background()

			ds, st, err := a.BuildDataset(ctx)
			require.NoError(t, err)
			assert.Equal(t, 12, st.Rows)
			assert.Equal(t, 0, st.Dropped)
			assert.Equal(t, "."+format, filepath.Ext(a.DatasetPath()))
			for _, r := range ds.Rows {
				assert.Equal(t, r.Ticker == "AAA", r.Outperformed, "%s %s", r.Ticker, r.Date())
			}

			rep, err := a.Backtest(ctx)
			require.NoError(t, err)
			assert.Equal(t, 9, rep.TrainRows)
			assert.Equal(t, 3, rep.TestRows)
			assert.Equal(t, 1.0, rep.Accuracy)

			runs, err := a.Recorder.RecentBacktests(5)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, rep.RunID, runs[0].RunID)

			writeFile(t, filepath.Join(a.Config.Paths.ForwardDir, "aaa.html"), page("2.4"))
			writeFile(t, filepath.Join(a.Config.Paths.ForwardDir, "bbb.html"), page("0.6"))
			picks, err := a.Predict(ctx)
			require.NoError(t, err)
			require.Len(t, picks, 1)
			assert.Equal(t, "AAA", picks[0].Ticker)
		})
	}
}

func TestLoadDataset_RelabelsWithCurrentThreshold(t *testing.T) {
	a := fixture(t, "csv")
	_, _, err := a.BuildDataset(context.Background())
	require.NoError(t, err)

	// a threshold nobody can reach flips every positive row
	a.Labeler.ThresholdPct = 1000
	ds, err := a.LoadDataset()
	require.NoError(t, err)
	for _, r := range ds.Rows {
		assert.False(t, r.Outperformed)
	}
}

func TestFetchPrices(t *testing.T) {
	a := fixture(t, "csv")
	require.NoError(t, a.FetchPrices(context.Background()))

	tickers, err := collector.LoadPriceTable(a.Config.Paths.StockPrices)
	require.NoError(t, err)
	assert.Contains(t, tickers, "AAA")
	assert.Contains(t, tickers, "BBB")

	bench, err := collector.LoadIndexPrices(a.Config.Paths.BenchmarkPrices, "SPY", a.Config.Paths.BenchmarkColumn)
	require.NoError(t, err)
	assert.False(t, bench.Empty())
}

func TestProvideNotifier(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.IsType(t, notifier.LogNotifier{}, ProvideNotifier(ProvideTelegram(cfg)))

	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "t", "1"
	assert.IsType(t, &notifier.TelegramNotifier{}, ProvideNotifier(ProvideTelegram(cfg)))
}
