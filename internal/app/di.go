package app

import (
	"fmt"
	"log"
	"os"

	"KeyStatsLab/internal/backtest"
	"KeyStatsLab/internal/classifier"
	"KeyStatsLab/internal/collector"
	"KeyStatsLab/internal/config"
	"KeyStatsLab/internal/dataset"
	"KeyStatsLab/internal/extract"
	"KeyStatsLab/internal/fields"
	"KeyStatsLab/internal/forecast"
	"KeyStatsLab/internal/label"
	"KeyStatsLab/internal/notifier"
	"KeyStatsLab/internal/recorder"
)

// ConfigPath is the YAML config location handed to the injector.
type ConfigPath string

// DefaultConfigPath returns CONFIG_PATH or configs/config.yaml.
func DefaultConfigPath() ConfigPath {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return ConfigPath(v)
	}
	return "configs/config.yaml"
}

// ProvideConfig loads and validates the config (for Wire).
func ProvideConfig(path ConfigPath) (*config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// ProvideSchema returns the field schema in use (for Wire).
func ProvideSchema(cfg *config.Config) fields.Schema {
	return cfg.Schema()
}

// ProvideExtractor compiles the extraction patterns once (for Wire).
func ProvideExtractor(schema fields.Schema) *extract.Extractor {
	return extract.New(schema)
}

// ProvideLabeler creates the label engine from the pipeline settings (for Wire).
func ProvideLabeler(cfg *config.Config) *label.Engine {
	return label.NewEngine(cfg.Horizon(), cfg.Pipeline.OutperformancePct)
}

// ProvideAssembler creates the dataset assembler (for Wire).
func ProvideAssembler(ex *extract.Extractor, lb *label.Engine, cfg *config.Config) *dataset.Assembler {
	return dataset.NewAssembler(ex, lb, cfg.Pipeline.Workers)
}

// ProvideWriter creates the dataset writer from config (for Wire).
// Returns error if the dataset format is not supported.
func ProvideWriter(cfg *config.Config) (dataset.Writer, error) {
	w := dataset.NewWriter(cfg.Paths.DatasetFormat)
	if w == nil {
		return nil, fmt.Errorf("unsupported dataset format %q (use: csv, parquet, json)", cfg.Paths.DatasetFormat)
	}
	return w, nil
}

// ProvideClassifierFactory builds random forests from the forest settings (for Wire).
func ProvideClassifierFactory(cfg *config.Config) backtest.ClassifierFactory {
	return backtest.ForestFactory(classifier.Options{
		Trees:           cfg.Forest.Trees,
		MaxFeatures:     cfg.Forest.MaxFeatures,
		MaxDepth:        cfg.Forest.MaxDepth,
		MinSamplesSplit: cfg.Forest.MinSamplesSplit,
	})
}

// ProvideForecaster creates the forward-sample forecaster (for Wire).
func ProvideForecaster(ex *extract.Extractor, factory backtest.ClassifierFactory, cfg *config.Config) *forecast.Forecaster {
	return forecast.NewForecaster(ex, factory, cfg.Pipeline.Workers)
}

// ProvideFetcher creates the market data fetcher (for Wire).
func ProvideFetcher(cfg *config.Config) collector.Fetcher {
	return collector.NewYahooFetcher(cfg.Proxy)
}

// ProvideCollector creates the download orchestrator (for Wire).
func ProvideCollector(f collector.Fetcher, cfg *config.Config) *collector.Collector {
	return collector.NewCollector(f, cfg.Pipeline.Workers)
}

// ProvideRecorder opens the SQLite recorder, falling back to a no-op one
// when it cannot be opened (for Wire). The cleanup closes the database.
func ProvideRecorder(cfg *config.Config) (recorder.Recorder, func()) {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder(), func() {}
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder(), func() {}
	}
	return sr, func() {
		if err := sr.Close(); err != nil {
			log.Printf("[ERROR] close recorder: %v", err)
		}
	}
}

// ProvideTelegram returns the Telegram client, or nil when not configured (for Wire).
func ProvideTelegram(cfg *config.Config) *notifier.TelegramNotifier {
	if !cfg.TelegramEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
}

// ProvideNotifier picks Telegram when available, the log otherwise (for Wire).
func ProvideNotifier(tn *notifier.TelegramNotifier) notifier.Notifier {
	if tn == nil {
		return notifier.LogNotifier{}
	}
	return tn
}
