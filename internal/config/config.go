package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"KeyStatsLab/internal/fields"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Pipeline struct {
		OutperformancePct  float64  `yaml:"outperformance_threshold_percent"`
		TestFraction       float64  `yaml:"test_fraction"`
		RandomSeed         uint64   `yaml:"random_seed"`
		ForwardHorizonDays int      `yaml:"forward_horizon_days"`
		Workers            int      `yaml:"workers"`
		Fields             []string `yaml:"fields"`
	} `yaml:"pipeline"`
	Paths struct {
		StatsDir        string `yaml:"stats_dir"`
		ForwardDir      string `yaml:"forward_dir"`
		StockPrices     string `yaml:"stock_prices"`
		BenchmarkPrices string `yaml:"benchmark_prices"`
		BenchmarkColumn string `yaml:"benchmark_column"`
		Dataset         string `yaml:"dataset"`
		DatasetFormat   string `yaml:"dataset_format"`
	} `yaml:"paths"`
	Fetch struct {
		Start           string `yaml:"start"`
		End             string `yaml:"end"`
		BenchmarkSymbol string `yaml:"benchmark_symbol"`
	} `yaml:"fetch"`
	Forest struct {
		Trees           int `yaml:"trees"`
		MaxFeatures     int `yaml:"max_features"`
		MaxDepth        int `yaml:"max_depth"`
		MinSamplesSplit int `yaml:"min_samples_split"`
	} `yaml:"forest"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		BacktestCron string `yaml:"backtest_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// zero is meaningful for these, so they are set before parsing
	cfg.Pipeline.OutperformancePct = 10
	cfg.Pipeline.TestFraction = 0.2

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OUTPERFORMANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OUTPERFORMANCE: %w", err)
		}
		c.Pipeline.OutperformancePct = f
	}
	if v := os.Getenv("TEST_FRACTION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TEST_FRACTION: %w", err)
		}
		c.Pipeline.TestFraction = f
	}
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RANDOM_SEED: %w", err)
		}
		c.Pipeline.RandomSeed = n
	}
	if v := os.Getenv("STATSPATH"); v != "" {
		c.Paths.StatsDir = v
	}
	if v := os.Getenv("FORWARDPATH"); v != "" {
		c.Paths.ForwardDir = v
	}
	if v := os.Getenv("START_DATE"); v != "" {
		c.Fetch.Start = v
	}
	if v := os.Getenv("END_DATE"); v != "" {
		c.Fetch.End = v
	}
	if v := os.Getenv("DATASET_FORMAT"); v != "" {
		c.Paths.DatasetFormat = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_BACKTEST"); v != "" {
		c.Schedule.BacktestCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.ForwardHorizonDays == 0 {
		c.Pipeline.ForwardHorizonDays = 365
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = 8
	}
	if c.Paths.StatsDir == "" {
		c.Paths.StatsDir = "intraQuarter/_KeyStats"
	}
	if c.Paths.ForwardDir == "" {
		c.Paths.ForwardDir = "forward"
	}
	if c.Paths.StockPrices == "" {
		c.Paths.StockPrices = "stock_prices.csv"
	}
	if c.Paths.BenchmarkPrices == "" {
		c.Paths.BenchmarkPrices = "sp500_index.csv"
	}
	if c.Paths.BenchmarkColumn == "" {
		c.Paths.BenchmarkColumn = "Adj Close"
	}
	if c.Paths.Dataset == "" {
		c.Paths.Dataset = "keystats.csv"
	}
	if c.Paths.DatasetFormat == "" {
		c.Paths.DatasetFormat = "csv"
	}
	c.Paths.DatasetFormat = strings.ToLower(c.Paths.DatasetFormat)
	if c.Fetch.Start == "" {
		c.Fetch.Start = "2003-08-01"
	}
	if c.Fetch.End == "" {
		c.Fetch.End = "2015-01-01"
	}
	if c.Fetch.BenchmarkSymbol == "" {
		c.Fetch.BenchmarkSymbol = "SPY"
	}
	if c.Forest.Trees == 0 {
		c.Forest.Trees = 100
	}
	if c.Forest.MinSamplesSplit == 0 {
		c.Forest.MinSamplesSplit = 2
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/keystats.db"
	}
	if c.Schedule.BacktestCron == "" {
		c.Schedule.BacktestCron = "0 0 6 * * 1"
	}
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	if c.Pipeline.OutperformancePct < 0 {
		return fmt.Errorf("pipeline.outperformance_threshold_percent must not be negative")
	}
	if c.Pipeline.TestFraction < 0 || c.Pipeline.TestFraction >= 1 {
		return fmt.Errorf("pipeline.test_fraction must be in [0, 1)")
	}
	if c.Pipeline.ForwardHorizonDays <= 0 {
		return fmt.Errorf("pipeline.forward_horizon_days must be positive")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1")
	}
	if err := c.Schema().Validate(); err != nil {
		return fmt.Errorf("pipeline.fields: %w", err)
	}
	switch c.Paths.DatasetFormat {
	case "csv", "parquet", "json":
	default:
		return fmt.Errorf("paths.dataset_format %q must be csv, parquet or json", c.Paths.DatasetFormat)
	}
	start, end, err := c.FetchRange()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("fetch.start must be before fetch.end")
	}
	if c.Forest.Trees < 1 {
		return fmt.Errorf("forest.trees must be at least 1")
	}
	if c.Forest.MinSamplesSplit < 2 {
		return fmt.Errorf("forest.min_samples_split must be at least 2")
	}
	if c.Forest.MaxDepth < 0 || c.Forest.MaxFeatures < 0 {
		return fmt.Errorf("forest.max_depth and forest.max_features must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether reports should be pushed to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Horizon returns the forward horizon as a fixed duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.Pipeline.ForwardHorizonDays) * 24 * time.Hour
}

// FetchRange parses fetch.start and fetch.end as UTC dates.
func (c *Config) FetchRange() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, c.Fetch.Start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("fetch.start: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, c.Fetch.End, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("fetch.end: %w", err)
	}
	return start, end, nil
}

// Schema returns the field schema: the canonical one unless
// pipeline.fields overrides it.
func (c *Config) Schema() fields.Schema {
	if len(c.Pipeline.Fields) == 0 {
		return fields.Default()
	}
	return fields.FromNames("custom", c.Pipeline.Fields)
}
