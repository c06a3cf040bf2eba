//go:build !wireinject
// +build !wireinject

// The injector below mirrors wire.go. Keep the provider order in sync when
// either file changes, or regenerate with `wire ./cmd/keystats`.

package main

import (
	"KeyStatsLab/internal/app"
	"KeyStatsLab/internal/backtest"
)

// InitializeApp builds the App from a config path via Wire.
// Caller must call the returned cleanup when done.
func InitializeApp(path app.ConfigPath) (*app.App, func(), error) {
	config, err := app.ProvideConfig(path)
	if err != nil {
		return nil, nil, err
	}
	schema := app.ProvideSchema(config)
	extractor := app.ProvideExtractor(schema)
	engine := app.ProvideLabeler(config)
	assembler := app.ProvideAssembler(extractor, engine, config)
	writer, err := app.ProvideWriter(config)
	if err != nil {
		return nil, nil, err
	}
	classifierFactory := app.ProvideClassifierFactory(config)
	backtestEngine := backtest.NewEngine(classifierFactory)
	forecaster := app.ProvideForecaster(extractor, classifierFactory, config)
	fetcher := app.ProvideFetcher(config)
	collector := app.ProvideCollector(fetcher, config)
	recorder, cleanup := app.ProvideRecorder(config)
	telegramNotifier := app.ProvideTelegram(config)
	notifier := app.ProvideNotifier(telegramNotifier)
	appApp := &app.App{
		Config:     config,
		Schema:     schema,
		Labeler:    engine,
		Assembler:  assembler,
		Writer:     writer,
		Engine:     backtestEngine,
		Forecaster: forecaster,
		Collector:  collector,
		Recorder:   recorder,
		Notifier:   notifier,
		Telegram:   telegramNotifier,
	}
	return appApp, func() {
		cleanup()
	}, nil
}
