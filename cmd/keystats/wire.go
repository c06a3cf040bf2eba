//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"KeyStatsLab/internal/app"
	"KeyStatsLab/internal/backtest"
)

// InitializeApp builds the App from a config path via Wire.
// Caller must call the returned cleanup when done.
func InitializeApp(path app.ConfigPath) (*app.App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideSchema,
		app.ProvideExtractor,
		app.ProvideLabeler,
		app.ProvideAssembler,
		app.ProvideWriter,
		app.ProvideClassifierFactory,
		backtest.NewEngine,
		app.ProvideForecaster,
		app.ProvideFetcher,
		app.ProvideCollector,
		app.ProvideRecorder,
		app.ProvideTelegram,
		app.ProvideNotifier,
		wire.Struct(new(app.App), "*"),
	)
	return nil, nil, nil
}
