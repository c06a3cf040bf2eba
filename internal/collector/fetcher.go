package collector

import (
	"context"
	"errors"
	"time"

	"KeyStatsLab/internal/model"
)

// ErrEmptySeries is returned when a source yields no usable prices.
var ErrEmptySeries = errors.New("empty price series")

// Fetcher defines the interface for downloading market data.
type Fetcher interface {
	// FetchHistory returns daily adjusted closes in [start, end), oldest first.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error)
	// FetchKeyStats returns the current key statistics page for a ticker.
	FetchKeyStats(ctx context.Context, ticker string) (string, error)
	Name() string
}
