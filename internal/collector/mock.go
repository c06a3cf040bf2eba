package collector

import (
	"context"
	"fmt"
	"time"

	"KeyStatsLab/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Histories map[string][]model.PricePoint
	Pages     map[string]string
	// Price seeds a flat generated history for symbols not in Histories.
	Price float64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	if h, ok := m.Histories[symbol]; ok {
		return h, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	return generateMockHistory(m.Price, start, end), nil
}

func (m *MockFetcher) FetchKeyStats(_ context.Context, ticker string) (string, error) {
	page, ok := m.Pages[ticker]
	if !ok {
		return "", fmt.Errorf("mock: no page for %s", ticker)
	}
	return page, nil
}

// generateMockHistory emits one weekday close per day, drifting upward.
func generateMockHistory(base float64, start, end time.Time) []model.PricePoint {
	var out []model.PricePoint
	i := 0
	for d := start.UTC(); d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, model.PricePoint{Date: d, Price: base * (1 + float64(i)*0.0005)})
		i++
	}
	return out
}
