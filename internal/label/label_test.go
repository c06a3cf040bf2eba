package label

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/series"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustSeries(t *testing.T, symbol string, pts ...model.PricePoint) series.Series {
	t.Helper()
	s, err := series.New(symbol, pts)
	require.NoError(t, err)
	return s
}

// snapshot on 2013-03-04; +365 days is 2014-03-04.
var (
	snap      = time.Date(2013, 3, 4, 15, 30, 0, 0, time.UTC)
	horizonAt = date(2014, 3, 4)
)

func TestLabel_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		tickerEnd   float64
		benchEnd    float64
		wantTicker  float64
		wantBench   float64
		outperforms bool
	}{
		{"beats by 15", 120, 105, 20, 5, true},
		{"beats by 7", 112, 105, 12, 5, false},
		{"exactly at threshold", 115, 105, 15, 5, true},
		{"underperforms", 90, 105, -10, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticker := mustSeries(t, "ABC",
				model.PricePoint{Date: date(2013, 3, 4), Price: 100},
				model.PricePoint{Date: horizonAt, Price: tt.tickerEnd})
			bench := mustSeries(t, "SPY",
				model.PricePoint{Date: date(2013, 3, 4), Price: 100},
				model.PricePoint{Date: horizonAt, Price: tt.benchEnd})

			res := NewEngine(DefaultHorizon, DefaultThresholdPct).Label(snap, ticker, bench)
			require.True(t, res.OK, res.Reason)
			assert.InDelta(t, tt.wantTicker, res.Row.PctChange, 1e-9)
			assert.InDelta(t, tt.wantBench, res.Row.BenchmarkPctChange, 1e-9)
			assert.Equal(t, tt.outperforms, res.Row.Outperformed)
			assert.Equal(t, "ABC", res.Row.Ticker)
			assert.Equal(t, 100.0, res.Row.Price)
			assert.Equal(t, tt.tickerEnd, res.Row.PriceFuture)
		})
	}
}

func TestLabel_HorizonEndOnWeekendResolvesByForwardFill(t *testing.T) {
	// 2014-03-08 is a Saturday; the last trade before it is Friday 2014-03-07.
	snapDate := time.Date(2013, 3, 8, 0, 0, 0, 0, time.UTC)
	ticker := mustSeries(t, "ABC",
		model.PricePoint{Date: date(2013, 3, 8), Price: 50},
		model.PricePoint{Date: date(2014, 3, 7), Price: 60},
		model.PricePoint{Date: date(2014, 3, 10), Price: 70})
	bench := mustSeries(t, "SPY",
		model.PricePoint{Date: date(2013, 3, 8), Price: 100},
		model.PricePoint{Date: date(2014, 3, 10), Price: 105})

	res := NewEngine(DefaultHorizon, DefaultThresholdPct).Label(snapDate, ticker, bench)
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, 60.0, res.Row.PriceFuture)
	assert.InDelta(t, 20.0, res.Row.PctChange, 1e-9)
	assert.InDelta(t, 0.0, res.Row.BenchmarkPctChange, 1e-9)
	assert.True(t, res.Row.Outperformed)
}

func TestLabel_AbsentNearSeriesEnd(t *testing.T) {
	start := date(2010, 1, 1)
	end := date(2014, 12, 31)
	ticker := mustSeries(t, "ABC", model.PricePoint{Date: start, Price: 10}, model.PricePoint{Date: end, Price: 20})
	bench := mustSeries(t, "SPY", model.PricePoint{Date: start, Price: 100}, model.PricePoint{Date: end, Price: 110})
	e := NewEngine(DefaultHorizon, DefaultThresholdPct)

	lastValid := end.Add(-DefaultHorizon)
	assert.True(t, e.Label(start.AddDate(0, 0, 1), ticker, bench).OK)
	assert.True(t, e.Label(lastValid, ticker, bench).OK)

	res := e.Label(lastValid.AddDate(0, 0, 1), ticker, bench)
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "missing")

	assert.False(t, e.Label(start.AddDate(0, 0, -1), ticker, bench).OK)
}

func TestLabel_AbsentWhenOnlyTickerMisses(t *testing.T) {
	ticker := mustSeries(t, "ABC", model.PricePoint{Date: date(2013, 6, 1), Price: 10}, model.PricePoint{Date: date(2015, 1, 1), Price: 20})
	bench := mustSeries(t, "SPY", model.PricePoint{Date: date(2012, 1, 1), Price: 100}, model.PricePoint{Date: date(2015, 1, 1), Price: 110})

	res := NewEngine(DefaultHorizon, DefaultThresholdPct).Label(snap, ticker, bench)
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "ABC")
	assert.Zero(t, res.Row)
}

func TestLabel_UsesFixedHorizonNotCalendarYear(t *testing.T) {
	// From 2012-01-01 (leap year) 365 days lands on 2012-12-31.
	from := date(2012, 1, 1)
	ticker := mustSeries(t, "ABC",
		model.PricePoint{Date: from, Price: 100},
		model.PricePoint{Date: date(2012, 12, 31), Price: 150},
		model.PricePoint{Date: date(2013, 1, 1), Price: 200})
	bench := mustSeries(t, "SPY", model.PricePoint{Date: from, Price: 100}, model.PricePoint{Date: date(2013, 1, 1), Price: 100})

	res := NewEngine(0, DefaultThresholdPct).Label(from, ticker, bench)
	require.True(t, res.OK)
	assert.Equal(t, 150.0, res.Row.PriceFuture)
}

func TestLabel_ThresholdUsesRoundedChanges(t *testing.T) {
	// Raw ticker change 9.996% rounds to 10.00%; benchmark flat.
	ticker := mustSeries(t, "ABC",
		model.PricePoint{Date: date(2013, 3, 4), Price: 100000},
		model.PricePoint{Date: horizonAt, Price: 109996})
	bench := mustSeries(t, "SPY",
		model.PricePoint{Date: date(2013, 3, 4), Price: 100},
		model.PricePoint{Date: horizonAt, Price: 100})
	e := NewEngine(DefaultHorizon, DefaultThresholdPct)

	res := e.Label(snap, ticker, bench)
	require.True(t, res.OK)
	assert.Equal(t, 10.0, res.Row.PctChange)
	assert.True(t, res.Row.Outperformed)

	// Raw 9.994% rounds to 9.99%, just under.
	ticker2 := mustSeries(t, "ABC",
		model.PricePoint{Date: date(2013, 3, 4), Price: 100000},
		model.PricePoint{Date: horizonAt, Price: 109994})
	res = e.Label(snap, ticker2, bench)
	require.True(t, res.OK)
	assert.Equal(t, 9.99, res.Row.PctChange)
	assert.False(t, res.Row.Outperformed)
}

func TestOutperformed(t *testing.T) {
	e := NewEngine(DefaultHorizon, 10)
	assert.True(t, e.Outperformed(20, 5))
	assert.False(t, e.Outperformed(12, 5))
	assert.True(t, e.Outperformed(15, 5))

	zero := NewEngine(DefaultHorizon, 0)
	assert.True(t, zero.Outperformed(5, 5))
	assert.False(t, zero.Outperformed(4.99, 5))
}

func TestRelabel(t *testing.T) {
	rows := []model.LabeledRow{
		{PctChange: 20, BenchmarkPctChange: 5, Outperformed: true},
		{PctChange: 12, BenchmarkPctChange: 5, Outperformed: false},
		{PctChange: -3, BenchmarkPctChange: 5, Outperformed: false},
	}
	changed := NewEngine(DefaultHorizon, 5).Relabel(rows)
	assert.Equal(t, 1, changed)
	assert.True(t, rows[0].Outperformed)
	assert.True(t, rows[1].Outperformed)
	assert.False(t, rows[2].Outperformed)
}
