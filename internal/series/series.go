// Package series holds daily price histories with every calendar day
// filled, so lookups never miss on weekends or holidays.
package series

import (
	"errors"
	"math"
	"sort"
	"time"

	"KeyStatsLab/internal/model"
)

// ErrNoPrices is returned when a series is built from nothing usable.
var ErrNoPrices = errors.New("no prices")

const day = 24 * time.Hour

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series is an immutable daily price history. Index i holds the price in
// effect on start+i days; NaN means no observation yet.
type Series struct {
	Symbol string
	start  time.Time
	prices []float64
}

// New sorts the points, keeps the last price per date and forward-fills
// every calendar day from the first to the last observation. Non-positive
// and NaN prices are ignored.
func New(symbol string, points []model.PricePoint) (Series, error) {
	clean := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Price) || p.Price <= 0 {
			continue
		}
		clean = append(clean, model.PricePoint{Date: Day(p.Date), Price: p.Price})
	}
	if len(clean) == 0 {
		return Series{Symbol: symbol}, ErrNoPrices
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Date.Before(clean[j].Date) })

	start := clean[0].Date
	end := clean[len(clean)-1].Date
	prices := make([]float64, daysBetween(start, end)+1)
	for i := range prices {
		prices[i] = math.NaN()
	}
	for _, p := range clean {
		prices[daysBetween(start, p.Date)] = p.Price
	}
	fillForward(prices)

	return Series{Symbol: symbol, start: start, prices: prices}, nil
}

// Reindex returns a copy covering exactly [from, to]. Days before the first
// observation stay unresolved; days after the last carry its price forward.
func (s Series) Reindex(from, to time.Time) Series {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return Series{Symbol: s.Symbol}
	}
	prices := make([]float64, daysBetween(from, to)+1)
	for i := range prices {
		prices[i] = math.NaN()
		if p, ok := s.at(from.Add(time.Duration(i) * day)); ok {
			prices[i] = p
		}
	}
	fillForward(prices)
	return Series{Symbol: s.Symbol, start: from, prices: prices}
}

// Lookup returns the price in effect on t's calendar date. It fails only
// when the date lies outside the covered range.
func (s Series) Lookup(t time.Time) (float64, bool) {
	return s.at(Day(t))
}

func (s Series) at(d time.Time) (float64, bool) {
	if len(s.prices) == 0 || d.Before(s.start) {
		return 0, false
	}
	i := daysBetween(s.start, d)
	if i >= len(s.prices) {
		return 0, false
	}
	p := s.prices[i]
	if math.IsNaN(p) {
		return 0, false
	}
	return p, true
}

// Empty reports whether the series covers no days.
func (s Series) Empty() bool { return len(s.prices) == 0 }

// Len returns the number of covered calendar days.
func (s Series) Len() int { return len(s.prices) }

// Start returns the first covered date.
func (s Series) Start() time.Time { return s.start }

// End returns the last covered date.
func (s Series) End() time.Time {
	if len(s.prices) == 0 {
		return s.start
	}
	return s.start.Add(time.Duration(len(s.prices)-1) * day)
}

// Points returns every resolved day in order.
func (s Series) Points() []model.PricePoint {
	out := make([]model.PricePoint, 0, len(s.prices))
	for i, p := range s.prices {
		if math.IsNaN(p) {
			continue
		}
		out = append(out, model.PricePoint{Date: s.start.Add(time.Duration(i) * day), Price: p})
	}
	return out
}

func fillForward(prices []float64) {
	last := math.NaN()
	for i, p := range prices {
		if math.IsNaN(p) {
			prices[i] = last
			continue
		}
		last = p
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / day)
}
