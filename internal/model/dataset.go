package model

import "time"

// PricePoint is a single dated closing price.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// LabeledRow joins a snapshot's fundamentals with its realized forward returns.
type LabeledRow struct {
	Ticker       string
	SnapshotTime time.Time

	Price       float64
	PriceFuture float64
	PctChange   float64

	Benchmark          float64
	BenchmarkFuture    float64
	BenchmarkPctChange float64

	Outperformed bool
	Features     FeatureVector
}

// Date returns the calendar date of the snapshot as YYYY-MM-DD.
func (r LabeledRow) Date() string {
	return r.SnapshotTime.UTC().Format("2006-01-02")
}

// Dataset is the ordered training table.
type Dataset struct {
	Fields []string
	Rows   []LabeledRow
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Pick is a ticker the model flags as a likely outperformer.
type Pick struct {
	Ticker   string
	Features FeatureVector
}
