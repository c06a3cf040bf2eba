package dataset

import (
	"encoding/json"
	"os"
	"time"

	"KeyStatsLab/internal/model"
)

type jsonFeature struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

type jsonRow struct {
	Ticker             string        `json:"ticker"`
	Date               string        `json:"date"`
	Unix               int64         `json:"unix"`
	Price              float64       `json:"price"`
	PriceFuture        float64       `json:"price_future"`
	PctChange          float64       `json:"stock_p_change"`
	Benchmark          float64       `json:"benchmark"`
	BenchmarkFuture    float64       `json:"benchmark_future"`
	BenchmarkPctChange float64       `json:"benchmark_p_change"`
	Outperformed       bool          `json:"outperformed"`
	Features           []jsonFeature `json:"features"`
}

// JSONWriter writes the dataset as an indented array.
type JSONWriter struct{}

func (JSONWriter) Extension() string { return "json" }

func (JSONWriter) Write(ds model.Dataset, path string) error {
	rows := make([]jsonRow, len(ds.Rows))
	for i, r := range ds.Rows {
		rows[i] = jsonRow{
			Ticker:             r.Ticker,
			Date:               r.Date(),
			Unix:               r.SnapshotTime.Unix(),
			Price:              r.Price,
			PriceFuture:        r.PriceFuture,
			PctChange:          r.PctChange,
			Benchmark:          r.Benchmark,
			BenchmarkFuture:    r.BenchmarkFuture,
			BenchmarkPctChange: r.BenchmarkPctChange,
			Outperformed:       r.Outperformed,
			Features:           make([]jsonFeature, len(ds.Fields)),
		}
		for j, name := range ds.Fields {
			rows[i].Features[j] = jsonFeature{Name: name, Value: valuePtr(r.Features, j)}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return f.Close()
}

func unixUTC(sec int64) time.Time { return time.Unix(sec, 0).UTC() }
