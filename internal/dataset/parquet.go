package dataset

import (
	"github.com/parquet-go/parquet-go"

	"KeyStatsLab/internal/model"
)

// parquetFeature.Value is a pointer so a missing fundamental is stored as null.
type parquetFeature struct {
	Name  string   `parquet:"name"`
	Value *float64 `parquet:"value"`
}

type parquetRow struct {
	Ticker             string           `parquet:"ticker"`
	Date               string           `parquet:"date"`
	Unix               int64            `parquet:"unix"`
	Price              float64          `parquet:"price"`
	PriceFuture        float64          `parquet:"price_future"`
	PctChange          float64          `parquet:"stock_p_change"`
	Benchmark          float64          `parquet:"benchmark"`
	BenchmarkFuture    float64          `parquet:"benchmark_future"`
	BenchmarkPctChange float64          `parquet:"benchmark_p_change"`
	Outperformed       bool             `parquet:"outperformed"`
	Features           []parquetFeature `parquet:"features,list"`
}

// ParquetWriter stores the dataset as Parquet; missing fundamentals are nulls.
type ParquetWriter struct{}

func (ParquetWriter) Extension() string { return "parquet" }

func (ParquetWriter) Write(ds model.Dataset, path string) error {
	rows := make([]parquetRow, len(ds.Rows))
	for i, r := range ds.Rows {
		rows[i] = parquetRow{
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
			Features:           make([]parquetFeature, len(ds.Fields)),
		}
		for j, name := range ds.Fields {
			rows[i].Features[j] = parquetFeature{Name: name, Value: valuePtr(r.Features, j)}
		}
	}
	return parquet.WriteFile(path, rows)
}

// ReadParquetFile loads rows written by ParquetWriter.
func ReadParquetFile(path string) (model.Dataset, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return model.Dataset{}, err
	}
	var ds model.Dataset
	for i, pr := range rows {
		if i == 0 {
			ds.Fields = make([]string, len(pr.Features))
			for j, f := range pr.Features {
				ds.Fields[j] = f.Name
			}
		}
		fv := model.FeatureVector{Names: ds.Fields, Values: make([]model.Value, len(pr.Features))}
		for j, f := range pr.Features {
			if f.Value != nil {
				fv.Values[j] = model.Num(*f.Value)
			}
		}
		ds.Rows = append(ds.Rows, model.LabeledRow{
			Ticker:             pr.Ticker,
			SnapshotTime:       unixUTC(pr.Unix),
			Price:              pr.Price,
			PriceFuture:        pr.PriceFuture,
			PctChange:          pr.PctChange,
			Benchmark:          pr.Benchmark,
			BenchmarkFuture:    pr.BenchmarkFuture,
			BenchmarkPctChange: pr.BenchmarkPctChange,
			Outperformed:       pr.Outperformed,
			Features:           fv,
		})
	}
	return ds, nil
}

func valuePtr(fv model.FeatureVector, i int) *float64 {
	if i >= len(fv.Values) || !fv.Values[i].OK {
		return nil
	}
	v := fv.Values[i].V
	return &v
}
