package dataset

import (
	"strings"

	"KeyStatsLab/internal/model"
)

// Writer persists a dataset in one file format.
type Writer interface {
	Write(ds model.Dataset, path string) error
	Extension() string
}

// NewWriter returns the writer for a format (csv, parquet, json), or nil.
func NewWriter(format string) Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVWriter{}
	case "parquet":
		return ParquetWriter{}
	case "json":
		return JSONWriter{}
	default:
		return nil
	}
}

// Leading columns, before the feature columns.
var (
	idColumns     = []string{"ticker", "date", "unix"}
	returnColumns = []string{
		"price", "price_future", "stock_p_change",
		"benchmark", "benchmark_future", "benchmark_p_change",
		"outperformed",
	}
)

// Header returns the tabular column order for a field list.
func Header(fieldNames []string) []string {
	h := make([]string, 0, len(idColumns)+len(returnColumns)+len(fieldNames))
	h = append(h, idColumns...)
	h = append(h, returnColumns...)
	return append(h, fieldNames...)
}
