package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"KeyStatsLab/internal/model"
)

// Load reads a dataset file, picking the reader from the extension.
// JSON datasets are write-only.
func Load(path string, fieldNames []string) (model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path, fieldNames)
	case ".parquet":
		ds, err := ReadParquetFile(path)
		if err != nil {
			return ds, err
		}
		if len(fieldNames) > 0 && len(ds.Rows) > 0 && len(ds.Fields) != len(fieldNames) {
			return model.Dataset{}, fmt.Errorf("file has %d feature columns, schema has %d", len(ds.Fields), len(fieldNames))
		}
		if len(ds.Rows) == 0 {
			ds.Fields = fieldNames
		}
		return ds, nil
	default:
		return model.Dataset{}, fmt.Errorf("unsupported dataset file %q (use .csv or .parquet)", path)
	}
}
