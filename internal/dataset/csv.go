package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/normalize"
)

// CSVWriter writes one header row plus one row per LabeledRow.
type CSVWriter struct{}

func (CSVWriter) Extension() string { return "csv" }

func (w CSVWriter) Write(ds model.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, ds); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV streams the dataset to w.
func WriteCSV(w io.Writer, ds model.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(ds.Fields)); err != nil {
		return err
	}
	for _, r := range ds.Rows {
		rec := make([]string, 0, len(idColumns)+len(returnColumns)+len(ds.Fields))
		rec = append(rec,
			r.Ticker,
			r.Date(),
			strconv.FormatInt(r.SnapshotTime.Unix(), 10),
			floatStr(r.Price),
			floatStr(r.PriceFuture),
			floatStr(r.PctChange),
			floatStr(r.Benchmark),
			floatStr(r.BenchmarkFuture),
			floatStr(r.BenchmarkPctChange),
			strconv.FormatBool(r.Outperformed),
		)
		for i := range ds.Fields {
			v := model.Missing()
			if i < len(r.Features.Values) {
				v = r.Features.Values[i]
			}
			rec = append(rec, normalize.Format(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSVFile loads a dataset written by CSVWriter. fieldNames, when
// non-empty, must match the file's feature columns exactly.
func ReadCSVFile(path string, fieldNames []string) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, err
	}
	defer f.Close()
	return ReadCSV(f, fieldNames)
}

// ReadCSV parses a dataset. Feature cells go through the normalizer, so
// "N/A" and blanks come back as missing.
func ReadCSV(r io.Reader, fieldNames []string) (model.Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("read header: %w", err)
	}
	lead := len(idColumns) + len(returnColumns)
	if len(header) < lead {
		return model.Dataset{}, fmt.Errorf("header has %d columns, want at least %d", len(header), lead)
	}
	for i, c := range Header(nil) {
		if header[i] != c {
			return model.Dataset{}, fmt.Errorf("column %d is %q, want %q", i, header[i], c)
		}
	}
	names := header[lead:]
	if len(fieldNames) > 0 {
		if len(fieldNames) != len(names) {
			return model.Dataset{}, fmt.Errorf("file has %d feature columns, schema has %d", len(names), len(fieldNames))
		}
		for i := range names {
			if names[i] != fieldNames[i] {
				return model.Dataset{}, fmt.Errorf("feature column %d is %q, schema says %q", i, names[i], fieldNames[i])
			}
		}
	}

	ds := model.Dataset{Fields: append([]string(nil), names...)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(rec, ds.Fields)
		if err != nil {
			return model.Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func parseRow(rec []string, names []string) (model.LabeledRow, error) {
	unix, err := strconv.ParseInt(rec[2], 10, 64)
	if err != nil {
		return model.LabeledRow{}, fmt.Errorf("unix: %w", err)
	}
	nums := make([]float64, 6)
	for i := range nums {
		v, err := strconv.ParseFloat(rec[3+i], 64)
		if err != nil {
			return model.LabeledRow{}, fmt.Errorf("%s: %w", returnColumns[i], err)
		}
		nums[i] = v
	}
	out, err := strconv.ParseBool(rec[9])
	if err != nil {
		return model.LabeledRow{}, fmt.Errorf("outperformed: %w", err)
	}

	fv := model.FeatureVector{Names: names, Values: make([]model.Value, len(names))}
	for i := range names {
		fv.Values[i] = normalize.Normalize(rec[len(idColumns)+len(returnColumns)+i])
	}

	return model.LabeledRow{
		Ticker:             rec[0],
		SnapshotTime:       time.Unix(unix, 0).UTC(),
		Price:              nums[0],
		PriceFuture:        nums[1],
		PctChange:          nums[2],
		Benchmark:          nums[3],
		BenchmarkFuture:    nums[4],
		BenchmarkPctChange: nums[5],
		Outperformed:       out,
		Features:           fv,
	}, nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
