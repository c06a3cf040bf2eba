package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/series"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)] // "2006-01-02 00:00:00"
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LoadPriceTable reads a wide CSV (Date, then one column per ticker) into
// one series per ticker. Empty cells are gaps; columns with no prices are
// left out.
func LoadPriceTable(path string) (map[string]series.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPriceTable(f)
}

// ReadPriceTable parses the wide price CSV from r.
func ReadPriceTable(r io.Reader) (map[string]series.Series, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("price table has no ticker columns: %w", ErrEmptySeries)
	}

	points := make([][]model.PricePoint, len(header))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i := 1; i < len(rec) && i < len(header); i++ {
			points[i] = append(points[i], model.PricePoint{Date: d, Price: parsePrice(rec[i])})
		}
	}

	out := make(map[string]series.Series, len(header)-1)
	for i := 1; i < len(header); i++ {
		sym := strings.ToUpper(strings.TrimSpace(header[i]))
		s, err := series.New(sym, points[i])
		if err != nil {
			continue
		}
		out[sym] = s
	}
	if len(out) == 0 {
		return nil, ErrEmptySeries
	}
	return out, nil
}

// LoadIndexPrices reads one price column of a benchmark CSV, such as
// "Adj Close" of a Date,Open,High,Low,Close,Adj Close,Volume file.
func LoadIndexPrices(path, symbol, column string) (series.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return series.Series{}, err
	}
	defer f.Close()
	return ReadIndexPrices(f, symbol, column)
}

// ReadIndexPrices parses a benchmark CSV from r.
func ReadIndexPrices(r io.Reader, symbol, column string) (series.Series, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return series.Series{}, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == column {
			col = i
			break
		}
	}
	if col < 1 {
		return series.Series{}, fmt.Errorf("column %q not found in %v", column, header)
	}

	var points []model.PricePoint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return series.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		d, err := parseDate(rec[0])
		if err != nil {
			return series.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, model.PricePoint{Date: d, Price: parsePrice(rec[col])})
	}

	s, err := series.New(symbol, points)
	if err != nil {
		return s, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	return s, nil
}

// WritePriceTable writes histories as a wide CSV keyed by trading date.
// Tickers become columns in sorted order; a ticker without a close on a
// date leaves the cell empty.
func WritePriceTable(w io.Writer, histories map[string][]model.PricePoint) error {
	tickers := make([]string, 0, len(histories))
	for t := range histories {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	byDate := make(map[string][]string)
	for col, t := range tickers {
		for _, p := range histories[t] {
			key := p.Date.UTC().Format(dateLayout)
			row, ok := byDate[key]
			if !ok {
				row = make([]string, len(tickers))
				byDate[key] = row
			}
			row[col] = strconv.FormatFloat(p.Price, 'f', -1, 64)
		}
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Date"}, tickers...)); err != nil {
		return err
	}
	for _, d := range dates {
		if err := cw.Write(append([]string{d}, byDate[d]...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteIndexPrices writes a benchmark history as Date plus one named column.
func WriteIndexPrices(w io.Writer, column string, points []model.PricePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", column}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{p.Date.UTC().Format(dateLayout), strconv.FormatFloat(p.Price, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
