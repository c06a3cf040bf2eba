// Package dataset joins extracted fundamentals with forward-return labels
// and moves the resulting table to and from disk.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log"

	"KeyStatsLab/internal/extract"
	"KeyStatsLab/internal/label"
	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/series"
)

// ErrEmptySource is returned when there are no snapshots or no benchmark
// prices to build from.
var ErrEmptySource = errors.New("empty source")

// Assembler builds a Dataset from snapshots and price histories.
type Assembler struct {
	Extractor *extract.Extractor
	Labeler   *label.Engine
	Workers   int
}

// NewAssembler creates a new Assembler.
func NewAssembler(ex *extract.Extractor, lb *label.Engine, workers int) *Assembler {
	return &Assembler{Extractor: ex, Labeler: lb, Workers: workers}
}

// Stats summarises one assembly run.
type Stats struct {
	Snapshots int
	Rows      int
	Dropped   int
}

// Assemble extracts every snapshot and labels it against the ticker's and
// the benchmark's series. Snapshots whose prices cannot be resolved are
// skipped with a warning. Row order follows snapshot order.
func (a *Assembler) Assemble(ctx context.Context, snaps []model.Snapshot, tickers map[string]series.Series, benchmark series.Series) (model.Dataset, Stats, error) {
	ds := model.Dataset{Fields: a.Extractor.Fields()}
	if len(snaps) == 0 {
		log.Printf("[ERROR] no snapshots to assemble")
		return ds, Stats{}, fmt.Errorf("snapshots: %w", ErrEmptySource)
	}
	if benchmark.Empty() {
		log.Printf("[ERROR] benchmark price series is empty")
		return ds, Stats{}, fmt.Errorf("benchmark %q: %w", benchmark.Symbol, ErrEmptySource)
	}

	vectors, err := a.Extractor.ExtractAll(ctx, snaps, a.Workers)
	if err != nil {
		return ds, Stats{}, fmt.Errorf("extract: %w", err)
	}

	st := Stats{Snapshots: len(snaps)}
	ds.Rows = make([]model.LabeledRow, 0, len(snaps))
	for i, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return model.Dataset{Fields: ds.Fields}, st, err
		}
		ts, ok := tickers[snap.Ticker]
		if !ok {
			log.Printf("[WARN] skip %s %s: no price history", snap.Ticker, snap.Timestamp.Format("2006-01-02"))
			st.Dropped++
			continue
		}
		res := a.Labeler.Label(snap.Timestamp, ts, benchmark)
		if !res.OK {
			log.Printf("[WARN] skip %s %s: %s", snap.Ticker, snap.Timestamp.Format("2006-01-02"), res.Reason)
			st.Dropped++
			continue
		}
		row := res.Row
		row.Ticker = snap.Ticker
		row.Features = vectors[i]
		ds.Rows = append(ds.Rows, row)
	}
	st.Rows = len(ds.Rows)

	log.Printf("[INFO] assembled %d rows from %d snapshots (%d dropped)", st.Rows, st.Snapshots, st.Dropped)
	return ds, st, nil
}
