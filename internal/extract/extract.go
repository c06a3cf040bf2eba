// Package extract pulls fundamentals out of key statistics HTML.
package extract

import (
	"context"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"KeyStatsLab/internal/fields"
	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/normalize"
)

// valuePattern is the token that follows an anchor: a number with an
// optional magnitude suffix, or one of the "unavailable" markers, then an
// optional percent sign and the closing cell or span tag.
const valuePattern = `.*?(-?\d+\.*\d*[KMBT]?|N/A[\\n|\s]*|>0|NaN)%?(</td>|</span>)`

type fieldMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

// Extractor is safe for concurrent use once built.
type Extractor struct {
	matchers []fieldMatcher
	names    []string
}

// New compiles one pattern per anchor of every schema field.
func New(schema fields.Schema) *Extractor {
	e := &Extractor{
		matchers: make([]fieldMatcher, len(schema.Fields)),
		names:    schema.Names(),
	}
	for i, f := range schema.Fields {
		m := fieldMatcher{name: f.Name}
		anchors := f.Anchors
		if len(anchors) == 0 {
			anchors = []string{f.Name}
		}
		for _, a := range anchors {
			// (?s): anchor and value are often separated by several lines of markup
			m.patterns = append(m.patterns, regexp.MustCompile(`(?s)>`+regexp.QuoteMeta(a)+valuePattern))
		}
		e.matchers[i] = m
	}
	return e
}

// Fields returns the field names in output order.
func (e *Extractor) Fields() []string { return e.names }

// Extract returns one value per field. Fields that cannot be found or
// parsed are missing; the vector is never shorter than the schema.
func (e *Extractor) Extract(raw string) model.FeatureVector {
	src := strings.ReplaceAll(raw, ",", "")

	fv := model.FeatureVector{
		Names:  e.names,
		Values: make([]model.Value, len(e.matchers)),
	}
	for i, m := range e.matchers {
		fv.Values[i] = m.find(src)
	}
	return fv
}

func (m fieldMatcher) find(src string) model.Value {
	for _, re := range m.patterns {
		sub := re.FindStringSubmatch(src)
		if sub == nil {
			continue
		}
		return normalize.Normalize(sub[1])
	}
	return model.Missing()
}

// ExtractAll extracts every snapshot using up to workers goroutines.
// Results are in input order regardless of completion order.
func (e *Extractor) ExtractAll(ctx context.Context, snaps []model.Snapshot, workers int) ([]model.FeatureVector, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]model.FeatureVector, len(snaps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range snaps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.Extract(snaps[i].RawText)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
