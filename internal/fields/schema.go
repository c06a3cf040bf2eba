// Package fields owns the canonical list of fundamentals parsed from
// key statistics pages.
package fields

import (
	"errors"
	"fmt"
)

// Version identifies the field list below. Bump it whenever the list or
// its order changes, since datasets are aligned by position.
const Version = "v1"

// Field is one fundamental with the labels it has appeared under.
// Anchors are tried in order; the first match wins.
type Field struct {
	Name    string
	Anchors []string
}

// Schema is an ordered field list.
type Schema struct {
	Version string
	Fields  []Field
}

// Names returns field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.Fields) }

// Validate checks for empty and duplicate names.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return errors.New("schema has no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Renamed maps a field to the labels it was published under in older pages.
var Renamed = map[string][]string{
	"Avg Vol (3 month)": {"Average Volume (3 month)"},
}

// FromNames builds a schema whose anchors are the name itself followed by
// any known historical labels.
func FromNames(version string, names []string) Schema {
	s := Schema{Version: version, Fields: make([]Field, len(names))}
	for i, n := range names {
		anchors := append([]string{n}, Renamed[n]...)
		s.Fields[i] = Field{Name: n, Anchors: anchors}
	}
	return s
}

// DefaultNames is the canonical field order.
var DefaultNames = []string{
	"Market Cap", "Enterprise Value", "Trailing P/E", "Forward P/E", "PEG Ratio",
	"Price/Sales", "Price/Book", "Enterprise Value/Revenue", "Enterprise Value/EBITDA",
	"Profit Margin", "Operating Margin", "Return on Assets", "Return on Equity",
	"Revenue", "Revenue Per Share", "Qtrly Revenue Growth", "Gross Profit",
	"EBITDA", "Net Income Avl to Common", "Diluted EPS", "Qtrly Earnings Growth",
	"Total Cash", "Total Cash Per Share", "Total Debt", "Total Debt/Equity",
	"Current Ratio", "Book Value Per Share", "Operating Cash Flow", "Levered Free Cash Flow",
	"Beta", "50-Day Moving Average", "200-Day Moving Average", "Avg Vol (3 month)",
	"Shares Outstanding", "Float", "% Held by Insiders", "% Held by Institutions",
	"Shares Short (as of", "Short Ratio", "Short % of Float", "Shares Short (prior month",
}

// Default returns the canonical schema.
func Default() Schema {
	return FromNames(Version, DefaultNames)
}
