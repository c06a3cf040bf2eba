// Package normalize turns key statistics value tokens into numbers.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"KeyStatsLab/internal/model"
)

// GreaterThanZero is what ">0" maps to: positive but below any reported
// figure, so the sign survives into the feature matrix.
const GreaterThanZero = 1e-6

var suffixes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// Normalize parses a token such as "1.2M", "-3.4%", "N/A" or ">0".
// It never fails: anything it cannot read is reported as missing.
func Normalize(token string) model.Value {
	s := strings.TrimSpace(strings.ReplaceAll(token, ",", ""))
	if isMissing(s) {
		return model.Missing()
	}
	if s == ">0" {
		return model.Num(GreaterThanZero)
	}

	s = strings.TrimSuffix(s, "%")
	mult := 1.0
	if n := len(s); n > 0 {
		if m, ok := suffixes[s[n-1]]; ok {
			mult = m
			s = s[:n-1]
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return model.Missing()
	}
	return model.Num(v * mult)
}

// isMissing matches "N/A" with trailing junk (the pages sometimes carry
// escaped newlines after it), "NaN", "-" and the empty string.
func isMissing(s string) bool {
	switch {
	case s == "", s == "-", s == "--":
		return true
	case strings.HasPrefix(s, "N/A"):
		return true
	case strings.EqualFold(s, "NaN"):
		return true
	}
	return false
}

// Format renders a value the way Normalize reads it back.
func Format(v model.Value) string {
	if !v.OK {
		return "N/A"
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}
