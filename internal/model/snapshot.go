package model

import (
	"math"
	"time"
)

// Snapshot is one point-in-time key statistics page for a ticker.
type Snapshot struct {
	Ticker    string
	Timestamp time.Time
	RawText   string
}

// Value is a parsed fundamental. OK is false when the value is missing.
type Value struct {
	V  float64
	OK bool
}

// Num wraps a present value.
func Num(v float64) Value { return Value{V: v, OK: true} }

// Missing returns the explicit missing marker.
func Missing() Value { return Value{} }

// Float returns the value, or NaN when missing.
func (v Value) Float() float64 {
	if !v.OK {
		return math.NaN()
	}
	return v.V
}

// FeatureVector holds one value per schema field, in schema order.
type FeatureVector struct {
	Names  []string
	Values []Value
}

// Len returns the number of fields.
func (fv FeatureVector) Len() int { return len(fv.Values) }

// Get returns the value for a field name.
func (fv FeatureVector) Get(name string) (Value, bool) {
	for i, n := range fv.Names {
		if n == name {
			return fv.Values[i], true
		}
	}
	return Value{}, false
}

// Complete reports whether every field is present.
func (fv FeatureVector) Complete() bool {
	for _, v := range fv.Values {
		if !v.OK {
			return false
		}
	}
	return true
}

// MissingCount returns how many fields are missing.
func (fv FeatureVector) MissingCount() int {
	n := 0
	for _, v := range fv.Values {
		if !v.OK {
			n++
		}
	}
	return n
}

// Floats returns the raw numbers, NaN for missing entries.
func (fv FeatureVector) Floats() []float64 {
	out := make([]float64, len(fv.Values))
	for i, v := range fv.Values {
		out[i] = v.Float()
	}
	return out
}
