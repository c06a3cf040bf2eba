// Package classifier holds the binary classifiers used to flag likely
// outperformers.
package classifier

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrNotFitted        = errors.New("classifier not fitted")
)

// Classifier learns from a feature matrix and boolean labels.
type Classifier interface {
	Fit(X [][]float64, y []bool) error
	Predict(X [][]float64) ([]bool, error)
}

// checkMatrix verifies X is rectangular and returns its width.
func checkMatrix(X [][]float64) (int, error) {
	if len(X) == 0 {
		return 0, nil
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("row %d has %d features, want %d: %w", i, len(row), width, ErrShapeMismatch)
		}
	}
	return width, nil
}
