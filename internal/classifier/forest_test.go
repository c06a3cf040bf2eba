package classifier

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable: the label is x0 >= 5, x1 is noise.
func separable() ([][]float64, []bool) {
	var X [][]float64
	var y []bool
	for i := 0; i < 40; i++ {
		x0 := float64(i % 10)
		X = append(X, []float64{x0, float64((i * 7) % 13)})
		y = append(y, x0 >= 5)
	}
	return X, y
}

// adjacentPair returns neighbouring floats above 1100 whose naive midpoint
// rounds up to the larger one.
func adjacentPair(t *testing.T) (float64, float64) {
	t.Helper()
	lo := 1100.0
	for i := 0; i < 100; i++ {
		hi := math.Nextafter(lo, math.Inf(1))
		if lo+(hi-lo)/2 == hi {
			return lo, hi
		}
		lo = hi
	}
	require.FailNow(t, "no adjacent pair with a rounding midpoint")
	return 0, 0
}

func TestRandomForest_SeparableData(t *testing.T) {
	X, y := separable()
	f := NewRandomForest(Options{Trees: 25, MaxFeatures: 2, Seed: 1})
	require.NoError(t, f.Fit(X, y))

	got, err := f.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, got)
}

func TestRandomForest_Deterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	var X [][]float64
	var y []bool
	for i := 0; i < 120; i++ {
		row := []float64{r.Float64(), r.Float64(), r.Float64(), r.Float64()}
		X = append(X, row)
		y = append(y, row[0]+r.Float64()*0.3 > 0.6)
	}

	proba := func(seed uint64) []float64 {
		f := NewRandomForest(Options{Trees: 30, Seed: seed})
		require.NoError(t, f.Fit(X, y))
		p, err := f.Proba(X)
		require.NoError(t, err)
		return p
	}
	assert.Equal(t, proba(42), proba(42))
}

func TestRandomForest_SingleClass(t *testing.T) {
	f := NewRandomForest(Options{Trees: 5})
	require.NoError(t, f.Fit([][]float64{{1}, {2}, {3}}, []bool{false, false, false}))

	got, err := f.Predict([][]float64{{10}, {-4}})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, got)
}

func TestRandomForest_AdjacentFloats(t *testing.T) {
	lo, hi := adjacentPair(t)
	X := [][]float64{{lo}, {hi}, {lo}, {hi}}
	y := []bool{false, true, false, true}

	f := NewRandomForest(Options{Trees: 25, Seed: 1})
	require.NoError(t, f.Fit(X, y))
	got, err := f.Predict([][]float64{{lo}, {hi}})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, got)
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, midpoint(1, 2))

	lo, hi := adjacentPair(t)
	m := midpoint(lo, hi)
	assert.GreaterOrEqual(t, m, lo)
	assert.Less(t, m, hi)
}

func newBuilder(X [][]float64, y []bool) *treeBuilder {
	return &treeBuilder{
		X:               X,
		y:               y,
		maxFeatures:     len(X[0]),
		minSamplesSplit: 2,
		rng:             rand.New(rand.NewPCG(1, 2)),
	}
}

func TestTreeBuilder_DegenerateSplits(t *testing.T) {
	t.Run("adjacent floats split at the lower value", func(t *testing.T) {
		lo, hi := adjacentPair(t)
		b := newBuilder([][]float64{{lo}, {hi}, {lo}, {hi}}, []bool{false, true, false, true})
		root := b.build([]int{0, 1, 2, 3}, 0)

		require.False(t, root.leaf())
		assert.Equal(t, lo, root.threshold)
		assert.Equal(t, 0.0, root.left.positive)
		assert.Equal(t, 1.0, root.right.positive)
	})

	t.Run("identical rows with opposite labels stay a leaf", func(t *testing.T) {
		b := newBuilder([][]float64{{3, 7}, {3, 7}, {3, 7}, {3, 7}}, []bool{true, false, true, false})
		root := b.build([]int{0, 1, 2, 3}, 0)

		assert.True(t, root.leaf())
		assert.Equal(t, 0.5, root.positive)
	})

	t.Run("empty index set", func(t *testing.T) {
		b := newBuilder([][]float64{{1}}, []bool{true})
		root := b.build(nil, 0)
		assert.True(t, root.leaf())
		assert.False(t, math.IsNaN(root.positive))
	})
}

func TestRandomForest_TiedRowsOppositeLabels(t *testing.T) {
	X := [][]float64{{3, 7}, {3, 7}, {3, 7}, {3, 7}, {3, 7}, {3, 7}}
	y := []bool{true, false, true, false, true, false}

	f := NewRandomForest(Options{Trees: 10, Seed: 3})
	require.NoError(t, f.Fit(X, y))
	p, err := f.Proba([][]float64{{3, 7}})
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.False(t, math.IsNaN(p[0]))
	assert.InDelta(t, 0.5, p[0], 0.5)
}

func TestRandomForest_Errors(t *testing.T) {
	f := NewRandomForest(Options{Trees: 3})

	_, err := f.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.ErrorIs(t, f.Fit(nil, nil), ErrEmptyTrainingSet)
	assert.ErrorIs(t, f.Fit([][]float64{{1}, {2}}, []bool{true}), ErrShapeMismatch)
	assert.ErrorIs(t, f.Fit([][]float64{{1, 2}, {2}}, []bool{true, false}), ErrShapeMismatch)

	require.NoError(t, f.Fit([][]float64{{1, 2}, {3, 4}}, []bool{true, false}))
	_, err = f.Predict([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
