package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTrees           = 100
	DefaultMinSamplesSplit = 2
)

// Options configures a RandomForest. Zero values pick the defaults;
// MaxFeatures 0 means floor(sqrt(features)) and MaxDepth 0 means unlimited.
type Options struct {
	Trees           int
	MaxFeatures     int
	MinSamplesSplit int
	MaxDepth        int
	Seed            uint64
}

// RandomForest is a bagged ensemble of gini CART trees. Two forests fitted
// with the same Options on the same data predict identically.
type RandomForest struct {
	opts  Options
	trees []*node
	width int
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(opts Options) *RandomForest {
	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = DefaultMinSamplesSplit
	}
	return &RandomForest{opts: opts}
}

// Fit grows the trees in parallel. Each tree draws its bootstrap sample and
// feature subsets from its own generator, seeded up front from opts.Seed.
func (f *RandomForest) Fit(X [][]float64, y []bool) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("%d rows but %d labels: %w", len(X), len(y), ErrShapeMismatch)
	}
	width, err := checkMatrix(X)
	if err != nil {
		return err
	}
	if width == 0 {
		return fmt.Errorf("no features: %w", ErrShapeMismatch)
	}

	maxFeatures := f.opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(width)))
	}
	maxFeatures = max(1, min(maxFeatures, width))

	seeder := rand.New(rand.NewPCG(f.opts.Seed, f.opts.Seed^0x9e3779b97f4a7c15))
	seeds := make([]uint64, f.opts.Trees)
	for i := range seeds {
		seeds[i] = seeder.Uint64()
	}

	trees := make([]*node, f.opts.Trees)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			sample := make([]int, len(X))
			for k := range sample {
				sample[k] = rng.IntN(len(X))
			}
			b := &treeBuilder{
				X:               X,
				y:               y,
				maxFeatures:     maxFeatures,
				maxDepth:        f.opts.MaxDepth,
				minSamplesSplit: f.opts.MinSamplesSplit,
				rng:             rng,
			}
			trees[i] = b.build(sample, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.width = width
	return nil
}

// Proba returns the mean positive-class probability across trees.
func (f *RandomForest) Proba(X [][]float64) ([]float64, error) {
	if f.trees == nil {
		return nil, ErrNotFitted
	}
	width, err := checkMatrix(X)
	if err != nil {
		return nil, err
	}
	if len(X) > 0 && width != f.width {
		return nil, fmt.Errorf("got %d features, fitted on %d: %w", width, f.width, ErrShapeMismatch)
	}
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, t := range f.trees {
			sum += t.predict(x)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

// Predict labels a row positive when more than half the probability mass
// says so. Ties go negative.
func (f *RandomForest) Predict(X [][]float64) ([]bool, error) {
	p, err := f.Proba(X)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(p))
	for i, v := range p {
		out[i] = v > 0.5
	}
	return out, nil
}
