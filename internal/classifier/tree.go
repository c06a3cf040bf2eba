package classifier

import (
	"math/rand/v2"
	"sort"
)

// node is either a split (left/right set) or a leaf holding the fraction of
// positive training samples that reached it.
type node struct {
	feature     int
	threshold   float64
	left, right *node
	positive    float64
}

func (n *node) leaf() bool { return n.left == nil }

// predict walks to a leaf. Values <= threshold go left; NaN goes right.
func (n *node) predict(x []float64) float64 {
	for !n.leaf() {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.positive
}

type treeBuilder struct {
	X               [][]float64
	y               []bool
	maxFeatures     int
	maxDepth        int
	minSamplesSplit int
	rng             *rand.Rand
}

func countPositive(y []bool, idx []int) int {
	p := 0
	for _, i := range idx {
		if y[i] {
			p++
		}
	}
	return p
}

// gini returns the unnormalised gini impurity n*(1 - p^2 - q^2).
func gini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	fn, fp := float64(n), float64(pos)
	fq := fn - fp
	return fn - (fp*fp+fq*fq)/fn
}

func (b *treeBuilder) build(idx []int, depth int) *node {
	if len(idx) == 0 {
		return &node{}
	}
	pos := countPositive(b.y, idx)
	leaf := &node{positive: float64(pos) / float64(len(idx))}
	if pos == 0 || pos == len(idx) || len(idx) < b.minSamplesSplit {
		return leaf
	}
	if b.maxDepth > 0 && depth >= b.maxDepth {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return leaf
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// bestSplit searches a random subset of features for the threshold with
// the lowest weighted gini. A split must strictly reduce impurity.
func (b *treeBuilder) bestSplit(idx []int, pos int) (int, float64, bool) {
	n := len(idx)
	best := gini(n, pos)
	bestFeature, bestThreshold, found := -1, 0.0, false

	width := len(b.X[idx[0]])
	candidates := b.rng.Perm(width)[:b.maxFeatures]
	sorted := make([]int, n)
	for _, f := range candidates {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })

		leftPos := 0
		for k := 1; k < n; k++ {
			if b.y[sorted[k-1]] {
				leftPos++
			}
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo == hi {
				continue
			}
			score := gini(k, leftPos) + gini(n-k, pos-leftPos)
			if score < best-1e-12 {
				best = score
				bestFeature = f
				bestThreshold = midpoint(lo, hi)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// midpoint returns a threshold t with lo <= t < hi. For adjacent floats the
// halfway point can round up to hi, in which case lo is used.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t >= hi {
		return lo
	}
	return t
}
