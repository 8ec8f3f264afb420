package classifier

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/phishguard/internal/features"
)

// Sample is one labeled training example.
type Sample struct {
	Features features.Vector
	Phishing bool
}

// TrainOptions controls forest training.
type TrainOptions struct {
	// Trees is the number of trees in the forest.
	Trees int
	// MaxDepth limits tree depth; the root is depth 0. Zero means unlimited.
	MaxDepth int
	// MinSamplesSplit is the smallest node that may be split.
	MinSamplesSplit int
	// MinSamplesLeaf is the smallest node a split may produce.
	MinSamplesLeaf int
	// MaxFeatures is the number of candidate features per split. Zero means
	// floor(sqrt(width)).
	MaxFeatures int
	// Seed makes training reproducible.
	Seed uint64
	// Workers bounds the number of trees built concurrently. Zero means
	// GOMAXPROCS.
	Workers int
}

// DefaultTrainOptions returns the production training parameters.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Trees:           200,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

func (o TrainOptions) validate() error {
	switch {
	case o.Trees <= 0:
		return fmt.Errorf("%w: trees must be positive", ErrInvalidTrainOptions)
	case o.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must be non-negative", ErrInvalidTrainOptions)
	case o.MinSamplesSplit < 2:
		return fmt.Errorf("%w: min samples split must be at least 2", ErrInvalidTrainOptions)
	case o.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min samples leaf must be positive", ErrInvalidTrainOptions)
	case o.MaxFeatures < 0:
		return fmt.Errorf("%w: max features must be non-negative", ErrInvalidTrainOptions)
	}
	return nil
}

// Train fits a scaler and a random forest on samples.
//
// Each tree is grown with CART on a bootstrap sample using Gini impurity
// and balanced class weights. Tree i draws from a PCG source seeded with
// (Seed, i), so the result is identical for a fixed seed regardless of how
// many trees are built concurrently.
func Train(ctx context.Context, samples []Sample, opts TrainOptions) (*Model, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var phishing int
	rows := make([][]float64, len(samples))
	labels := make([]bool, len(samples))
	for i, s := range samples {
		rows[i] = s.Features.Slice()
		labels[i] = s.Phishing
		if s.Phishing {
			phishing++
		}
	}
	legit := len(samples) - phishing
	if phishing == 0 || legit == 0 {
		return nil, fmt.Errorf("%w: %d phishing, %d legitimate", ErrInsufficientSamples, phishing, legit)
	}

	scaler, err := FitScaler(rows)
	if err != nil {
		return nil, err
	}
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		if scaled[i], err = scaler.Transform(row); err != nil {
			return nil, err
		}
	}

	// Balanced weights: n / (classes * count(class)).
	n := float64(len(samples))
	weights := make([]float64, len(samples))
	for i, p := range labels {
		if p {
			weights[i] = n / (2 * float64(phishing))
		} else {
			weights[i] = n / (2 * float64(legit))
		}
	}

	width := scaler.Width()
	maxFeatures := opts.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}
	maxFeatures = min(maxFeatures, width)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]Tree, opts.Trees)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range trees {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			b := &treeBuilder{
				x:           scaled,
				y:           labels,
				w:           weights,
				opts:        opts,
				maxFeatures: maxFeatures,
				width:       width,
				rng:         rand.New(rand.NewPCG(opts.Seed, uint64(i))),
			}
			trees[i] = b.grow()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("training interrupted: %w", err)
	}

	return NewModel(scaler, &Forest{Width: width, Trees: trees})
}

// treeBuilder grows a single tree. It is not safe for concurrent use.
type treeBuilder struct {
	x           [][]float64
	y           []bool
	w           []float64
	opts        TrainOptions
	maxFeatures int
	width       int
	rng         *rand.Rand
	nodes       []Node
	order       []int
}

func (b *treeBuilder) grow() Tree {
	n := len(b.x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = b.rng.IntN(n)
	}
	b.order = make([]int, n)
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

// build appends the subtree for idx and returns the index of its root.
func (b *treeBuilder) build(idx []int, depth int) int32 {
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Feature: leaf, Left: leaf, Right: leaf})

	wp, wl := b.classWeights(idx)
	b.nodes[id].Value = wp / (wp + wl)

	if (b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) ||
		len(idx) < b.opts.MinSamplesSplit ||
		len(idx) < 2*b.opts.MinSamplesLeaf ||
		wp == 0 || wl == 0 {
		return id
	}

	feature, thr, ok := b.bestSplit(idx, wp, wl)
	if !ok {
		return id
	}

	k := partition(idx, func(i int) bool { return b.x[i][feature] <= thr })
	left := b.build(idx[:k], depth+1)
	right := b.build(idx[k:], depth+1)

	node := &b.nodes[id]
	node.Feature = int32(feature)
	node.Threshold = thr
	node.Left = left
	node.Right = right
	return id
}

func (b *treeBuilder) classWeights(idx []int) (phishing, legit float64) {
	for _, i := range idx {
		if b.y[i] {
			phishing += b.w[i]
		} else {
			legit += b.w[i]
		}
	}
	return phishing, legit
}

// bestSplit searches candidate features in random order until maxFeatures
// non-constant features have been evaluated and returns the split with the
// lowest weighted Gini impurity.
func (b *treeBuilder) bestSplit(idx []int, wp, wl float64) (int, float64, bool) {
	order := b.order[:len(idx)]
	minLeaf := b.opts.MinSamplesLeaf

	bestFeature, bestThr := -1, 0.0
	bestScore := math.Inf(1)
	evaluated := 0

	for _, f := range b.rng.Perm(b.width) {
		if evaluated >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		copy(order, idx)
		slices.SortFunc(order, func(i, j int) int {
			return cmp.Compare(b.x[i][f], b.x[j][f])
		})
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}
		evaluated++

		var lp, ll float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			if b.y[i] {
				lp += b.w[i]
			} else {
				ll += b.w[i]
			}
			lo, hi := b.x[i][f], b.x[order[k+1]][f]
			if lo == hi {
				continue
			}
			nl := k + 1
			if nl < minLeaf || len(order)-nl < minLeaf {
				continue
			}
			score := weightedGini(lp, ll) + weightedGini(wp-lp, wl-ll)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThr = lo + (hi-lo)/2
				if bestThr >= hi {
					bestThr = lo
				}
			}
		}
	}
	return bestFeature, bestThr, bestFeature >= 0
}

// weightedGini returns the Gini impurity of a node scaled by its weight.
func weightedGini(a, b float64) float64 {
	total := a + b
	if total <= 0 {
		return 0
	}
	return total - (a*a+b*b)/total
}

// partition reorders idx so elements satisfying left come first and returns
// their count.
func partition(idx []int, left func(int) bool) int {
	k := 0
	for i, v := range idx {
		if left(v) {
			idx[i], idx[k] = idx[k], idx[i]
			k++
		}
	}
	return k
}
