package classifier

import "fmt"

// leaf marks a Node without children.
const leaf = -1

// Node is one entry of a Tree arena. Samples with x[Feature] <= Threshold go
// to Left, the rest to Right.
type Node struct {
	Feature   int32
	Threshold float64
	Left      int32
	Right     int32
	Value     float64
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Feature == leaf
}

// Tree is a decision tree stored as an arena; Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

func (t *Tree) probability(x []float64) float64 {
	i := int32(0)
	for {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is an ensemble of trees voting by averaged leaf probability.
type Forest struct {
	Width int
	Trees []Tree
}

// PredictScaled returns the mean phishing probability over all trees for an
// already-scaled input.
func (f *Forest) PredictScaled(x []float64) (float64, error) {
	if len(x) != f.Width {
		return 0, fmt.Errorf("%w: got %d, forest has %d", ErrDimensionMismatch, len(x), f.Width)
	}
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("%w: no trees", ErrMalformedForest)
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].probability(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// NodeCount returns the total number of nodes across all trees.
func (f *Forest) NodeCount() int {
	n := 0
	for i := range f.Trees {
		n += len(f.Trees[i].Nodes)
	}
	return n
}

// Validate checks that every tree is well formed: features are within the
// forest width and each child index points forward into the arena, which
// also rules out cycles.
func (f *Forest) Validate() error {
	if f.Width <= 0 {
		return fmt.Errorf("%w: width %d", ErrMalformedForest, f.Width)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrMalformedForest)
	}
	for ti := range f.Trees {
		nodes := f.Trees[ti].Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrMalformedForest, ti)
		}
		size := int32(len(nodes))
		for ni, n := range nodes {
			if n.IsLeaf() {
				if n.Value < 0 || n.Value > 1 {
					return fmt.Errorf("%w: tree %d node %d has probability %v", ErrMalformedForest, ti, ni, n.Value)
				}
				continue
			}
			if n.Feature < 0 || int(n.Feature) >= f.Width {
				return fmt.Errorf("%w: tree %d node %d uses feature %d", ErrMalformedForest, ti, ni, n.Feature)
			}
			self := int32(ni)
			if n.Left <= self || n.Left >= size || n.Right <= self || n.Right >= size {
				return fmt.Errorf("%w: tree %d node %d has children %d/%d", ErrMalformedForest, ti, ni, n.Left, n.Right)
			}
		}
	}
	return nil
}
