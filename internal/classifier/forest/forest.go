// Package forest implements a random forest of CART trees.
package forest

import (
	"FlowSentinel/internal/classifier"
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/factory"
	"FlowSentinel/internal/model"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
)

// Name is the registered classifier type.
const Name = "forest"

const (
	defaultNumTrees        = 100
	defaultMinSamplesSplit = 2
)

func init() {
	gob.Register(&Model{})
	factory.RegisterClassifier(Name, func(cfg config.ClassifierConfig) (model.Classifier, error) {
		return New(cfg.NumTrees, cfg.MaxDepth, cfg.MinSamplesSplit, cfg.Seed), nil
	})
}

// Node is a tree node. Leaves have Left == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Proba     [model.NumClasses]float64
}

// Tree is a flattened binary decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node
}

// Model is the trained forest. It implements model.ModelHandle.
type Model struct {
	Trees       []Tree
	NumFeatures int
}

// Algorithm returns the classifier type that produced the model.
func (m *Model) Algorithm() string {
	return Name
}

// Validate checks the tree layout so a corrupt model fails on load instead of
// panicking on the first prediction. Children always follow their parent.
func (m *Model) Validate() error {
	if m.NumFeatures <= 0 {
		return fmt.Errorf("forest model has %d features", m.NumFeatures)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("forest model has no trees")
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("forest tree %d has no nodes", t)
		}
		for i, node := range tree.Nodes {
			if node.Left < 0 {
				continue
			}
			if node.Left <= i || node.Left >= len(tree.Nodes) || node.Right <= i || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("forest tree %d node %d has invalid children %d/%d", t, i, node.Left, node.Right)
			}
			if node.Feature < 0 || node.Feature >= m.NumFeatures {
				return fmt.Errorf("forest tree %d node %d splits on feature %d", t, i, node.Feature)
			}
		}
	}
	return nil
}

// Forest fits and evaluates random forests.
type Forest struct {
	numTrees        int
	maxDepth        int
	minSamplesSplit int
	seed            int64
}

// New creates a forest classifier. Zero values select the defaults; a
// maxDepth of 0 grows trees until leaves are pure.
func New(numTrees, maxDepth, minSamplesSplit int, seed int64) *Forest {
	if numTrees <= 0 {
		numTrees = defaultNumTrees
	}
	if minSamplesSplit < 2 {
		minSamplesSplit = defaultMinSamplesSplit
	}
	return &Forest{
		numTrees:        numTrees,
		maxDepth:        maxDepth,
		minSamplesSplit: minSamplesSplit,
		seed:            seed,
	}
}

// Name returns the classifier type.
func (f *Forest) Name() string {
	return Name
}

// Fit grows every tree on a bootstrap sample of the rows.
func (f *Forest) Fit(features [][]float64, labels []int) (model.ModelHandle, error) {
	width, err := classifier.ValidateTrainingSet(features, labels)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(f.seed))
	maxFeatures := int(math.Sqrt(float64(width)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	n := len(features)
	m := &Model{Trees: make([]Tree, f.numTrees), NumFeatures: width}
	for t := 0; t < f.numTrees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		b := &builder{
			x:               features,
			y:               labels,
			rng:             rng,
			width:           width,
			maxFeatures:     maxFeatures,
			maxDepth:        f.maxDepth,
			minSamplesSplit: f.minSamplesSplit,
		}
		b.build(sample, 0)
		m.Trees[t] = Tree{Nodes: b.nodes}
	}
	return m, nil
}

// Predict averages the leaf class distributions of all trees.
func (f *Forest) Predict(handle model.ModelHandle, vector []float64) (int, []float64, error) {
	m, ok := handle.(*Model)
	if !ok {
		return 0, nil, fmt.Errorf("forest cannot use a %T model", handle)
	}
	if err := classifier.ValidateVector(vector, m.NumFeatures); err != nil {
		return 0, nil, err
	}
	if len(m.Trees) == 0 {
		return 0, nil, fmt.Errorf("forest model has no trees")
	}

	proba := make([]float64, model.NumClasses)
	for i, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return 0, nil, fmt.Errorf("forest tree %d has no nodes", i)
		}
		leaf := tree.leaf(vector)
		for c := range proba {
			proba[c] += leaf.Proba[c]
		}
	}
	for c := range proba {
		proba[c] /= float64(len(m.Trees))
	}
	return classifier.Argmax(proba), proba, nil
}

func (t Tree) leaf(vector []float64) Node {
	i := 0
	for t.Nodes[i].Left >= 0 {
		node := t.Nodes[i]
		if vector[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
	return t.Nodes[i]
}
