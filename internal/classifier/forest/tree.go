package forest

import (
	"FlowSentinel/internal/model"
	"math/rand"
	"sort"
)

// builder grows a single CART tree with gini impurity.
type builder struct {
	x               [][]float64
	y               []int
	rng             *rand.Rand
	width           int
	maxFeatures     int
	maxDepth        int
	minSamplesSplit int
	nodes           []Node
}

// build appends the subtree for the given rows and returns its root index.
func (b *builder) build(rows []int, depth int) int {
	counts := b.classCounts(rows)
	node := Node{Feature: -1, Left: -1, Right: -1}
	for c := range counts {
		node.Proba[c] = float64(counts[c]) / float64(len(rows))
	}
	index := len(b.nodes)
	b.nodes = append(b.nodes, node)

	if isPure(counts) || len(rows) < b.minSamplesSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return index
	}

	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return index
	}

	var left, right []int
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[index].Feature = feature
	b.nodes[index].Threshold = threshold
	b.nodes[index].Left = l
	b.nodes[index].Right = r
	return index
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted gini impurity. Constant features do not count towards the
// subset, so a node only stays a leaf when no feature can separate its rows.
func (b *builder) bestSplit(rows []int) (int, float64, bool) {
	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := 0.0
	evaluated := 0

	sorted := make([]int, len(rows))
	for _, feature := range b.rng.Perm(b.width) {
		if evaluated >= b.maxFeatures {
			break
		}
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][feature] < b.x[sorted[j]][feature]
		})
		if b.x[sorted[0]][feature] == b.x[sorted[len(sorted)-1]][feature] {
			continue
		}
		evaluated++

		total := b.classCounts(sorted)
		var left [model.NumClasses]int
		n := len(sorted)
		for k := 0; k < n-1; k++ {
			left[b.y[sorted[k]]]++
			v, next := b.x[sorted[k]][feature], b.x[sorted[k+1]][feature]
			if v == next {
				continue
			}
			var right [model.NumClasses]int
			for c := range right {
				right[c] = total[c] - left[c]
			}
			nl, nr := k+1, n-k-1
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if bestFeature < 0 || impurity < bestImpurity {
				bestFeature = feature
				bestImpurity = impurity
				bestThreshold = v + (next-v)/2
				if bestThreshold >= next {
					bestThreshold = v
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *builder) classCounts(rows []int) [model.NumClasses]int {
	var counts [model.NumClasses]int
	for _, r := range rows {
		counts[b.y[r]]++
	}
	return counts
}

func isPure(counts [model.NumClasses]int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func gini(counts [model.NumClasses]int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}
