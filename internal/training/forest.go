package training

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

const forestTrees = 200

// Forest is a bagged ensemble of regression trees over 0/1 class targets;
// the averaged leaf values are class probabilities.
type Forest struct {
	Trees []*Tree `json:"trees"`
}

// FitForest trains a random forest: bootstrap row sampling, sqrt-feature
// splits, and class-balanced sample weights so a skewed rain/no-rain ratio
// does not drown the minority class. Trees fit in parallel; each tree seeds
// its own generator from the base seed so results are reproducible
// regardless of scheduling.
func FitForest(ctx context.Context, x [][]float64, y []int, seed int64) (*Forest, error) {
	n := len(x)
	if n == 0 {
		return &Forest{}, nil
	}

	weights := balancedWeights(y)
	target := make([]float64, n)
	for i, label := range y {
		target[i] = float64(label)
	}
	maxFeatures := int(math.Sqrt(float64(len(x[0]))))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	forest := &Forest{Trees: make([]*Tree, forestTrees)}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for t := 0; t < forestTrees; t++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(t)))

			rows := make([]int, n)
			for i := range rows {
				rows[i] = rng.Intn(n)
			}

			forest.Trees[t] = fitTree(x, target, weights, rows, treeParams{
				minSamplesLeaf: 1,
				maxFeatures:    maxFeatures,
				rng:            rng,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}

// PredictProba returns the positive-class probability for one standardized
// feature vector.
func (f *Forest) PredictProba(row []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(row)
	}
	p := sum / float64(len(f.Trees))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// balancedWeights gives each class total weight n/2, mirroring
// class_weight="balanced".
func balancedWeights(y []int) []float64 {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	weights := make([]float64, len(y))
	for i, label := range y {
		weights[i] = float64(len(y)) / (float64(len(counts)) * float64(counts[label]))
	}
	return weights
}
