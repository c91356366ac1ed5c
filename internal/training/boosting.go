package training

import (
	"math"
	"math/rand"
)

const (
	boostingRounds         = 100
	boostingLearningRate   = 0.1
	boostingMaxDepth       = 6
	boostingMinSamplesLeaf = 20
)

// Boosting is a gradient-boosted tree ensemble with logistic loss. The score
// is additive in log-odds space starting from the class prior.
type Boosting struct {
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []*Tree `json:"trees"`
}

// FitBoosting trains the booster with second-order (Newton) updates: each
// round fits a tree to gradient/hessian ratios weighted by the hessians, so
// leaf values come out as sum(grad)/sum(hess) for their region.
func FitBoosting(x [][]float64, y []int, seed int64) *Boosting {
	n := len(x)
	b := &Boosting{LearningRate: boostingLearningRate}
	if n == 0 {
		return b
	}

	var positives float64
	for _, label := range y {
		positives += float64(label)
	}
	prior := positives / float64(n)
	// Clamp so a single-class target keeps the log-odds finite.
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)
	b.BaseScore = math.Log(prior / (1 - prior))

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	score := make([]float64, n)
	for i := range score {
		score[i] = b.BaseScore
	}

	target := make([]float64, n)
	hessian := make([]float64, n)
	rng := rand.New(rand.NewSource(seed))

	for round := 0; round < boostingRounds; round++ {
		for i := range x {
			p := sigmoid(score[i])
			grad := float64(y[i]) - p
			hess := math.Max(p*(1-p), 1e-6)
			target[i] = grad / hess
			hessian[i] = hess
		}

		tree := fitTree(x, target, hessian, rows, treeParams{
			maxDepth:       boostingMaxDepth,
			minSamplesLeaf: boostingMinSamplesLeaf,
			rng:            rng,
		})
		b.Trees = append(b.Trees, tree)

		for i := range x {
			score[i] += b.LearningRate * tree.Predict(x[i])
		}
	}
	return b
}

// PredictProba returns the positive-class probability for one standardized
// feature vector.
func (b *Boosting) PredictProba(row []float64) float64 {
	score := b.BaseScore
	for _, t := range b.Trees {
		score += b.LearningRate * t.Predict(row)
	}
	return sigmoid(score)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
