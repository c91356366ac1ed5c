package training

import (
	"math/rand"
	"sort"
)

// Tree is a weighted regression tree in flat-array form so it serializes as
// plain JSON. Node i is a leaf when Feature[i] < 0, in which case Value[i]
// is its prediction; otherwise rows with x[Feature[i]] <= Threshold[i] go to
// Left[i] and the rest to Right[i].
//
// The same tree serves both ensembles: the forest fits it on 0/1 class
// targets with class weights, the booster on gradient/hessian ratios with
// hessian weights, which makes each leaf the Newton step for its region.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

// treeParams bound tree growth. maxDepth <= 0 means unbounded; maxFeatures
// <= 0 means consider every feature at each split.
type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
	maxThresholds  int
	rng            *rand.Rand
}

// maxThresholdsDefault caps candidate split points per feature. Scanning
// every unique value is quadratic on wide numeric columns; quantile-spaced
// candidates keep fitting near-linear with no measurable quality loss on
// tabular weather data.
const maxThresholdsDefault = 32

// fitTree grows a regression tree on the given rows minimizing weighted
// squared error.
func fitTree(x [][]float64, target, weight []float64, rows []int, p treeParams) *Tree {
	if p.maxThresholds <= 0 {
		p.maxThresholds = maxThresholdsDefault
	}
	t := &Tree{}
	t.grow(x, target, weight, rows, 0, p)
	return t
}

// grow appends a node for rows and returns its index.
func (t *Tree) grow(x [][]float64, target, weight []float64, rows []int, depth int, p treeParams) int {
	idx := len(t.Feature)
	t.Feature = append(t.Feature, -1)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, weightedMean(target, weight, rows))

	if p.maxDepth > 0 && depth >= p.maxDepth {
		return idx
	}
	if len(rows) < 2*p.minSamplesLeaf || len(rows) < 2 {
		return idx
	}

	feature, threshold, ok := bestSplit(x, target, weight, rows, p)
	if !ok {
		return idx
	}

	var left, right []int
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return idx
	}

	t.Feature[idx] = feature
	t.Threshold[idx] = threshold
	t.Left[idx] = t.grow(x, target, weight, left, depth+1, p)
	t.Right[idx] = t.grow(x, target, weight, right, depth+1, p)
	return idx
}

// bestSplit scans candidate features and thresholds for the largest weighted
// SSE reduction.
func bestSplit(x [][]float64, target, weight []float64, rows []int, p treeParams) (feature int, threshold float64, ok bool) {
	nFeatures := len(x[rows[0]])
	candidates := featureCandidates(nFeatures, p)

	var totalSum, totalW float64
	for _, r := range rows {
		totalSum += weight[r] * target[r]
		totalW += weight[r]
	}
	if totalW == 0 {
		return 0, 0, false
	}
	// Weighted SSE decomposes as sum(w*t^2) - sum(w*t)^2/sum(w). The first
	// term is identical for parent and children, so the gain of a split is
	// lsum^2/lw + rsum^2/rw - total^2/W.
	parentTerm := totalSum * totalSum / totalW
	bestGain := 1e-12

	for _, f := range candidates {
		for _, th := range thresholdCandidates(x, rows, f, p.maxThresholds) {
			var leftSum, leftW float64
			for _, r := range rows {
				if x[r][f] <= th {
					leftSum += weight[r] * target[r]
					leftW += weight[r]
				}
			}
			rightSum := totalSum - leftSum
			rightW := totalW - leftW
			if leftW == 0 || rightW == 0 {
				continue
			}

			gain := leftSum*leftSum/leftW + rightSum*rightSum/rightW - parentTerm
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = th
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func featureCandidates(nFeatures int, p treeParams) []int {
	all := make([]int, nFeatures)
	for i := range all {
		all[i] = i
	}
	if p.maxFeatures <= 0 || p.maxFeatures >= nFeatures || p.rng == nil {
		return all
	}
	p.rng.Shuffle(nFeatures, func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:p.maxFeatures]
}

// thresholdCandidates returns quantile-spaced midpoints over the sorted
// distinct values of one feature.
func thresholdCandidates(x [][]float64, rows []int, feature, maxThresholds int) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		values = append(values, x[r][feature])
	}
	sort.Float64s(values)

	distinct := values[:1]
	for _, v := range values[1:] {
		if v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	step := 1
	if len(distinct)-1 > maxThresholds {
		step = (len(distinct) - 1) / maxThresholds
	}
	var out []float64
	for i := 0; i+1 < len(distinct); i += step {
		out = append(out, (distinct[i]+distinct[i+1])/2)
	}
	return out
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(row []float64) float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

func weightedMean(target, weight []float64, rows []int) float64 {
	var sum, w float64
	for _, r := range rows {
		sum += weight[r] * target[r]
		w += weight[r]
	}
	if w == 0 {
		return 0
	}
	return sum / w
}
