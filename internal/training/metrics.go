package training

import (
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUC computes the ROC area under the curve for positive-class
// probabilities. Degenerate inputs, a validation set with only one class or
// no rows, score 0.0 rather than erroring, matching the pipeline's
// "unscorable candidate loses" behavior.
func AUC(probs []float64, y []int) float64 {
	if len(probs) == 0 || len(probs) != len(y) {
		return 0.0
	}

	var positives int
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	if positives == 0 || positives == len(y) {
		return 0.0
	}

	scores := append([]float64(nil), probs...)
	classes := make([]bool, len(y))
	for i, label := range y {
		classes[i] = label == 1
	}

	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Accuracy computes the fraction of correct predictions at the 0.5 cutoff.
func Accuracy(probs []float64, y []int) float64 {
	if len(probs) == 0 {
		return 0.0
	}
	var correct int
	for i, p := range probs {
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}
