package training

import (
	"math"
	"sort"
)

// Preprocessor imputes missing values with the training median and
// standardizes each feature. Fit statistics come from the training split
// only; applying them to validation data is the whole point of keeping the
// two steps separate.
type Preprocessor struct {
	Medians []float64 `json:"medians"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
}

// FitPreprocessor computes per-feature medians (over non-missing values) and
// post-imputation means and standard deviations from the training matrix.
func FitPreprocessor(x [][]float64) *Preprocessor {
	if len(x) == 0 {
		return &Preprocessor{}
	}
	d := len(x[0])
	p := &Preprocessor{
		Medians: make([]float64, d),
		Means:   make([]float64, d),
		Stds:    make([]float64, d),
	}

	for j := 0; j < d; j++ {
		var present []float64
		for _, row := range x {
			if !math.IsNaN(row[j]) {
				present = append(present, row[j])
			}
		}
		p.Medians[j] = median(present)

		var sum float64
		for _, row := range x {
			v := row[j]
			if math.IsNaN(v) {
				v = p.Medians[j]
			}
			sum += v
		}
		mean := sum / float64(len(x))

		var sq float64
		for _, row := range x {
			v := row[j]
			if math.IsNaN(v) {
				v = p.Medians[j]
			}
			sq += (v - mean) * (v - mean)
		}
		std := math.Sqrt(sq / float64(len(x)))
		if std == 0 {
			std = 1
		}

		p.Means[j] = mean
		p.Stds[j] = std
	}
	return p
}

// Transform returns a new matrix with missing values imputed and features
// standardized.
func (p *Preprocessor) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = p.TransformRow(row)
	}
	return out
}

// TransformRow transforms a single feature vector.
func (p *Preprocessor) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) {
			v = p.Medians[j]
		}
		out[j] = (v - p.Means[j]) / p.Stds[j]
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
