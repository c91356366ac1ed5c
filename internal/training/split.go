package training

import (
	"math"
	"math/rand"
)

// StratifiedSplit partitions rows into train and validation sets preserving
// the class balance: each class is shuffled and split independently, so a
// rare class cannot vanish from the validation set by chance.
func StratifiedSplit(x [][]float64, y []int, testFraction float64, seed int64) (trainX, valX [][]float64, trainY, valY []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	var classes []int
	for i, label := range y {
		if _, seen := byClass[label]; !seen {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}

	for _, label := range classes {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})

		nVal := int(math.Round(float64(len(idx)) * testFraction))
		if nVal >= len(idx) {
			nVal = len(idx) - 1
		}
		if nVal < 0 {
			nVal = 0
		}

		for k, i := range idx {
			if k < nVal {
				valX = append(valX, x[i])
				valY = append(valY, y[i])
			} else {
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
			}
		}
	}
	return trainX, valX, trainY, valY
}
