package training

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableCSV builds a dataset where high humidity and cloud cover imply
// rain, so any reasonable model separates it.
func separableCSV(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Temperature,Humidity,Wind_Speed,Cloud_Cover,Rain\n")
	for i := 0; i < rows; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d,%d,%d,%d,rain\n", 22+i%5, 80+i%15, 5+i%8, 85+i%12)
		} else {
			fmt.Fprintf(&b, "%d,%d,%d,%d,no rain\n", 30+i%6, 20+i%15, 10+i%8, 10+i%12)
		}
	}
	return writeCSV(t, b.String())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTrain_EndToEnd(t *testing.T) {
	dataPath := separableCSV(t, 120)
	outPath := filepath.Join(t.TempDir(), "rainfall_model.pkl")

	result, err := Train(context.Background(), Options{
		DataPath:     dataPath,
		OutPath:      outPath,
		TestFraction: 0.2,
	}, discardLogger())
	require.NoError(t, err)

	assert.Contains(t, []string{ModelHistGB, ModelRandomForest}, result.SelectedModel)
	assert.Greater(t, result.BestAUC, 0.9)
	assert.Equal(t, []string{"Temperature", "Humidity", "Wind_Speed", "Cloud_Cover"}, result.FeatureColumns)
	assert.Equal(t, 120, result.RowCount)
	assert.Len(t, result.Validation, 2)

	// Gzip magic bytes at the destination path.
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, byte(0x1f), raw[0])
	assert.Equal(t, byte(0x8b), raw[1])

	bundle, err := LoadBundle(outPath)
	require.NoError(t, err)
	assert.Equal(t, result.SelectedModel, bundle.Meta.SelectedModel)
	assert.Equal(t, result.FeatureColumns, bundle.FeatureColumns)
	assert.Equal(t, map[string]int{"rain": 1, "no rain": 0}, bundle.Meta.TargetMapping)

	// The loaded pipeline separates obvious cases.
	rainy := bundle.Pipeline.PredictProba([]float64{22, 90, 6, 95})
	dry := bundle.Pipeline.PredictProba([]float64{33, 20, 12, 10})
	assert.Greater(t, rainy, dry)
}

func TestTrain_TieBreakPrefersFirstCandidate(t *testing.T) {
	// One positive row among five: the singleton class stays entirely in the
	// training split, the validation set is single-class, both candidates
	// score a degenerate 0.0 AUC, and the first candidate wins the tie.
	csv := "Humidity,Rain\n90,rain\n20,no rain\n25,no rain\n30,no rain\n35,no rain\n"
	dataPath := writeCSV(t, csv)
	outPath := filepath.Join(t.TempDir(), "model.pkl")

	result, err := Train(context.Background(), Options{
		DataPath: dataPath,
		OutPath:  outPath,
	}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.BestAUC)
	assert.Equal(t, ModelHistGB, result.SelectedModel)
}

func TestTrain_MissingFileIsFatal(t *testing.T) {
	_, err := Train(context.Background(), Options{
		DataPath: filepath.Join(t.TempDir(), "absent.csv"),
		OutPath:  filepath.Join(t.TempDir(), "model.pkl"),
	}, discardLogger())
	require.Error(t, err)
}

func TestTrain_NoTargetColumn(t *testing.T) {
	dataPath := writeCSV(t, "Humidity,Cloud\n80,90\n")
	_, err := Train(context.Background(), Options{
		DataPath: dataPath,
		OutPath:  filepath.Join(t.TempDir(), "model.pkl"),
	}, discardLogger())
	require.Error(t, err)
}

// --- Bundle ---

func TestBundle_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.pkl")
	bundle := &Bundle{
		Pipeline: Pipeline{
			Preprocessor: &Preprocessor{Medians: []float64{1}, Means: []float64{1}, Stds: []float64{1}},
			ModelType:    ModelHistGB,
			Boosting:     &Boosting{BaseScore: 0.3, LearningRate: 0.1},
		},
		FeatureColumns: []string{"Humidity"},
		Meta: Meta{
			TrainedAt:     "2026-03-04T08:45:00Z",
			SelectedModel: ModelHistGB,
		},
	}
	require.NoError(t, bundle.Save(path))

	loaded, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, bundle.FeatureColumns, loaded.FeatureColumns)
	assert.Equal(t, bundle.Meta.SelectedModel, loaded.Meta.SelectedModel)
	assert.Equal(t, bundle.Pipeline.ModelType, loaded.Pipeline.ModelType)
	assert.Equal(t, bundle.Pipeline.Boosting.BaseScore, loaded.Pipeline.Boosting.BaseScore)
}

func TestBundle_SaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.pkl")
	bundle := &Bundle{Pipeline: Pipeline{Preprocessor: &Preprocessor{}, ModelType: ModelHistGB, Boosting: &Boosting{}}}
	require.NoError(t, bundle.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bundle.pkl", entries[0].Name())
}

// --- Models ---

func TestFitForest_SeparatesClasses(t *testing.T) {
	var x [][]float64
	var y []int
	for i := 0; i < 30; i++ {
		x = append(x, []float64{float64(i % 10)})
		y = append(y, 0)
		x = append(x, []float64{float64(50 + i%10)})
		y = append(y, 1)
	}

	forest, err := FitForest(context.Background(), x, y, 42)
	require.NoError(t, err)
	require.Len(t, forest.Trees, forestTrees)

	assert.Less(t, forest.PredictProba([]float64{2}), 0.3)
	assert.Greater(t, forest.PredictProba([]float64{55}), 0.7)
}

func TestFitBoosting_SeparatesClasses(t *testing.T) {
	var x [][]float64
	var y []int
	for i := 0; i < 60; i++ {
		x = append(x, []float64{float64(i % 20)})
		y = append(y, 0)
		x = append(x, []float64{float64(50 + i%20)})
		y = append(y, 1)
	}

	b := FitBoosting(x, y, 42)
	require.Len(t, b.Trees, boostingRounds)

	assert.Less(t, b.PredictProba([]float64{5}), 0.2)
	assert.Greater(t, b.PredictProba([]float64{60}), 0.8)
}

func TestFitBoosting_SingleClassStaysFinite(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []int{1, 1, 1}

	b := FitBoosting(x, y, 42)
	p := b.PredictProba([]float64{2})
	assert.False(t, p < 0 || p > 1 || p != p)
	assert.Greater(t, p, 0.9)
}
