package training

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"damwatch/internal/types"
)

// Model names as they appear in bundle metadata.
const (
	ModelHistGB       = "HistGB"
	ModelRandomForest = "RandomForest"
)

// randomState seeds every stochastic step of the pipeline.
const randomState = 42

// Options configure one training run.
type Options struct {
	DataPath     string
	OutPath      string
	TestFraction float64
}

// Result summarizes a completed training run.
type Result struct {
	SelectedModel  string
	BestAUC        float64
	Validation     map[string]Scores
	FeatureColumns []string
	RowCount       int
	TrainRows      int
	ValRows        int
}

// targetCandidates are matched exactly against lowercased column names, in
// order, before falling back to a substring scan.
var targetCandidates = []string{
	"rainfall_percent", "rain_percent", "rainfall", "rain", "precipitation", "precip",
}

// findTargetColumn locates the label column.
func findTargetColumn(columns []string) (string, error) {
	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}
	for _, candidate := range targetCandidates {
		for i, lc := range lower {
			if lc == candidate {
				return columns[i], nil
			}
		}
	}
	for i, lc := range lower {
		if strings.Contains(lc, "rain") || strings.Contains(lc, "precip") {
			return columns[i], nil
		}
	}
	return "", types.NewAppError(types.ErrCodeDataTargetNotFound,
		"target column not found; ensure the csv has a rain or precipitation column", nil)
}

// Train runs the full pipeline: load, normalize, select features, split,
// preprocess, fit both candidates, pick by validation AUC, and write the
// bundle. The bundle is assembled only after both candidates finish, so a
// fit failure never leaves a partially trained artifact.
func Train(ctx context.Context, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		opts.TestFraction = 0.2
	}

	table, err := LoadCSV(opts.DataPath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded training data", "rows", len(table.Rows), "columns", table.Columns)

	targetCol, err := findTargetColumn(table.Columns)
	if err != nil {
		return nil, err
	}
	logger.Info("using target column", "column", targetCol)

	targetCells, _ := table.Column(targetCol)
	labels, mapping, valid := NormalizeTarget(targetCells)

	featureColumns, err := SelectFeatures(table, targetCol)
	if err != nil {
		return nil, err
	}
	logger.Info("selected features", "columns", featureColumns)

	x, y := assembleMatrix(table, featureColumns, labels, valid)
	if len(x) == 0 {
		return nil, types.NewAppError(types.ErrCodeDataUnparseable,
			"no rows with a usable target value", nil)
	}

	trainX, valX, trainY, valY := StratifiedSplit(x, y, opts.TestFraction, randomState)
	logger.Info("split data", "train", len(trainX), "val", len(valX))

	pre := FitPreprocessor(trainX)
	trainT := pre.Transform(trainX)
	valT := pre.Transform(valX)

	type candidate struct {
		name string
		fit  func() (Pipeline, error)
	}
	candidates := []candidate{
		{ModelHistGB, func() (Pipeline, error) {
			b := FitBoosting(trainT, trainY, randomState)
			return Pipeline{Preprocessor: pre, ModelType: ModelHistGB, Boosting: b}, nil
		}},
		{ModelRandomForest, func() (Pipeline, error) {
			f, err := FitForest(ctx, trainT, trainY, randomState)
			if err != nil {
				return Pipeline{}, err
			}
			return Pipeline{Preprocessor: pre, ModelType: ModelRandomForest, Forest: f}, nil
		}},
	}

	validation := make(map[string]Scores, len(candidates))
	var bestPipeline *Pipeline
	var bestName string
	bestAUC := math.Inf(-1)

	for _, c := range candidates {
		pipeline, err := c.fit()
		if err != nil {
			return nil, err
		}

		probs := make([]float64, len(valT))
		for i, row := range valT {
			probs[i] = predictTransformed(&pipeline, row)
		}
		scores := Scores{AUC: AUC(probs, valY), Accuracy: Accuracy(probs, valY)}
		validation[c.name] = scores
		logger.Info("candidate evaluated", "model", c.name, "auc", scores.AUC, "accuracy", scores.Accuracy)

		if scores.AUC > bestAUC {
			bestAUC = scores.AUC
			bestPipeline = &pipeline
			bestName = c.name
		}
	}
	logger.Info("selected model", "model", bestName, "auc", bestAUC)

	bundle := &Bundle{
		Pipeline:       *bestPipeline,
		FeatureColumns: featureColumns,
		Meta: Meta{
			TrainedAt:     time.Now().UTC().Format(time.RFC3339),
			DataFile:      opts.DataPath,
			RowCount:      len(x),
			SelectedModel: bestName,
			Validation:    validation,
			TargetMapping: mapping,
		},
	}
	if err := bundle.Save(opts.OutPath); err != nil {
		return nil, err
	}
	logger.Info("saved model bundle", "path", opts.OutPath)

	return &Result{
		SelectedModel:  bestName,
		BestAUC:        bestAUC,
		Validation:     validation,
		FeatureColumns: featureColumns,
		RowCount:       len(x),
		TrainRows:      len(trainX),
		ValRows:        len(valX),
	}, nil
}

// assembleMatrix builds the raw feature matrix for rows with a valid target.
// Missing feature cells stay NaN for the imputer.
func assembleMatrix(t *Table, featureColumns []string, labels []int, valid []bool) ([][]float64, []int) {
	columns := make([][]float64, len(featureColumns))
	for j, name := range featureColumns {
		columns[j], _ = t.numericColumn(name)
	}

	var x [][]float64
	var y []int
	for i := range t.Rows {
		if !valid[i] {
			continue
		}
		row := make([]float64, len(featureColumns))
		for j := range featureColumns {
			row[j] = columns[j][i]
		}
		x = append(x, row)
		y = append(y, labels[i])
	}
	return x, y
}

// predictTransformed scores an already-preprocessed row, bypassing the
// pipeline's own transform.
func predictTransformed(p *Pipeline, row []float64) float64 {
	switch p.ModelType {
	case ModelRandomForest:
		return p.Forest.PredictProba(row)
	case ModelHistGB:
		return p.Boosting.PredictProba(row)
	}
	return 0.5
}
