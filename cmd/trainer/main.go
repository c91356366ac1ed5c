// Package main is the offline trainer CLI. It reads a labelled weather CSV,
// trains the candidate classifiers, selects the better one by validation
// AUC, and writes a gzip JSON model bundle.
//
// Usage:
//
//	trainer --data weather_forecast_data.csv [--out rainfall_model.pkl] [--test-size 0.2]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"damwatch/internal/training"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataPath := flag.String("data", "", "path to the training CSV (required)")
	outPath := flag.String("out", "rainfall_model.pkl", "output bundle path")
	testSize := flag.Float64("test-size", 0.2, "validation split fraction")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		return fmt.Errorf("--data is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	result, err := training.Train(context.Background(), training.Options{
		DataPath:     *dataPath,
		OutPath:      *outPath,
		TestFraction: *testSize,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Printf("selected model: %s (validation AUC=%.4f)\n", result.SelectedModel, result.BestAUC)
	for name, scores := range result.Validation {
		fmt.Printf("%s -> AUC: %.4f, Accuracy: %.4f\n", name, scores.AUC, scores.Accuracy)
	}
	fmt.Printf("saved model bundle to: %s\n", *outPath)
	return nil
}
