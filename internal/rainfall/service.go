package rainfall

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"damwatch/internal/db"
	"damwatch/internal/types"
)

// ReadingSource supplies the most recent sensor reading.
type ReadingSource interface {
	Latest(ctx context.Context) (*types.SensorReading, error)
}

// SnapshotSource supplies the current weather snapshot. Implementations
// degrade internally; this call never fails.
type SnapshotSource interface {
	Snapshot(ctx context.Context) *types.WeatherSnapshot
}

// PredictionSink persists predictions.
type PredictionSink interface {
	SetLatest(ctx context.Context, record map[string]any) error
	AppendAlert(ctx context.Context, stream string, record map[string]any) error
}

// PredictionRecorder counts emitted predictions.
type PredictionRecorder interface {
	RecordPrediction(label string)
}

// Service produces rainfall predictions on demand and persists each one.
type Service struct {
	readings ReadingSource
	weather  SnapshotSource
	sink     PredictionSink
	metrics  PredictionRecorder
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewService wires a prediction service. metrics may be nil; clock defaults
// to the real clock when nil.
func NewService(
	readings ReadingSource,
	weather SnapshotSource,
	sink PredictionSink,
	metrics PredictionRecorder,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		readings: readings,
		weather:  weather,
		sink:     sink,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// Predict computes a fresh rainfall prediction, persists it, and returns it.
//
// The latest sensor reading contributes its humidity as the preferred blend
// input and its timestamp as the prediction's display timestamp; a missing or
// unreadable reading degrades both to absent. The latest-prediction slot is
// written before the alert log so a reader of the slot never sees a
// prediction the log does not yet have a superset of.
func (s *Service) Predict(ctx context.Context) (types.RainfallPrediction, error) {
	var sensorHumidity *float64
	var readingTimestamp any

	reading, err := s.readings.Latest(ctx)
	if err != nil {
		return types.RainfallPrediction{}, err
	}
	if reading != nil {
		sensorHumidity = reading.Humidity
		readingTimestamp = reading.Timestamp
	}

	snap := s.weather.Snapshot(ctx)
	percent, label := Estimate(snap, sensorHumidity)

	prediction := types.RainfallPrediction{
		Percent:   percent,
		Label:     label,
		Timestamp: types.FormatTimestamp(readingTimestamp),
	}

	record := map[string]any{
		"percent":   percent,
		"rainLabel": label,
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.sink.SetLatest(ctx, record); err != nil {
		return types.RainfallPrediction{}, err
	}
	if err := s.sink.AppendAlert(ctx, db.StreamRainfall, record); err != nil {
		return types.RainfallPrediction{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordPrediction(label)
	}
	s.logger.Debug("rainfall prediction emitted", "percent", percent, "label", label)

	return prediction, nil
}
