package rainfall

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"damwatch/internal/db"
	"damwatch/internal/types"
)

type stubReadings struct {
	reading *types.SensorReading
	err     error
}

func (s *stubReadings) Latest(ctx context.Context) (*types.SensorReading, error) {
	return s.reading, s.err
}

type stubSnapshots struct {
	snap *types.WeatherSnapshot
}

func (s *stubSnapshots) Snapshot(ctx context.Context) *types.WeatherSnapshot {
	return s.snap
}

type recordingSink struct {
	ops       []string
	latest    map[string]any
	alerts    map[string][]map[string]any
	latestErr error
	alertErr  error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{alerts: make(map[string][]map[string]any)}
}

func (s *recordingSink) SetLatest(ctx context.Context, record map[string]any) error {
	if s.latestErr != nil {
		return s.latestErr
	}
	s.ops = append(s.ops, "slot")
	s.latest = record
	return nil
}

func (s *recordingSink) AppendAlert(ctx context.Context, stream string, record map[string]any) error {
	if s.alertErr != nil {
		return s.alertErr
	}
	s.ops = append(s.ops, "alert")
	s.alerts[stream] = append(s.alerts[stream], record)
	return nil
}

type stubPredictionRecorder struct {
	labels []string
}

func (s *stubPredictionRecorder) RecordPrediction(label string) {
	s.labels = append(s.labels, label)
}

func fixedClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2026, 3, 4, 8, 45, 0, 0, time.UTC))
}

func TestService_Predict_PersistsSlotBeforeAlert(t *testing.T) {
	hum := 90.0
	sink := newRecordingSink()
	rec := &stubPredictionRecorder{}
	svc := NewService(
		&stubReadings{reading: &types.SensorReading{Humidity: &hum, Timestamp: float64(1772613900000)}},
		&stubSnapshots{snap: &types.WeatherSnapshot{Cloud: ptr(80)}},
		sink,
		rec,
		fixedClock(),
		slog.New(slog.DiscardHandler),
	)

	prediction, err := svc.Predict(context.Background())
	require.NoError(t, err)

	// 90*0.6 + 80*0.4 = 86.
	assert.Equal(t, 86.0, prediction.Percent)
	assert.Equal(t, types.LabelYes, prediction.Label)
	assert.Equal(t, "04 Mar 2026, 02:15 PM", prediction.Timestamp)

	assert.Equal(t, []string{"slot", "alert"}, sink.ops)
	assert.Equal(t, 86.0, sink.latest["percent"])
	assert.Equal(t, types.LabelYes, sink.latest["rainLabel"])
	assert.Equal(t, "2026-03-04T08:45:00Z", sink.latest["timestamp"])

	require.Len(t, sink.alerts[db.StreamRainfall], 1)
	assert.Equal(t, sink.latest, sink.alerts[db.StreamRainfall][0])

	assert.Equal(t, []string{types.LabelYes}, rec.labels)
}

func TestService_Predict_NoReadingDegrades(t *testing.T) {
	sink := newRecordingSink()
	svc := NewService(
		&stubReadings{},
		&stubSnapshots{snap: &types.WeatherSnapshot{RainProbability: ptr(12)}},
		sink,
		nil,
		fixedClock(),
		slog.New(slog.DiscardHandler),
	)

	prediction, err := svc.Predict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.0, prediction.Percent)
	assert.Equal(t, types.LabelNo, prediction.Label)
	assert.Equal(t, "", prediction.Timestamp)
}

func TestService_Predict_ReadingSourceError(t *testing.T) {
	svc := NewService(
		&stubReadings{err: errors.New("store down")},
		&stubSnapshots{snap: &types.WeatherSnapshot{}},
		newRecordingSink(),
		nil,
		fixedClock(),
		slog.New(slog.DiscardHandler),
	)

	_, err := svc.Predict(context.Background())
	require.Error(t, err)
}

func TestService_Predict_SlotWriteError(t *testing.T) {
	sink := newRecordingSink()
	sink.latestErr = errors.New("store down")

	svc := NewService(
		&stubReadings{},
		&stubSnapshots{snap: &types.WeatherSnapshot{}},
		sink,
		nil,
		fixedClock(),
		slog.New(slog.DiscardHandler),
	)

	_, err := svc.Predict(context.Background())
	require.Error(t, err)
	assert.Empty(t, sink.alerts[db.StreamRainfall])
}
