package external

import (
	"context"
	"log/slog"

	"damwatch/internal/types"
)

// WeatherFetcher is the narrow fetch surface the provider wraps.
type WeatherFetcher interface {
	Fetch(ctx context.Context) (*types.WeatherSnapshot, error)
}

// FetchRecorder counts fetch outcomes.
type FetchRecorder interface {
	RecordWeatherFetch(outcome string)
}

// SnapshotProvider degrades weather failures into an all-nil snapshot. The
// estimator's fallback chain knows what to do with nil fields, so an upstream
// outage must never surface as an error to prediction callers.
type SnapshotProvider struct {
	fetcher WeatherFetcher
	logger  *slog.Logger
	metrics FetchRecorder
}

// NewSnapshotProvider creates a SnapshotProvider over the given fetcher.
// metrics may be nil.
func NewSnapshotProvider(fetcher WeatherFetcher, logger *slog.Logger, metrics FetchRecorder) *SnapshotProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotProvider{fetcher: fetcher, logger: logger, metrics: metrics}
}

// Snapshot returns the current weather snapshot, or an empty one when the
// upstream is unavailable. Never returns an error.
func (p *SnapshotProvider) Snapshot(ctx context.Context) *types.WeatherSnapshot {
	snap, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Warn("weather fetch failed, serving degraded snapshot", "error", err)
		p.record("degraded")
		return &types.WeatherSnapshot{}
	}
	p.record("success")
	return snap
}

func (p *SnapshotProvider) record(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordWeatherFetch(outcome)
	}
}
