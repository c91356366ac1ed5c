package db

import (
	"context"
	"encoding/json"
	"log/slog"

	"damwatch/internal/types"
)

// ReadingRepository reads the sensor append log. The log is written by the
// firmware ingestion process; this repository is read-only.
//
// Malformed rows are a recoverable store condition: they are skipped with a
// warning rather than failing the read, so one corrupt firmware write can
// never take down the readings endpoint.
type ReadingRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewReadingRepository creates a ReadingRepository backed by the given
// database connection (pool or transaction).
func NewReadingRepository(db DBTX, logger *slog.Logger) *ReadingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingRepository{db: db, logger: logger}
}

// Latest returns the most recent sensor reading, or (nil, nil) when the log
// is empty or the newest rows are all malformed.
func (r *ReadingRepository) Latest(ctx context.Context) (*types.SensorReading, error) {
	readings, err := r.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}

// Recent returns up to limit readings, most recent first. An empty log yields
// an empty slice, never an error.
func (r *ReadingRepository) Recent(ctx context.Context, limit int) ([]types.SensorReading, error) {
	rows, err := r.db.Query(ctx,
		`SELECT key, payload FROM readings ORDER BY key DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "querying readings", err)
	}
	defer rows.Close()

	readings := make([]types.SensorReading, 0, limit)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalStore, "scanning reading row", err)
		}

		var raw any
		if err := json.Unmarshal(payload, &raw); err != nil {
			r.logger.Warn("skipping malformed reading payload", "key", key, "error", err)
			continue
		}
		reading, ok := types.ParseSensorReading(raw)
		if !ok {
			r.logger.Warn("skipping non-object reading payload", "key", key)
			continue
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "iterating readings", err)
	}

	return readings, nil
}
