package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"damwatch/internal/types"
)

// PredictionRepository writes rainfall predictions and reads the per-stream
// alert logs. The latest prediction lives in a slot so the dashboard can read
// it without scanning the log; the alert append happens after the slot write
// so a crash between the two never leaves the slot stale behind the log.
type PredictionRepository struct {
	db DBTX
}

// NewPredictionRepository creates a PredictionRepository backed by the given
// database connection (pool or transaction).
func NewPredictionRepository(db DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// SetLatest overwrites the latest-prediction slot.
func (r *PredictionRepository) SetLatest(ctx context.Context, record map[string]any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "encoding prediction record", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO kv_slots (slot, payload) VALUES ($1, $2)
		 ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload`,
		SlotRainfallLatest, payload,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "writing prediction slot", err)
	}
	return nil
}

// AppendAlert appends a record to a stream's alert log. The key is the
// current UTC time in RFC3339Nano plus a uuid suffix, so concurrent appends
// within the same nanosecond cannot collide and lexical key order stays
// chronological.
func (r *PredictionRepository) AppendAlert(ctx context.Context, stream string, record map[string]any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "encoding alert record", err)
	}

	key := time.Now().UTC().Format(time.RFC3339Nano) + "-" + uuid.NewString()
	_, err = r.db.Exec(ctx,
		`INSERT INTO alerts (stream, key, payload) VALUES ($1, $2, $3)`,
		stream, key, payload,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "appending alert to "+stream, err)
	}
	return nil
}

// AlertLog returns up to limit records from a stream's alert log, most recent
// first. An empty stream yields an empty slice, never an error.
func (r *PredictionRepository) AlertLog(ctx context.Context, stream string, limit int) ([]map[string]any, error) {
	rows, err := r.db.Query(ctx,
		`SELECT payload FROM alerts WHERE stream = $1 ORDER BY key DESC LIMIT $2`,
		stream, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "querying alerts for "+stream, err)
	}
	defer rows.Close()

	records := make([]map[string]any, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalStore, "scanning alert row", err)
		}
		var record map[string]any
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalStore, "decoding alert payload", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "iterating alerts", err)
	}

	return records, nil
}
