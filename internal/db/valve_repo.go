package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"damwatch/internal/types"
)

// ValveRepository reads the valve status and control slots and writes
// operator control intent. Status is firmware-owned and read-only here.
type ValveRepository struct {
	db DBTX
}

// NewValveRepository creates a ValveRepository backed by the given database
// connection (pool or transaction).
func NewValveRepository(db DBTX) *ValveRepository {
	return &ValveRepository{db: db}
}

// valveStatusPayload is the wire shape of the status/valve slot.
type valveStatusPayload struct {
	State            string `json:"state"`
	Reason           string `json:"reason"`
	LastChangeReason string `json:"lastChangeReason"`
	Timestamp        any    `json:"timestamp"`
}

// valveControlPayload is the wire shape of the control/valve slot.
type valveControlPayload struct {
	Mode          string `json:"mode"`
	ManualCommand string `json:"manualCommand"`
	UpdatedAt     string `json:"updatedAt"`
}

// Status returns the firmware-reported valve status, or (nil, nil) when the
// slot has never been written.
func (r *ValveRepository) Status(ctx context.Context) (*types.ValveStatus, error) {
	payload, err := r.slot(ctx, SlotValveStatus)
	if err != nil || payload == nil {
		return nil, err
	}

	var p valveStatusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "decoding valve status", err)
	}
	return &types.ValveStatus{
		State:            p.State,
		Reason:           p.Reason,
		LastChangeReason: p.LastChangeReason,
		Timestamp:        p.Timestamp,
	}, nil
}

// Control returns the operator control intent, or (nil, nil) when the slot
// has never been written.
func (r *ValveRepository) Control(ctx context.Context) (*types.ValveControl, error) {
	payload, err := r.slot(ctx, SlotValveControl)
	if err != nil || payload == nil {
		return nil, err
	}

	var p valveControlPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "decoding valve control", err)
	}
	return &types.ValveControl{
		Mode:          p.Mode,
		ManualCommand: p.ManualCommand,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

// UpdateControl overwrites the control slot with the given intent.
func (r *ValveRepository) UpdateControl(ctx context.Context, control types.ValveControl) error {
	payload, err := json.Marshal(valveControlPayload{
		Mode:          control.Mode,
		ManualCommand: control.ManualCommand,
		UpdatedAt:     control.UpdatedAt,
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "encoding valve control", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO kv_slots (slot, payload) VALUES ($1, $2)
		 ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload`,
		SlotValveControl, payload,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "writing valve control", err)
	}
	return nil
}

// slot reads one kv slot payload; (nil, nil) when absent.
func (r *ValveRepository) slot(ctx context.Context, slot string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM kv_slots WHERE slot = $1`, slot,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "reading slot "+slot, err)
	}
	return payload, nil
}
