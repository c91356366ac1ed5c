package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"damwatch/internal/core"
	"damwatch/internal/db"
	"damwatch/internal/types"
)

const (
	readingsLimit = 500
	alertLogLimit = 200
)

// ReadingLister supplies recent sensor readings, most recent first.
type ReadingLister interface {
	Recent(ctx context.Context, limit int) ([]types.SensorReading, error)
}

// AlertLogReader supplies recent alert records for a stream, most recent
// first.
type AlertLogReader interface {
	AlertLog(ctx context.Context, stream string, limit int) ([]map[string]any, error)
}

// ReadingsHandler serves the sensor readings list and the per-stream alert
// logs.
type ReadingsHandler struct {
	readings ReadingLister
	alerts   AlertLogReader
}

// NewReadingsHandler creates a ReadingsHandler.
func NewReadingsHandler(readings ReadingLister, alerts AlertLogReader) *ReadingsHandler {
	return &ReadingsHandler{readings: readings, alerts: alerts}
}

// RegisterRoutes mounts readings and log routes on the provided chi.Router.
func (h *ReadingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/readings", h.List)
	r.Get("/api/waterlevel/logs", h.WaterLevelLogs)
	r.Get("/api/vibration/logs", h.VibrationLogs)
}

// List handles GET /api/readings. Each reading is echoed with every field the
// firmware wrote, except the timestamp which is humanized for display.
func (h *ReadingsHandler) List(w http.ResponseWriter, r *http.Request) {
	readings, err := h.readings.Recent(r.Context(), readingsLimit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	items := make([]map[string]any, 0, len(readings))
	for _, reading := range readings {
		item := make(map[string]any, len(reading.Fields))
		for k, v := range reading.Fields {
			item[k] = v
		}
		item["timestamp"] = types.FormatTimestamp(reading.Timestamp)
		items = append(items, item)
	}
	core.JSON(w, r, http.StatusOK, items)
}

// WaterLevelLogs handles GET /api/waterlevel/logs.
func (h *ReadingsHandler) WaterLevelLogs(w http.ResponseWriter, r *http.Request) {
	h.serveLog(w, r, db.StreamWaterLevel)
}

// VibrationLogs handles GET /api/vibration/logs.
func (h *ReadingsHandler) VibrationLogs(w http.ResponseWriter, r *http.Request) {
	h.serveLog(w, r, db.StreamVibration)
}

func (h *ReadingsHandler) serveLog(w http.ResponseWriter, r *http.Request, stream string) {
	records, err := h.alerts.AlertLog(r.Context(), stream, alertLogLimit)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, records)
}
