package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"damwatch/internal/core"
	"damwatch/internal/types"
)

// Predictor produces and persists one rainfall prediction.
type Predictor interface {
	Predict(ctx context.Context) (types.RainfallPrediction, error)
}

// RainfallHandler serves on-demand rainfall predictions.
type RainfallHandler struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewRainfallHandler creates a RainfallHandler.
func NewRainfallHandler(predictor Predictor, logger *slog.Logger) *RainfallHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RainfallHandler{predictor: predictor, logger: logger}
}

// RegisterRoutes mounts rainfall routes on the provided chi.Router.
func (h *RainfallHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/rainfall", h.Get)
}

// Get handles GET /api/rainfall. Any failure on the prediction path maps to
// the fail-safe payload rather than an error status: the dashboard treats
// this endpoint as always-available and an honest "no rain known" beats a
// broken card.
func (h *RainfallHandler) Get(w http.ResponseWriter, r *http.Request) {
	prediction, err := h.predictor.Predict(r.Context())
	if err != nil {
		h.logger.Error("rainfall prediction failed, serving fail-safe payload", "error", err)
		prediction = types.RainfallPrediction{Percent: 0, Label: types.LabelNo, Timestamp: ""}
	}
	core.JSON(w, r, http.StatusOK, prediction)
}
