package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"damwatch/internal/core"
	"damwatch/internal/types"
)

// ValveService projects valve state and records operator control.
type ValveService interface {
	View(ctx context.Context) types.ValveView
	ApplyControl(ctx context.Context, mode, manualCommand string) (types.ValveControl, error)
}

// ValveControlRequest is the request body for POST /api/valve/control. Both
// fields are optional; absent values take the AUTO/NONE defaults.
type ValveControlRequest struct {
	Mode    string `json:"mode" validate:"omitempty,oneof=AUTO MANUAL"`
	Command string `json:"command" validate:"omitempty,oneof=OPEN CLOSE NONE"`
}

// ValveHandler serves valve state and accepts operator control requests.
type ValveHandler struct {
	service   ValveService
	validator *core.Validator
}

// NewValveHandler creates a ValveHandler.
func NewValveHandler(service ValveService, v *core.Validator) *ValveHandler {
	return &ValveHandler{service: service, validator: v}
}

// RegisterRoutes mounts valve routes on the provided chi.Router.
func (h *ValveHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/valve", h.Get)
	r.Post("/api/valve/control", h.Control)
}

// Get handles GET /api/valve. Always 200; store failures project the safe
// default view inside the service.
func (h *ValveHandler) Get(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, h.service.View(r.Context()))
}

// Control handles POST /api/valve/control.
func (h *ValveHandler) Control(w http.ResponseWriter, r *http.Request) {
	var req ValveControlRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	if _, err := h.service.ApplyControl(r.Context(), req.Mode, req.Command); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, map[string]any{"success": true})
}
