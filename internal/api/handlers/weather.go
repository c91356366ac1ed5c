// Package handlers contains the HTTP handler implementations for the damwatch
// API. Handlers depend on narrow locally-defined interfaces so each one can be
// tested against stubs without wiring the full service graph.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"damwatch/internal/core"
	"damwatch/internal/types"
)

// WeatherSource supplies the current weather snapshot, degraded internally on
// upstream failure.
type WeatherSource interface {
	Snapshot(ctx context.Context) *types.WeatherSnapshot
}

// WeatherResponse is the body of GET /api/weather. Nil fields marshal as
// null, which the dashboard renders as "NA".
type WeatherResponse struct {
	LocationName string   `json:"locationName"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	Cloud        *float64 `json:"cloud"`
	RainProb     *float64 `json:"rain_prob"`
	WindSpeed    *float64 `json:"windspeed"`
	Time         string   `json:"time"`
}

// WeatherHandler serves current conditions for the dashboard weather card.
type WeatherHandler struct {
	weather      WeatherSource
	locationName string
}

// NewWeatherHandler creates a WeatherHandler reporting for the given
// location.
func NewWeatherHandler(weather WeatherSource, locationName string) *WeatherHandler {
	return &WeatherHandler{weather: weather, locationName: locationName}
}

// RegisterRoutes mounts weather routes on the provided chi.Router.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/weather", h.Get)
}

// Get handles GET /api/weather. Always 200: upstream failure yields the
// all-null snapshot.
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.weather.Snapshot(r.Context())

	var observedAt string
	if snap.Time != nil {
		observedAt = types.FormatTimestamp(*snap.Time)
	}

	core.JSON(w, r, http.StatusOK, WeatherResponse{
		LocationName: h.locationName,
		Temperature:  snap.Temperature,
		Humidity:     snap.Humidity,
		Cloud:        snap.Cloud,
		RainProb:     snap.RainProbability,
		WindSpeed:    snap.WindSpeed,
		Time:         observedAt,
	})
}
