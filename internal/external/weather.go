// Package external holds the clients for third-party APIs. Outbound calls go
// through a circuit breaker so a flapping upstream cannot hold every request
// for the full timeout; error mapping to types.AppError happens here so the
// rest of the codebase never sees raw transport errors.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"damwatch/internal/config"
	"damwatch/internal/types"
)

// openMeteoResponse mirrors the subset of the Open-Meteo forecast response the
// estimator consumes.
type openMeteoResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WindSpeed   *float64 `json:"windspeed"`
		Time        *string  `json:"time"`
	} `json:"current_weather"`
	Hourly *struct {
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		CloudCover               []float64 `json:"cloudcover"`
		RelativeHumidity         []float64 `json:"relativehumidity_2m"`
	} `json:"hourly"`
}

// WeatherClient fetches current conditions from the Open-Meteo forecast API.
// There are no retries: weather is advisory input to the estimator and a
// stale-or-missing snapshot is handled by the fallback chain, so failing fast
// beats holding a request slot.
type WeatherClient struct {
	baseURL   string
	latitude  float64
	longitude float64
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
}

// NewWeatherClient creates a WeatherClient from the weather configuration.
func NewWeatherClient(cfg config.WeatherConfig) *WeatherClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &WeatherClient{
		baseURL:   cfg.BaseURL,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker:   cb,
	}
}

// Fetch returns one snapshot of current conditions. Fields the upstream omits
// (or reports as empty series) come back nil.
func (c *WeatherClient) Fetch(ctx context.Context) (*types.WeatherSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "building weather request", err)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			r.Body.Close()
			return nil, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, types.NewAppError(types.ErrCodeUpstreamRateLimited, "weather circuit breaker is open", err)
		}
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "fetching weather", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather upstream returned %d", resp.StatusCode), nil)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "decoding weather response", err)
	}

	return snapshotFrom(body), nil
}

// requestURL builds the forecast query. The hourly series are requested so the
// estimator gets precipitation probability, cloud cover, and humidity for the
// current hour alongside current_weather.
func (c *WeatherClient) requestURL() string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(c.longitude, 'f', 4, 64))
	q.Set("current_weather", "true")
	q.Set("hourly", "precipitation_probability,cloudcover,relativehumidity_2m")
	q.Set("timezone", "auto")
	return c.baseURL + "?" + q.Encode()
}

// snapshotFrom maps the upstream payload onto the domain snapshot, taking the
// first hourly entry as "now". Empty series yield nil fields.
func snapshotFrom(body openMeteoResponse) *types.WeatherSnapshot {
	snap := &types.WeatherSnapshot{}
	if cw := body.CurrentWeather; cw != nil {
		snap.Temperature = cw.Temperature
		snap.WindSpeed = cw.WindSpeed
		snap.Time = cw.Time
	}
	if h := body.Hourly; h != nil {
		snap.RainProbability = firstOf(h.PrecipitationProbability)
		snap.Cloud = firstOf(h.CloudCover)
		snap.Humidity = firstOf(h.RelativeHumidity)
	}
	return snap
}

func firstOf(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[0]
	return &v
}
