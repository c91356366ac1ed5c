// Package types defines the shared domain model for the damwatch platform:
// sensor readings, weather snapshots, rainfall predictions, and valve state,
// along with the application error taxonomy and request-scoped context helpers.
//
// Store payloads are loosely typed at rest (JSON objects written by the
// firmware-side ingestion process). This package owns the boundary conversion
// into typed structs with explicit field-presence checks; raw maps must never
// travel past the reader layer.
package types

import (
	"strconv"
	"time"
)

// Rain label values emitted by the rainfall estimator.
const (
	LabelYes = "YES"
	LabelNo  = "NO"
)

// Valve states as reported by the firmware.
const (
	ValveOpen   = "OPEN"
	ValveClosed = "CLOSED"
)

// Valve control modes.
const (
	ModeAuto   = "AUTO"
	ModeManual = "MANUAL"
)

// Valve reason codes. ReasonSafeLevel is both the default when the firmware
// reports nothing and the display substitute for a boot-time closed valve.
const (
	ReasonSafeLevel = "SAFE_LEVEL"
	ReasonBoot      = "BOOT"
)

// Manual valve commands. CommandNone is the default when an operator submits
// a control request without one.
const (
	CommandOpen  = "OPEN"
	CommandClose = "CLOSE"
	CommandNone  = "NONE"
)

// SensorReading is one row of the readings append log. Only Humidity and
// Timestamp are consumed by the decision core; every other numeric field the
// firmware writes (waterLevel, vibration, ...) is carried opaquely in Fields
// so the readings endpoint can echo it back unchanged.
type SensorReading struct {
	// Timestamp is the raw store value: either epoch milliseconds or an
	// ISO-8601 string, depending on firmware version. Use FormatTimestamp
	// to humanize it at the response edge.
	Timestamp any
	Humidity  *float64
	Fields    map[string]any
}

// ParseSensorReading converts a raw store payload into a typed reading.
// Returns false when the payload is not an object; individual missing or
// non-numeric fields degrade to nil rather than failing the whole row.
func ParseSensorReading(raw any) (SensorReading, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return SensorReading{}, false
	}

	r := SensorReading{
		Timestamp: obj["timestamp"],
		Fields:    make(map[string]any, len(obj)),
	}
	for k, v := range obj {
		r.Fields[k] = v
	}
	if hum, ok := toFloat(obj["humidity"]); ok {
		r.Humidity = &hum
	}
	return r, true
}

// toFloat coerces the JSON-decoded value shapes the firmware produces
// (float64 from numbers, occasionally numeric strings) into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// WeatherSnapshot is one point-in-time read of current conditions plus the
// first entry of the hourly forecast series. Nil fields mean "unknown" and
// must never be treated as zero by consumers.
type WeatherSnapshot struct {
	Temperature     *float64
	Humidity        *float64
	Cloud           *float64
	RainProbability *float64
	WindSpeed       *float64
	Time            *string
}

// RainfallPrediction is the output of one estimation call.
// Invariant: Label == LabelYes iff Percent >= 50.
type RainfallPrediction struct {
	Percent   float64 `json:"percent"`
	Label     string  `json:"rainLabel"`
	Timestamp string  `json:"timestamp"`
}

// ValveStatus is the valve state reported by the firmware. Read-only to the
// core. Reason may be empty on older firmware, which reports
// LastChangeReason instead.
type ValveStatus struct {
	State            string
	Reason           string
	LastChangeReason string
	Timestamp        any
}

// ValveControl is the operator-issued control intent.
type ValveControl struct {
	Mode          string
	ManualCommand string
	UpdatedAt     string
}

// ValveView is the reconciled projection of status and control returned to
// callers. Derived, never persisted.
type ValveView struct {
	State     string `json:"state"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
}

// istOffset is the display offset for humanized timestamps. The deployment
// site reports in Indian Standard Time.
var istOffset = 5*time.Hour + 30*time.Minute

// FormatTimestamp converts a raw store timestamp (epoch milliseconds or an
// ISO-8601 string) into the human display format used across the API,
// e.g. "04 Mar 2026, 02:15 PM" in IST. Unparseable values are returned as
// their string form rather than failing; nil yields "".
func FormatTimestamp(raw any) string {
	if raw == nil {
		return ""
	}

	switch v := raw.(type) {
	case float64:
		dt := time.UnixMilli(int64(v)).UTC().Add(istOffset)
		return dt.Format("02 Jan 2006, 03:04 PM")
	case int64:
		dt := time.UnixMilli(v).UTC().Add(istOffset)
		return dt.Format("02 Jan 2006, 03:04 PM")
	case string:
		// Zoned ISO-8601 from the firmware, or the zoneless minute-resolution
		// form the weather upstream emits.
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC().Add(istOffset).Format("02 Jan 2006, 03:04 PM")
			}
		}
		return v
	default:
		return ""
	}
}
