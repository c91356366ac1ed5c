// Package rainfall implements the rainfall probability estimator and the
// prediction service around it. The estimator is a pure function over a
// weather snapshot and an optional sensor humidity; the service owns the
// surrounding reads, persistence, and alerting.
package rainfall

import (
	"math"

	"damwatch/internal/types"
)

// labelThreshold is the percent at or above which a prediction is labelled
// YES.
const labelThreshold = 50.0

// Estimate computes a rainfall probability from a weather snapshot and an
// optional sensor humidity.
//
// When the upstream reports a precipitation probability it wins outright and
// is returned unmodified. Otherwise the estimate is a weighted blend of
// humidity and cloud cover, where sensor humidity takes precedence over
// upstream humidity and each missing input degrades to a neutral 50; only
// this blended score is clamped and rounded.
func Estimate(snap *types.WeatherSnapshot, sensorHumidity *float64) (percent float64, label string) {
	if snap != nil && snap.RainProbability != nil {
		percent = *snap.RainProbability
	} else {
		humidity := 50.0
		switch {
		case sensorHumidity != nil:
			humidity = *sensorHumidity
		case snap != nil && snap.Humidity != nil:
			humidity = *snap.Humidity
		}

		cloud := 50.0
		if snap != nil && snap.Cloud != nil {
			cloud = *snap.Cloud
		}

		percent = round2(clamp(humidity*0.6+cloud*0.4, 0, 100))
	}

	label = types.LabelNo
	if percent >= labelThreshold {
		label = types.LabelYes
	}
	return percent, label
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
