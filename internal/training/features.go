package training

import (
	"strings"

	"damwatch/internal/types"
)

// preferredSubstrings orders well-known weather feature names first. First
// match wins, so "temperature" beats the shorter "temp" for the same column.
var preferredSubstrings = []string{
	"temperature", "temp", "humidity", "hum",
	"wind_speed", "windspeed", "wind", "cloud", "pressure",
}

// SelectFeatures returns the usable feature columns: every column other than
// the target whose non-missing cells all parse as numbers. Preferred names
// come first in rule order, the remainder in original column order.
func SelectFeatures(t *Table, targetCol string) ([]string, error) {
	var numeric []string
	for _, c := range t.Columns {
		if c == targetCol {
			continue
		}
		if _, ok := t.numericColumn(c); ok {
			numeric = append(numeric, c)
		}
	}

	var ordered []string
	seen := make(map[string]bool)
	for _, p := range preferredSubstrings {
		for _, c := range numeric {
			if !seen[c] && strings.Contains(strings.ToLower(c), p) {
				ordered = append(ordered, c)
				seen[c] = true
			}
		}
	}
	for _, c := range numeric {
		if !seen[c] {
			ordered = append(ordered, c)
			seen[c] = true
		}
	}

	if len(ordered) == 0 {
		return nil, types.NewAppError(types.ErrCodeConfigNoFeatures,
			"no numeric feature columns found in data", nil)
	}
	return ordered, nil
}
