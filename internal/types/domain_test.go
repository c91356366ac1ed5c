package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSensorReading_FullPayload(t *testing.T) {
	raw := map[string]any{
		"timestamp":  float64(1767182400000),
		"humidity":   72.5,
		"waterLevel": 3.1,
		"vibration":  0.02,
	}

	r, ok := ParseSensorReading(raw)
	require.True(t, ok)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 72.5, *r.Humidity)
	assert.Equal(t, float64(1767182400000), r.Timestamp)
	assert.Equal(t, 3.1, r.Fields["waterLevel"])
	assert.Equal(t, 0.02, r.Fields["vibration"])
}

func TestParseSensorReading_StringHumidity(t *testing.T) {
	r, ok := ParseSensorReading(map[string]any{"humidity": "64.2"})
	require.True(t, ok)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 64.2, *r.Humidity)
}

func TestParseSensorReading_MissingHumidity(t *testing.T) {
	r, ok := ParseSensorReading(map[string]any{"timestamp": "2026-03-04T08:45:00Z"})
	require.True(t, ok)
	assert.Nil(t, r.Humidity)
}

func TestParseSensorReading_NotAnObject(t *testing.T) {
	_, ok := ParseSensorReading("garbage")
	assert.False(t, ok)

	_, ok = ParseSensorReading(nil)
	assert.False(t, ok)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{
			name: "epoch milliseconds",
			// 2026-03-04T08:45:00Z -> 14:15 IST
			raw:  float64(1772613900000),
			want: "04 Mar 2026, 02:15 PM",
		},
		{
			name: "iso string",
			raw:  "2026-03-04T08:45:00Z",
			want: "04 Mar 2026, 02:15 PM",
		},
		{
			name: "unparseable string passes through",
			raw:  "yesterday",
			want: "yesterday",
		},
		{
			name: "nil yields empty",
			raw:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.raw))
		})
	}
}
