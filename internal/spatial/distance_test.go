package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name        string
		lat1, lon1  float64
		lat2, lon2  float64
		wantMeters  float64
		deltaMeters float64
	}{
		{
			name: "same point",
			lat1: 42.0, lon1: -71.0,
			lat2: 42.0, lon2: -71.0,
			wantMeters: 0, deltaMeters: 0.001,
		},
		{
			name: "boston to new york",
			lat1: 42.3601, lon1: -71.0589,
			lat2: 40.7128, lon2: -74.0060,
			wantMeters: 306_000, deltaMeters: 4_000,
		},
		{
			name: "across the equator",
			lat1: 1.0, lon1: 0.0,
			lat2: -1.0, lon2: 0.0,
			wantMeters: 222_400, deltaMeters: 2_500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantMeters, got, tt.deltaMeters)
		})
	}
}

func TestMilesBetween(t *testing.T) {
	// Roughly 0.0725 miles of latitude separation.
	d := MilesBetween(42.0, -71.0, 42.00105, -71.0)
	assert.Greater(t, d, 0.05)
	assert.Less(t, d, 0.1)
}

func TestDistanceUnits(t *testing.T) {
	miles, err := Distance(42.3601, -71.0589, 40.7128, -74.0060, Miles)
	require.NoError(t, err)

	km, err := Distance(42.3601, -71.0589, 40.7128, -74.0060, Kilometers)
	require.NoError(t, err)

	assert.InDelta(t, miles*MetersPerMile/1000.0, km, 0.001)
}

func TestDistanceRejectsBadInput(t *testing.T) {
	_, err := Distance(math.NaN(), 0, 0, 0, Miles)
	assert.Error(t, err)

	_, err = Distance(0, math.Inf(1), 0, 0, Kilometers)
	assert.Error(t, err)

	_, err = Distance(0, 0, 0, 0, Unit("furlongs"))
	assert.Error(t, err)
}
