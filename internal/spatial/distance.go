package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/prodplaces/prodplaces-backend-go/internal/models"
)

// Unit selects the distance unit for Distance.
type Unit string

const (
	Miles      Unit = "miles"
	Kilometers Unit = "km"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	MetersPerMile     = 1609.344
)

// HaversineDistance calculates the great-circle distance between two points
// in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// MilesBetween is HaversineDistance in statute miles. Callers are expected
// to have validated the coordinates already.
func MilesBetween(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineDistance(lat1, lon1, lat2, lon2) / MetersPerMile
}

// Distance returns the great-circle distance between two coordinate pairs in
// the requested unit. Non-finite coordinates and unknown units are rejected
// with models.ErrInvalidInput.
func Distance(lat1, lon1, lat2, lon2 float64, unit Unit) (float64, error) {
	for _, v := range [...]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: non-finite coordinate", models.ErrInvalidInput)
		}
	}

	meters := HaversineDistance(lat1, lon1, lat2, lon2)

	switch unit {
	case Miles:
		return meters / MetersPerMile, nil
	case Kilometers:
		return meters / 1000.0, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", models.ErrInvalidInput, unit)
	}
}
