package models

import (
	"fmt"
	"math"
)

// Observation represents one raw timestamped GPS reading from a device.
type Observation struct {
	Timestamp int64   `json:"timestamp"` // Unix timestamp in milliseconds
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the observation carries a usable timestamp and
// coordinates. Invalid observations are rejected individually; the rest of
// the batch continues.
func (o Observation) Validate() error {
	if o.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp %d", ErrInvalidInput, o.Timestamp)
	}
	if math.IsNaN(o.Latitude) || math.IsNaN(o.Longitude) ||
		math.IsInf(o.Latitude, 0) || math.IsInf(o.Longitude, 0) {
		return fmt.Errorf("%w: non-finite coordinates", ErrInvalidInput)
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidInput, o.Latitude)
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidInput, o.Longitude)
	}
	return nil
}
