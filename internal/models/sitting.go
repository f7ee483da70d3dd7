package models

// Sitting represents a detected dwell period at one location, derived from
// a run of observations. The coordinate is the first observation's position
// in the dwell (the anchor), not a centroid.
type Sitting struct {
	StartTime int64   `json:"startTime"` // Unix timestamp in milliseconds
	EndTime   int64   `json:"endTime"`   // Unix timestamp in milliseconds
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Duration returns the dwell length in milliseconds.
func (s Sitting) Duration() int64 {
	return s.EndTime - s.StartTime
}
