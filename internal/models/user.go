package models

// WeekdayAggregate is a cached most/least-productive-weekday answer for one
// window. SampleCount lets callers tell "no data" apart from a genuine
// average of zero; the raw zero average is still reported for compatibility.
type WeekdayAggregate struct {
	Weekday         string  `json:"weekday"`
	AvgProductivity float64 `json:"avgProductivity"`
	SampleCount     int     `json:"sampleCount"`
}

// User owns an ordered sequence of frequent locations, the preset
// productivity rules chosen at onboarding, a pool of raw observations
// waiting for the nightly sweep, and six cached weekday aggregates.
// A user's locations are never shared with another user.
type User struct {
	ID                 string `json:"id"`
	HomeLocation       string `json:"homeLocation"`
	LatLngHomeLocation string `json:"latLngHomeLocation"`

	// formattedAddress -> productivity score, applied to newly enriched
	// locations that match.
	PresetProductiveLocations map[string]float64 `json:"presetProductiveLocations"`

	Settings map[string]string `json:"settings"`

	FrequentLocations   []FrequentLocation `json:"frequentLocations"`
	PendingObservations []Observation      `json:"pendingObservations"`

	MostProductiveWeekdayAllTime     WeekdayAggregate `json:"mostProductiveWeekdayAllTime"`
	LeastProductiveWeekdayAllTime    WeekdayAggregate `json:"leastProductiveWeekdayAllTime"`
	MostProductiveWeekdayLast7Days   WeekdayAggregate `json:"mostProductiveWeekdayLast7Days"`
	LeastProductiveWeekdayLast7Days  WeekdayAggregate `json:"leastProductiveWeekdayLast7Days"`
	MostProductiveWeekdayLast30Days  WeekdayAggregate `json:"mostProductiveWeekdayLast30Days"`
	LeastProductiveWeekdayLast30Days WeekdayAggregate `json:"leastProductiveWeekdayLast30Days"`
}

// LocationByID returns a pointer into FrequentLocations for in-place
// mutation, or nil when no location carries the ID.
func (u *User) LocationByID(id string) *FrequentLocation {
	for i := range u.FrequentLocations {
		if u.FrequentLocations[i].ID == id {
			return &u.FrequentLocations[i]
		}
	}
	return nil
}
